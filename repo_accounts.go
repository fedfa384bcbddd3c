package identity

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts is the repository over the "accounts" collection. The method set
// is declared explicitly so the narrowed GetByID stays compatible with the
// reader interfaces the resolver and transport consume.
type Accounts interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)

	TrackAttemptedLogin(ctx context.Context, account *Account) error
	TrackSuccessfulLogin(ctx context.Context, account *Account) error

	MarkEmailVerified(ctx context.Context, id uuid.UUID) error

	Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts          = (*accounts)(nil)
	_ AccountReader     = (*accounts)(nil)
	_ AccountLoginStore = (*accounts)(nil)

	_ AccountReader     = (Accounts)(nil)
	_ AccountLoginStore = (Accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) GetByID(ctx context.Context, id string) (*Account, error) {
	return a.Repository.GetByID(ctx, id)
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	normalized := NormalizeEmail(email)

	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", normalized).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": normalized,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *accounts) TrackAttemptedLogin(ctx context.Context, account *Account) error {
	criteria := []repository.UpdateCriteria{
		repository.UpdateByID(account.ID.String()),
		// only the attempt columns may be written, a full-record update
		// would zero out email, password hash and role on the stored row
		repository.UpdateSkipZeroValues(),
	}

	record := &Account{}
	record.ID = account.ID
	record.LoginAttempts = account.LoginAttempts + 1
	now := time.Now()
	record.LoginAttemptAt = &now

	_, err := a.Repository.Update(ctx, record, criteria...)

	return err
}

func (a *accounts) TrackSuccessfulLogin(ctx context.Context, account *Account) error {
	// NOTE: a skip-zero-values update cannot write the zeros and NULLs this
	// reset needs, so it goes through raw SQL instead.
	loggedInAt := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "accounts" AS "acc"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("acc".id = ?)
			AND "acc"."deleted_at" IS NULL;
	`, loggedInAt, account.ID).Exec(ctx)

	return err
}

// MarkEmailVerified flips the verification flag and clears token metadata.
// Invoked by the external verification-email flow, not by the resolver.
func (a *accounts) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewRaw(`
		UPDATE "accounts" AS "acc"
		SET
			"is_email_verified" = TRUE,
			"verification_token" = ''
		WHERE
			("acc".id = ?)
			AND "acc"."deleted_at" IS NULL;
	`, id).Exec(ctx)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleBuyer
	}

	record.Email = NormalizeEmail(record.Email)
	record.IsActive = true

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
