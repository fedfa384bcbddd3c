package identity

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProfessionalProfiles is the repository over the "professional_profiles"
// collection. At most one active profile exists per account; the write path
// owns that invariant, lookups here just take the first match.
type ProfessionalProfiles interface {
	GetByID(ctx context.Context, id string) (*ProfessionalProfile, error)
	GetByAccountID(ctx context.Context, accountID string) (*ProfessionalProfile, error)
	GetByEmail(ctx context.Context, email string) (*ProfessionalProfile, error)

	Create(ctx context.Context, record *ProfessionalProfile, criteria ...repository.InsertCriteria) (*ProfessionalProfile, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *ProfessionalProfile, criteria ...repository.InsertCriteria) (*ProfessionalProfile, error)
}

type professionalProfiles struct {
	repository.Repository[*ProfessionalProfile]
	db *bun.DB
}

var (
	_ ProfessionalProfiles = (*professionalProfiles)(nil)
	_ ProfileReader        = (*professionalProfiles)(nil)

	_ ProfileReader = (ProfessionalProfiles)(nil)
)

func NewProfessionalProfilesRepository(db *bun.DB) ProfessionalProfiles {
	repo := repository.NewRepository[*ProfessionalProfile](db, repository.ModelHandlers[*ProfessionalProfile]{
		NewRecord: func() *ProfessionalProfile { return &ProfessionalProfile{} },
		GetID: func(p *ProfessionalProfile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *ProfessionalProfile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &professionalProfiles{
		Repository: repo,
		db:         db,
	}
}

func (r *professionalProfiles) GetByID(ctx context.Context, id string) (*ProfessionalProfile, error) {
	return r.Repository.GetByID(ctx, id)
}

func (r *professionalProfiles) GetByAccountID(ctx context.Context, accountID string) (*ProfessionalProfile, error) {
	return r.getByColumn(ctx, "account_id", accountID)
}

func (r *professionalProfiles) GetByEmail(ctx context.Context, email string) (*ProfessionalProfile, error) {
	return r.getByColumn(ctx, "email", NormalizeEmail(email))
}

func (r *professionalProfiles) getByColumn(ctx context.Context, column, value string) (*ProfessionalProfile, error) {
	record := &ProfessionalProfile{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					column: value,
				})
		}
		return nil, err
	}

	return record, nil
}

func (r *professionalProfiles) Create(ctx context.Context, record *ProfessionalProfile, criteria ...repository.InsertCriteria) (*ProfessionalProfile, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *professionalProfiles) CreateTx(ctx context.Context, tx bun.IDB, record *ProfessionalProfile, criteria ...repository.InsertCriteria) (*ProfessionalProfile, error) {
	if record != nil {
		record.Email = NormalizeEmail(record.Email)
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
	}
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}
