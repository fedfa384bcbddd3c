package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// RegisterAccountMessage is the validated registration payload.
type RegisterAccountMessage struct {
	DisplayName     string `json:"display_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	Role            string `json:"role"`
	Avatar          string `json:"avatar"`
	Bio             string `json:"bio"`
	City            string `json:"city"`
	Region          string `json:"region"`
	Agency          string `json:"agency"`
	ExperienceYears int    `json:"experience_years"`
	Specialty       string `json:"specialty"`
	UseHashid       bool   `json:"-"`

	OnCreated func(result *RegistrationResult) `json:"-"`
}

func (e RegisterAccountMessage) Type() string { return "identity.register" }

// Validate will run validation rules
func (e RegisterAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.DisplayName, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(&e.Avatar, is.URL),
	)
}

// RegistrationResult is the freshly created identity echoed back to the
// facade for its optimistic AuthState.
type RegistrationResult struct {
	Account *Account
	Profile *ProfessionalProfile
}

// RegisterAccountHandler is the default registration writer. It creates the
// Account and, for professional registrations carrying agency data, the
// linked ProfessionalProfile in the same transaction.
type RegisterAccountHandler struct {
	repo RepositoryManager
}

var _ RegistrationWriter = (*RegisterAccountHandler)(nil)

func NewRegisterAccountHandler(repo RepositoryManager) *RegisterAccountHandler {
	return &RegisterAccountHandler{repo: repo}
}

// Execute adapts the handler to command-bus style dispatch. The created
// records are reported through the message's OnCreated callback.
func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		result, err := h.CreateIdentity(ctx, event)
		if err != nil {
			return err
		}

		if event.OnCreated != nil {
			event.OnCreated(result)
		}

		return nil
	}
}

// CreateIdentity implements RegistrationWriter.
func (h *RegisterAccountHandler) CreateIdentity(ctx context.Context, event RegisterAccountMessage) (*RegistrationResult, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	role, _ := ParseRole(event.Role)

	phone, err := NormalizePhone(event.Phone, DefaultPhoneRegion)
	if err != nil {
		return nil, err
	}

	result := &RegistrationResult{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		account := &Account{
			Email:        NormalizeEmail(event.Email),
			DisplayName:  event.DisplayName,
			Role:         role,
			Phone:        phone,
			PasswordHash: hash,
			Avatar:       event.Avatar,
			Bio:          event.Bio,
			City:         event.City,
			Region:       event.Region,
		}

		if event.UseHashid {
			if id, err := hashid.NewUUID(account.Email); err == nil {
				account.ID = id
			}
		}

		if account, err = h.repo.Accounts().CreateTx(ctx, tx, account); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		result.Account = account

		if role != RoleProfessional || (event.Agency == "" && event.Specialty == "") {
			return nil
		}

		accountID := account.ID
		profile := &ProfessionalProfile{
			AccountID:       &accountID,
			Email:           account.Email,
			DisplayName:     account.DisplayName,
			Avatar:          account.Avatar,
			Agency:          event.Agency,
			ExperienceYears: event.ExperienceYears,
			Specialty:       event.Specialty,
		}

		if profile, err = h.repo.ProfessionalProfiles().CreateTx(ctx, tx, profile); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create professional profile")
		}

		result.Profile = profile

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	return result, nil
}
