package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the account's role
type UserRole = string

const (
	// RoleBuyer browses and contacts listings
	RoleBuyer UserRole = "buyer"
	// RoleSeller publishes listings
	RoleSeller UserRole = "seller"
	// RoleProfessional is a licensed agent with a linked professional profile
	RoleProfessional UserRole = "professional"
	// RoleAdmin administers the marketplace
	RoleAdmin UserRole = "admin"
)

// Account is the canonical identity record for any user, regardless of role.
type Account struct {
	bun.BaseModel      `bun:"table:accounts,alias:acc"`
	ID                 uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email              string     `bun:"email,notnull,unique" json:"email,omitempty"`
	DisplayName        string     `bun:"display_name,notnull" json:"display_name,omitempty"`
	Role               UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	EmailVerified      bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	IsActive           bool       `bun:"is_active" json:"is_active,omitempty"`
	Avatar             string     `bun:"avatar" json:"avatar,omitempty"`
	Bio                string     `bun:"bio" json:"bio,omitempty"`
	City               string     `bun:"city" json:"city,omitempty"`
	Region             string     `bun:"region" json:"region,omitempty"`
	Phone              string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash       string     `bun:"password_hash" json:"-"`
	LoginAttempts      int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt     *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt         *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	VerificationToken  string     `bun:"verification_token" json:"-"`
	VerificationSentAt *time.Time `bun:"verification_sent_at" json:"verification_sent_at,omitempty"`
	CreatedAt          *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt          *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt          *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// ProfessionalProfile is the secondary record holding agent-specific data.
// AccountID is nullable: a profile may be looked up directly by its own
// primary key when the professional logged in with the profile id.
type ProfessionalProfile struct {
	bun.BaseModel   `bun:"table:professional_profiles,alias:pro"`
	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID       *uuid.UUID `bun:"account_id,nullzero,type:uuid" json:"account_id,omitempty"`
	Email           string     `bun:"email,notnull" json:"email,omitempty"`
	DisplayName     string     `bun:"display_name" json:"display_name,omitempty"`
	Avatar          string     `bun:"avatar" json:"avatar,omitempty"`
	Agency          string     `bun:"agency" json:"agency,omitempty"`
	ExperienceYears int        `bun:"experience_years" json:"experience_years,omitempty"`
	Specialty       string     `bun:"specialty" json:"specialty,omitempty"`
	EmailVerified   bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	CreatedAt       *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt       *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Principal is the merged, in-memory identity returned to callers. It is
// derived on every resolution and never persisted.
type Principal struct {
	ID                    string   `json:"id"`
	Email                 string   `json:"email"`
	DisplayName           string   `json:"display_name,omitempty"`
	Role                  UserRole `json:"role"`
	EmailVerified         bool     `json:"email_verified"`
	Avatar                string   `json:"avatar,omitempty"`
	ProfessionalProfileID string   `json:"professional_profile_id,omitempty"`
	Agency                string   `json:"agency,omitempty"`
	ExperienceYears       int      `json:"experience_years,omitempty"`
	Specialty             string   `json:"specialty,omitempty"`
	City                  string   `json:"city,omitempty"`
	Region                string   `json:"region,omitempty"`
}

// Clone returns a copy so snapshot holders can hand the Principal out without
// sharing mutable state.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// AuthState is the immutable snapshot the facade exposes. It is replaced
// wholesale, never mutated field by field.
type AuthState struct {
	Principal       *Principal `json:"principal,omitempty"`
	IsLoading       bool       `json:"is_loading"`
	IsAuthenticated bool       `json:"is_authenticated"`
}

// MinimalProfile is the small projection returned by the email checker.
type MinimalProfile struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name,omitempty"`
	Role        UserRole `json:"role,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
	Source      string   `json:"source"`
}

// EmailCheck reports whether a normalized email already exists in either store.
type EmailCheck struct {
	Exists bool            `json:"exists"`
	Match  *MinimalProfile `json:"match,omitempty"`
}

// NormalizeEmail lowercases and trims an email before any store lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const (
	sourceAccounts             = "accounts"
	sourceProfessionalProfiles = "professional_profiles"
)

func principalFromAccount(account *Account) *Principal {
	return &Principal{
		ID:            account.ID.String(),
		Email:         account.Email,
		DisplayName:   account.DisplayName,
		Role:          account.Role,
		EmailVerified: account.EmailVerified,
		Avatar:        account.Avatar,
		City:          account.City,
		Region:        account.Region,
	}
}

// principalFromProfile covers the direct-profile login path: the profile's
// own id becomes both the principal id and the profile link.
func principalFromProfile(profile *ProfessionalProfile) *Principal {
	return &Principal{
		ID:                    profile.ID.String(),
		Email:                 profile.Email,
		DisplayName:           profile.DisplayName,
		Role:                  RoleProfessional,
		EmailVerified:         profile.EmailVerified,
		Avatar:                profile.Avatar,
		ProfessionalProfileID: profile.ID.String(),
		Agency:                profile.Agency,
		ExperienceYears:       profile.ExperienceYears,
		Specialty:             profile.Specialty,
	}
}

// applyProfile merges role-specific fields onto an account-backed principal.
// The profile avatar wins over the account avatar when present.
func applyProfile(principal *Principal, profile *ProfessionalProfile) {
	principal.ProfessionalProfileID = profile.ID.String()
	principal.Agency = profile.Agency
	principal.ExperienceYears = profile.ExperienceYears
	principal.Specialty = profile.Specialty

	if profile.Avatar != "" {
		principal.Avatar = profile.Avatar
	}
}

func minimalFromAccount(account *Account) *MinimalProfile {
	return &MinimalProfile{
		ID:          account.ID.String(),
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Role:        account.Role,
		Avatar:      account.Avatar,
		Source:      sourceAccounts,
	}
}

func minimalFromProfile(profile *ProfessionalProfile) *MinimalProfile {
	return &MinimalProfile{
		ID:          profile.ID.String(),
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		Role:        RoleProfessional,
		Avatar:      profile.Avatar,
		Source:      sourceProfessionalProfiles,
	}
}
