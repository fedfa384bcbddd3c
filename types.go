package identity

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds attributes that are part of a transport-level session
type Session interface {
	GetSubjectID() string
	GetIssuedAt() *time.Time
	GetExpiresAt() *time.Time
	GetData() map[string]any
}

// SessionTransport is the collaborator contract for the transport session
// service. Implementations own the session handle; this package only
// normalizes their failures into the error taxonomy.
type SessionTransport interface {
	CreateSession(ctx context.Context, email, password string) (Session, error)
	CurrentSession(ctx context.Context) (Session, error)
	DestroySession(ctx context.Context) error
}

// AccountReader is the read surface of the Accounts collection consumed by
// the resolver and the email checker.
type AccountReader interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
}

// ProfileReader is the read surface of the ProfessionalProfiles collection.
type ProfileReader interface {
	GetByID(ctx context.Context, id string) (*ProfessionalProfile, error)
	GetByAccountID(ctx context.Context, accountID string) (*ProfessionalProfile, error)
	GetByEmail(ctx context.Context, email string) (*ProfessionalProfile, error)
}

// AccountLoginStore is what the local password-grant transport needs from the
// Accounts collection.
type AccountLoginStore interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	TrackAttemptedLogin(ctx context.Context, account *Account) error
	TrackSuccessfulLogin(ctx context.Context, account *Account) error
}

// RegistrationWriter creates the identity records for a validated
// registration payload. The facade consumes its result optimistically.
type RegistrationWriter interface {
	CreateIdentity(ctx context.Context, msg RegisterAccountMessage) (*RegistrationResult, error)
}

// TokenService mints and validates session tokens for the local transport.
type TokenService interface {
	Generate(subjectID string, role UserRole) (string, error)
	Validate(raw string) (*SessionClaims, error)
}

// Config holds token options for the local session transport
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
