package identity

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims are the JWT claims the local session transport mints.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID      string   `json:"uid,omitempty"`
	UserRole UserRole `json:"role,omitempty"`
}

// SubjectID returns the token's subject, falling back to the uid claim.
func (c *SessionClaims) SubjectID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UID
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}

// sessionFromClaims converts validated claims into the opaque session handle.
func sessionFromClaims(claims *SessionClaims) *SessionObject {
	session := &SessionObject{
		SubjectID: claims.SubjectID(),
		Data: map[string]any{
			"role": claims.UserRole,
		},
	}

	if claims.IssuedAt != nil {
		issuedAt := claims.IssuedAt.Time
		session.IssuedAt = &issuedAt
	}

	if claims.ExpiresAt != nil {
		expiresAt := claims.ExpiresAt.Time
		session.ExpiresAt = &expiresAt
	}

	return session
}
