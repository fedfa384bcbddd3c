package identity_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	identity "github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	signingKey      string
	tokenExpiration int
	issuer          string
	audience        []string
}

func (c testConfig) GetSigningKey() string   { return c.signingKey }
func (c testConfig) GetTokenExpiration() int { return c.tokenExpiration }
func (c testConfig) GetIssuer() string       { return c.issuer }
func (c testConfig) GetAudience() []string   { return c.audience }

func newTestConfig() testConfig {
	return testConfig{
		signingKey:      "test-signing-key",
		tokenExpiration: 1,
		issuer:          "test-issuer",
		audience:        []string{"test-audience"},
	}
}

func TestTokenServiceGenerateAndValidate(t *testing.T) {
	svc := identity.NewTokenServiceFromConfig(newTestConfig(), testLogger{})

	raw, err := svc.Generate("user-123", identity.RoleSeller)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := svc.Validate(raw)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.SubjectID())
	assert.Equal(t, identity.RoleSeller, claims.UserRole)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenServiceRejectsWrongKey(t *testing.T) {
	svc := identity.NewTokenServiceFromConfig(newTestConfig(), testLogger{})

	other := identity.NewTokenService([]byte("other-key"), 1, "test-issuer", jwt.ClaimStrings{"test-audience"}, testLogger{})

	raw, err := other.Generate("user-123", identity.RoleBuyer)
	require.NoError(t, err)

	_, err = svc.Validate(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, identity.ErrTokenMalformed)
}

func TestTokenServiceRejectsWrongIssuer(t *testing.T) {
	cfg := newTestConfig()
	svc := identity.NewTokenServiceFromConfig(cfg, testLogger{})

	other := identity.NewTokenService([]byte(cfg.signingKey), 1, "someone-else", jwt.ClaimStrings{"test-audience"}, testLogger{})

	raw, err := other.Generate("user-123", identity.RoleBuyer)
	require.NoError(t, err)

	_, err = svc.Validate(raw)
	require.Error(t, err)
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	cfg := newTestConfig()
	cfg.tokenExpiration = -1
	svc := identity.NewTokenServiceFromConfig(cfg, testLogger{})

	raw, err := svc.Generate("user-123", identity.RoleBuyer)
	require.NoError(t, err)

	_, err = svc.Validate(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, identity.ErrTokenExpired)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	svc := identity.NewTokenServiceFromConfig(newTestConfig(), testLogger{})

	_, err := svc.Validate("not-a-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, identity.ErrTokenMalformed)
}

func TestSessionClaimsSubjectFallsBackToUID(t *testing.T) {
	claims := &identity.SessionClaims{UID: "uid-1"}
	assert.Equal(t, "uid-1", claims.SubjectID())

	claims.Subject = "subject-1"
	assert.Equal(t, "subject-1", claims.SubjectID())
}

func TestTokenServiceExpirationWindow(t *testing.T) {
	svc := identity.NewTokenServiceFromConfig(newTestConfig(), testLogger{})

	raw, err := svc.Generate("user-123", identity.RoleBuyer)
	require.NoError(t, err)

	claims, err := svc.Validate(raw)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)

	remaining := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, remaining, 55*time.Minute)
	assert.LessOrEqual(t, remaining, time.Hour)
}
