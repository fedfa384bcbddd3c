package identity_test

import (
	"context"
	"testing"
	"time"

	identity "github.com/goliatone/go-identity"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newLocalTransport(store *MockAccountLoginStore) *identity.LocalSessionTransport {
	tokens := identity.NewTokenServiceFromConfig(newTestConfig(), testLogger{})
	return identity.NewLocalSessionTransport(store, tokens).WithLogger(testLogger{})
}

func activeAccount(t *testing.T, password string) *identity.Account {
	t.Helper()

	hash, err := identity.HashPassword(password)
	require.NoError(t, err)

	return &identity.Account{
		ID:           uuid.New(),
		Email:        "user@x.com",
		Role:         identity.RoleBuyer,
		IsActive:     true,
		PasswordHash: hash,
	}
}

func TestLocalTransportPasswordGrant(t *testing.T) {
	ctx := context.Background()
	store := new(MockAccountLoginStore)
	account := activeAccount(t, "correct horse battery")

	store.On("GetByEmail", ctx, "user@x.com").Return(account, nil).Once()
	store.On("TrackSuccessfulLogin", ctx, account).Return(nil).Once()

	transport := newLocalTransport(store)

	session, err := transport.CreateSession(ctx, "user@x.com", "correct horse battery")
	require.NoError(t, err)

	assert.Equal(t, account.ID.String(), session.GetSubjectID())
	assert.Equal(t, identity.RoleBuyer, session.GetData()["role"])

	current, err := transport.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, account.ID.String(), current.GetSubjectID())

	store.AssertExpectations(t)
}

func TestLocalTransportRejectsUnknownIdentifier(t *testing.T) {
	ctx := context.Background()
	store := new(MockAccountLoginStore)

	store.On("GetByEmail", ctx, "ghost@x.com").
		Return(nil, repository.NewRecordNotFound()).Once()

	transport := newLocalTransport(store)

	_, err := transport.CreateSession(ctx, "ghost@x.com", "whatever")
	require.Error(t, err)

	transportErr, ok := err.(*identity.TransportError)
	require.True(t, ok)
	assert.Equal(t, 401, transportErr.StatusCode)
}

func TestLocalTransportRejectsInactiveAccount(t *testing.T) {
	ctx := context.Background()
	store := new(MockAccountLoginStore)
	account := activeAccount(t, "correct horse battery")
	account.IsActive = false

	store.On("GetByEmail", ctx, "user@x.com").Return(account, nil).Once()

	transport := newLocalTransport(store)

	_, err := transport.CreateSession(ctx, "user@x.com", "correct horse battery")
	require.Error(t, err)

	transportErr, ok := err.(*identity.TransportError)
	require.True(t, ok)
	assert.Equal(t, 401, transportErr.StatusCode)
}

func TestLocalTransportTracksFailedAttempt(t *testing.T) {
	ctx := context.Background()
	store := new(MockAccountLoginStore)
	account := activeAccount(t, "correct horse battery")

	store.On("GetByEmail", ctx, "user@x.com").Return(account, nil).Once()
	store.On("TrackAttemptedLogin", ctx, account).Return(nil).Once()

	transport := newLocalTransport(store)

	_, err := transport.CreateSession(ctx, "user@x.com", "wrong password")
	require.Error(t, err)

	transportErr, ok := err.(*identity.TransportError)
	require.True(t, ok)
	assert.Equal(t, 401, transportErr.StatusCode)

	store.AssertExpectations(t)
}

func TestLocalTransportThrottlesAfterTooManyAttempts(t *testing.T) {
	ctx := context.Background()
	store := new(MockAccountLoginStore)
	account := activeAccount(t, "correct horse battery")

	now := time.Now()
	account.LoginAttempts = identity.MaxLoginAttempts + 1
	account.LoginAttemptAt = &now

	store.On("GetByEmail", ctx, "user@x.com").Return(account, nil).Once()

	transport := newLocalTransport(store)

	_, err := transport.CreateSession(ctx, "user@x.com", "correct horse battery")
	require.Error(t, err)

	transportErr, ok := err.(*identity.TransportError)
	require.True(t, ok)
	assert.Equal(t, 429, transportErr.StatusCode)

	store.AssertNotCalled(t, "TrackSuccessfulLogin", mock.Anything, mock.Anything)
}

func TestLocalTransportResetsAttemptsAfterCoolDown(t *testing.T) {
	ctx := context.Background()
	store := new(MockAccountLoginStore)
	account := activeAccount(t, "correct horse battery")

	stale := time.Now().Add(-48 * time.Hour)
	account.LoginAttempts = identity.MaxLoginAttempts + 3
	account.LoginAttemptAt = &stale

	store.On("GetByEmail", ctx, "user@x.com").Return(account, nil).Once()
	store.On("TrackSuccessfulLogin", ctx, account).Return(nil).Once()

	transport := newLocalTransport(store)

	session, err := transport.CreateSession(ctx, "user@x.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, account.ID.String(), session.GetSubjectID())
}

func TestLocalTransportCurrentSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := new(MockAccountLoginStore)
	transport := newLocalTransport(store)

	_, err := transport.CurrentSession(ctx)
	require.Error(t, err)

	transportErr, ok := err.(*identity.TransportError)
	require.True(t, ok)
	assert.Equal(t, 404, transportErr.StatusCode)

	account := activeAccount(t, "correct horse battery")
	store.On("GetByEmail", ctx, "user@x.com").Return(account, nil).Once()
	store.On("TrackSuccessfulLogin", ctx, account).Return(nil).Once()

	_, err = transport.CreateSession(ctx, "user@x.com", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, transport.DestroySession(ctx))

	_, err = transport.CurrentSession(ctx)
	require.Error(t, err)
}
