package identity_test

import (
	"context"

	identity "github.com/goliatone/go-identity"
	"github.com/stretchr/testify/mock"
)

// MockAccountReader implements identity.AccountReader
type MockAccountReader struct {
	mock.Mock
}

func (m *MockAccountReader) GetByID(ctx context.Context, id string) (*identity.Account, error) {
	args := m.Called(ctx, id)
	account, _ := args.Get(0).(*identity.Account)
	return account, args.Error(1)
}

func (m *MockAccountReader) GetByEmail(ctx context.Context, email string) (*identity.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*identity.Account)
	return account, args.Error(1)
}

// MockProfileReader implements identity.ProfileReader
type MockProfileReader struct {
	mock.Mock
}

func (m *MockProfileReader) GetByID(ctx context.Context, id string) (*identity.ProfessionalProfile, error) {
	args := m.Called(ctx, id)
	profile, _ := args.Get(0).(*identity.ProfessionalProfile)
	return profile, args.Error(1)
}

func (m *MockProfileReader) GetByAccountID(ctx context.Context, accountID string) (*identity.ProfessionalProfile, error) {
	args := m.Called(ctx, accountID)
	profile, _ := args.Get(0).(*identity.ProfessionalProfile)
	return profile, args.Error(1)
}

func (m *MockProfileReader) GetByEmail(ctx context.Context, email string) (*identity.ProfessionalProfile, error) {
	args := m.Called(ctx, email)
	profile, _ := args.Get(0).(*identity.ProfessionalProfile)
	return profile, args.Error(1)
}

// MockAccountLoginStore implements identity.AccountLoginStore
type MockAccountLoginStore struct {
	mock.Mock
}

func (m *MockAccountLoginStore) GetByEmail(ctx context.Context, email string) (*identity.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*identity.Account)
	return account, args.Error(1)
}

func (m *MockAccountLoginStore) TrackAttemptedLogin(ctx context.Context, account *identity.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountLoginStore) TrackSuccessfulLogin(ctx context.Context, account *identity.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockSessionTransport implements identity.SessionTransport
type MockSessionTransport struct {
	mock.Mock
}

func (m *MockSessionTransport) CreateSession(ctx context.Context, email, password string) (identity.Session, error) {
	args := m.Called(ctx, email, password)
	session, _ := args.Get(0).(identity.Session)
	return session, args.Error(1)
}

func (m *MockSessionTransport) CurrentSession(ctx context.Context) (identity.Session, error) {
	args := m.Called(ctx)
	session, _ := args.Get(0).(identity.Session)
	return session, args.Error(1)
}

func (m *MockSessionTransport) DestroySession(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockRegistrationWriter implements identity.RegistrationWriter
type MockRegistrationWriter struct {
	mock.Mock
}

func (m *MockRegistrationWriter) CreateIdentity(ctx context.Context, msg identity.RegisterAccountMessage) (*identity.RegistrationResult, error) {
	args := m.Called(ctx, msg)
	result, _ := args.Get(0).(*identity.RegistrationResult)
	return result, args.Error(1)
}

type capturingSink struct {
	events []identity.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt identity.ActivityEvent) error {
	c.events = append(c.events, evt)
	return nil
}

type testLogger struct{}

func (testLogger) Debug(format string, args ...any) {}
func (testLogger) Info(format string, args ...any)  {}
func (testLogger) Warn(format string, args ...any)  {}
func (testLogger) Error(format string, args ...any) {}
