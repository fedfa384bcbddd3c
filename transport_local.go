package identity

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// MaxLoginAttempts is the maximum number of attempts an account gets in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// LocalSessionTransport is the default SessionTransport: a password grant
// against the Accounts collection with a signed token as the session handle.
// It fails with transport status codes so the SessionManager exercises the
// same normalization path a remote transport would.
type LocalSessionTransport struct {
	store  AccountLoginStore
	tokens TokenService
	logger Logger

	mu      sync.Mutex
	current string
}

func NewLocalSessionTransport(store AccountLoginStore, tokens TokenService) *LocalSessionTransport {
	return &LocalSessionTransport{
		store:  store,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (t *LocalSessionTransport) WithLogger(logger Logger) *LocalSessionTransport {
	if logger != nil {
		t.logger = logger
	}
	return t
}

func (t *LocalSessionTransport) CreateSession(ctx context.Context, email, password string) (Session, error) {
	account, err := t.store.GetByEmail(ctx, email)
	if err != nil {
		if isStoreMiss(err) {
			return nil, &TransportError{StatusCode: 401, Message: "unknown identifier"}
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during password grant")
	}

	if !account.IsActive {
		return nil, &TransportError{StatusCode: 401, Message: "account is not active"}
	}

	if account.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*account.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			account.LoginAttempts = 0
		}
	}

	// too many attempts in the window, cool off
	if account.LoginAttempts > MaxLoginAttempts {
		return nil, &TransportError{StatusCode: 429, Message: "login attempts exceeded"}
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		if err2 := t.store.TrackAttemptedLogin(ctx, account); err2 != nil {
			t.logger.Error("failed to track login attempt: %v", err2)
		}

		return nil, &TransportError{StatusCode: 401, Message: "invalid credentials"}
	}

	if err := t.store.TrackSuccessfulLogin(ctx, account); err != nil {
		t.logger.Error("failed to track successful login: %v", err)
	}

	raw, err := t.tokens.Generate(account.ID.String(), account.Role)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.current = raw
	t.mu.Unlock()

	claims, err := t.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}

	return sessionFromClaims(claims), nil
}

func (t *LocalSessionTransport) CurrentSession(ctx context.Context) (Session, error) {
	t.mu.Lock()
	raw := t.current
	t.mu.Unlock()

	if raw == "" {
		return nil, &TransportError{StatusCode: 404, Message: "no active session"}
	}

	claims, err := t.tokens.Validate(raw)
	if err != nil {
		// stale handle, drop it so the next lookup reports a clean miss
		t.mu.Lock()
		if t.current == raw {
			t.current = ""
		}
		t.mu.Unlock()

		return nil, &TransportError{StatusCode: 404, Message: "session expired"}
	}

	return sessionFromClaims(claims), nil
}

func (t *LocalSessionTransport) DestroySession(ctx context.Context) error {
	t.mu.Lock()
	t.current = ""
	t.mu.Unlock()

	return nil
}
