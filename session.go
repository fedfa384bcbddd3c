package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

var _ Session = &SessionObject{}

// SessionObject is the concrete session handle passed around by transports.
type SessionObject struct {
	SubjectID string         `json:"subject_id,omitempty"`
	IssuedAt  *time.Time     `json:"issued_at,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetSubjectID() string {
	return s.SubjectID
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetExpiresAt() *time.Time {
	return s.ExpiresAt
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

func (s SessionObject) String() string {
	expires := "<nil>"
	if s.ExpiresAt != nil {
		expires = s.ExpiresAt.Format(time.RFC1123)
	}
	return fmt.Sprintf("subject=%s exp=%s data=%v", s.SubjectID, expires, s.Data)
}

// TransportError carries the transport-level status code of a failed session
// operation. The SessionManager maps it onto the package taxonomy.
type TransportError struct {
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("transport error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transport error %d", e.StatusCode)
}

// SessionManager owns the transport-level session handle. It has no identity
// logic of its own: it delegates to the transport and normalizes failures.
type SessionManager struct {
	transport SessionTransport
	logger    Logger
}

func NewSessionManager(transport SessionTransport) *SessionManager {
	return &SessionManager{
		transport: transport,
		logger:    defLogger{},
	}
}

func (m *SessionManager) WithLogger(logger Logger) *SessionManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// CreateSession performs the password grant. Credential and throttling
// failures come back as taxonomy errors for the caller's UI messaging.
func (m *SessionManager) CreateSession(ctx context.Context, email, password string) (Session, error) {
	session, err := m.transport.CreateSession(ctx, NormalizeEmail(email), password)
	if err != nil {
		return nil, normalizeTransportError(err)
	}

	return session, nil
}

// CurrentSession queries the transport for an active session. "No session" is
// reported as ErrSessionNotFound, a distinguishable result, not a failure.
func (m *SessionManager) CurrentSession(ctx context.Context) (Session, error) {
	session, err := m.transport.CurrentSession(ctx)
	if err != nil {
		return nil, normalizeTransportError(err)
	}

	return session, nil
}

// DestroySession is best-effort: a failing remote destroy is logged and never
// blocks the caller's logout flow.
func (m *SessionManager) DestroySession(ctx context.Context) {
	if err := m.transport.DestroySession(ctx); err != nil {
		m.logger.Warn("session destroy failed, local state clears regardless: %v", err)
	}
}

// normalizeTransportError maps transport status codes onto the taxonomy.
// Already-normalized rich errors pass through untouched so their meaning is
// never rewritten.
func normalizeTransportError(err error) error {
	if err == nil {
		return nil
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		switch transportErr.StatusCode {
		case 400, 401:
			return ErrInvalidCredentials
		case 404:
			return ErrSessionNotFound
		case 429:
			return ErrRateLimited
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unexpected session transport error").
			WithCode(goerrors.CodeInternal)
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return err
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, "unexpected session transport error").
		WithCode(goerrors.CodeInternal)
}
