package identity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Facade is the single entry point external collaborators call. It owns one
// immutable AuthState snapshot, replaced wholesale on every change, and
// serializes Principal-affecting operations so two racing resolutions can
// never produce inconsistent snapshots.
type Facade struct {
	sessions     *SessionManager
	resolver     *Resolver
	emails       *EmailChecker
	verification *VerificationStateMachine
	registrar    RegistrationWriter
	logger       Logger
	activitySink ActivitySink

	state    atomic.Pointer[AuthState]
	inflight atomic.Bool

	subMu       sync.Mutex
	subscribers map[int]func(AuthState)
	nextSubID   int
}

// NewFacade assembles a facade from explicitly injected components. There is
// no ambient singleton: callers that need the current identity hold a facade
// reference or a subscription.
func NewFacade(sessions *SessionManager, resolver *Resolver, emails *EmailChecker, registrar RegistrationWriter) *Facade {
	f := &Facade{
		sessions:     sessions,
		resolver:     resolver,
		emails:       emails,
		verification: NewVerificationStateMachine(),
		registrar:    registrar,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		subscribers:  map[int]func(AuthState){},
	}

	f.state.Store(&AuthState{})

	return f
}

// NewFacadeFromRepositories wires the default components over the credential
// store: local password-grant transport, resolver, and email checker.
func NewFacadeFromRepositories(repo RepositoryManager, cfg Config) *Facade {
	tokens := NewTokenServiceFromConfig(cfg, nil)
	transport := NewLocalSessionTransport(repo.Accounts(), tokens)

	return NewFacade(
		NewSessionManager(transport),
		NewResolver(repo.Accounts(), repo.ProfessionalProfiles()),
		NewEmailChecker(repo.Accounts(), repo.ProfessionalProfiles()),
		NewRegisterAccountHandler(repo),
	)
}

func (f *Facade) WithLogger(logger Logger) *Facade {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// WithActivitySink configures an ActivitySink for auth events.
func (f *Facade) WithActivitySink(sink ActivitySink) *Facade {
	f.activitySink = normalizeActivitySink(sink)
	return f
}

// WithVerificationStateMachine swaps in a custom prompt machine, mainly for
// injecting clocks and sinks in tests.
func (f *Facade) WithVerificationStateMachine(sm *VerificationStateMachine) *Facade {
	if sm != nil {
		f.verification = sm
	}
	return f
}

// CurrentState returns the current snapshot. The embedded Principal is
// cloned so holders can never mutate shared state.
func (f *Facade) CurrentState() AuthState {
	state := *f.state.Load()
	state.Principal = state.Principal.Clone()
	return state
}

// VerificationPrompt returns the derived prompt view for the current session.
func (f *Facade) VerificationPrompt() VerificationPromptState {
	return f.verification.PromptState()
}

// Subscribe registers a callback invoked with every replaced snapshot. The
// returned function cancels the subscription.
func (f *Facade) Subscribe(fn func(AuthState)) func() {
	f.subMu.Lock()
	defer f.subMu.Unlock()

	id := f.nextSubID
	f.nextSubID++
	f.subscribers[id] = fn

	return func() {
		f.subMu.Lock()
		defer f.subMu.Unlock()
		delete(f.subscribers, id)
	}
}

// Login performs the password grant, resolves the new session's subject into
// a Principal, and initializes the verification prompt. Credential errors are
// surfaced to the caller untouched for UI messaging.
func (f *Facade) Login(ctx context.Context, email, password string) (AuthState, error) {
	if err := f.beginResolution(); err != nil {
		return f.CurrentState(), err
	}
	defer f.endResolution()

	f.setState(AuthState{IsLoading: true})

	session, err := f.sessions.CreateSession(ctx, email, password)
	if err != nil {
		f.setState(AuthState{})
		f.emit(ctx, ActivityEventLoginFailure, "", map[string]any{
			"identifier": NormalizeEmail(email),
			"error":      err.Error(),
		})
		return f.CurrentState(), err
	}

	principal, err := f.resolver.Resolve(ctx, session.GetSubjectID())
	if err != nil {
		// a session without a resolvable identity is useless, drop it
		f.sessions.DestroySession(ctx)
		f.setState(AuthState{})
		f.emit(ctx, ActivityEventLoginFailure, session.GetSubjectID(), map[string]any{
			"identifier": NormalizeEmail(email),
			"error":      err.Error(),
		})
		return f.CurrentState(), err
	}

	f.verification.Initialize(ctx, principal)
	f.setState(AuthState{Principal: principal, IsAuthenticated: true})
	f.emit(ctx, ActivityEventLoginSuccess, principal.ID, map[string]any{
		"identifier": NormalizeEmail(email),
	})

	return f.CurrentState(), nil
}

// Register delegates the identity-store write to the registration writer and
// treats the returned identity as already authenticated. The initial
// AuthState is built optimistically from the creation result instead of
// re-resolving; callers needing strong consistency call RefreshPrincipal
// afterwards.
func (f *Facade) Register(ctx context.Context, msg RegisterAccountMessage) (AuthState, error) {
	if err := f.beginResolution(); err != nil {
		return f.CurrentState(), err
	}
	defer f.endResolution()

	f.setState(AuthState{IsLoading: true})

	result, err := f.registrar.CreateIdentity(ctx, msg)
	if err != nil {
		f.setState(AuthState{})
		return f.CurrentState(), err
	}

	principal := principalFromRegistration(result)
	if principal == nil {
		f.setState(AuthState{})
		return f.CurrentState(), ErrIdentityNotFound.WithMetadata(map[string]any{
			"reason": "registration writer returned no identity",
		})
	}

	f.verification.Initialize(ctx, principal)
	f.setState(AuthState{Principal: principal, IsAuthenticated: true})
	f.emit(ctx, ActivityEventRegistration, principal.ID, map[string]any{
		"identifier": principal.Email,
	})

	return f.CurrentState(), nil
}

// Logout always clears local state: the remote destroy is best-effort inside
// the SessionManager and never blocks this flow.
func (f *Facade) Logout(ctx context.Context) {
	previous := f.state.Load()

	f.sessions.DestroySession(ctx)
	f.verification.Reset()
	f.setState(AuthState{})

	userID := ""
	if previous.Principal != nil {
		userID = previous.Principal.ID
	}
	f.emit(ctx, ActivityEventLogout, userID, nil)
}

// CheckEmail reports whether the candidate email exists in either store.
func (f *Facade) CheckEmail(ctx context.Context, email string) (EmailCheck, error) {
	return f.emails.CheckEmail(ctx, email)
}

// RefreshPrincipal re-resolves the currently known id and replaces the
// snapshot's Principal without touching IsAuthenticated.
func (f *Facade) RefreshPrincipal(ctx context.Context) (AuthState, error) {
	if err := f.beginResolution(); err != nil {
		return f.CurrentState(), err
	}
	defer f.endResolution()

	previous := f.state.Load()
	if previous.Principal == nil {
		return f.CurrentState(), ErrSessionNotFound
	}

	f.setState(AuthState{Principal: previous.Principal, IsAuthenticated: previous.IsAuthenticated, IsLoading: true})

	principal, err := f.resolver.Resolve(ctx, previous.Principal.ID)
	if err != nil {
		if IsIdentityNotFound(err) {
			// the primary record is gone, the session no longer maps to anyone
			f.verification.Reset()
			f.setState(AuthState{})
		} else {
			f.setState(AuthState{Principal: previous.Principal, IsAuthenticated: previous.IsAuthenticated})
		}
		return f.CurrentState(), err
	}

	f.verification.Refresh(ctx, principal)
	f.setState(AuthState{Principal: principal, IsAuthenticated: previous.IsAuthenticated})

	return f.CurrentState(), nil
}

// CheckVerification re-resolves the Principal, feeds it into the
// verification machine's re-check transition, and reports the verified flag.
func (f *Facade) CheckVerification(ctx context.Context) (bool, error) {
	if err := f.beginResolution(); err != nil {
		return false, err
	}
	defer f.endResolution()

	previous := f.state.Load()
	if previous.Principal == nil {
		return false, ErrSessionNotFound
	}

	f.setState(AuthState{Principal: previous.Principal, IsAuthenticated: previous.IsAuthenticated, IsLoading: true})

	principal, err := f.resolver.Resolve(ctx, previous.Principal.ID)
	if err != nil {
		f.setState(AuthState{Principal: previous.Principal, IsAuthenticated: previous.IsAuthenticated})
		return f.verification.Current() == VerificationVerified, err
	}

	state := f.verification.ReVerify(ctx, principal)
	f.setState(AuthState{Principal: principal, IsAuthenticated: previous.IsAuthenticated})

	return state == VerificationVerified, nil
}

// DismissVerificationPrompt hides the prompt for the rest of this session.
// No-op unless the prompt is currently shown.
func (f *Facade) DismissVerificationPrompt(ctx context.Context) VerificationPromptState {
	f.verification.Dismiss(ctx)
	return f.verification.PromptState()
}

func (f *Facade) beginResolution() error {
	if !f.inflight.CompareAndSwap(false, true) {
		return ErrResolutionInProgress
	}
	return nil
}

func (f *Facade) endResolution() {
	f.inflight.Store(false)
}

// setState replaces the snapshot atomically and notifies subscribers with a
// copy. Nobody can observe a half-updated state.
func (f *Facade) setState(next AuthState) {
	snapshot := next
	f.state.Store(&snapshot)

	f.subMu.Lock()
	callbacks := make([]func(AuthState), 0, len(f.subscribers))
	for _, fn := range f.subscribers {
		callbacks = append(callbacks, fn)
	}
	f.subMu.Unlock()

	for _, fn := range callbacks {
		published := snapshot
		published.Principal = published.Principal.Clone()
		fn(published)
	}
}

func (f *Facade) emit(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{Type: "user"},
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	sink := normalizeActivitySink(f.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		f.logger.Warn("activity sink record error: %v", err)
	}
}

func principalFromRegistration(result *RegistrationResult) *Principal {
	if result == nil {
		return nil
	}

	if result.Account != nil {
		principal := principalFromAccount(result.Account)
		if result.Profile != nil {
			applyProfile(principal, result.Profile)
		}
		return principal
	}

	if result.Profile != nil {
		return principalFromProfile(result.Profile)
	}

	return nil
}
