package identity

import (
	"context"
	"sync"
	"time"
)

// VerificationState describes how the email-verification prompt behaves for
// the current resolved Principal.
type VerificationState string

const (
	// VerificationUnknown is the zero state before any Principal is observed.
	VerificationUnknown VerificationState = ""
	// VerificationShown means the user is unverified and the prompt is visible.
	VerificationShown VerificationState = "unverified-shown"
	// VerificationDismissed means the user is unverified and dismissed the
	// prompt in this session.
	VerificationDismissed VerificationState = "unverified-dismissed"
	// VerificationVerified is terminal for the resolved-Principal lifetime.
	VerificationVerified VerificationState = "verified"
)

// VerificationPromptState is the derived prompt view. Never persisted, it
// resets on logout and on process restart.
type VerificationPromptState struct {
	Visible              bool `json:"visible"`
	DismissedThisSession bool `json:"dismissed_this_session"`
}

// VerificationOption customizes state machine construction.
type VerificationOption func(*VerificationStateMachine)

// WithVerificationClock injects a custom clock (useful for tests).
func WithVerificationClock(clock func() time.Time) VerificationOption {
	return func(sm *VerificationStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithVerificationLogger overrides the logger used for sink failures.
func WithVerificationLogger(logger Logger) VerificationOption {
	return func(sm *VerificationStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithVerificationActivitySink sets the sink used to publish prompt events.
func WithVerificationActivitySink(sink ActivitySink) VerificationOption {
	return func(sm *VerificationStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// VerificationStateMachine tracks whether the current Principal's email is
// verified and whether the prompt was dismissed this session. All state is in
// memory and tied to this instance, the same rules apply regardless of which
// caller drives it.
type VerificationStateMachine struct {
	mu           sync.Mutex
	state        VerificationState
	dismissed    bool
	transitions  map[VerificationState]map[VerificationState]struct{}
	now          func() time.Time
	logger       Logger
	activitySink ActivitySink
}

func NewVerificationStateMachine(opts ...VerificationOption) *VerificationStateMachine {
	sm := &VerificationStateMachine{
		transitions: map[VerificationState]map[VerificationState]struct{}{
			VerificationShown: {
				VerificationDismissed: {},
				VerificationVerified:  {},
			},
			VerificationDismissed: {
				VerificationVerified: {},
			},
		},
		now:          time.Now,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

// Initialize derives the state for a freshly authenticated Principal. A fresh
// authentication event always resets the dismissal flag, so a still
// unverified user sees the prompt again.
func (sm *VerificationStateMachine) Initialize(ctx context.Context, principal *Principal) VerificationState {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.dismissed = false
	sm.state = sm.derive(principal)

	return sm.state
}

// Refresh re-derives the state for an already authenticated Principal
// without touching the session-scoped dismissal flag.
func (sm *VerificationStateMachine) Refresh(ctx context.Context, principal *Principal) VerificationState {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.state == VerificationVerified {
		return sm.state
	}

	sm.state = sm.derive(principal)

	return sm.state
}

// Dismiss moves unverified-shown to unverified-dismissed. It is a no-op from
// every other state, including the terminal verified state.
func (sm *VerificationStateMachine) Dismiss(ctx context.Context) VerificationState {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.canTransition(sm.state, VerificationDismissed) {
		return sm.state
	}

	sm.state = VerificationDismissed
	sm.dismissed = true
	sm.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventVerificationDismissed,
	})

	return sm.state
}

// ReVerify feeds a re-resolved Principal into the machine. Once verified the
// state is terminal for this session, later calls cannot move it back.
func (sm *VerificationStateMachine) ReVerify(ctx context.Context, principal *Principal) VerificationState {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.state == VerificationVerified {
		return sm.state
	}

	if principal == nil || !principal.EmailVerified {
		return sm.state
	}

	sm.state = VerificationVerified
	sm.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventVerificationCompleted,
		UserID:    principal.ID,
	})

	return sm.state
}

// Reset discards all prompt state. Called on logout, the next login starts fresh.
func (sm *VerificationStateMachine) Reset() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.state = VerificationUnknown
	sm.dismissed = false
}

// Current returns the machine's state.
func (sm *VerificationStateMachine) Current() VerificationState {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.state
}

// PromptState derives the prompt view from the current state.
func (sm *VerificationStateMachine) PromptState() VerificationPromptState {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return VerificationPromptState{
		Visible:              sm.state == VerificationShown,
		DismissedThisSession: sm.dismissed,
	}
}

// derive maps a resolved Principal onto a prompt state. An orphaned profile
// Principal carries the profile's own verification flag, so it flows through
// the same rules as an account-backed one.
func (sm *VerificationStateMachine) derive(principal *Principal) VerificationState {
	if principal == nil {
		return VerificationUnknown
	}

	if principal.EmailVerified {
		return VerificationVerified
	}

	if sm.dismissed {
		return VerificationDismissed
	}

	return VerificationShown
}

func (sm *VerificationStateMachine) canTransition(from, to VerificationState) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *VerificationStateMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "user"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	sink := normalizeActivitySink(sm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		sm.logger.Warn("verification activity sink error: %v", err)
	}
}
