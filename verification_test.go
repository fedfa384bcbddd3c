package identity_test

import (
	"context"
	"testing"

	identity "github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationInitialStates(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name      string
		principal *identity.Principal
		expected  identity.VerificationState
	}{
		{"unverified principal shows prompt", &identity.Principal{ID: "u1"}, identity.VerificationShown},
		{"verified principal is terminal", &identity.Principal{ID: "u1", EmailVerified: true}, identity.VerificationVerified},
		{"nil principal stays unknown", nil, identity.VerificationUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sm := identity.NewVerificationStateMachine()
			assert.Equal(t, tc.expected, sm.Initialize(ctx, tc.principal))
		})
	}
}

func TestVerificationDismissFlow(t *testing.T) {
	ctx := context.Background()
	sink := &capturingSink{}
	sm := identity.NewVerificationStateMachine(
		identity.WithVerificationActivitySink(sink),
	)

	sm.Initialize(ctx, &identity.Principal{ID: "u1"})
	assert.True(t, sm.PromptState().Visible)

	state := sm.Dismiss(ctx)
	assert.Equal(t, identity.VerificationDismissed, state)

	prompt := sm.PromptState()
	assert.False(t, prompt.Visible)
	assert.True(t, prompt.DismissedThisSession)

	require.Len(t, sink.events, 1)
	assert.Equal(t, identity.ActivityEventVerificationDismissed, sink.events[0].EventType)
}

func TestVerificationDismissalResetsOnFreshLogin(t *testing.T) {
	ctx := context.Background()
	sm := identity.NewVerificationStateMachine()

	principal := &identity.Principal{ID: "u1"}

	sm.Initialize(ctx, principal)
	sm.Dismiss(ctx)
	assert.True(t, sm.PromptState().DismissedThisSession)

	sm.Reset()
	sm.Initialize(ctx, principal)

	prompt := sm.PromptState()
	assert.True(t, prompt.Visible)
	assert.False(t, prompt.DismissedThisSession)
}

func TestVerificationRefreshKeepsDismissal(t *testing.T) {
	ctx := context.Background()
	sm := identity.NewVerificationStateMachine()

	principal := &identity.Principal{ID: "u1"}

	sm.Initialize(ctx, principal)
	sm.Dismiss(ctx)

	state := sm.Refresh(ctx, principal)
	assert.Equal(t, identity.VerificationDismissed, state)
	assert.False(t, sm.PromptState().Visible)
}

func TestVerificationReVerifyCompletes(t *testing.T) {
	ctx := context.Background()
	sink := &capturingSink{}
	sm := identity.NewVerificationStateMachine(
		identity.WithVerificationActivitySink(sink),
	)

	sm.Initialize(ctx, &identity.Principal{ID: "u1"})

	// still unverified, nothing moves
	state := sm.ReVerify(ctx, &identity.Principal{ID: "u1"})
	assert.Equal(t, identity.VerificationShown, state)

	state = sm.ReVerify(ctx, &identity.Principal{ID: "u1", EmailVerified: true})
	assert.Equal(t, identity.VerificationVerified, state)

	require.Len(t, sink.events, 1)
	assert.Equal(t, identity.ActivityEventVerificationCompleted, sink.events[0].EventType)
	assert.Equal(t, "u1", sink.events[0].UserID)
}

func TestVerificationVerifiedIsTerminal(t *testing.T) {
	ctx := context.Background()
	sm := identity.NewVerificationStateMachine()

	sm.Initialize(ctx, &identity.Principal{ID: "u1", EmailVerified: true})

	assert.Equal(t, identity.VerificationVerified, sm.Dismiss(ctx))
	assert.Equal(t, identity.VerificationVerified, sm.Refresh(ctx, &identity.Principal{ID: "u1"}))
	assert.Equal(t, identity.VerificationVerified, sm.Current())

	prompt := sm.PromptState()
	assert.False(t, prompt.Visible)
	assert.False(t, prompt.DismissedThisSession)
}

func TestVerificationDismissWithoutPromptIsNoOp(t *testing.T) {
	ctx := context.Background()
	sink := &capturingSink{}
	sm := identity.NewVerificationStateMachine(
		identity.WithVerificationActivitySink(sink),
	)

	assert.Equal(t, identity.VerificationUnknown, sm.Dismiss(ctx))
	assert.Empty(t, sink.events)
}
