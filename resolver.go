package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Resolver merges the two credential store records into one canonical
// Principal. It is read-only and idempotent: resolving the same id twice with
// no intervening writes yields structurally identical Principals.
type Resolver struct {
	accounts     AccountReader
	profiles     ProfileReader
	logger       Logger
	activitySink ActivitySink
}

// NewResolver returns a Resolver over the two store read surfaces.
func NewResolver(accounts AccountReader, profiles ProfileReader) *Resolver {
	return &Resolver{
		accounts:     accounts,
		profiles:     profiles,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (r *Resolver) WithLogger(logger Logger) *Resolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithActivitySink configures a sink for degraded-merge audit events.
func (r *Resolver) WithActivitySink(sink ActivitySink) *Resolver {
	r.activitySink = normalizeActivitySink(sink)
	return r
}

// Resolve looks up the subject id in the Accounts collection first and falls
// back to a direct ProfessionalProfiles lookup, covering sessions whose
// subject id is a profile id rather than an account id. Secondary-store
// failures during the merge never turn a successful primary lookup into a
// failure.
func (r *Resolver) Resolve(ctx context.Context, id string) (*Principal, error) {
	account, accErr := r.accounts.GetByID(ctx, id)
	if accErr == nil && account != nil {
		return r.resolveFromAccount(ctx, account), nil
	}

	profile, profErr := r.profiles.GetByID(ctx, id)
	if profErr == nil && profile != nil {
		return principalFromProfile(profile), nil
	}

	if accErr != nil && !isStoreMiss(accErr) {
		return nil, goerrors.Wrap(accErr, goerrors.CategoryInternal, "account store unavailable during resolution").
			WithTextCode(textCodeStoreUnavailable)
	}

	if profErr != nil && !isStoreMiss(profErr) {
		return nil, goerrors.Wrap(profErr, goerrors.CategoryInternal, "profile store unavailable during resolution").
			WithTextCode(textCodeStoreUnavailable)
	}

	return nil, ErrIdentityNotFound.WithMetadata(map[string]any{
		"identifier": id,
	})
}

func (r *Resolver) resolveFromAccount(ctx context.Context, account *Account) *Principal {
	principal := principalFromAccount(account)

	if account.Role != RoleProfessional {
		return principal
	}

	profile, err := r.profiles.GetByAccountID(ctx, account.ID.String())
	if err != nil {
		if isStoreMiss(err) {
			// The account claims a professional role but no linked profile
			// exists. The user still gets a usable, account-only Principal.
			r.logger.Warn("professional account %s has no linked profile", account.ID.String())
			r.recordDegradedMerge(ctx, account, "profile_missing", nil)
		} else {
			r.logger.Warn("profile lookup degraded during merge for account %s: %v", account.ID.String(), err)
			r.recordDegradedMerge(ctx, account, "profile_store_error", err)
		}
		return principal
	}

	applyProfile(principal, profile)

	return principal
}

func (r *Resolver) recordDegradedMerge(ctx context.Context, account *Account, reason string, cause error) {
	metadata := map[string]any{
		"reason": reason,
	}
	if cause != nil {
		metadata["error"] = cause.Error()
	}

	event := ActivityEvent{
		EventType:  ActivityEventDegradedMerge,
		Actor:      ActorRef{Type: "system"},
		UserID:     account.ID.String(),
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(r.activitySink).Record(ctx, event); err != nil {
		r.logger.Warn("resolver activity sink error: %v", err)
	}
}
