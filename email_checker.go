package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/errgroup"
)

// EmailChecker reports whether a candidate email already exists in either
// credential store. Registration flows use it to block duplicates before any
// account is created.
type EmailChecker struct {
	accounts AccountReader
	profiles ProfileReader
	logger   Logger
}

func NewEmailChecker(accounts AccountReader, profiles ProfileReader) *EmailChecker {
	return &EmailChecker{
		accounts: accounts,
		profiles: profiles,
		logger:   defLogger{},
	}
}

func (c *EmailChecker) WithLogger(logger Logger) *EmailChecker {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// CheckEmail normalizes the candidate and issues both store lookups in
// parallel. A failing store degrades to "no match" rather than blocking the
// whole check; a duplicate slipping through is caught by the unique
// constraint at write time. When both stores match the same normalized email
// the Accounts record wins.
func (c *EmailChecker) CheckEmail(ctx context.Context, email string) (EmailCheck, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return EmailCheck{}, goerrors.New("email is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	var (
		accountMatch *Account
		profileMatch *ProfessionalProfile
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		record, err := c.accounts.GetByEmail(gctx, normalized)
		if err != nil {
			if !isStoreMiss(err) {
				c.logger.Warn("account store degraded during email check for %s: %v", normalized, err)
			}
			return nil
		}
		accountMatch = record
		return nil
	})

	g.Go(func() error {
		record, err := c.profiles.GetByEmail(gctx, normalized)
		if err != nil {
			if !isStoreMiss(err) {
				c.logger.Warn("profile store degraded during email check for %s: %v", normalized, err)
			}
			return nil
		}
		profileMatch = record
		return nil
	})

	// both goroutines swallow their errors, Wait only joins them
	_ = g.Wait()

	if accountMatch != nil {
		return EmailCheck{Exists: true, Match: minimalFromAccount(accountMatch)}, nil
	}

	if profileMatch != nil {
		return EmailCheck{Exists: true, Match: minimalFromProfile(profileMatch)}, nil
	}

	return EmailCheck{}, nil
}
