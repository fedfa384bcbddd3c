package identity

import (
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

const (
	textCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	textCodeRateLimited          = "RATE_LIMITED"
	textCodeSessionNotFound      = "SESSION_NOT_FOUND"
	textCodeIdentityNotFound     = "IDENTITY_NOT_FOUND"
	textCodeStoreUnavailable     = "STORE_UNAVAILABLE"
	textCodeResolutionInProgress = "RESOLUTION_IN_PROGRESS"
)

// ErrInvalidCredentials is returned when the transport rejects a password grant.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrRateLimited is returned when the transport throttles authentication attempts.
var ErrRateLimited = goerrors.New("too many authentication attempts", goerrors.CategoryRateLimit).
	WithTextCode(textCodeRateLimited)

// ErrSessionNotFound signals that no active session exists. It is part of the
// expected flow, callers treat it as a distinguishable result rather than a failure.
var ErrSessionNotFound = goerrors.New("no active session", goerrors.CategoryNotFound).
	WithTextCode(textCodeSessionNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrIdentityNotFound is returned when a primary resolution finds no record at
// all, neither an Account nor a directly addressed ProfessionalProfile.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeIdentityNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrStoreUnavailable is surfaced only when no usable identity data at all
// could be produced. Secondary-store failures are recovered locally instead.
var ErrStoreUnavailable = goerrors.New("credential store unavailable", goerrors.CategoryInternal).
	WithTextCode(textCodeStoreUnavailable).
	WithCode(goerrors.CodeInternal)

// ErrResolutionInProgress is returned when a Principal-affecting operation is
// requested while another one is still in flight on the same facade.
var ErrResolutionInProgress = goerrors.New("identity resolution already in progress", goerrors.CategoryConflict).
	WithTextCode(textCodeResolutionInProgress).
	WithCode(goerrors.CodeConflict)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithTextCode("EMPTY_STRING").
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the internal mismatch signal produced by the
// bcrypt helpers; transports map it onto ErrInvalidCredentials.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for session tokens past their expiry.
var ErrTokenExpired = goerrors.New("session token is expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for session tokens that fail validation.
var ErrTokenMalformed = goerrors.New("session token is malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// isStoreMiss reports whether err is a store-level record miss. Repository
// misses carry the database not-found category, remote stores may surface a
// plain not-found, both count as "no record" rather than "store down".
func isStoreMiss(err error) bool {
	if err == nil {
		return false
	}
	return repository.IsRecordNotFound(err) || goerrors.IsNotFound(err)
}

// IsSessionNotFound reports whether err represents the no-active-session result.
func IsSessionNotFound(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCodeSessionNotFound
	}

	return false
}

// IsIdentityNotFound reports whether err represents a failed primary lookup.
func IsIdentityNotFound(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCodeIdentityNotFound
	}

	return false
}
