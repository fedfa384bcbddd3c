// Package identity implements the identity resolution and verification core
// used by the marketplace authentication layer.
//
// Identity resolution:
//   - A logical user may be represented by up to two physical records: an
//     Account (canonical) and a ProfessionalProfile (role specific, linked by
//     foreign key or looked up directly by its own id). Resolver merges both
//     into a single Principal, applying avatar precedence and degrading
//     gracefully when the secondary store is missing data or unreachable.
//
// Sessions and verification:
//   - SessionManager wraps a SessionTransport (password grant, current
//     session lookup, best-effort destroy) and normalizes transport failures
//     into the package error taxonomy. VerificationStateMachine tracks
//     whether the email-verification prompt should be shown for the current
//     Principal, including session-scoped dismissal.
//
// Facade:
//   - Facade is the only entry point external collaborators use. It owns a
//     single immutable AuthState snapshot, serializes Principal-affecting
//     operations, and exposes login, register, logout, checkEmail,
//     refreshPrincipal, checkVerification, dismissVerificationPrompt and a
//     read-only CurrentState accessor with subscriptions.
package identity
