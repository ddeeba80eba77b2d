// Package tutorAuth is the authentication engine of a tutoring marketplace. It
// registers users and tutors with e-mail OTP verification, signs them in with
// a password or a Google identity, resets forgotten passwords through
// time-limited links, and signs admins in with a password only.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// tutorAuth is the public surface. It exposes [Engine], [Builder], [Config],
// the error classes and value types. Flow orchestration, OTP storage, audit
// dispatch and metric storage live under internal/ and are never exported.
// Persistence is reached only through [principal.Store]; mail only through
// [Mailer].
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its public API.
//   - Log or audit passwords, OTP codes or reset tokens.
//   - Import any sub-package that re-imports tutorAuth (no import cycles).
package tutorAuth
