// Package flows contains the orchestrators behind every Engine operation:
// registration with OTP verification, password and Google sign-in, password
// reset, account blocking and access-token resolution.
//
// Each flow function (RunRegister, RunLogin, RunConfirmPasswordReset, etc.)
// accepts the shared dependency struct and returns results without
// side-effects beyond those dependencies. Behaviour is parameterized by the
// role's capability set, so users, tutors and admins share one implementation.
//
// # Architecture boundaries
//
// Flow functions coordinate the credential store, OTP ledger, hasher, token
// issuer, mailer, audit and metrics. They do NOT own any of these resources;
// ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import tutorAuth (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through Deps.
package flows
