// Package middleware exposes HTTP guards that admit requests carrying a valid
// access token for a given role.
//
// # Guards
//
//   - [Guard] admits an active principal of one role.
//   - [RequireUser], [RequireTutor] and [RequireAdmin] fix the role.
//
// Each guard reads the Authorization header, calls Engine.Authenticate, and
// injects the resolved principal into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; every decision is delegated to
// Engine.Authenticate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Reach the credential store.
//   - Make authorization decisions beyond pass/reject from Engine.Authenticate.
package middleware
