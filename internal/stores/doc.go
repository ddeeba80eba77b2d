// Package stores provides the Redis-backed OTP ledger used by registration
// and e-mail verification.
//
// # Design
//
// Each (role, email) pair owns at most one key holding a versioned,
// binary-encoded record: creation time and the SHA-256 of the code. The key
// carries the OTP TTL and the record's own timestamp is checked as well, so a
// record older than the TTL is invisible even if the key survived. Issue is a
// DEL+SET transaction; Consume is a Lua script that deletes on match and keeps
// the record on mismatch.
//
// # Architecture boundaries
//
// This package owns persistence of transient codes. It does NOT generate codes
// or make authentication decisions; those belong to internal/flows.
//
// # What this package must NOT do
//
//   - Import tutorAuth or any sibling internal package.
//   - Log or store plaintext codes.
package stores
