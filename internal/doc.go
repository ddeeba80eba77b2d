// Package internal holds helpers private to tutorAuth, chiefly the random
// generation of OTP codes and password-reset tokens and their digests.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: flow orchestrators behind every Engine operation
//   - metrics: lock-free counters
//   - stores: Redis-backed OTP ledger
//   - httpapi: chi transport over the Engine
//   - config: process configuration loading
//
// # What this package must NOT do
//
//   - Export types that appear in the public tutorAuth API.
//   - Log codes, tokens or their digests.
package internal
