// Package password implements password hashing and verification.
//
// # Output formats
//
// [Bcrypt] produces standard modular-crypt strings ($2a$/$2b$ prefixes, cost
// embedded). [Argon2] produces PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Multi] hashes with one configured algorithm and verifies any of the formats
// above, so stored hashes survive an algorithm switch.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (minimum
// length, confirmation) is enforced by the engine flows.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other tutorAuth package.
//   - Log plaintext passwords.
package password
