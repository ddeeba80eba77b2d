package password

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyPassword is returned by Hash for an empty plaintext.
	ErrEmptyPassword = errors.New("password is empty")
	// ErrInvalidHash is returned by Verify for a malformed stored hash.
	ErrInvalidHash = errors.New("invalid password hash")
	// ErrUnsupportedHash is returned by Multi for an unknown hash format.
	ErrUnsupportedHash = errors.New("unsupported password hash format")
)

// Hasher hashes and verifies passwords. Verify returns (false, nil) on a
// mismatch and an error only when the stored hash cannot be processed.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, encodedHash string) (bool, error)
}

// Algorithm names accepted by New.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// Options selects and tunes the hashing algorithm.
type Options struct {
	Algorithm  string
	BcryptCost int
	Argon2     Argon2Config
}

// New builds a Multi hasher producing hashes with opts.Algorithm.
func New(opts Options) (*Multi, error) {
	bc, err := NewBcrypt(opts.BcryptCost)
	if err != nil {
		return nil, err
	}

	var a2 *Argon2
	switch strings.ToLower(opts.Algorithm) {
	case "", AlgorithmBcrypt:
		if opts.Argon2 != (Argon2Config{}) {
			if a2, err = NewArgon2(opts.Argon2); err != nil {
				return nil, err
			}
		}
		return &Multi{primary: bc, bcrypt: bc, argon2: a2}, nil
	case AlgorithmArgon2id:
		if a2, err = NewArgon2(opts.Argon2); err != nil {
			return nil, err
		}
		return &Multi{primary: a2, bcrypt: bc, argon2: a2}, nil
	default:
		return nil, errors.New("password algorithm must be bcrypt or argon2id")
	}
}

// Multi hashes with a primary algorithm and verifies every supported format.
type Multi struct {
	primary Hasher
	bcrypt  *Bcrypt
	argon2  *Argon2
}

// Hash hashes plaintext with the primary algorithm.
func (m *Multi) Hash(plaintext string) (string, error) {
	return m.primary.Hash(plaintext)
}

// Verify dispatches on the stored hash prefix.
func (m *Multi) Verify(plaintext, encodedHash string) (bool, error) {
	switch {
	case isBcryptHash(encodedHash):
		return m.bcrypt.Verify(plaintext, encodedHash)
	case strings.HasPrefix(encodedHash, "$"+algorithmID+"$"):
		if m.argon2 != nil {
			return m.argon2.Verify(plaintext, encodedHash)
		}
		// Parameters come from the PHC string, so a default-configured
		// verifier handles any stored argon2id hash.
		return (&Argon2{config: DefaultArgon2Config()}).Verify(plaintext, encodedHash)
	default:
		return false, ErrUnsupportedHash
	}
}

func isBcryptHash(h string) bool {
	return strings.HasPrefix(h, "$2a$") || strings.HasPrefix(h, "$2b$") || strings.HasPrefix(h, "$2y$")
}

// NeedsUpgrade reports whether encodedHash should be replaced by a fresh Hash:
// it uses a different algorithm than the primary, or weaker parameters.
func (m *Multi) NeedsUpgrade(encodedHash string) (bool, error) {
	switch p := m.primary.(type) {
	case *Bcrypt:
		if !isBcryptHash(encodedHash) {
			return true, nil
		}
		return p.NeedsUpgrade(encodedHash)
	case *Argon2:
		if !strings.HasPrefix(encodedHash, "$"+algorithmID+"$") {
			return true, nil
		}
		return p.NeedsUpgrade(encodedHash)
	default:
		return false, ErrUnsupportedHash
	}
}
