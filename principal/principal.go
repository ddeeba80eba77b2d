// Package principal defines the authenticable identities of the tutoring
// marketplace (users, tutors and admins), their per-role capability sets and
// the credential store contract the engine persists them through.
//
// # Architecture boundaries
//
// This package owns the Principal record and the operations that mutate its
// credential fields. It does NOT hash passwords itself, issue tokens or talk to
// any storage backend; those are supplied by callers.
//
// # What this package must NOT do
//
//   - Import tutorAuth or any internal package.
//   - Keep plaintext passwords or reset tokens on the record.
package principal

import (
	"errors"
	"strings"
	"time"
)

// Role identifies which principal collection a record belongs to.
type Role string

const (
	RoleUser  Role = "User"
	RoleTutor Role = "Tutor"
	RoleAdmin Role = "Admin"
)

// Roles lists every supported role in a stable order.
var Roles = []Role{RoleUser, RoleTutor, RoleAdmin}

// ParseRole accepts both the canonical and the lower-case spelling ("user",
// "Tutor", ...).
func ParseRole(v string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "user":
		return RoleUser, nil
	case "tutor":
		return RoleTutor, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return "", ErrUnknownRole
	}
}

// Slug is the lower-case path form of the role, as used in routes and links.
func (r Role) Slug() string {
	return strings.ToLower(string(r))
}

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleTutor, RoleAdmin:
		return true
	default:
		return false
	}
}

// Capabilities is the set of authentication flows a role participates in.
type Capabilities struct {
	HasOTPFlow       bool
	HasGoogleAuth    bool
	RequiresPhone    bool
	HasPasswordReset bool
	// IDKey is the JSON key the public id is rendered under in responses.
	IDKey string
}

var capabilities = map[Role]Capabilities{
	RoleUser: {
		HasOTPFlow:       true,
		HasGoogleAuth:    true,
		RequiresPhone:    true,
		HasPasswordReset: true,
		IDKey:            "user_id",
	},
	RoleTutor: {
		HasOTPFlow:       true,
		HasGoogleAuth:    true,
		RequiresPhone:    true,
		HasPasswordReset: true,
		IDKey:            "tutorId",
	},
	RoleAdmin: {
		IDKey: "adminId",
	},
}

// CapabilitiesOf returns the capability set of r. Unknown roles get the zero
// value, which enables no flow.
func CapabilitiesOf(r Role) Capabilities {
	return capabilities[r]
}

var (
	ErrUnknownRole = errors.New("unknown role")
	// ErrNotFound is returned by Store lookups that match no record.
	ErrNotFound = errors.New("principal not found")
	// ErrDuplicate is returned by Store.Create when a unique field (email,
	// phone, google id, public id) is already taken within the role.
	ErrDuplicate = errors.New("principal already exists")
	// ErrNoCredential is returned by Validate when a non-admin principal has
	// neither a password hash nor a google id.
	ErrNoCredential = errors.New("principal has no credential")
)

// Hasher is the hashing capability SetPassword needs.
type Hasher interface {
	Hash(plaintext string) (string, error)
}

// Principal is the identity record of a user, tutor or admin.
type Principal struct {
	// ID is the storage key. Tokens are bound to it.
	ID string
	// PublicID is the stable external identifier exposed to clients.
	PublicID string
	Role     Role

	FullName     string
	Email        string
	Phone        string
	ProfileImage string

	PasswordHash string
	GoogleID     string

	IsVerified bool
	IsBlocked  bool

	RefreshToken           string
	PasswordResetTokenHash string
	PasswordResetExpiry    time.Time

	LastLogin time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail trims and lower-cases an address; emails are unique per role
// in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword hashes plaintext and replaces the stored hash. It is the only way
// the password changes and it always re-hashes.
func (p *Principal) SetPassword(h Hasher, plaintext string) error {
	hash, err := h.Hash(plaintext)
	if err != nil {
		return err
	}
	p.PasswordHash = hash
	return nil
}

// HasPassword reports whether password login is possible for p.
func (p *Principal) HasPassword() bool {
	return p.PasswordHash != ""
}

// Active reports whether p may authenticate: verified and not blocked. Admins
// are implicitly verified.
func (p *Principal) Active() bool {
	if p.IsBlocked {
		return false
	}
	return p.Role == RoleAdmin || p.IsVerified
}

// SetResetToken stores a reset digest and its expiry.
func (p *Principal) SetResetToken(digest string, expiresAt time.Time) {
	p.PasswordResetTokenHash = digest
	p.PasswordResetExpiry = expiresAt
}

// ClearResetToken drops the reset digest and expiry.
func (p *Principal) ClearResetToken() {
	p.PasswordResetTokenHash = ""
	p.PasswordResetExpiry = time.Time{}
}

// ResetTokenValid reports whether digest matches the stored one and has not
// expired at now.
func (p *Principal) ResetTokenValid(digest string, now time.Time) bool {
	if p.PasswordResetTokenHash == "" || digest == "" {
		return false
	}
	if p.PasswordResetTokenHash != digest {
		return false
	}
	return now.Before(p.PasswordResetExpiry)
}

// LinkGoogle backfills the federated identity on an existing account. An
// empty profileImage keeps the current image.
func (p *Principal) LinkGoogle(googleID, profileImage string) {
	p.GoogleID = googleID
	if profileImage != "" {
		p.ProfileImage = profileImage
	}
	p.IsVerified = true
}

// Validate checks the record-level invariants before persisting.
func (p *Principal) Validate() error {
	if !p.Role.Valid() {
		return ErrUnknownRole
	}
	if p.Email == "" {
		return errors.New("principal email is required")
	}
	if p.PublicID == "" {
		return errors.New("principal public id is required")
	}
	if p.Role != RoleAdmin && p.PasswordHash == "" && p.GoogleID == "" {
		return ErrNoCredential
	}
	if p.Role == RoleAdmin && p.PasswordHash == "" {
		return ErrNoCredential
	}
	return nil
}

// Clone returns a copy of p safe to mutate independently.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
