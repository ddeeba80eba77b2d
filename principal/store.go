package principal

import (
	"context"
	"time"
)

// Store is the credential store contract. Each role is a separate collection:
// lookups never cross roles.
//
// Implementations must be safe for concurrent use. Save overwrites the whole
// record identified by p.ID (last write wins).
type Store interface {
	FindByID(ctx context.Context, role Role, id string) (*Principal, error)
	FindByPublicID(ctx context.Context, role Role, publicID string) (*Principal, error)
	FindByEmail(ctx context.Context, role Role, email string) (*Principal, error)
	FindByGoogleID(ctx context.Context, role Role, googleID string) (*Principal, error)
	// FindByResetTokenHash returns the principal whose stored reset digest
	// equals digest and whose reset expiry is after now.
	FindByResetTokenHash(ctx context.Context, role Role, digest string, now time.Time) (*Principal, error)
	// Create assigns p.ID when empty and persists a new record.
	Create(ctx context.Context, p *Principal) error
	Save(ctx context.Context, p *Principal) error
}
