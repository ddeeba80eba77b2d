// Package memory is an in-process principal.Store for development and tests.
// Records are copied on the way in and out, so callers never share memory
// with the store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/tutorAuth/principal"
	"github.com/google/uuid"
)

// Store keeps one table per role guarded by a single RWMutex.
type Store struct {
	mu     sync.RWMutex
	tables map[principal.Role]map[string]*principal.Principal
}

var _ principal.Store = (*Store)(nil)

func New() *Store {
	tables := make(map[principal.Role]map[string]*principal.Principal, len(principal.Roles))
	for _, r := range principal.Roles {
		tables[r] = make(map[string]*principal.Principal)
	}
	return &Store{tables: tables}
}

func (s *Store) FindByID(ctx context.Context, role principal.Role, id string) (*principal.Principal, error) {
	return s.findOne(ctx, role, func(p *principal.Principal) bool { return p.ID == id })
}

func (s *Store) FindByPublicID(ctx context.Context, role principal.Role, publicID string) (*principal.Principal, error) {
	return s.findOne(ctx, role, func(p *principal.Principal) bool { return p.PublicID == publicID })
}

func (s *Store) FindByEmail(ctx context.Context, role principal.Role, email string) (*principal.Principal, error) {
	email = principal.NormalizeEmail(email)
	return s.findOne(ctx, role, func(p *principal.Principal) bool { return p.Email == email })
}

func (s *Store) FindByGoogleID(ctx context.Context, role principal.Role, googleID string) (*principal.Principal, error) {
	if googleID == "" {
		return nil, principal.ErrNotFound
	}
	return s.findOne(ctx, role, func(p *principal.Principal) bool { return p.GoogleID == googleID })
}

func (s *Store) FindByResetTokenHash(ctx context.Context, role principal.Role, digest string, now time.Time) (*principal.Principal, error) {
	if digest == "" {
		return nil, principal.ErrNotFound
	}
	return s.findOne(ctx, role, func(p *principal.Principal) bool {
		return p.PasswordResetTokenHash == digest && now.Before(p.PasswordResetExpiry)
	})
}

// Create assigns p.ID when empty and inserts a copy.
func (s *Store) Create(ctx context.Context, p *principal.Principal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.tables[p.Role]
	if !ok {
		return principal.ErrUnknownRole
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := table[p.ID]; exists {
		return principal.ErrDuplicate
	}
	if conflicts(table, p) {
		return principal.ErrDuplicate
	}
	table[p.ID] = p.Clone()
	return nil
}

// Save replaces the record with p.ID. Unique fields are re-checked against
// every other record of the role.
func (s *Store) Save(ctx context.Context, p *principal.Principal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.tables[p.Role]
	if !ok {
		return principal.ErrUnknownRole
	}
	if _, exists := table[p.ID]; !exists {
		return principal.ErrNotFound
	}
	if conflicts(table, p) {
		return principal.ErrDuplicate
	}
	table[p.ID] = p.Clone()
	return nil
}

// Len returns the number of records of role.
func (s *Store) Len(role principal.Role) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[role])
}

func (s *Store) findOne(ctx context.Context, role principal.Role, match func(*principal.Principal) bool) (*principal.Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	table, ok := s.tables[role]
	if !ok {
		return nil, principal.ErrUnknownRole
	}
	for _, p := range table {
		if match(p) {
			return p.Clone(), nil
		}
	}
	return nil, principal.ErrNotFound
}

// conflicts reports whether another record of the table already holds one
// of p's unique values.
func conflicts(table map[string]*principal.Principal, p *principal.Principal) bool {
	for id, other := range table {
		if id == p.ID {
			continue
		}
		switch {
		case other.Email == p.Email,
			other.PublicID == p.PublicID,
			p.Phone != "" && other.Phone == p.Phone,
			p.GoogleID != "" && other.GoogleID == p.GoogleID:
			return true
		}
	}
	return false
}
