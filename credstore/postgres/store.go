// Package postgres is a principal.Store backed by PostgreSQL through pgx. Each
// role lives in its own table (users, tutors, admins) with the same shape.
// Empty optional values (phone, google id, reset digest) are stored as NULL so
// the unique constraints only apply to present values.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/tutorAuth/principal"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// Pool is the subset of *pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

var tables = map[principal.Role]string{
	principal.RoleUser:  "users",
	principal.RoleTutor: "tutors",
	principal.RoleAdmin: "admins",
}

const columns = `id, public_id, full_name, email, COALESCE(phone, ''), profile_image,
password_hash, COALESCE(google_id, ''), is_verified, is_blocked, refresh_token,
COALESCE(reset_token_hash, ''), reset_expiry, last_login, created_at, updated_at`

// Store implements principal.Store.
type Store struct {
	pool Pool
}

var _ principal.Store = (*Store)(nil)

// New wraps an existing pool.
func New(pool Pool) *Store {
	return &Store{pool: pool}
}

// Open connects a pgx pool to dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("CREDSTORE_CONNECT_FAILED").In("credstore").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("CREDSTORE_CONNECT_FAILED").In("credstore").With("operation", "ping").Wrap(err)
	}
	return New(pool), nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) FindByID(ctx context.Context, role principal.Role, id string) (*principal.Principal, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, principal.ErrNotFound
	}
	return s.findOne(ctx, role, "find by id", "id = $1", id)
}

func (s *Store) FindByPublicID(ctx context.Context, role principal.Role, publicID string) (*principal.Principal, error) {
	return s.findOne(ctx, role, "find by public id", "public_id = $1", publicID)
}

func (s *Store) FindByEmail(ctx context.Context, role principal.Role, email string) (*principal.Principal, error) {
	return s.findOne(ctx, role, "find by email", "email = $1", principal.NormalizeEmail(email))
}

func (s *Store) FindByGoogleID(ctx context.Context, role principal.Role, googleID string) (*principal.Principal, error) {
	if googleID == "" {
		return nil, principal.ErrNotFound
	}
	return s.findOne(ctx, role, "find by google id", "google_id = $1", googleID)
}

func (s *Store) FindByResetTokenHash(ctx context.Context, role principal.Role, digest string, now time.Time) (*principal.Principal, error) {
	if digest == "" {
		return nil, principal.ErrNotFound
	}
	return s.findOne(ctx, role, "find by reset digest", "reset_token_hash = $1 AND reset_expiry > $2", digest, now)
}

// Create assigns p.ID when empty and inserts the record.
func (s *Store) Create(ctx context.Context, p *principal.Principal) error {
	if err := p.Validate(); err != nil {
		return err
	}
	table, err := tableFor(p.Role)
	if err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, public_id, full_name, email, phone, profile_image,
password_hash, google_id, is_verified, is_blocked, refresh_token,
reset_token_hash, reset_expiry, last_login, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, NULLIF($8, ''), $9, $10, $11, NULLIF($12, ''), $13, $14, $15, $16)`, table)

	created, updated := p.CreatedAt, p.UpdatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	if updated.IsZero() {
		updated = created
	}
	_, err = s.pool.Exec(ctx, query,
		p.ID, p.PublicID, p.FullName, p.Email, p.Phone, p.ProfileImage,
		p.PasswordHash, p.GoogleID, p.IsVerified, p.IsBlocked, p.RefreshToken,
		p.PasswordResetTokenHash, timestamp(p.PasswordResetExpiry), timestamp(p.LastLogin),
		created, updated,
	)
	return writeError("create", p.Role, err)
}

// Save replaces every mutable column of the record with p.ID.
func (s *Store) Save(ctx context.Context, p *principal.Principal) error {
	if err := p.Validate(); err != nil {
		return err
	}
	table, err := tableFor(p.Role)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET public_id = $2, full_name = $3, email = $4,
phone = NULLIF($5, ''), profile_image = $6, password_hash = $7, google_id = NULLIF($8, ''),
is_verified = $9, is_blocked = $10, refresh_token = $11, reset_token_hash = NULLIF($12, ''),
reset_expiry = $13, last_login = $14, updated_at = $15
WHERE id = $1`, table)

	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx, query,
		p.ID, p.PublicID, p.FullName, p.Email, p.Phone, p.ProfileImage,
		p.PasswordHash, p.GoogleID, p.IsVerified, p.IsBlocked, p.RefreshToken,
		p.PasswordResetTokenHash, timestamp(p.PasswordResetExpiry), timestamp(p.LastLogin),
		updated,
	)
	if err != nil {
		return writeError("save", p.Role, err)
	}
	if tag.RowsAffected() == 0 {
		return principal.ErrNotFound
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, role principal.Role, op, where string, args ...any) (*principal.Principal, error) {
	table, err := tableFor(role)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1", columns, table, where)
	p, err := scanPrincipal(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, principal.ErrNotFound
	}
	if err != nil {
		return nil, oops.In("credstore").With("operation", op).With("role", string(role)).Wrap(err)
	}
	p.Role = role
	return p, nil
}

func scanPrincipal(row pgx.Row) (*principal.Principal, error) {
	var (
		p                   principal.Principal
		resetExpiry, lastIn pgtype.Timestamptz
	)
	err := row.Scan(
		&p.ID, &p.PublicID, &p.FullName, &p.Email, &p.Phone, &p.ProfileImage,
		&p.PasswordHash, &p.GoogleID, &p.IsVerified, &p.IsBlocked, &p.RefreshToken,
		&p.PasswordResetTokenHash, &resetExpiry, &lastIn, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if resetExpiry.Valid {
		p.PasswordResetExpiry = resetExpiry.Time
	}
	if lastIn.Valid {
		p.LastLogin = lastIn.Time
	}
	return &p, nil
}

func tableFor(role principal.Role) (string, error) {
	table, ok := tables[role]
	if !ok {
		return "", principal.ErrUnknownRole
	}
	return table, nil
}

func timestamp(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}

// writeError maps unique violations to principal.ErrDuplicate.
func writeError(op string, role principal.Role, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return principal.ErrDuplicate
	}
	return oops.In("credstore").With("operation", op).With("role", string(role)).Wrap(err)
}
