package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/tutorAuth/principal"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var principalColumns = []string{
	"id", "public_id", "full_name", "email", "phone", "profile_image",
	"password_hash", "google_id", "is_verified", "is_blocked", "refresh_token",
	"reset_token_hash", "reset_expiry", "last_login", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return New(mock), mock
}

func samplePrincipal() *principal.Principal {
	return &principal.Principal{
		PublicID:     "pub-1",
		Role:         principal.RoleTutor,
		FullName:     "Tara",
		Email:        "t@x.com",
		Phone:        "9876543210",
		PasswordHash: "$2a$04$hash",
	}
}

func TestFindByEmailScansRecord(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	id := uuid.NewString()

	mock.ExpectQuery(`FROM tutors WHERE email = \$1`).
		WithArgs("t@x.com").
		WillReturnRows(pgxmock.NewRows(principalColumns).AddRow(
			id, "pub-1", "Tara", "t@x.com", "9876543210", "",
			"$2a$04$hash", "", true, false, "refresh",
			"", nil, now, now, now,
		))

	p, err := store.FindByEmail(context.Background(), principal.RoleTutor, " T@X.com")
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, principal.RoleTutor, p.Role)
	assert.True(t, p.IsVerified)
	assert.Equal(t, "refresh", p.RefreshToken)
	assert.True(t, p.PasswordResetExpiry.IsZero())
	assert.True(t, p.LastLogin.Equal(now))
}

func TestFindMissingIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM users WHERE public_id = \$1`).
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows(principalColumns))

	_, err := store.FindByPublicID(context.Background(), principal.RoleUser, "nope")
	assert.ErrorIs(t, err, principal.ErrNotFound)
}

func TestFindByIDRejectsMalformedIDWithoutQuery(t *testing.T) {
	store, _ := newMockStore(t)

	_, err := store.FindByID(context.Background(), principal.RoleUser, "not-a-uuid")
	assert.ErrorIs(t, err, principal.ErrNotFound)
}

func TestFindByResetTokenHashFiltersOnExpiry(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`FROM users WHERE reset_token_hash = \$1 AND reset_expiry > \$2`).
		WithArgs("digest", now).
		WillReturnRows(pgxmock.NewRows(principalColumns))

	_, err := store.FindByResetTokenHash(context.Background(), principal.RoleUser, "digest", now)
	assert.ErrorIs(t, err, principal.ErrNotFound)

	_, err = store.FindByResetTokenHash(context.Background(), principal.RoleUser, "", now)
	assert.ErrorIs(t, err, principal.ErrNotFound)
}

func TestFindQueryErrorIsWrapped(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM admins WHERE email = \$1`).
		WillReturnError(errors.New("connection refused"))

	_, err := store.FindByEmail(context.Background(), principal.RoleAdmin, "root@x.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, principal.ErrNotFound)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCreateAssignsID(t *testing.T) {
	store, mock := newMockStore(t)
	p := samplePrincipal()

	mock.ExpectExec(`INSERT INTO tutors`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Create(context.Background(), p))
	_, err := uuid.Parse(p.ID)
	assert.NoError(t, err)
}

func TestCreateUniqueViolationIsDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO tutors`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "tutors_email_key"})

	err := store.Create(context.Background(), samplePrincipal())
	assert.ErrorIs(t, err, principal.ErrDuplicate)
}

func TestCreateRejectsInvalidRecordWithoutQuery(t *testing.T) {
	store, _ := newMockStore(t)
	p := samplePrincipal()
	p.PasswordHash = ""

	assert.ErrorIs(t, store.Create(context.Background(), p), principal.ErrNoCredential)
}

func TestSaveMissingRowIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	p := samplePrincipal()
	p.ID = uuid.NewString()

	mock.ExpectExec(`UPDATE tutors SET`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, store.Save(context.Background(), p), principal.ErrNotFound)
}

func TestSaveUniqueViolationIsDuplicate(t *testing.T) {
	store, mock := newMockStore(t)
	p := samplePrincipal()
	p.ID = uuid.NewString()

	mock.ExpectExec(`UPDATE tutors SET`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	assert.ErrorIs(t, store.Save(context.Background(), p), principal.ErrDuplicate)
}

func TestUnknownRole(t *testing.T) {
	store, _ := newMockStore(t)

	_, err := store.FindByEmail(context.Background(), principal.Role("Parent"), "p@x.com")
	assert.ErrorIs(t, err, principal.ErrUnknownRole)
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db/auth", migrateURL("postgres://u:p@db/auth"))
	assert.Equal(t, "pgx5://u:p@db/auth", migrateURL("postgresql://u:p@db/auth"))
	assert.Equal(t, "pgx5://db/auth", migrateURL("pgx5://db/auth"))
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
