package postgresdb

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/urlclip/internal/models"
)

func newMockedDB(t *testing.T) (*PostgresDB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mockDB.Close()
	})

	return &PostgresDB{
		database:          mockDB,
		connectionTimeout: time.Second,
	}, mock
}

func uniqueViolation(constraint string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: constraint,
	}
}

func TestCreateUser(t *testing.T) {
	db, mock := newMockedDB(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice@example.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("4f2d7c2e-0000-0000-0000-000000000001"))

	usr, err := db.CreateUser(context.Background(), "alice@example.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, "4f2d7c2e-0000-0000-0000-000000000001", usr.ID)
	assert.Equal(t, "alice@example.com", usr.Email)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock := newMockedDB(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice@example.com", "hash").
		WillReturnError(uniqueViolation("users_email_key"))

	_, err := db.CreateUser(context.Background(), "alice@example.com", "hash")
	require.ErrorIs(t, err, models.ErrDuplicateEmail)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmailNotFound(t *testing.T) {
	db, mock := newMockedDB(t)

	mock.ExpectQuery(`SELECT id, email, password_hash FROM users WHERE email`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash"}))

	_, err := db.GetUserByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, models.ErrUserNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertURL(t *testing.T) {
	db, mock := newMockedDB(t)

	mock.ExpectQuery(`INSERT INTO urls`).
		WithArgs("abc123", "https://example.com", "owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "click_count"}).AddRow(int64(1), int64(0)))

	record, err := db.InsertURL(context.Background(), "abc123", "https://example.com", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.ID)
	assert.Equal(t, int64(0), record.ClickCount)
	assert.Equal(t, "abc123", record.ShortCode)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertURLDuplicateCode(t *testing.T) {
	db, mock := newMockedDB(t)

	mock.ExpectQuery(`INSERT INTO urls`).
		WithArgs("abc123", "https://example.com", "owner-1").
		WillReturnError(uniqueViolation("urls_short_code_key"))

	_, err := db.InsertURL(context.Background(), "abc123", "https://example.com", "owner-1")
	require.ErrorIs(t, err, models.ErrDuplicateCode)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByCodeNotFound(t *testing.T) {
	db, mock := newMockedDB(t)

	mock.ExpectQuery(`SELECT id, original_url, short_code, click_count, owner_id FROM urls`).
		WithArgs("zzzzzz").
		WillReturnRows(sqlmock.NewRows([]string{"id", "original_url", "short_code", "click_count", "owner_id"}))

	_, err := db.FindByCode(context.Background(), "zzzzzz")
	require.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementClick(t *testing.T) {
	db, mock := newMockedDB(t)

	mock.ExpectQuery(`UPDATE urls`).
		WithArgs("abc123").
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "original_url", "short_code", "click_count", "owner_id"}).
				AddRow(int64(1), "https://example.com", "abc123", int64(5), "owner-1"),
		)

	record, err := db.IncrementClick(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(5), record.ClickCount)
	assert.Equal(t, "https://example.com", record.OriginalURL)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementClickNotFound(t *testing.T) {
	db, mock := newMockedDB(t)

	mock.ExpectQuery(`UPDATE urls`).
		WithArgs("zzzzzz").
		WillReturnRows(sqlmock.NewRows([]string{"id", "original_url", "short_code", "click_count", "owner_id"}))

	_, err := db.IncrementClick(context.Background(), "zzzzzz")
	require.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByOwner(t *testing.T) {
	db, mock := newMockedDB(t)

	mock.ExpectQuery(`SELECT id, original_url, short_code, click_count, owner_id`).
		WithArgs("owner-1").
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "original_url", "short_code", "click_count", "owner_id"}).
				AddRow(int64(1), "https://a.example.com", "aaaaaa", int64(2), "owner-1").
				AddRow(int64(2), "https://b.example.com", "bbbbbb", int64(0), "owner-1"),
		)

	records, err := db.ListByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "aaaaaa", records[0].ShortCode)
	assert.Equal(t, "bbbbbb", records[1].ShortCode)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByOwnerEmpty(t *testing.T) {
	db, mock := newMockedDB(t)

	mock.ExpectQuery(`SELECT id, original_url, short_code, click_count, owner_id`).
		WithArgs("owner-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "original_url", "short_code", "click_count", "owner_id"}))

	records, err := db.ListByOwner(context.Background(), "owner-2")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsCodeExists(t *testing.T) {
	db, mock := newMockedDB(t)

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := db.IsCodeExists(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs("zzzzzz").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err = db.IsCodeExists(context.Background(), "zzzzzz")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, mock.ExpectationsWereMet())
}
