// Package postgresdb provides a PostgreSQL-based implementation of the
// URL store. It persists users and short-link records, runs schema
// migrations on startup, and translates unique-constraint violations
// into the shared error taxonomy.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/urlclip/internal/models"
)

// PostgresDB is a PostgreSQL-backed implementation of the URL store.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables dropping all public tables before migration.
// It is meant for test setups only.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.Up()` calling: %w",
				err,
			)
	}

	return result, nil
}

// CreateUser inserts a new user record and returns it with the
// database-assigned UUID. A unique-constraint violation on the email
// column is returned as models.ErrDuplicateEmail; the table is left
// unchanged in that case.
func (db *PostgresDB) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id`,
		email,
		passwordHash,
	)

	var userID string
	if err := row.Scan(&userID); err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateEmail
		}
		return nil, err
	}

	return &models.User{
		ID:           userID,
		Email:        email,
		PasswordHash: passwordHash,
	}, nil
}

// GetUserByEmail fetches a user by email.
// Returns models.ErrUserNotFound when no such user exists.
func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash FROM users WHERE email = $1`,
		email,
	)

	return scanUser(row)
}

// GetUserByID fetches a user by their UUID.
// Returns models.ErrUserNotFound when no such user exists.
func (db *PostgresDB) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash FROM users WHERE id = $1`,
		userID,
	)

	return scanUser(row)
}

// InsertURL claims a short code for the given original URL and owner.
// The short_code unique constraint is the authoritative guard against
// generation races: the losing writer gets models.ErrDuplicateCode and
// is expected to regenerate.
func (db *PostgresDB) InsertURL(ctx context.Context, code, originalURL, ownerID string) (*models.URL, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO urls (short_code, original_url, owner_id)
				VALUES ($1, $2, $3)
				RETURNING id, click_count
		`,
		code,
		originalURL,
		ownerID,
	)

	record := &models.URL{
		OriginalURL: originalURL,
		ShortCode:   code,
		OwnerID:     ownerID,
	}
	if err := row.Scan(&record.ID, &record.ClickCount); err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateCode
		}
		return nil, err
	}

	return record, nil
}

// FindByCode retrieves the URL record for the given short code.
// Returns models.ErrNotFound when the code is unclaimed.
func (db *PostgresDB) FindByCode(ctx context.Context, code string) (*models.URL, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, original_url, short_code, click_count, owner_id FROM urls WHERE short_code = $1`,
		code,
	)

	return scanURL(row)
}

// ListByOwner returns the owner's URL records in insertion order.
func (db *PostgresDB) ListByOwner(ctx context.Context, ownerID string) ([]models.URL, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT id, original_url, short_code, click_count, owner_id
				FROM urls
				WHERE owner_id = $1
				ORDER BY id
		`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.URL{}
	for rows.Next() {
		var record models.URL
		err = rows.Scan(
			&record.ID,
			&record.OriginalURL,
			&record.ShortCode,
			&record.ClickCount,
			&record.OwnerID,
		)
		if err != nil {
			return nil, err
		}

		result = append(result, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// IncrementClick bumps the click count of the record by one as a single
// row-atomic UPDATE, so concurrent redirects to the same code never
// lose an increment. Returns the updated record, or models.ErrNotFound
// when the code is unclaimed.
func (db *PostgresDB) IncrementClick(ctx context.Context, code string) (*models.URL, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			UPDATE urls
				SET click_count = click_count + 1
				WHERE short_code = $1
				RETURNING id, original_url, short_code, click_count, owner_id
		`,
		code,
	)

	return scanURL(row)
}

// IsCodeExists checks if the specified short code is already claimed.
func (db *PostgresDB) IsCodeExists(ctx context.Context, code string) (bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM urls WHERE short_code = $1`,
		code,
	)
	var codesCount int
	err := row.Scan(&codesCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}

		return false, err
	}

	return codesCount > 0, nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	err := db.database.Close()
	if err != nil {
		return err
	}

	return nil
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var usr models.User
	err := row.Scan(&usr.ID, &usr.Email, &usr.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}

	return &usr, nil
}

func scanURL(row *sql.Row) (*models.URL, error) {
	var record models.URL
	err := row.Scan(
		&record.ID,
		&record.OriginalURL,
		&record.ShortCode,
		&record.ClickCount,
		&record.OwnerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	return &record, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
