// Package models defines the records persisted by the URL store,
// the DTOs rendered on the dashboard, and the error taxonomy shared
// between the storage, service, and HTTP layers.
package models

import "errors"

// User is a registered account. PasswordHash holds a bcrypt hash;
// the raw password is never stored.
type User struct {
	ID           string
	Email        string
	PasswordHash string
}

// URL is a stored short-link record. ShortCode is immutable once
// assigned and unique across all records. ClickCount only grows and
// is mutated exclusively by the resolve path.
type URL struct {
	ID          int64
	OriginalURL string
	ShortCode   string
	ClickCount  int64
	OwnerID     string
}

// DashboardRow is a single entry on a user's dashboard listing.
type DashboardRow struct {
	ShortCode   string `json:"short_code"`
	ShortURL    string `json:"short_url" validate:"required,url"`
	OriginalURL string `json:"original_url" validate:"required,url"`
	ClickCount  int64  `json:"click_count"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeMemory
)

// ErrNotFound is returned when no URL record exists for a short code.
var ErrNotFound = errors.New("short code not found")

// ErrDuplicateCode signals that an insert lost the race for a short code.
// It never leaves the service layer: the caller regenerates and retries.
var ErrDuplicateCode = errors.New("short code already taken")

// ErrGenerationExhausted is returned when the code generator runs out
// of retry budget without finding a free code.
var ErrGenerationExhausted = errors.New("the number of attempts to generate a unique short code has been exceeded")

// ErrUserNotFound is returned when no user exists for an ID or email.
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when registration hits the unique
// email constraint. The user table stays unchanged.
var ErrDuplicateEmail = errors.New("email address already exists")

// ErrInvalidCredentials covers both an unknown email and a wrong
// password, so login failures do not reveal which one it was.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidURL is returned when a submitted URL is empty or is not
// an absolute http(s) URL.
var ErrInvalidURL = errors.New("there is no valid URL in the request")
