// Package memorystorage is an in-memory implementation of the URL
// store. It backs tests and DSN-less development runs and keeps the
// same error taxonomy as the PostgreSQL storage.
package memorystorage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/urlclip/internal/models"
)

type MemoryStorage struct {
	mu           sync.RWMutex
	usersByID    map[string]*models.User
	usersByEmail map[string]*models.User
	urlsByCode   map[string]*models.URL
	urlsOrdered  []*models.URL
	nextURLID    int64
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		usersByID:    map[string]*models.User{},
		usersByEmail: map[string]*models.User{},
		urlsByCode:   map[string]*models.URL{},
		nextURLID:    1,
	}, nil
}

// CreateUser inserts a new user. The email must be unused;
// otherwise models.ErrDuplicateEmail is returned and nothing changes.
func (s *MemoryStorage) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[email]; exists {
		return nil, models.ErrDuplicateEmail
	}

	usr := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
	}
	s.usersByID[usr.ID] = usr
	s.usersByEmail[usr.Email] = usr

	copied := *usr

	return &copied, nil
}

func (s *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr, found := s.usersByEmail[email]
	if !found {
		return nil, models.ErrUserNotFound
	}

	copied := *usr

	return &copied, nil
}

func (s *MemoryStorage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr, found := s.usersByID[userID]
	if !found {
		return nil, models.ErrUserNotFound
	}

	copied := *usr

	return &copied, nil
}

// InsertURL claims a short code for the given original URL and owner.
// A concurrent claim of the same code loses with models.ErrDuplicateCode,
// mirroring the unique constraint of the PostgreSQL storage.
func (s *MemoryStorage) InsertURL(ctx context.Context, code, originalURL, ownerID string) (*models.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.urlsByCode[code]; exists {
		return nil, models.ErrDuplicateCode
	}

	record := &models.URL{
		ID:          s.nextURLID,
		OriginalURL: originalURL,
		ShortCode:   code,
		ClickCount:  0,
		OwnerID:     ownerID,
	}
	s.nextURLID++
	s.urlsByCode[code] = record
	s.urlsOrdered = append(s.urlsOrdered, record)

	copied := *record

	return &copied, nil
}

func (s *MemoryStorage) FindByCode(ctx context.Context, code string) (*models.URL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, found := s.urlsByCode[code]
	if !found {
		return nil, models.ErrNotFound
	}

	copied := *record

	return &copied, nil
}

// ListByOwner returns the owner's URL records in insertion order.
// An owner with no records gets an empty slice, not an error.
func (s *MemoryStorage) ListByOwner(ctx context.Context, ownerID string) ([]models.URL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.URL{}
	for _, record := range s.urlsOrdered {
		if record.OwnerID == ownerID {
			result = append(result, *record)
		}
	}

	return result, nil
}

// IncrementClick atomically bumps the click count of the record and
// returns the updated copy.
func (s *MemoryStorage) IncrementClick(ctx context.Context, code string) (*models.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, found := s.urlsByCode[code]
	if !found {
		return nil, models.ErrNotFound
	}

	record.ClickCount++

	copied := *record

	return &copied, nil
}

func (s *MemoryStorage) IsCodeExists(ctx context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.urlsByCode[code]

	return exists, nil
}

func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
