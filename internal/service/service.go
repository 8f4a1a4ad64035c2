// Package service implements the core operations of the shortener:
// creating collision-safe short links, resolving them with click
// accounting, and listing a user's links for the dashboard.
package service

import (
	"context"
	"errors"
	"net/url"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/urlclip/internal/models"
	"github.com/patric-chuzhbe/urlclip/internal/shortcode"
)

type urlsKeeper interface {
	InsertURL(ctx context.Context, code, originalURL, ownerID string) (*models.URL, error)
	FindByCode(ctx context.Context, code string) (*models.URL, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.URL, error)
	IncrementClick(ctx context.Context, code string) (*models.URL, error)
	IsCodeExists(ctx context.Context, code string) (bool, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	urlsKeeper
	pinger
}

// Service exposes the shortener operations over a URL store.
type Service struct {
	db           storage
	generator    *shortcode.Generator
	shortURLBase string
}

func New(db storage, shortURLBase string) *Service {
	return &Service{
		db:           db,
		generator:    shortcode.New(db.IsCodeExists),
		shortURLBase: shortURLBase,
	}
}

// Shorten validates the URL, generates a free short code, and inserts
// the record. The generator's existence check is only advisory: when a
// concurrent insert wins the race for the same code, the store's
// unique constraint rejects this writer and the loop regenerates.
// models.ErrDuplicateCode never reaches the caller.
func (s *Service) Shorten(ctx context.Context, originalURL, ownerID string) (*models.URL, error) {
	if !isValidURL(originalURL) {
		return nil, models.ErrInvalidURL
	}

	for i := 0; i < shortcode.TriesToGenerateUniqueCode; i++ {
		code, err := s.generator.Generate(ctx)
		if err != nil {
			return nil, err
		}

		record, err := s.db.InsertURL(ctx, code, originalURL, ownerID)
		if err != nil {
			if errors.Is(err, models.ErrDuplicateCode) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, models.ErrGenerationExhausted
}

// Resolve returns the original URL for a short code and increments its
// click count as one logical operation. The increment is the lookup:
// a failed increment fails the resolve, so a successful redirect is
// always reflected in the count.
func (s *Service) Resolve(ctx context.Context, code string) (string, error) {
	record, err := s.db.IncrementClick(ctx, code)
	if err != nil {
		return "", err
	}

	return record.OriginalURL, nil
}

// UserURLs returns the owner's dashboard rows in insertion order.
func (s *Service) UserURLs(ctx context.Context, ownerID string) ([]models.DashboardRow, error) {
	records, err := s.db.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return funk.Map(records, func(record models.URL) models.DashboardRow {
		return models.DashboardRow{
			ShortCode:   record.ShortCode,
			ShortURL:    s.ShortURL(record.ShortCode),
			OriginalURL: record.OriginalURL,
			ClickCount:  record.ClickCount,
		}
	}).([]models.DashboardRow), nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// ShortURL renders the public form of a short code.
func (s *Service) ShortURL(code string) string {
	return s.shortURLBase + "/" + code
}

func isValidURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil &&
		(u.Scheme == "http" || u.Scheme == "https") &&
		u.Host != ""
}
