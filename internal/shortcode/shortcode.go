// Package shortcode generates the random aliases that identify stored URLs.
package shortcode

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/patric-chuzhbe/urlclip/internal/models"
)

const symbols = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the length of every generated short code.
const CodeLength = 6

// TriesToGenerateUniqueCode bounds the collision-retry loop. The
// birthday bound makes collisions negligible at sane table sizes, so
// hitting this limit means something is wrong with the store.
const TriesToGenerateUniqueCode = 100

// ExistsFunc reports whether a candidate code is already claimed.
// The check is read-only: the code is reserved by the insert itself,
// under the store's unique constraint.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

type Generator struct {
	exists ExistsFunc
}

func New(exists ExistsFunc) *Generator {
	return &Generator{exists: exists}
}

// Generate returns a CodeLength-character alphanumeric code that was
// free at the moment of the check. On collision it draws a new
// candidate, up to TriesToGenerateUniqueCode times, then fails with
// models.ErrGenerationExhausted.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for i := 0; i < TriesToGenerateUniqueCode; i++ {
		code, err := randomString(CodeLength)
		if err != nil {
			return "", err
		}

		taken, err := g.exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}

	return "", models.ErrGenerationExhausted
}

func randomString(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)

	symbolsCount := big.NewInt(int64(len(symbols)))
	for i := 0; i < length; i++ {
		randomIndex, err := rand.Int(rand.Reader, symbolsCount)
		if err != nil {
			return "", err
		}
		sb.WriteByte(symbols[randomIndex.Int64()])
	}

	return sb.String(), nil
}
