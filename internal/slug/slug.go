// Package slug derives URL slugs from trip names and allocates them against
// the set of slugs already in use.
package slug

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Kerhoff/TripGuide/internal/apperr"
)

// DefaultMaxAttempts bounds the suffix search
const DefaultMaxAttempts = 100

// Slugify lowercases name, folds accents to ASCII and joins the remaining
// alphanumeric runs with single hyphens.
func Slugify(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// ExistsFunc reports whether a slug is already taken
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Allocator hands out the first free slug among candidate, candidate-2,
// candidate-3 and so on. It only reads; the unique constraint on the trips
// table is the final arbiter, so callers retry when the insert still clashes.
type Allocator struct {
	exists      ExistsFunc
	maxAttempts int
}

// NewAllocator creates an allocator backed by exists
func NewAllocator(exists ExistsFunc) *Allocator {
	return &Allocator{exists: exists, maxAttempts: DefaultMaxAttempts}
}

// Allocate returns a free slug derived from candidate. The candidate is
// slugified first, so a raw trip name may be passed.
func (a *Allocator) Allocate(ctx context.Context, candidate string) (string, error) {
	base := Slugify(candidate)
	if base == "" {
		return "", apperr.Validation("slug", "trip name %q does not produce a usable slug", candidate)
	}

	for n := 1; n <= a.maxAttempts; n++ {
		s := base
		if n > 1 {
			s = fmt.Sprintf("%s-%d", base, n)
		}
		taken, err := a.exists(ctx, s)
		if err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", s, err)
		}
		if !taken {
			return s, nil
		}
	}
	return "", apperr.Conflict("slug", "no free slug for %q after %d attempts", base, a.maxAttempts)
}
