package slug

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/TripGuide/internal/apperr"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Venice to Barcelona Cruise 26!", "venice-to-barcelona-cruise-26"},
		{"  Hawaii -- Maui  ", "hawaii-maui"},
		{"Côte d'Azur Escape", "cote-d-azur-escape"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func takenSet(slugs ...string) ExistsFunc {
	set := make(map[string]bool)
	for _, s := range slugs {
		set[s] = true
	}
	return func(ctx context.Context, s string) (bool, error) {
		return set[s], nil
	}
}

func TestAllocateSuffixes(t *testing.T) {
	ctx := context.Background()

	got, err := NewAllocator(takenSet()).Allocate(ctx, "Venice to Barcelona Cruise 26!")
	require.NoError(t, err)
	assert.Equal(t, "venice-to-barcelona-cruise-26", got)

	got, err = NewAllocator(takenSet("venice-to-barcelona-cruise-26")).Allocate(ctx, "Venice to Barcelona Cruise 26")
	require.NoError(t, err)
	assert.Equal(t, "venice-to-barcelona-cruise-26-2", got)

	got, err = NewAllocator(takenSet("hawaii", "hawaii-2", "hawaii-3")).Allocate(ctx, "hawaii")
	require.NoError(t, err)
	assert.Equal(t, "hawaii-4", got)
}

func TestAllocateEmptyCandidate(t *testing.T) {
	_, err := NewAllocator(takenSet()).Allocate(context.Background(), "???")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestAllocateExhausted(t *testing.T) {
	a := &Allocator{
		exists:      func(ctx context.Context, s string) (bool, error) { return true, nil },
		maxAttempts: 3,
	}
	_, err := a.Allocate(context.Background(), "busy")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestAllocateLookupError(t *testing.T) {
	boom := errors.New("db down")
	a := NewAllocator(func(ctx context.Context, s string) (bool, error) { return false, boom })

	_, err := a.Allocate(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}
