package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := Conflict("slug", "slug %q is taken", "venice")
	wrapped := fmt.Errorf("commit trip: %w", base)

	assert.True(t, Is(wrapped, KindConflict))
	assert.False(t, Is(wrapped, KindValidation))
	assert.Equal(t, "slug", FieldOf(wrapped))
	assert.Equal(t, `slug: slug "venice" is taken`, base.Error())
}

func TestTransientUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := Transient(cause, "download failed")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindTransient, KindOf(err))
	assert.Equal(t, "download failed: connection reset", err.Error())
}

func TestUnclassified(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindUnknown))
	assert.Equal(t, "invariant_violation", KindInvariant.String())
}
