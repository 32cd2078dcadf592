package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursor_RoundTrip(t *testing.T) {
	for _, offset := range []int{0, 1, 10, 12345} {
		token := CursorAt(offset)
		assert.Equal(t, offset, token.Offset())
	}
}

func TestCursor_AbsentMeansZero(t *testing.T) {
	assert.Equal(t, 0, Cursor("").Offset())
}

func TestCursor_InvalidMeansZero(t *testing.T) {
	assert.Equal(t, 0, Cursor("!!garbage!!").Offset())
	// Valid base64 but not a number.
	assert.Equal(t, 0, Cursor("aGVsbG8=").Offset())
	// Negative offsets are clamped to the start.
	negative := CursorAt(-5)
	assert.Equal(t, 0, negative.Offset())
}

func TestCursor_Opaque(t *testing.T) {
	// The token must not leak the raw offset representation.
	assert.NotEqual(t, "25", string(CursorAt(25)))
}

func TestNextCursor(t *testing.T) {
	assert.Empty(t, NextCursor(0, 10, 5), "short page has no next")
	assert.Empty(t, NextCursor(0, 0, 0), "degenerate limit has no next")

	next := NextCursor(0, 10, 10)
	assert.Equal(t, 10, next.Offset())

	next = NextCursor(10, 10, 10)
	assert.Equal(t, 20, next.Offset())
}
