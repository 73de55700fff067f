package core

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	t.Run("prefixes and lowercases", func(t *testing.T) {
		id := NewID("TAG")
		require.True(t, strings.HasPrefix(id, "tag_"))
		_, err := ulid.ParseStrict(strings.TrimPrefix(id, "tag_"))
		assert.NoError(t, err)
	})

	t.Run("generates unique ids", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			id := NewID("ut")
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	})

	t.Run("panics on empty prefix", func(t *testing.T) {
		assert.Panics(t, func() { NewID("  ") })
	})
}

func TestIsNotFoundError(t *testing.T) {
	assert.False(t, IsNotFoundError(nil))
	assert.True(t, IsNotFoundError(ErrNotFound))
	assert.False(t, IsNotFoundError(assert.AnError))
	assert.True(t, IsNotFoundError(errString("user_not_found")))
	assert.True(t, IsNotFoundError(errString(`HTTP 404 Not Found, {"message": "Unknown Member", "code": 10007}`)))
	assert.False(t, IsNotFoundError(errString("ratelimited")))
}

type errString string

func (e errString) Error() string { return string(e) }
