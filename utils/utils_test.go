package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssertInvariant(t *testing.T) {
	assert.NotPanics(t, func() { AssertInvariant(true, "ok") })
	assert.PanicsWithValue(t, "invariant violated - boom", func() { AssertInvariant(false, "boom") })
}

func TestSameStringSet(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want bool
	}{
		{"same order", []string{"a", "b"}, []string{"a", "b"}, true},
		{"different order", []string{"b", "a"}, []string{"a", "b"}, true},
		{"duplicates ignored", []string{"a", "a", "b"}, []string{"b", "a"}, true},
		{"both empty", nil, []string{}, true},
		{"different", []string{"a"}, []string{"a", "b"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameStringSet(tt.a, tt.b))
		})
	}
}

func TestDifference(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, Difference([]string{"a", "b", "c"}, []string{"b"}))
	assert.Nil(t, Difference([]string{"a"}, []string{"a"}))
	assert.Nil(t, Difference(nil, []string{"a"}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel…", Truncate("hello", 4))
	assert.Equal(t, "h", Truncate("hello", 1))
}
