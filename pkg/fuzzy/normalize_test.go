package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		input       string
		expected    string
		description string
	}{
		{"alice", "alice", "lowercase passes through"},
		{"Alice", "alice", "upper-case ASCII folds"},
		{"HAMBURGER", "hamburger", "all caps fold"},
		{"a-b_c.9!", "a-b_c.9!", "ASCII punctuation and digits unchanged"},
		{"", "", "empty stays empty"},
		{" \t", " \t", "whitespace is not special"},
		{"é", string([]byte{1 + 0xE9%31}), "non-ASCII reduces to overflow code"},
		{"ab\xffcd", "abcd", "invalid UTF-8 byte is skipped"},
		{"\xff\xfe", "", "only invalid bytes yields empty"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Normalize(tc.input), tc.description)
	}
}

func TestNormalizeCollisions(t *testing.T) {
	// Code points 31 apart land on the same internal character. That is the
	// accepted trade-off of the reduced alphabet.
	assert.Equal(t, Normalize("é"), Normalize(string(rune(0xE9+31))))
	// Printable ASCII never collides with the overflow range: overflow codes
	// are 1..31, printable ASCII starts at 32.
	assert.NotEqual(t, Normalize("a"), Normalize("é"))
}
