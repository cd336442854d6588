package util

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
}

func TestTruncate_RuneBoundary(t *testing.T) {
	// 200 three-byte runes; a limit of 500 lands inside the 167th rune and
	// must back up to the previous boundary instead of splitting it.
	s := strings.Repeat("世", 200)

	out := Truncate(s, 500)

	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, strings.Repeat("世", 166)+"...", out)
}
