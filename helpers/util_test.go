package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"RTX 4060", "rtx-4060"},
		{"RTX 4060 Ti", "rtx-4060-ti"},
		{"  GTX  1660   Super  ", "gtx-1660-super"},
		{"placa-de-video/vga", "placa-de-video-vga"},
		{"RX_6600", "rx-6600"},
		{"café & cia", "caf-cia"},
		{"", ""},
		{"---", ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Slugify(tc.input), "input: %q", tc.input)
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", TruncateRunes("abc", 10))
	assert.Equal(t, "abc", TruncateRunes("abcdef", 3))
	assert.Equal(t, "víd", TruncateRunes("vídeo", 3), "runes, not bytes")
	assert.Equal(t, "", TruncateRunes("", 5))
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace("  a \t b\n\nc "))
	assert.Equal(t, "", CollapseWhitespace(" \t\n "))
	assert.Equal(t, "abc", CollapseWhitespace("abc"))
}
