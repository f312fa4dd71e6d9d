package journal

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "short message kept as-is",
			input:    "Feeling better today",
			expected: "Feeling better today",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  rough morning  \n",
			expected: "rough morning",
		},
		{
			name:     "exactly forty runes kept without suffix",
			input:    strings.Repeat("a", 40),
			expected: strings.Repeat("a", 40),
		},
		{
			name:     "forty-one runes truncated with ellipsis",
			input:    strings.Repeat("a", 41),
			expected: strings.Repeat("a", 40) + "...",
		},
		{
			name:     "long message truncated at rune boundary",
			input:    strings.Repeat("Ж", 60),
			expected: strings.Repeat("Ж", 40) + "...",
		},
		{
			name:     "empty input yields empty title",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace-only input yields empty title",
			input:    "   \t ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveTitle(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestDeriveTitleTrimsBeforeMeasuring(t *testing.T) {
	// Padding alone must not trigger truncation.
	input := strings.Repeat(" ", 50) + "short" + strings.Repeat(" ", 50)
	assert.Equal(t, "short", DeriveTitle(input))
}
