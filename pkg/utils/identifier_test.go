package utils_test

import (
	"testing"

	"github.com/pseudomuto/squeaky/pkg/utils"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple identifier",
			input:    "users",
			expected: `"users"`,
		},
		{
			name:     "identifier with spaces",
			input:    "my table",
			expected: `"my table"`,
		},
		{
			name:     "identifier with embedded quote",
			input:    `we"ird`,
			expected: `"we""ird"`,
		},
		{
			name:     "already quoted identifier",
			input:    `"users"`,
			expected: `"users"`,
		},
		{
			name:     "reserved keyword",
			input:    "order",
			expected: `"order"`,
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, utils.QuoteIdentifier(tt.input))
		})
	}
}

func TestIsQuoted(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{`"users"`, true},
		{`"we""ird"`, true},
		{"users", false},
		{`"a" "b"`, false},
		{`"`, false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, utils.IsQuoted(tt.input))
		})
	}
}

func TestUnquoteIdentifier(t *testing.T) {
	require.Equal(t, "users", utils.UnquoteIdentifier(`"users"`))
	require.Equal(t, `we"ird`, utils.UnquoteIdentifier(`"we""ird"`))
	require.Equal(t, "users", utils.UnquoteIdentifier("users"))
	require.Equal(t, `we"ird`, utils.UnquoteIdentifier(utils.QuoteIdentifier(`we"ird`)))
}
