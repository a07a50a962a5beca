package handlers

import (
	"testing"
)

func TestParseChatIDArg(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		input      string
		expected   int64
		expectedOK bool
	}{
		{
			name:       "supergroup id",
			input:      "/subscribe -1001234567890",
			expected:   -1001234567890,
			expectedOK: true,
		},
		{
			name:       "positive id",
			input:      "/unsubscribe 424242",
			expected:   424242,
			expectedOK: true,
		},
		{
			name:       "extra whitespace between fields",
			input:      "/subscribe    -1001234567890",
			expected:   -1001234567890,
			expectedOK: true,
		},
		{
			name:  "missing argument",
			input: "/subscribe",
		},
		{
			name:  "too many arguments",
			input: "/subscribe -100 123",
		},
		{
			name:  "non-numeric argument",
			input: "/subscribe alpha",
		},
		{
			name:  "zero chat id",
			input: "/subscribe 0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parseChatIDArg(tc.input)
			if ok != tc.expectedOK {
				t.Fatalf("parseChatIDArg(%q) ok = %v, want %v", tc.input, ok, tc.expectedOK)
			}
			if got != tc.expected {
				t.Errorf("parseChatIDArg(%q) = %d, want %d", tc.input, got, tc.expected)
			}
		})
	}
}
