package database_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ostapenko/digestbot/internal/database"
)

func TestAuthorLabel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		message  database.Message
		expected string
	}{
		{
			name: "username wins",
			message: database.Message{
				Username: sql.NullString{String: "@alice", Valid: true},
				FullName: sql.NullString{String: "Alice A", Valid: true},
				UserID:   sql.NullInt64{Int64: 7, Valid: true},
			},
			expected: "@alice",
		},
		{
			name: "full name when no username",
			message: database.Message{
				FullName: sql.NullString{String: "Alice A", Valid: true},
				UserID:   sql.NullInt64{Int64: 7, Valid: true},
			},
			expected: "Alice A",
		},
		{
			name: "synthetic id label",
			message: database.Message{
				UserID: sql.NullInt64{Int64: 7, Valid: true},
			},
			expected: "id:7",
		},
		{
			name:     "anonymous sender",
			message:  database.Message{},
			expected: "unknown",
		},
		{
			name: "empty username falls through",
			message: database.Message{
				Username: sql.NullString{String: "", Valid: true},
				FullName: sql.NullString{String: "Bob B", Valid: true},
			},
			expected: "Bob B",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, tc.message.AuthorLabel())
		})
	}
}
