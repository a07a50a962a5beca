package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Message is an immutable record of one captured group-chat message.
// Rows are append-only: messages are never mutated or deleted by the bot.
type Message struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	ChatID    int64          `db:"chat_id"`
	ChatTitle string         `db:"chat_title"`
	UserID    sql.NullInt64  `db:"user_id"`
	Username  sql.NullString `db:"username"`  // stored with a leading @
	FullName  sql.NullString `db:"full_name"`
	Text      string         `db:"text"`
	TS        int64          `db:"ts"` // capture time, epoch seconds UTC
	MessageID sql.NullInt64  `db:"message_id"`
}

// AuthorLabel returns the display label used to group a message's author:
// username if present, else full name, else a synthetic id label.
func (m *Message) AuthorLabel() string {
	if m.Username.Valid && m.Username.String != "" {
		return m.Username.String
	}
	if m.FullName.Valid && m.FullName.String != "" {
		return m.FullName.String
	}
	if m.UserID.Valid {
		return fmt.Sprintf("id:%d", m.UserID.Int64)
	}
	return "unknown"
}

// ChatSubscription is a chat's enrollment state for automated digests.
// Rows are never physically deleted; unsubscribing sets Enabled to false.
type ChatSubscription struct {
	ChatID    int64     `db:"chat_id"`
	Title     string    `db:"title"`
	Enabled   bool      `db:"enabled"`
	UpdatedAt time.Time `db:"updated_at"`

	// DigestHour is the preferred delivery hour (0-23) in the
	// subscription's local time zone.
	DigestHour int `db:"digest_hour"`

	// Timezone is an IANA zone name; empty means the configured default.
	Timezone string `db:"timezone"`

	// LastDigestAt is the delivered watermark (epoch seconds) used to
	// suppress duplicate deliveries within the same due hour. Zero means
	// no digest has ever been delivered.
	LastDigestAt int64 `db:"last_digest_at"`
}
