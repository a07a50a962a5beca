package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessage appends a new captured message record.
	SaveMessage(ctx context.Context, message *Message) error

	// GetMessagesSince retrieves all messages for a chat with ts >= since
	// (inclusive), ordered by capture time ascending.
	GetMessagesSince(ctx context.Context, chatID int64, since int64) ([]Message, error)

	// GetSubscription retrieves a chat subscription. Returns nil, nil if not found.
	GetSubscription(ctx context.Context, chatID int64) (*ChatSubscription, error)

	// ListEnabledSubscriptions retrieves all enabled chat subscriptions.
	ListEnabledSubscriptions(ctx context.Context) ([]ChatSubscription, error)

	// UpsertSubscription inserts or updates a chat subscription.
	UpsertSubscription(ctx context.Context, sub *ChatSubscription) error

	// SetSubscriptionEnabled flips the enabled flag for a chat.
	SetSubscriptionEnabled(ctx context.Context, chatID int64, enabled bool) error

	// SetSubscriptionHour updates the preferred delivery hour for a chat.
	SetSubscriptionHour(ctx context.Context, chatID int64, hour int) error

	// SetLastDigestAt persists the delivered watermark for a chat.
	SetLastDigestAt(ctx context.Context, chatID int64, ts int64) error

	// GetSetting retrieves a settings value. Returns "" if the key is absent.
	GetSetting(ctx context.Context, key string) (string, error)

	// SetSetting inserts or replaces a settings value.
	SetSetting(ctx context.Context, key, value string) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveMessage appends a new captured message record.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.ChatID == 0 {
		return fmt.Errorf("message must have a non-zero chat_id")
	}
	if message.Text == "" {
		return fmt.Errorf("message must have non-empty text")
	}
	if message.TS == 0 {
		return fmt.Errorf("message must have a non-zero timestamp")
	}

	message.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO messages (chat_id, chat_title, user_id, username, full_name, text, ts, message_id, created_at)
        VALUES (:chat_id, :chat_title, :user_id, :username, :full_name, :text, :ts, :message_id, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "chat_id", message.ChatID, "error", err)
		return fmt.Errorf("failed to save message (chat %d): %w", message.ChatID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // sqlite rowids fit comfortably in uint
		message.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Message saved", "chat_id", message.ChatID, "message_id", message.ID)
	return nil
}

// GetMessagesSince retrieves all messages for a chat with ts >= since,
// ordered by capture time ascending. The lower bound is inclusive.
func (s *sqlxStore) GetMessagesSince(ctx context.Context, chatID int64, since int64) ([]Message, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	var messages []Message
	query := `
        SELECT id, chat_id, chat_title, user_id, username, full_name, text, ts, message_id, created_at
        FROM messages
        WHERE chat_id = ? AND ts >= ?
        ORDER BY ts ASC, id ASC;
    `
	if err := s.db.SelectContext(ctx, &messages, query, chatID, since); err != nil {
		s.logger.ErrorContext(ctx, "Error querying messages", "chat_id", chatID, "since", since, "error", err)
		return nil, fmt.Errorf("failed to query messages for chat %d: %w", chatID, err)
	}

	return messages, nil
}

// GetSubscription retrieves a chat subscription. Returns nil, nil if not found.
func (s *sqlxStore) GetSubscription(ctx context.Context, chatID int64) (*ChatSubscription, error) {
	var sub ChatSubscription
	query := `
        SELECT chat_id, title, enabled, digest_hour, timezone, last_digest_at, updated_at
        FROM chats
        WHERE chat_id = ?;
    `
	if err := s.db.GetContext(ctx, &sub, query, chatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.ErrorContext(ctx, "Error querying subscription", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to query subscription for chat %d: %w", chatID, err)
	}
	return &sub, nil
}

// ListEnabledSubscriptions retrieves all enabled chat subscriptions.
func (s *sqlxStore) ListEnabledSubscriptions(ctx context.Context) ([]ChatSubscription, error) {
	var subs []ChatSubscription
	query := `
        SELECT chat_id, title, enabled, digest_hour, timezone, last_digest_at, updated_at
        FROM chats
        WHERE enabled = 1
        ORDER BY chat_id ASC;
    `
	if err := s.db.SelectContext(ctx, &subs, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing enabled subscriptions", "error", err)
		return nil, fmt.Errorf("failed to list enabled subscriptions: %w", err)
	}
	return subs, nil
}

// UpsertSubscription inserts or updates a chat subscription.
func (s *sqlxStore) UpsertSubscription(ctx context.Context, sub *ChatSubscription) error {
	if sub == nil {
		return fmt.Errorf("cannot upsert nil subscription")
	}
	if sub.ChatID == 0 {
		return fmt.Errorf("subscription must have a non-zero chat_id")
	}

	sub.UpdatedAt = time.Now().UTC()

	query := `
        INSERT INTO chats (chat_id, title, enabled, digest_hour, timezone, last_digest_at, updated_at)
        VALUES (:chat_id, :title, :enabled, :digest_hour, :timezone, :last_digest_at, :updated_at)
        ON CONFLICT (chat_id) DO UPDATE SET
            title = excluded.title,
            enabled = excluded.enabled,
            digest_hour = excluded.digest_hour,
            timezone = excluded.timezone,
            last_digest_at = excluded.last_digest_at,
            updated_at = excluded.updated_at;
    `
	if _, err := s.db.NamedExecContext(ctx, query, sub); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting subscription", "chat_id", sub.ChatID, "error", err)
		return fmt.Errorf("failed to upsert subscription for chat %d: %w", sub.ChatID, err)
	}

	s.logger.DebugContext(ctx, "Subscription upserted", "chat_id", sub.ChatID, "enabled", sub.Enabled, "digest_hour", sub.DigestHour)
	return nil
}

// SetSubscriptionEnabled flips the enabled flag for a chat.
func (s *sqlxStore) SetSubscriptionEnabled(ctx context.Context, chatID int64, enabled bool) error {
	query := `UPDATE chats SET enabled = ?, updated_at = ? WHERE chat_id = ?;`
	result, err := s.db.ExecContext(ctx, query, enabled, time.Now().UTC(), chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating subscription enabled flag", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to update enabled flag for chat %d: %w", chatID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("no subscription found for chat %d", chatID)
	}
	return nil
}

// SetSubscriptionHour updates the preferred delivery hour for a chat.
func (s *sqlxStore) SetSubscriptionHour(ctx context.Context, chatID int64, hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("digest hour must be between 0 and 23, got %d", hour)
	}

	query := `UPDATE chats SET digest_hour = ?, updated_at = ? WHERE chat_id = ?;`
	result, err := s.db.ExecContext(ctx, query, hour, time.Now().UTC(), chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating subscription hour", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to update digest hour for chat %d: %w", chatID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("no subscription found for chat %d", chatID)
	}
	return nil
}

// SetLastDigestAt persists the delivered watermark for a chat.
func (s *sqlxStore) SetLastDigestAt(ctx context.Context, chatID int64, ts int64) error {
	query := `UPDATE chats SET last_digest_at = ?, updated_at = ? WHERE chat_id = ?;`
	if _, err := s.db.ExecContext(ctx, query, ts, time.Now().UTC(), chatID); err != nil {
		s.logger.ErrorContext(ctx, "Error updating delivered watermark", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to update watermark for chat %d: %w", chatID, err)
	}
	return nil
}

// GetSetting retrieves a settings value. Returns "" if the key is absent.
func (s *sqlxStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	query := `SELECT value FROM settings WHERE key = ?;`
	if err := s.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		s.logger.ErrorContext(ctx, "Error querying setting", "key", key, "error", err)
		return "", fmt.Errorf("failed to query setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting inserts or replaces a settings value.
func (s *sqlxStore) SetSetting(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("setting key cannot be empty")
	}

	query := `
        INSERT INTO settings (key, value) VALUES (?, ?)
        ON CONFLICT (key) DO UPDATE SET value = excluded.value;
    `
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		s.logger.ErrorContext(ctx, "Error saving setting", "key", key, "error", err)
		return fmt.Errorf("failed to save setting %q: %w", key, err)
	}
	return nil
}

// RunSQLMaintenance performs database maintenance tasks like VACUUM.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Running SQL maintenance (VACUUM, ANALYZE)")

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		return fmt.Errorf("failed to run VACUUM: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "ANALYZE;"); err != nil {
		return fmt.Errorf("failed to run ANALYZE: %w", err)
	}

	return nil
}
