package handlers

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ostapenko/digestbot/internal/database"
)

// NewCaptureHandler creates the default handler that silently records text
// messages from group and supergroup chats. Capture is fire-and-forget:
// storage failures are logged and swallowed, never surfaced to the chat.
func NewCaptureHandler(deps HandlerDeps) bot.HandlerFunc {
	return captureHandler{deps}.Handle
}

type captureHandler struct {
	deps HandlerDeps
}

func (h captureHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "capture")

	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	// Only group-kind chats are monitored; private chats carry commands.
	if msg.Chat.Type != models.ChatTypeGroup && msg.Chat.Type != models.ChatTypeSupergroup {
		return
	}

	text := strings.TrimSpace(msg.Text)
	if len([]rune(text)) < h.deps.Config.Digest.MinMessageLength {
		return
	}

	record := &database.Message{
		ChatID:    msg.Chat.ID,
		ChatTitle: msg.Chat.Title,
		Text:      text,
		TS:        int64(msg.Date),
		MessageID: sql.NullInt64{Int64: int64(msg.ID), Valid: msg.ID != 0},
	}
	if msg.From != nil {
		record.UserID = sql.NullInt64{Int64: msg.From.ID, Valid: true}
		if msg.From.Username != "" {
			record.Username = sql.NullString{String: "@" + msg.From.Username, Valid: true}
		}
		fullName := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
		if fullName != "" {
			record.FullName = sql.NullString{String: fullName, Valid: true}
		}
	}

	if err := h.deps.Store.SaveMessage(ctx, record); err != nil {
		// Availability over consistency: a lost message must never block
		// capture for other chats or leak an error into the group.
		log.ErrorContext(ctx, "Failed to capture message", "chat_id", msg.Chat.ID, "error", err)
		return
	}

	log.DebugContext(ctx, "Message captured", "chat_id", msg.Chat.ID, "message_id", msg.ID)
}
