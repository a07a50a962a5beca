package handlers

import (
	"log/slog"

	"github.com/ostapenko/digestbot/internal/config"
	"github.com/ostapenko/digestbot/internal/database"
	"github.com/ostapenko/digestbot/internal/digest"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Builder  *digest.Builder
	Inflight *digest.Inflight
}
