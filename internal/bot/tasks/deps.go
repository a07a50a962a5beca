// Package tasks implements the scheduled tasks of the digest bot: the
// per-chat digest sweep and periodic database maintenance.
package tasks

import (
	"log/slog"

	tgbot "github.com/go-telegram/bot"

	"github.com/ostapenko/digestbot/internal/config"
	"github.com/ostapenko/digestbot/internal/database"
	"github.com/ostapenko/digestbot/internal/digest"
	"github.com/ostapenko/digestbot/internal/schedule"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Builder  *digest.Builder
	Policy   *schedule.Policy
	Inflight *digest.Inflight
	Bot      *tgbot.Bot
}
