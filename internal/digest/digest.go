// Package digest builds per-chat message digests over a trailing time
// window. It groups captured messages by author, aggregates extracted
// entities, and renders either a deterministic text digest or an LLM-assisted
// one via an external summarization collaborator.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ostapenko/digestbot/internal/database"
	"github.com/ostapenko/digestbot/internal/entity"
)

// llmMinMessageLen is the per-message length floor for the LLM pipeline.
// Shorter messages add prompt noise without adding ideas.
const llmMinMessageLen = 8

// Item is one entry of a structured summarizer response: a single idea
// attributed to an author, with the entities the summarizer kept for it.
type Item struct {
	Author    string   `json:"author"`
	Idea      string   `json:"idea"`
	Tickers   []string `json:"tickers"`
	Links     []string `json:"links"`
	Contracts []string `json:"contracts"`
}

// Summarizer is the external summarization collaborator. Implementations
// receive pre-serialized message lines and return an ordered item list.
type Summarizer interface {
	Summarize(ctx context.Context, chatTitle string, lines []string) ([]Item, error)
}

// Config holds digest rendering policy knobs.
type Config struct {
	// MinMessageLen drops messages whose trimmed text is shorter, before
	// grouping and entity aggregation.
	MinMessageLen int

	// PreviewsPerAuthor caps the preview lines rendered under each author.
	PreviewsPerAuthor int

	// PreviewWidth truncates previews to this many runes.
	PreviewWidth int

	// MaxItems caps the rendered items in LLM mode.
	MaxItems int
}

// Builder renders digests for one chat at a time. It is safe for concurrent
// use across chats.
type Builder struct {
	cfg        Config
	summarizer Summarizer // nil means summarization is unavailable
	log        *slog.Logger
}

// NewBuilder creates a digest builder. summarizer may be nil, in which case
// the LLM mode degrades to an "unavailable" notice.
func NewBuilder(cfg Config, summarizer Summarizer, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{
		cfg:        cfg,
		summarizer: summarizer,
		log:        log.With("component", "digest_builder"),
	}
}

// authorGroup collects one author's messages in first-appearance order.
type authorGroup struct {
	label    string
	messages []database.Message
	entities entity.Set
}

// Build renders the deterministic digest for one chat's window of messages.
// Messages are expected in capture order.
func (b *Builder) Build(chatID int64, title string, msgs []database.Message) string {
	groups := b.groupByAuthor(msgs)
	if len(groups) == 0 {
		return fmt.Sprintf("🧾 <b>%s</b>\nNo messages in the last 24 hours.\n", title)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🧾 <b>Chat:</b> %s", title))

	for _, g := range groups {
		sb.WriteString("\n• " + g.label)

		if len(g.entities.Tickers) > 0 {
			tickers := append([]string{}, g.entities.Tickers...)
			sort.Strings(tickers)
			for i, t := range tickers {
				tickers[i] = "$" + t
			}
			sb.WriteString(" [" + strings.Join(tickers, ", ") + "]")
		}

		if len(g.entities.URLs) > 0 {
			sb.WriteString(" " + g.entities.URLs[0])
		}

		previews := g.messages
		if len(previews) > b.cfg.PreviewsPerAuthor {
			previews = previews[:b.cfg.PreviewsPerAuthor]
		}
		for _, m := range previews {
			line := "\n  — " + truncate(m.Text, b.cfg.PreviewWidth)
			if link := Permalink(chatID, m.MessageID.Int64); m.MessageID.Valid && link != "" {
				line += " " + link
			}
			sb.WriteString(line)
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// BuildLLM renders the LLM-assisted digest. The summarization itself is
// delegated to the collaborator; this method only constructs the request and
// renders the structured response. Collaborator failures never propagate:
// they are rendered as a single-line notice.
func (b *Builder) BuildLLM(ctx context.Context, chatID int64, title string, msgs []database.Message) string {
	var lines []string
	for _, m := range msgs {
		text := strings.TrimSpace(m.Text)
		if len([]rune(text)) < llmMinMessageLen {
			continue
		}
		lines = append(lines, serializeForSummary(m, text))
	}

	if len(lines) == 0 {
		return fmt.Sprintf("🧾 <b>%s</b>\nNo useful messages in the last 24 hours.\n", title)
	}

	if b.summarizer == nil {
		b.log.WarnContext(ctx, "Summarizer not configured, skipping LLM digest", "chat_id", chatID)
		return fmt.Sprintf("🧾 <b>%s</b>\nSummarization unavailable: no summarizer configured.\n", title)
	}

	items, err := b.summarizer.Summarize(ctx, title, lines)
	if err != nil {
		b.log.ErrorContext(ctx, "Summarization failed", "chat_id", chatID, "error", err)
		return fmt.Sprintf("summarization failed: %v", err)
	}

	if len(items) > b.cfg.MaxItems {
		items = items[:b.cfg.MaxItems]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🧾 <b>Chat:</b> %s", title))

	rendered := 0
	for _, item := range items {
		if strings.TrimSpace(item.Idea) == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n• <b>%s</b>: %s", item.Author, item.Idea))

		var tail []string
		if len(item.Tickers) > 0 {
			for i, t := range item.Tickers {
				item.Tickers[i] = "$" + strings.ToUpper(strings.TrimPrefix(t, "$"))
			}
			tail = append(tail, strings.Join(item.Tickers, " "))
		}
		if len(item.Contracts) > 0 {
			tail = append(tail, strings.Join(item.Contracts, " "))
		}
		if len(item.Links) > 0 {
			tail = append(tail, strings.Join(item.Links, " "))
		}
		if len(tail) > 0 {
			sb.WriteString(" — " + strings.Join(tail, " · "))
		}
		rendered++
	}

	if rendered == 0 {
		sb.WriteString("\nNo ideas worth highlighting today.")
	}

	sb.WriteString("\n")
	return sb.String()
}

// groupByAuthor filters messages below the length threshold, groups the rest
// by author label in first-appearance order, and computes the per-author
// entity union.
func (b *Builder) groupByAuthor(msgs []database.Message) []*authorGroup {
	var groups []*authorGroup
	index := make(map[string]*authorGroup)

	for _, m := range msgs {
		if len([]rune(strings.TrimSpace(m.Text))) < b.cfg.MinMessageLen {
			continue
		}
		label := m.AuthorLabel()
		g, ok := index[label]
		if !ok {
			g = &authorGroup{label: label}
			index[label] = g
			groups = append(groups, g)
		}
		g.messages = append(g.messages, m)
		g.entities = g.entities.Union(entity.Extract(m.Text))
	}

	return groups
}

// serializeForSummary renders one message as a prompt line: author, text,
// and a trailing annotation for any entities found in it.
func serializeForSummary(m database.Message, text string) string {
	var sb strings.Builder
	sb.WriteString(m.AuthorLabel())
	sb.WriteString(": ")
	sb.WriteString(text)

	set := entity.Extract(m.Text)
	if len(set.Tickers) > 0 {
		sb.WriteString(" [tickers: " + strings.Join(set.Tickers, ", ") + "]")
	}
	if len(set.URLs) > 0 {
		sb.WriteString(" [links: " + strings.Join(set.URLs, ", ") + "]")
	}
	if len(set.Contracts) > 0 {
		sb.WriteString(" [contracts: " + strings.Join(set.Contracts, ", ") + "]")
	}
	return sb.String()
}

// Permalink builds a public deep link to a message in a supergroup. The
// -100 supergroup prefix is stripped from the chat ID. Returns "" when the
// message ID is unknown.
func Permalink(chatID int64, messageID int64) string {
	if messageID == 0 {
		return ""
	}
	s := fmt.Sprintf("%d", chatID)
	s = strings.TrimPrefix(s, "-100")
	return fmt.Sprintf("https://t.me/c/%s/%d", s, messageID)
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width]) + "…"
}
