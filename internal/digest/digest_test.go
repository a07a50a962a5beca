package digest_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ostapenko/digestbot/internal/database"
	"github.com/ostapenko/digestbot/internal/digest"
)

func testConfig() digest.Config {
	return digest.Config{
		MinMessageLen:     3,
		PreviewsPerAuthor: 3,
		PreviewWidth:      150,
		MaxItems:          12,
	}
}

func msg(username, text string, messageID int64) database.Message {
	return database.Message{
		ChatID:    -1001234567890,
		Username:  sql.NullString{String: "@" + username, Valid: true},
		Text:      text,
		MessageID: sql.NullInt64{Int64: messageID, Valid: messageID != 0},
	}
}

// stubSummarizer records its input and replies with canned items.
type stubSummarizer struct {
	called bool
	lines  []string
	items  []digest.Item
	err    error
}

func (s *stubSummarizer) Summarize(_ context.Context, _ string, lines []string) ([]digest.Item, error) {
	s.called = true
	s.lines = lines
	return s.items, s.err
}

func TestBuildEmptyWindow(t *testing.T) {
	t.Parallel()

	b := digest.NewBuilder(testConfig(), nil, nil)

	got := b.Build(-1001234567890, "Alpha Calls", nil)

	assert.Equal(t, "🧾 <b>Alpha Calls</b>\nNo messages in the last 24 hours.\n", got)
}

func TestBuildFiltersShortMessages(t *testing.T) {
	t.Parallel()

	b := digest.NewBuilder(testConfig(), nil, nil)

	got := b.Build(-1001234567890, "Alpha Calls", []database.Message{
		msg("alice", "ok", 1),
		msg("alice", "  gm ", 2),
	})

	assert.Equal(t, "🧾 <b>Alpha Calls</b>\nNo messages in the last 24 hours.\n", got)
}

func TestBuildGroupsAuthorsInFirstAppearanceOrder(t *testing.T) {
	t.Parallel()

	b := digest.NewBuilder(testConfig(), nil, nil)

	got := b.Build(-1001234567890, "Alpha Calls", []database.Message{
		msg("zed", "watching the market today", 1),
		msg("adam", "quiet session so far", 2),
		msg("zed", "still watching", 3),
	})

	zed := strings.Index(got, "• @zed")
	adam := strings.Index(got, "• @adam")
	require.NotEqual(t, -1, zed)
	require.NotEqual(t, -1, adam)
	assert.Less(t, zed, adam, "earliest-message author should render first")

	// Both of zed's messages sit under a single heading.
	assert.Equal(t, 1, strings.Count(got, "• @zed"))
	assert.Contains(t, got, "— watching the market today")
	assert.Contains(t, got, "— still watching")
}

func TestBuildRendersSortedTickersAndFirstLink(t *testing.T) {
	t.Parallel()

	b := digest.NewBuilder(testConfig(), nil, nil)

	got := b.Build(-1001234567890, "Alpha Calls", []database.Message{
		msg("alice", "$ZZZ pumping, also $AAA https://example.com/1", 1),
		msg("alice", "more on this https://example.com/2", 2),
	})

	assert.Contains(t, got, "• @alice [$AAA, $ZZZ] https://example.com/1")
	assert.NotContains(t, got, "[$ZZZ, $AAA]")
}

func TestBuildCapsPreviewsPerAuthor(t *testing.T) {
	t.Parallel()

	b := digest.NewBuilder(testConfig(), nil, nil)

	got := b.Build(-1001234567890, "Alpha Calls", []database.Message{
		msg("alice", "first message here", 1),
		msg("alice", "second message here", 2),
		msg("alice", "third message here", 3),
		msg("alice", "fourth message here", 4),
	})

	assert.Equal(t, 3, strings.Count(got, "\n  — "))
	assert.NotContains(t, got, "fourth message here")
}

func TestBuildTruncatesLongPreviews(t *testing.T) {
	t.Parallel()

	b := digest.NewBuilder(testConfig(), nil, nil)

	long := strings.Repeat("a", 200)
	got := b.Build(-1001234567890, "Alpha Calls", []database.Message{
		msg("alice", long, 0),
	})

	assert.Contains(t, got, strings.Repeat("a", 150)+"…")
	assert.NotContains(t, got, strings.Repeat("a", 151))
}

func TestBuildPermalinks(t *testing.T) {
	t.Parallel()

	b := digest.NewBuilder(testConfig(), nil, nil)

	got := b.Build(-1001234567890, "Alpha Calls", []database.Message{
		msg("alice", "linked message text", 77),
		msg("bob", "unlinked message text", 0),
	})

	assert.Contains(t, got, "— linked message text https://t.me/c/1234567890/77")
	assert.Contains(t, got, "— unlinked message text\n")
}

func TestPermalink(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		chatID    int64
		messageID int64
		expected  string
	}{
		{
			name:      "supergroup prefix stripped",
			chatID:    -1001234567890,
			messageID: 42,
			expected:  "https://t.me/c/1234567890/42",
		},
		{
			name:      "plain group id kept as-is",
			chatID:    -987654,
			messageID: 42,
			expected:  "https://t.me/c/-987654/42",
		},
		{
			name:      "unknown message id",
			chatID:    -1001234567890,
			messageID: 0,
			expected:  "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, digest.Permalink(tc.chatID, tc.messageID))
		})
	}
}

func TestBuildLLMNoUsefulMessages(t *testing.T) {
	t.Parallel()

	stub := &stubSummarizer{}
	b := digest.NewBuilder(testConfig(), stub, nil)

	got := b.BuildLLM(context.Background(), -1001234567890, "Alpha Calls", []database.Message{
		msg("alice", "gm", 1),
		msg("alice", "lol ok", 2),
	})

	assert.Equal(t, "🧾 <b>Alpha Calls</b>\nNo useful messages in the last 24 hours.\n", got)
	assert.False(t, stub.called, "summarizer should not run on an empty prompt")
}

func TestBuildLLMWithoutSummarizer(t *testing.T) {
	t.Parallel()

	b := digest.NewBuilder(testConfig(), nil, nil)

	got := b.BuildLLM(context.Background(), -1001234567890, "Alpha Calls", []database.Message{
		msg("alice", "a long enough message", 1),
	})

	assert.Equal(t, "🧾 <b>Alpha Calls</b>\nSummarization unavailable: no summarizer configured.\n", got)
}

func TestBuildLLMSummarizerError(t *testing.T) {
	t.Parallel()

	stub := &stubSummarizer{err: errors.New("model overloaded")}
	b := digest.NewBuilder(testConfig(), stub, nil)

	got := b.BuildLLM(context.Background(), -1001234567890, "Alpha Calls", []database.Message{
		msg("alice", "a long enough message", 1),
	})

	assert.Equal(t, "summarization failed: model overloaded", got)
}

func TestBuildLLMRendersItems(t *testing.T) {
	t.Parallel()

	stub := &stubSummarizer{items: []digest.Item{
		{
			Author:  "@alice",
			Idea:    "New L2 launch looks promising",
			Tickers: []string{"abc"},
			Links:   []string{"https://example.com/x"},
		},
		{Author: "@bob", Idea: "   "},
	}}
	b := digest.NewBuilder(testConfig(), stub, nil)

	got := b.BuildLLM(context.Background(), -1001234567890, "Alpha Calls", []database.Message{
		msg("alice", "$abc new L2 launching https://example.com/x", 1),
	})

	require.True(t, stub.called)
	assert.Contains(t, got, "🧾 <b>Chat:</b> Alpha Calls")
	assert.Contains(t, got, "• <b>@alice</b>: New L2 launch looks promising — $ABC · https://example.com/x")
	assert.NotContains(t, got, "@bob", "blank ideas are dropped")
}

func TestBuildLLMAllItemsBlank(t *testing.T) {
	t.Parallel()

	stub := &stubSummarizer{items: []digest.Item{{Author: "@alice", Idea: ""}}}
	b := digest.NewBuilder(testConfig(), stub, nil)

	got := b.BuildLLM(context.Background(), -1001234567890, "Alpha Calls", []database.Message{
		msg("alice", "a long enough message", 1),
	})

	assert.Contains(t, got, "No ideas worth highlighting today.")
}

func TestBuildLLMCapsItems(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxItems = 2
	stub := &stubSummarizer{items: []digest.Item{
		{Author: "@a", Idea: "one"},
		{Author: "@b", Idea: "two"},
		{Author: "@c", Idea: "three"},
	}}
	b := digest.NewBuilder(cfg, stub, nil)

	got := b.BuildLLM(context.Background(), -1001234567890, "Alpha Calls", []database.Message{
		msg("alice", "a long enough message", 1),
	})

	assert.Contains(t, got, "one")
	assert.Contains(t, got, "two")
	assert.NotContains(t, got, "three")
}

func TestBuildLLMPromptAnnotations(t *testing.T) {
	t.Parallel()

	stub := &stubSummarizer{}
	b := digest.NewBuilder(testConfig(), stub, nil)

	b.BuildLLM(context.Background(), -1001234567890, "Alpha Calls", []database.Message{
		msg("alice", "$ABC breakout incoming https://example.com/chart", 1),
	})

	require.True(t, stub.called)
	require.Len(t, stub.lines, 1)
	assert.Equal(t,
		"@alice: $ABC breakout incoming https://example.com/chart [tickers: ABC] [links: https://example.com/chart]",
		stub.lines[0])
}

func TestInflight(t *testing.T) {
	t.Parallel()

	inflight := digest.NewInflight()

	require.True(t, inflight.TryAcquire(1))
	assert.False(t, inflight.TryAcquire(1))
	assert.True(t, inflight.TryAcquire(2), "other chats are unaffected")

	inflight.Release(1)
	assert.True(t, inflight.TryAcquire(1))
}
