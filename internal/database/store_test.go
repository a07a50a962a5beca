package database_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ostapenko/digestbot/internal/database"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, nil)
}

func TestSaveAndGetMessages(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	base := int64(1_700_000_000)
	msgs := []*database.Message{
		{
			ChatID:    -1001,
			ChatTitle: "Alpha Calls",
			UserID:    sql.NullInt64{Int64: 7, Valid: true},
			Username:  sql.NullString{String: "@alice", Valid: true},
			Text:      "first message",
			TS:        base,
			MessageID: sql.NullInt64{Int64: 10, Valid: true},
		},
		{
			ChatID:    -1001,
			ChatTitle: "Alpha Calls",
			Username:  sql.NullString{String: "@bob", Valid: true},
			Text:      "second message",
			TS:        base + 100,
		},
		{
			ChatID:    -2002,
			ChatTitle: "Other Chat",
			Username:  sql.NullString{String: "@carol", Valid: true},
			Text:      "unrelated message",
			TS:        base + 50,
		},
	}
	for _, m := range msgs {
		require.NoError(t, store.SaveMessage(ctx, m))
	}

	got, err := store.GetMessagesSince(ctx, -1001, base)
	require.NoError(t, err)
	require.Len(t, got, 2, "messages from other chats must not leak in")
	assert.Equal(t, "first message", got[0].Text)
	assert.Equal(t, "second message", got[1].Text)
	assert.Equal(t, "@alice", got[0].AuthorLabel())

	// The lower bound is inclusive.
	got, err = store.GetMessagesSince(ctx, -1001, base+100)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "second message", got[0].Text)

	got, err = store.GetMessagesSince(ctx, -1001, base+101)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveMessageValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.SaveMessage(ctx, nil))
	assert.Error(t, store.SaveMessage(ctx, &database.Message{Text: "no chat", TS: 1}))
	assert.Error(t, store.SaveMessage(ctx, &database.Message{ChatID: 1, TS: 1}))
	assert.Error(t, store.SaveMessage(ctx, &database.Message{ChatID: 1, Text: "no ts"}))
}

func TestSubscriptionLifecycle(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	sub, err := store.GetSubscription(ctx, -1001)
	require.NoError(t, err)
	assert.Nil(t, sub, "missing subscription returns nil without error")

	require.NoError(t, store.UpsertSubscription(ctx, &database.ChatSubscription{
		ChatID:     -1001,
		Title:      "Alpha Calls",
		Enabled:    true,
		DigestHour: 9,
		Timezone:   "Europe/Kyiv",
	}))

	sub, err = store.GetSubscription(ctx, -1001)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.True(t, sub.Enabled)
	assert.Equal(t, 9, sub.DigestHour)
	assert.Equal(t, "Europe/Kyiv", sub.Timezone)
	assert.Zero(t, sub.LastDigestAt)

	// Upsert on the same chat updates in place.
	require.NoError(t, store.UpsertSubscription(ctx, &database.ChatSubscription{
		ChatID:     -1001,
		Title:      "Alpha Calls Renamed",
		Enabled:    true,
		DigestHour: 9,
		Timezone:   "Europe/Kyiv",
	}))

	sub, err = store.GetSubscription(ctx, -1001)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "Alpha Calls Renamed", sub.Title)

	require.NoError(t, store.SetSubscriptionHour(ctx, -1001, 18))
	require.NoError(t, store.SetLastDigestAt(ctx, -1001, 1_700_000_000))

	sub, err = store.GetSubscription(ctx, -1001)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, 18, sub.DigestHour)
	assert.Equal(t, int64(1_700_000_000), sub.LastDigestAt)

	require.NoError(t, store.SetSubscriptionEnabled(ctx, -1001, false))

	sub, err = store.GetSubscription(ctx, -1001)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.False(t, sub.Enabled)
}

func TestSubscriptionUpdatesRequireExistingRow(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.SetSubscriptionEnabled(ctx, -9999, true))
	assert.Error(t, store.SetSubscriptionHour(ctx, -9999, 9))
	assert.Error(t, store.SetSubscriptionHour(ctx, -9999, 24), "hour is validated before the update")
}

func TestListEnabledSubscriptions(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	for _, sub := range []*database.ChatSubscription{
		{ChatID: -3, Title: "c", Enabled: true, DigestHour: 9, Timezone: "UTC"},
		{ChatID: -2, Title: "b", Enabled: false, DigestHour: 9, Timezone: "UTC"},
		{ChatID: -1, Title: "a", Enabled: true, DigestHour: 9, Timezone: "UTC"},
	} {
		require.NoError(t, store.UpsertSubscription(ctx, sub))
	}

	subs, err := store.ListEnabledSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, int64(-3), subs[0].ChatID)
	assert.Equal(t, int64(-1), subs[1].ChatID)
}

func TestSettings(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	value, err := store.GetSetting(ctx, "auto_digest")
	require.NoError(t, err)
	assert.Empty(t, value, "absent keys read as empty without error")

	require.NoError(t, store.SetSetting(ctx, "auto_digest", "on"))
	value, err = store.GetSetting(ctx, "auto_digest")
	require.NoError(t, err)
	assert.Equal(t, "on", value)

	require.NoError(t, store.SetSetting(ctx, "auto_digest", "off"))
	value, err = store.GetSetting(ctx, "auto_digest")
	require.NoError(t, err)
	assert.Equal(t, "off", value)

	assert.Error(t, store.SetSetting(ctx, "", "x"))
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	assert.NoError(t, store.RunSQLMaintenance(context.Background()))
}
