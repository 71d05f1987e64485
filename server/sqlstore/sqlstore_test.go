package sqlstore_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imaginehigher/announcements/server/app"
	"github.com/imaginehigher/announcements/server/bus"
	"github.com/imaginehigher/announcements/server/logging"
	"github.com/imaginehigher/announcements/server/sqlstore"
)

func newStore(t *testing.T) *sqlstore.SQLStore {
	t.Helper()
	store, err := sqlstore.New(filepath.Join(t.TempDir(), "test.db"), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAnnouncementStore(t *testing.T) {
	store := newStore(t)
	as := sqlstore.NewAnnouncementStore(store, logging.NewNop())

	t.Run("create fills platform defaults", func(t *testing.T) {
		a := &app.Announcement{Title: "t", Content: "c"}
		require.NoError(t, as.Create(a))

		assert.NotEmpty(t, a.ID)
		assert.Equal(t, app.StatusPublish, a.Status)
		assert.NotEmpty(t, a.PublishAt)

		got, err := as.Get(a.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, a.Title, got.Title)
		assert.Equal(t, a.PublishAt, got.PublishAt)
	})

	t.Run("get missing returns nil", func(t *testing.T) {
		got, err := as.Get("nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("trash flips the status", func(t *testing.T) {
		a := &app.Announcement{Title: "t"}
		require.NoError(t, as.Create(a))
		require.NoError(t, as.Trash(a.ID))

		got, err := as.Get(a.ID)
		require.NoError(t, err)
		assert.Equal(t, app.StatusTrash, got.Status)

		// trashing again, or trashing a missing id, is a no-op
		require.NoError(t, as.Trash(a.ID))
		require.NoError(t, as.Trash("nope"))
	})
}

func TestAnnouncementStorePublishDue(t *testing.T) {
	store := newStore(t)
	as := sqlstore.NewAnnouncementStore(store, logging.NewNop())

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)

	due := &app.Announcement{
		Status:       app.StatusPending,
		PublishAt:    "2024-03-01 08:50:00",
		PublishAtGMT: "2024-03-01 08:50:00",
	}
	require.NoError(t, as.Create(due))

	future := &app.Announcement{
		Status:       app.StatusPending,
		PublishAt:    "2024-03-02 08:50:00",
		PublishAtGMT: "2024-03-02 08:50:00",
	}
	require.NoError(t, as.Create(future))

	ids, err := as.PublishDue(now)
	require.NoError(t, err)
	assert.Equal(t, []string{due.ID}, ids)

	got, err := as.Get(due.ID)
	require.NoError(t, err)
	assert.Equal(t, app.StatusPublish, got.Status)

	got, err = as.Get(future.ID)
	require.NoError(t, err)
	assert.Equal(t, app.StatusPending, got.Status)

	// nothing further due at the same instant
	ids, err = as.PublishDue(now)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMetaStoreEmitsEvents(t *testing.T) {
	store := newStore(t)
	b := bus.New()

	var added, updated, deleted []bus.MetaEvent
	b.OnMetaAdded(func(ev bus.MetaEvent) { added = append(added, ev) })
	b.OnMetaUpdated(func(ev bus.MetaEvent) { updated = append(updated, ev) })
	b.OnMetaDeleted(func(ev bus.MetaEvent) { deleted = append(deleted, ev) })

	ms := sqlstore.NewMetaStore(store, b, logging.NewNop())

	require.NoError(t, ms.SetMeta("a1", "announce_expiration", "2024-3-4"))
	require.Len(t, added, 1)
	assert.Equal(t, bus.MetaEvent{AnnouncementID: "a1", Key: "announce_expiration", Value: "2024-3-4"}, added[0])

	value, err := ms.GetMeta("a1", "announce_expiration")
	require.NoError(t, err)
	assert.Equal(t, "2024-3-4", value)

	require.NoError(t, ms.SetMeta("a1", "announce_expiration", "2024-3-5"))
	assert.Len(t, added, 1)
	require.Len(t, updated, 1)
	assert.Equal(t, "2024-3-5", updated[0].Value)

	require.NoError(t, ms.DeleteMeta("a1", "announce_expiration"))
	require.Len(t, deleted, 1)
	assert.Equal(t, "a1", deleted[0].AnnouncementID)

	// deleting an absent key emits nothing
	require.NoError(t, ms.DeleteMeta("a1", "announce_expiration"))
	assert.Len(t, deleted, 1)

	value, err = ms.GetMeta("a1", "announce_expiration")
	require.NoError(t, err)
	assert.Equal(t, "", value)
}
