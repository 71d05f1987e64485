package sqlstore

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/imaginehigher/announcements/server/app"
	"github.com/imaginehigher/announcements/server/bus"
	"github.com/imaginehigher/announcements/server/logging"
)

type metaStore struct {
	store  *SQLStore
	events *bus.Bus
	logger logging.Logger
}

// NewMetaStore returns the sql-backed app.MetaStore. Every successful write
// and removal is announced on the bus so lifecycle handlers can react.
func NewMetaStore(store *SQLStore, events *bus.Bus, logger logging.Logger) app.MetaStore {
	return &metaStore{
		store:  store,
		events: events,
		logger: logger,
	}
}

func (ms *metaStore) GetMeta(announcementID, key string) (string, error) {
	var value string
	err := ms.store.getBuilder(ms.store.db, &value, ms.store.builder.
		Select("meta_value").
		From("announcement_meta").
		Where(sq.Eq{"announcement_id": announcementID, "meta_key": key}))
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to select meta %s for %s", key, announcementID)
	}
	return value, nil
}

// SetMeta upserts the attribute and emits MetaAdded on first write,
// MetaUpdated thereafter.
func (ms *metaStore) SetMeta(announcementID, key, value string) error {
	existing, err := ms.GetMeta(announcementID, key)
	if err != nil {
		return err
	}

	ev := bus.MetaEvent{AnnouncementID: announcementID, Key: key, Value: value}

	if existing != "" {
		_, err := ms.store.execBuilder(ms.store.db, ms.store.builder.
			Update("announcement_meta").
			Set("meta_value", value).
			Where(sq.Eq{"announcement_id": announcementID, "meta_key": key}))
		if err != nil {
			return errors.Wrapf(err, "failed to update meta %s for %s", key, announcementID)
		}
		ms.events.MetaUpdated(ev)
		return nil
	}

	// An empty stored value and a missing row look the same above; the
	// upsert covers both.
	_, err = ms.store.db.Exec(
		`INSERT INTO announcement_meta (announcement_id, meta_key, meta_value) VALUES (?, ?, ?)
		 ON CONFLICT (announcement_id, meta_key) DO UPDATE SET meta_value = excluded.meta_value`,
		announcementID, key, value)
	if err != nil {
		return errors.Wrapf(err, "failed to insert meta %s for %s", key, announcementID)
	}
	ms.events.MetaAdded(ev)
	return nil
}

// DeleteMeta removes the attribute. The removal event only fires when a row
// actually existed.
func (ms *metaStore) DeleteMeta(announcementID, key string) error {
	res, err := ms.store.execBuilder(ms.store.db, ms.store.builder.
		Delete("announcement_meta").
		Where(sq.Eq{"announcement_id": announcementID, "meta_key": key}))
	if err != nil {
		return errors.Wrapf(err, "failed to delete meta %s for %s", key, announcementID)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		ms.events.MetaDeleted(bus.MetaEvent{AnnouncementID: announcementID, Key: key})
	}
	return nil
}
