package sqlstore

import (
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/imaginehigher/announcements/server/app"
	"github.com/imaginehigher/announcements/server/logging"
)

type announcementStore struct {
	store  *SQLStore
	logger logging.Logger
}

// NewAnnouncementStore returns the sql-backed app.AnnouncementStore.
func NewAnnouncementStore(store *SQLStore, logger logging.Logger) app.AnnouncementStore {
	return &announcementStore{
		store:  store,
		logger: logger,
	}
}

// Create persists the announcement, filling the defaults the platform would:
// a fresh ID, publish status, and an immediate publish timestamp when the
// draft carried none.
func (as *announcementStore) Create(a *app.Announcement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now()
	if a.Status == "" {
		a.Status = app.StatusPublish
	}
	if a.PublishAt == "" {
		a.PublishAt = now.Format(app.TimestampLayout)
		a.PublishAtGMT = now.UTC().Format(app.TimestampLayout)
	}
	a.CreateAt = now.UnixMilli()
	a.UpdateAt = a.CreateAt

	_, err := as.store.execBuilder(as.store.db, as.store.builder.
		Insert("announcements").
		Columns("id", "title", "content", "status", "publish_at", "publish_at_gmt", "create_at", "update_at").
		Values(a.ID, a.Title, a.Content, a.Status, a.PublishAt, a.PublishAtGMT, a.CreateAt, a.UpdateAt))
	if err != nil {
		return errors.Wrapf(err, "failed to insert announcement %s", a.ID)
	}
	return nil
}

func (as *announcementStore) Get(id string) (*app.Announcement, error) {
	var a app.Announcement
	err := as.store.getBuilder(as.store.db, &a, as.store.builder.
		Select("*").
		From("announcements").
		Where(sq.Eq{"id": id}))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to select announcement %s", id)
	}
	return &a, nil
}

// Trash moves the announcement to the trash status. Trashing a missing or
// already-trashed ID is a no-op.
func (as *announcementStore) Trash(id string) error {
	_, err := as.store.execBuilder(as.store.db, as.store.builder.
		Update("announcements").
		Set("status", app.StatusTrash).
		Set("update_at", time.Now().UnixMilli()).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrapf(err, "failed to trash announcement %s", id)
	}
	return nil
}

// PublishDue flips every pending announcement whose publish timestamp has
// passed to published, returning the flipped IDs.
func (as *announcementStore) PublishDue(now time.Time) ([]string, error) {
	cutoff := now.Format(app.TimestampLayout)

	var ids []string
	err := as.store.selectBuilder(as.store.db, &ids, as.store.builder.
		Select("id").
		From("announcements").
		Where(sq.Eq{"status": app.StatusPending}).
		Where(sq.LtOrEq{"publish_at": cutoff}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to select due announcements")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	_, err = as.store.execBuilder(as.store.db, as.store.builder.
		Update("announcements").
		Set("status", app.StatusPublish).
		Set("update_at", now.UnixMilli()).
		Where(sq.Eq{"id": ids}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to publish due announcements")
	}
	return ids, nil
}
