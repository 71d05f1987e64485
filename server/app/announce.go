// Package app implements the announcement lifecycle services: mapping a
// submitted date onto a publish schedule, computing the bounded expiration
// date, keeping exactly one pending deletion task per announcement, trashing
// expired announcements, and notifying submitters on approval.
package app

import (
	"time"

	"github.com/pkg/errors"
)

const (
	StatusPublish = "publish"
	StatusPending = "pending"
	StatusTrash   = "trash"
)

const (
	// TimestampLayout is the wall-clock layout used for publish timestamps.
	TimestampLayout = "2006-01-02 15:04:05"
	// DateLayout is the layout of date fields on the submission form.
	DateLayout = "2006-01-02"
	// MetaDateLayout is the non-zero-padded layout the expiration meta value
	// is stored in.
	MetaDateLayout = "2006-1-2"
)

// DeletionTask is the task name under which expired-announcement deletions are
// scheduled.
const DeletionTask = "announcements_delete_expired"

// PublishTask is the recurring task that flips due pending announcements live.
const PublishTask = "announcements_publish_due"

// Outcome reports what a lifecycle handler did. The event bus ignores it;
// tests and logs do not.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Entry is one immutable form submission: a mapping from field ID to the
// submitted string value.
type Entry struct {
	ID     string
	Fields map[string]string
}

func (e Entry) Field(id string) string {
	return e.Fields[id]
}

// Draft is the announcement record under construction during submission
// processing, before it is first persisted.
type Draft struct {
	Title        string
	Content      string
	Status       string
	PublishAt    string
	PublishAtGMT string
	EditDate     bool
}

// Announcement is the persisted content record.
type Announcement struct {
	ID           string `db:"id"`
	Title        string `db:"title"`
	Content      string `db:"content"`
	Status       string `db:"status"`
	PublishAt    string `db:"publish_at"`
	PublishAtGMT string `db:"publish_at_gmt"`
	CreateAt     int64  `db:"create_at"`
	UpdateAt     int64  `db:"update_at"`
}

// AnnouncementStore persists announcement records.
type AnnouncementStore interface {
	Create(a *Announcement) error
	Get(id string) (*Announcement, error)
	Trash(id string) error
	// PublishDue flips pending announcements whose publish timestamp has
	// passed to published and returns their IDs.
	PublishDue(now time.Time) ([]string, error)
}

// MetaStore reads and writes per-announcement attributes. Get returns an
// empty string for an absent key.
type MetaStore interface {
	GetMeta(announcementID, key string) (string, error)
	SetMeta(announcementID, key, value string) error
	DeleteMeta(announcementID, key string) error
}

// TaskScheduler is the delayed-task facility. Replace atomically clears any
// pending task under the same (name, args) key before scheduling the new one.
type TaskScheduler interface {
	Replace(name string, fireAt time.Time, args ...string) error
	Clear(name string, args ...string) error
}

// Mailer delivers one outbound message.
type Mailer interface {
	Send(to, subject, body string, headers map[string]string) error
}

// PublishAnnouncer receives published-announcement events from the ticker.
type PublishAnnouncer interface {
	AnnouncementPublished(announcementID string)
}

// parseDate accepts both the zero-padded form-field layout and the
// non-padded meta layout.
func parseDate(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(DateLayout, value, loc); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(MetaDateLayout, value, loc)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "announce: unparseable date %q", value)
	}
	return t, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
