package app

import (
	"time"

	"github.com/imaginehigher/announcements/server/config"
	"github.com/imaginehigher/announcements/server/logging"
)

// DeletionScheduler keeps at most one pending deletion task per announcement.
// It reacts to every meta write and removal, filtering on the expiration key.
type DeletionScheduler struct {
	config config.Service
	tasks  TaskScheduler
	logger logging.Logger

	Location *time.Location
}

func NewDeletionScheduler(cfg config.Service, tasks TaskScheduler, logger logging.Logger) *DeletionScheduler {
	return &DeletionScheduler{
		config:   cfg,
		tasks:    tasks,
		logger:   logger,
		Location: time.Local,
	}
}

// HandleMetaWrite reschedules the deletion task whenever the expiration key
// is created or updated. The executor clears any existing task under the same
// key before scheduling, so successive writes never leave two tasks pending.
// The fire time is local midnight of the stored date.
func (d *DeletionScheduler) HandleMetaWrite(announcementID, key, value string) Outcome {
	cfg := d.config.GetConfiguration()
	if key != cfg.ExpirationKey {
		return OutcomeSkipped
	}

	fireAt, err := parseDate(value, d.Location)
	if err != nil {
		// A bad value must not leave a stale task pending for the old date.
		if cerr := d.tasks.Clear(DeletionTask, announcementID); cerr != nil {
			d.logger.Errorf("announce: deletion: failed to clear task for %s: %v", announcementID, cerr)
		}
		d.logger.Warnf("announce: deletion: unparseable expiration %q for %s: %v", value, announcementID, err)
		return OutcomeFailed
	}

	if err := d.tasks.Replace(DeletionTask, fireAt, announcementID); err != nil {
		d.logger.Errorf("announce: deletion: failed to schedule task for %s: %v", announcementID, err)
		return OutcomeFailed
	}

	d.logger.Debugf("announce: deletion: %s scheduled for %s", announcementID, fireAt.Format(TimestampLayout))
	return OutcomeApplied
}

// HandleMetaDelete cancels the pending deletion task when the expiration key
// is removed. Clearing a key with no pending task is a no-op.
func (d *DeletionScheduler) HandleMetaDelete(announcementID, key string) Outcome {
	cfg := d.config.GetConfiguration()
	if key != cfg.ExpirationKey {
		return OutcomeSkipped
	}

	if err := d.tasks.Clear(DeletionTask, announcementID); err != nil {
		d.logger.Errorf("announce: deletion: failed to clear task for %s: %v", announcementID, err)
		return OutcomeFailed
	}

	d.logger.Debugf("announce: deletion: %s unscheduled", announcementID)
	return OutcomeApplied
}

// DeletionExecutor is the binding between a fired deletion task and the
// store's trash operation. No retry: a failed trash is logged and dropped.
type DeletionExecutor struct {
	store  AnnouncementStore
	logger logging.Logger
}

func NewDeletionExecutor(store AnnouncementStore, logger logging.Logger) *DeletionExecutor {
	return &DeletionExecutor{store: store, logger: logger}
}

func (e *DeletionExecutor) HandleFire(args ...string) Outcome {
	if len(args) == 0 {
		return OutcomeSkipped
	}
	id := args[0]
	if err := e.store.Trash(id); err != nil {
		e.logger.Errorf("announce: deletion: failed to trash %s: %v", id, err)
		return OutcomeFailed
	}
	e.logger.Infof("announce: deletion: trashed expired announcement %s", id)
	return OutcomeApplied
}
