package app

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/imaginehigher/announcements/server/config"
	"github.com/imaginehigher/announcements/server/logging"
)

// SubmissionService runs the synchronous part of submission processing:
// schedule mapping, record creation, marker and email meta, expiration
// computation. The expiration meta write fans out to the deletion scheduler
// through the store's event emission.
type SubmissionService struct {
	config     config.Service
	schedule   *ScheduleService
	expiration *ExpirationService
	store      AnnouncementStore
	meta       MetaStore
	logger     logging.Logger
}

func NewSubmissionService(
	cfg config.Service,
	schedule *ScheduleService,
	expiration *ExpirationService,
	store AnnouncementStore,
	meta MetaStore,
	logger logging.Logger,
) *SubmissionService {
	return &SubmissionService{
		config:     cfg,
		schedule:   schedule,
		expiration: expiration,
		store:      store,
		meta:       meta,
		logger:     logger,
	}
}

// Process ingests one submission entry and returns the new announcement ID.
func (s *SubmissionService) Process(entry Entry) (string, error) {
	cfg := s.config.GetConfiguration()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	draft := Draft{
		Title:   entry.Field(cfg.TitleFieldID),
		Content: entry.Field(cfg.BodyFieldID),
		Status:  StatusPublish,
	}
	s.schedule.Apply(entry, &draft)

	a := &Announcement{
		ID:           uuid.NewString(),
		Title:        draft.Title,
		Content:      draft.Content,
		Status:       draft.Status,
		PublishAt:    draft.PublishAt,
		PublishAtGMT: draft.PublishAtGMT,
	}
	if err := s.store.Create(a); err != nil {
		return "", errors.Wrapf(err, "announce: submission: failed to create announcement for entry %s", entry.ID)
	}

	if err := s.meta.SetMeta(a.ID, cfg.EntryMarkerKey, entry.ID); err != nil {
		return "", errors.Wrapf(err, "announce: submission: failed to mark %s as form-created", a.ID)
	}
	if to := entry.Field(cfg.EmailFieldID); to != "" {
		if err := s.meta.SetMeta(a.ID, cfg.SubmitterEmailKey, to); err != nil {
			return "", errors.Wrapf(err, "announce: submission: failed to store submitter email for %s", a.ID)
		}
	}

	s.expiration.Apply(entry, &draft, a.ID)

	s.logger.Infof("announce: submission: entry %s created announcement %s (%s)", entry.ID, a.ID, a.Status)
	return a.ID, nil
}
