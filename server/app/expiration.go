package app

import (
	"time"

	"github.com/imaginehigher/announcements/server/config"
	"github.com/imaginehigher/announcements/server/logging"
)

// ExpirationService computes the expiration date of a just-submitted
// announcement and writes it as meta. The meta write is what triggers the
// deletion scheduler.
type ExpirationService struct {
	config config.Service
	meta   MetaStore
	logger logging.Logger

	Location *time.Location
	Now      func() time.Time
}

func NewExpirationService(cfg config.Service, meta MetaStore, logger logging.Logger) *ExpirationService {
	return &ExpirationService{
		config:   cfg,
		meta:     meta,
		logger:   logger,
		Location: time.Local,
		Now:      time.Now,
	}
}

// Apply derives the expiration date bounded by [publish date, publish date +
// window]. A user date inside the window wins; anything later, or no user
// date at all, yields the window bound. The result is stored non-zero-padded
// (YYYY-M-D).
//
// Dates are compared as calendar days, not as strings. An empty announcement
// ID is a silent no-op, mirroring the platform's behavior for a meta write
// against a missing record.
func (s *ExpirationService) Apply(entry Entry, draft *Draft, announcementID string) Outcome {
	if announcementID == "" {
		return OutcomeSkipped
	}
	cfg := s.config.GetConfiguration()

	base := s.Now().In(s.Location)
	if draft.PublishAt != "" {
		if t, err := time.ParseInLocation(TimestampLayout, draft.PublishAt, s.Location); err == nil {
			base = t
		} else {
			s.logger.Warnf("announce: expiration: unparseable publish timestamp %q, falling back to now: %v", draft.PublishAt, err)
		}
	}
	maxRun := dateOnly(base.AddDate(0, 0, cfg.ExpirationWindowDays))

	expiration := maxRun
	if user := entry.Field(cfg.ExpirationFieldID); user != "" {
		userDate, err := parseDate(user, s.Location)
		if err != nil {
			s.logger.Warnf("announce: expiration: ignoring unparseable user date %q: %v", user, err)
		} else if !userDate.After(maxRun) {
			expiration = userDate
		}
	}

	value := expiration.Format(MetaDateLayout)
	if err := s.meta.SetMeta(announcementID, cfg.ExpirationKey, value); err != nil {
		s.logger.Errorf("announce: expiration: failed to write %s=%s for %s: %v", cfg.ExpirationKey, value, announcementID, err)
		return OutcomeFailed
	}

	s.logger.Debugf("announce: expiration: %s expires %s", announcementID, value)
	return OutcomeApplied
}
