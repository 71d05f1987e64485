package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/imaginehigher/announcements/server/config"
	"github.com/imaginehigher/announcements/server/logging"
)

// ScheduleService maps the submitted publish date plus the configured
// time-of-day onto the draft's scheduling fields.
type ScheduleService struct {
	config config.Service
	logger logging.Logger

	// Location the platform runs in. Publish timestamps are wall-clock
	// values in this location.
	Location *time.Location
}

func NewScheduleService(cfg config.Service, logger logging.Logger) *ScheduleService {
	return &ScheduleService{
		config:   cfg,
		logger:   logger,
		Location: time.Local,
	}
}

// Apply fills the draft's status and publish timestamps from the entry's date
// field. An empty date field leaves the draft untouched, so the announcement
// goes live immediately under default platform behavior.
//
// The configured time is split on ':' and ' ' into hour, minute and meridiem;
// "pm" adds 12 to the hour. "12:00 pm" therefore becomes hour 24 and rolls
// into 00:00 of the following day, matching the form handler this service
// replaces.
func (s *ScheduleService) Apply(entry Entry, draft *Draft) Outcome {
	cfg := s.config.GetConfiguration()

	date := entry.Field(cfg.DateFieldID)
	if date == "" {
		return OutcomeSkipped
	}

	hour, min := 0, 0
	if cfg.ScheduleTime != "" {
		parts := strings.FieldsFunc(cfg.ScheduleTime, func(r rune) bool {
			return r == ':' || r == ' '
		})
		if len(parts) > 0 {
			hour, _ = strconv.Atoi(parts[0])
		}
		if len(parts) > 1 {
			min, _ = strconv.Atoi(parts[1])
		}
		if len(parts) > 2 && strings.EqualFold(parts[2], "pm") {
			hour += 12
		}
	}

	day, err := time.ParseInLocation(DateLayout, date, s.Location)
	if err != nil {
		s.logger.Warnf("announce: schedule mapper: unparseable date field %q: %v", date, err)
		return OutcomeFailed
	}

	at := day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)

	draft.Status = StatusPending
	draft.PublishAt = at.Format(TimestampLayout)
	draft.PublishAtGMT = at.UTC().Format(TimestampLayout)
	draft.EditDate = true

	s.logger.Debugf("announce: schedule mapper: publish at %s (local)", draft.PublishAt)
	return OutcomeApplied
}
