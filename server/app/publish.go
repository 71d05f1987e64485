package app

import (
	"time"

	"github.com/imaginehigher/announcements/server/logging"
)

// PublishTicker flips due pending announcements to published on a recurring
// task tick and emits a published event for each one.
type PublishTicker struct {
	store  AnnouncementStore
	events PublishAnnouncer
	logger logging.Logger

	Now func() time.Time
}

func NewPublishTicker(store AnnouncementStore, events PublishAnnouncer, logger logging.Logger) *PublishTicker {
	return &PublishTicker{
		store:  store,
		events: events,
		logger: logger,
		Now:    time.Now,
	}
}

func (p *PublishTicker) Tick() Outcome {
	ids, err := p.store.PublishDue(p.Now())
	if err != nil {
		p.logger.Errorf("announce: publish ticker: %v", err)
		return OutcomeFailed
	}
	if len(ids) == 0 {
		return OutcomeSkipped
	}
	for _, id := range ids {
		p.logger.Infof("announce: publish ticker: announcement %s is live", id)
		p.events.AnnouncementPublished(id)
	}
	return OutcomeApplied
}
