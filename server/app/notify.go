package app

import (
	"fmt"

	"github.com/imaginehigher/announcements/server/config"
	"github.com/imaginehigher/announcements/server/logging"
)

// Notifier mails the submitter once when their announcement is published.
type Notifier struct {
	config config.Service
	meta   MetaStore
	mailer Mailer
	logger logging.Logger
}

func NewNotifier(cfg config.Service, meta MetaStore, mailer Mailer, logger logging.Logger) *Notifier {
	return &Notifier{
		config: cfg,
		meta:   meta,
		mailer: mailer,
		logger: logger,
	}
}

// HandlePublished sends the approval mail for a published announcement.
// Announcements without the form-entry marker are ignored, as are ones
// already carrying the notified marker, giving at-most-once delivery per
// announcement.
//
// The notified marker is set even when the send fails; a transport failure is
// logged and reported in the outcome but otherwise treated as delivered.
func (n *Notifier) HandlePublished(announcementID string) Outcome {
	cfg := n.config.GetConfiguration()

	marker, err := n.meta.GetMeta(announcementID, cfg.EntryMarkerKey)
	if err != nil {
		n.logger.Errorf("announce: notify: failed to read entry marker for %s: %v", announcementID, err)
		return OutcomeFailed
	}
	if marker == "" {
		return OutcomeSkipped
	}

	notified, err := n.meta.GetMeta(announcementID, cfg.NotifiedKey)
	if err != nil {
		n.logger.Errorf("announce: notify: failed to read notified marker for %s: %v", announcementID, err)
		return OutcomeFailed
	}
	if notified != "" {
		return OutcomeSkipped
	}

	to, err := n.meta.GetMeta(announcementID, cfg.SubmitterEmailKey)
	if err != nil {
		n.logger.Errorf("announce: notify: failed to read submitter email for %s: %v", announcementID, err)
		return OutcomeFailed
	}

	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", cfg.Mail.FromName, cfg.Mail.From),
		"Content-Type": "text/html; charset=UTF-8",
	}

	out := OutcomeApplied
	if err := n.mailer.Send(to, cfg.Mail.Subject, cfg.Mail.Body, headers); err != nil {
		n.logger.Errorf("announce: notify: mail to %s for %s failed: %v", to, announcementID, err)
		out = OutcomeFailed
	}

	if err := n.meta.SetMeta(announcementID, cfg.NotifiedKey, "1"); err != nil {
		n.logger.Errorf("announce: notify: failed to set notified marker for %s: %v", announcementID, err)
		return OutcomeFailed
	}

	return out
}
