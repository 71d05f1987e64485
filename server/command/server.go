package command

import (
	"time"

	"github.com/imaginehigher/announcements/server/app"
	"github.com/imaginehigher/announcements/server/bus"
	"github.com/imaginehigher/announcements/server/config"
	"github.com/imaginehigher/announcements/server/cron"
	"github.com/imaginehigher/announcements/server/logging"
	"github.com/imaginehigher/announcements/server/mail"
	"github.com/imaginehigher/announcements/server/sqlstore"
)

// Server wires configuration, storage, the event bus, the task executor and
// every lifecycle service together.
type Server struct {
	Config      config.Service
	Logger      logging.Logger
	Store       *sqlstore.SQLStore
	Bus         *bus.Bus
	Cron        *cron.Executor
	Submissions *app.SubmissionService

	ticker *app.PublishTicker
}

// NewServer builds the full service from the configuration file at cfgPath
// and registers all event and task handlers.
func NewServer(cfgPath string) (*Server, error) {
	cfg, err := config.NewConfigService(cfgPath)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.GetConfiguration().Log)

	store, err := sqlstore.New(cfg.GetConfiguration().DBPath, logger)
	if err != nil {
		return nil, err
	}

	b := bus.New()
	announcements := sqlstore.NewAnnouncementStore(store, logger)
	meta := sqlstore.NewMetaStore(store, b, logger)
	executor := cron.New(logger)
	mailer := mail.NewSMTPMailer(cfg, logger)

	schedule := app.NewScheduleService(cfg, logger)
	expiration := app.NewExpirationService(cfg, meta, logger)
	deletion := app.NewDeletionScheduler(cfg, executor, logger)
	trasher := app.NewDeletionExecutor(announcements, logger)
	notifier := app.NewNotifier(cfg, meta, mailer, logger)
	submissions := app.NewSubmissionService(cfg, schedule, expiration, announcements, meta, logger)
	ticker := app.NewPublishTicker(announcements, b, logger)

	executor.Register(app.DeletionTask, func(args ...string) {
		trasher.HandleFire(args...)
	})
	executor.Register(app.PublishTask, func(args ...string) {
		ticker.Tick()
	})

	onWrite := func(ev bus.MetaEvent) {
		out := deletion.HandleMetaWrite(ev.AnnouncementID, ev.Key, ev.Value)
		logger.Debugf("announce: meta write %s/%s: %s", ev.AnnouncementID, ev.Key, out)
	}
	b.OnMetaAdded(onWrite)
	b.OnMetaUpdated(onWrite)
	b.OnMetaDeleted(func(ev bus.MetaEvent) {
		out := deletion.HandleMetaDelete(ev.AnnouncementID, ev.Key)
		logger.Debugf("announce: meta delete %s/%s: %s", ev.AnnouncementID, ev.Key, out)
	})
	b.OnPublished(func(ev bus.PublishEvent) {
		out := notifier.HandlePublished(ev.AnnouncementID)
		logger.Debugf("announce: published %s: %s", ev.AnnouncementID, out)
	})

	return &Server{
		Config:      cfg,
		Logger:      logger,
		Store:       store,
		Bus:         b,
		Cron:        executor,
		Submissions: submissions,
		ticker:      ticker,
	}, nil
}

// Start launches the recurring publish tick.
func (s *Server) Start() {
	interval := time.Duration(s.Config.GetConfiguration().PublishTickSeconds) * time.Second
	if err := s.Cron.Every(app.PublishTask, interval); err != nil {
		s.Logger.Errorf("announce: failed to start publish ticker: %v", err)
	}
}

// Close stops the executor and closes the database.
func (s *Server) Close() {
	s.Cron.Stop()
	if err := s.Store.Close(); err != nil {
		s.Logger.Errorf("announce: failed to close store: %v", err)
	}
}
