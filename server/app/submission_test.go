package app_test

import (
	"testing"
	"time"

	gomock "github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imaginehigher/announcements/server/app"
	mock_app "github.com/imaginehigher/announcements/server/app/mocks"
	"github.com/imaginehigher/announcements/server/config"
	mock_config "github.com/imaginehigher/announcements/server/config/mocks"
	"github.com/imaginehigher/announcements/server/logging"
)

func submissionConfig(ctrl *gomock.Controller) config.Service {
	m := mock_config.NewMockService(ctrl)
	m.EXPECT().GetConfiguration().Return(&config.Configuration{
		ScheduleTime:         "08:50 am",
		ExpirationWindowDays: 3,
		DateFieldID:          "16",
		ExpirationFieldID:    "25",
		EmailFieldID:         "4",
		TitleFieldID:         "1",
		BodyFieldID:          "2",
		EntryMarkerKey:       "_announce_entry_id",
		SubmitterEmailKey:    "submitter_email",
		ExpirationKey:        "announce_expiration",
	}).AnyTimes()
	return m
}

func TestProcessWithoutDateGoesLiveImmediately(t *testing.T) {
	ctrl := gomock.NewController(t)
	cfg := submissionConfig(ctrl)

	store := mock_app.NewMockAnnouncementStore(ctrl)
	meta := mock_app.NewMockMetaStore(ctrl)

	var created app.Announcement
	store.EXPECT().
		Create(gomock.Any()).
		DoAndReturn(func(a *app.Announcement) error {
			created = *a
			return nil
		})

	meta.EXPECT().SetMeta(gomock.Any(), "_announce_entry_id", "entry1").Return(nil)
	meta.EXPECT().SetMeta(gomock.Any(), "submitter_email", "sub@example.edu").Return(nil)
	// the draft has no publish timestamp, so the window counts from now
	meta.EXPECT().SetMeta(gomock.Any(), "announce_expiration", "2024-1-13").Return(nil)

	schedule := app.NewScheduleService(cfg, logging.NewNop())
	expiration := app.NewExpirationService(cfg, meta, logging.NewNop())
	expiration.Now = func() time.Time { return time.Date(2024, 1, 10, 8, 0, 0, 0, time.Local) }

	s := app.NewSubmissionService(cfg, schedule, expiration, store, meta, logging.NewNop())
	id, err := s.Process(app.Entry{
		ID: "entry1",
		Fields: map[string]string{
			"1": "Title",
			"2": "Body",
			"4": "sub@example.edu",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, id)
	assert.Equal(t, app.StatusPublish, created.Status)
	assert.Empty(t, created.PublishAt)
}

func TestProcessCreateFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	cfg := submissionConfig(ctrl)

	store := mock_app.NewMockAnnouncementStore(ctrl)
	meta := mock_app.NewMockMetaStore(ctrl)
	store.EXPECT().Create(gomock.Any()).Return(errors.New("disk full"))

	schedule := app.NewScheduleService(cfg, logging.NewNop())
	expiration := app.NewExpirationService(cfg, meta, logging.NewNop())

	s := app.NewSubmissionService(cfg, schedule, expiration, store, meta, logging.NewNop())
	_, err := s.Process(app.Entry{ID: "entry1", Fields: map[string]string{"1": "Title"}})
	assert.Error(t, err)
}

func TestPublishTicker(t *testing.T) {
	ctrl := gomock.NewController(t)

	t.Run("emits one event per flipped announcement", func(t *testing.T) {
		store := mock_app.NewMockAnnouncementStore(ctrl)
		now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)
		store.EXPECT().PublishDue(now).Return([]string{"a1", "a2"}, nil)

		var got []string
		p := app.NewPublishTicker(store, publishFunc(func(id string) { got = append(got, id) }), logging.NewNop())
		p.Now = func() time.Time { return now }

		assert.Equal(t, app.OutcomeApplied, p.Tick())
		assert.Equal(t, []string{"a1", "a2"}, got)
	})

	t.Run("nothing due", func(t *testing.T) {
		store := mock_app.NewMockAnnouncementStore(ctrl)
		store.EXPECT().PublishDue(gomock.Any()).Return(nil, nil)

		p := app.NewPublishTicker(store, publishFunc(func(string) {}), logging.NewNop())
		assert.Equal(t, app.OutcomeSkipped, p.Tick())
	})

	t.Run("store failure", func(t *testing.T) {
		store := mock_app.NewMockAnnouncementStore(ctrl)
		store.EXPECT().PublishDue(gomock.Any()).Return(nil, errors.New("boom"))

		p := app.NewPublishTicker(store, publishFunc(func(string) {}), logging.NewNop())
		assert.Equal(t, app.OutcomeFailed, p.Tick())
	})
}

type publishFunc func(id string)

func (f publishFunc) AnnouncementPublished(id string) { f(id) }
