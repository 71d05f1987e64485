package app_test

import (
	"testing"
	"time"

	gomock "github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imaginehigher/announcements/server/app"
	"github.com/imaginehigher/announcements/server/config"
	mock_config "github.com/imaginehigher/announcements/server/config/mocks"
	"github.com/imaginehigher/announcements/server/logging"
)

func scheduleConfig(ctrl *gomock.Controller, timeOfDay string) config.Service {
	m := mock_config.NewMockService(ctrl)
	m.EXPECT().GetConfiguration().Return(&config.Configuration{
		ScheduleTime: timeOfDay,
		DateFieldID:  "16",
	}).AnyTimes()
	return m
}

func entryWithDate(date string) app.Entry {
	return app.Entry{ID: "entry1", Fields: map[string]string{"16": date}}
}

func TestScheduleApply(t *testing.T) {
	ctrl := gomock.NewController(t)

	t.Run("empty date leaves the draft untouched", func(t *testing.T) {
		s := app.NewScheduleService(scheduleConfig(ctrl, "08:50 am"), logging.NewNop())

		draft := app.Draft{Status: app.StatusPublish}
		out := s.Apply(entryWithDate(""), &draft)

		assert.Equal(t, app.OutcomeSkipped, out)
		assert.Equal(t, app.Draft{Status: app.StatusPublish}, draft)
	})

	t.Run("am hour is used as-is", func(t *testing.T) {
		s := app.NewScheduleService(scheduleConfig(ctrl, "08:50 am"), logging.NewNop())

		draft := app.Draft{}
		out := s.Apply(entryWithDate("2024-03-01"), &draft)

		require.Equal(t, app.OutcomeApplied, out)
		assert.Equal(t, app.StatusPending, draft.Status)
		assert.True(t, draft.EditDate)
		assert.Equal(t, "2024-03-01 08:50:00", draft.PublishAt)

		wantGMT := time.Date(2024, 3, 1, 8, 50, 0, 0, time.Local).UTC().Format(app.TimestampLayout)
		assert.Equal(t, wantGMT, draft.PublishAtGMT)
	})

	t.Run("pm adds twelve to the hour", func(t *testing.T) {
		s := app.NewScheduleService(scheduleConfig(ctrl, "01:15 pm"), logging.NewNop())

		draft := app.Draft{}
		require.Equal(t, app.OutcomeApplied, s.Apply(entryWithDate("2024-03-01"), &draft))
		assert.Equal(t, "2024-03-01 13:15:00", draft.PublishAt)
	})

	t.Run("noon becomes hour 24 and rolls into the next day", func(t *testing.T) {
		// The 12-hour conversion has no special case for 12 pm; the
		// composed hour 24 lands on 00:00 of the following day.
		s := app.NewScheduleService(scheduleConfig(ctrl, "12:00 pm"), logging.NewNop())

		draft := app.Draft{}
		require.Equal(t, app.OutcomeApplied, s.Apply(entryWithDate("2024-03-01"), &draft))
		assert.Equal(t, "2024-03-02 00:00:00", draft.PublishAt)
	})

	t.Run("no configured time defaults to midnight", func(t *testing.T) {
		s := app.NewScheduleService(scheduleConfig(ctrl, ""), logging.NewNop())

		draft := app.Draft{}
		require.Equal(t, app.OutcomeApplied, s.Apply(entryWithDate("2024-03-01"), &draft))
		assert.Equal(t, "2024-03-01 00:00:00", draft.PublishAt)
	})

	t.Run("unparseable date fails without touching the draft", func(t *testing.T) {
		s := app.NewScheduleService(scheduleConfig(ctrl, "08:50 am"), logging.NewNop())

		draft := app.Draft{}
		assert.Equal(t, app.OutcomeFailed, s.Apply(entryWithDate("03/01/2024"), &draft))
		assert.Equal(t, app.Draft{}, draft)
	})
}
