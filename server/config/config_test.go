package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imaginehigher/announcements/server/config"
)

func TestDefaults(t *testing.T) {
	svc, err := config.NewConfigService("")
	require.NoError(t, err)

	c := svc.GetConfiguration()
	assert.Equal(t, 3, c.ExpirationWindowDays)
	assert.Equal(t, "16", c.DateFieldID)
	assert.Equal(t, "25", c.ExpirationFieldID)
	assert.Equal(t, "_announce_entry_id", c.EntryMarkerKey)
	assert.Equal(t, "_announce_notified", c.NotifiedKey)
	assert.Equal(t, "submitter_email", c.SubmitterEmailKey)
	assert.Equal(t, "announce_expiration", c.ExpirationKey)
	assert.Equal(t, "Your announcement has been approved", c.Mail.Subject)
	assert.Equal(t, "", c.ScheduleTime)
}

func TestLoadFromYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path: /var/lib/announce.db
schedule_time: "08:50 am"
expiration_window_days: 5
mail:
  host: smtp.example.edu
  port: 587
  from: announce@example.edu
  from_name: Example College
log:
  level: debug
`), 0o600))

	svc, err := config.NewConfigService(path)
	require.NoError(t, err)

	c := svc.GetConfiguration()
	assert.Equal(t, "/var/lib/announce.db", c.DBPath)
	assert.Equal(t, "08:50 am", c.ScheduleTime)
	assert.Equal(t, 5, c.ExpirationWindowDays)
	assert.Equal(t, "smtp.example.edu", c.Mail.Host)
	assert.Equal(t, "Example College", c.Mail.FromName)
	assert.Equal(t, "debug", c.Log.Level)

	// unset fields keep their defaults
	assert.Equal(t, "announce_expiration", c.ExpirationKey)
	assert.Equal(t, "Your announcement has been approved", c.Mail.Subject)
}

func TestMissingFile(t *testing.T) {
	_, err := config.NewConfigService(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestUpdateConfiguration(t *testing.T) {
	svc, err := config.NewConfigService("")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateConfiguration(func(c *config.Configuration) {
		c.ScheduleTime = "12:00 pm"
	}))
	assert.Equal(t, "12:00 pm", svc.GetConfiguration().ScheduleTime)

	// GetConfiguration hands out a copy
	svc.GetConfiguration().ScheduleTime = "mutated"
	assert.Equal(t, "12:00 pm", svc.GetConfiguration().ScheduleTime)
}
