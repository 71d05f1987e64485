// Package config loads and serves the deploy-time configuration for the
// announcements service.
package config

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/imaginehigher/announcements/server/logging"
)

// MailSettings configures the SMTP transport and the approval notification.
type MailSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	StartTLS bool   `yaml:"starttls"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
	Subject  string `yaml:"subject"`
	Body     string `yaml:"body"`
}

// Configuration holds every deploy-time constant of the service. Field IDs
// address values inside a submission entry; meta keys address announcement
// attributes.
type Configuration struct {
	DBPath string `yaml:"db_path"`

	// Time of day appended to the submitted publish date, "HH:MM am|pm".
	// Empty means midnight.
	ScheduleTime string `yaml:"schedule_time"`

	// Upper bound, in days after the publish date, for the expiration date.
	ExpirationWindowDays int `yaml:"expiration_window_days"`

	// How often the publish ticker flips due pending announcements live.
	PublishTickSeconds int `yaml:"publish_tick_seconds"`

	DateFieldID       string `yaml:"date_field_id"`
	ExpirationFieldID string `yaml:"expiration_field_id"`
	EmailFieldID      string `yaml:"email_field_id"`
	TitleFieldID      string `yaml:"title_field_id"`
	BodyFieldID       string `yaml:"body_field_id"`

	EntryMarkerKey    string `yaml:"entry_marker_key"`
	NotifiedKey       string `yaml:"notified_key"`
	SubmitterEmailKey string `yaml:"submitter_email_key"`
	ExpirationKey     string `yaml:"expiration_key"`

	Mail MailSettings     `yaml:"mail"`
	Log  logging.Settings `yaml:"log"`
}

// Service is the configuration access interface handed to the other services.
type Service interface {
	GetConfiguration() *Configuration
	UpdateConfiguration(f func(*Configuration)) error
}

// ServiceImpl is the file-backed Service implementation.
type ServiceImpl struct {
	mu   sync.RWMutex
	conf *Configuration
}

// NewConfigService loads the YAML file at path, or serves pure defaults when
// path is empty.
func NewConfigService(path string) (*ServiceImpl, error) {
	conf := &Configuration{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "announce: failed to read configuration %s", path)
		}
		if err := yaml.Unmarshal(raw, conf); err != nil {
			return nil, errors.Wrapf(err, "announce: failed to parse configuration %s", path)
		}
	}
	setDefaults(conf)
	return &ServiceImpl{conf: conf}, nil
}

func (s *ServiceImpl) GetConfiguration() *Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := *s.conf
	return &clone
}

func (s *ServiceImpl) UpdateConfiguration(f func(*Configuration)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.conf)
	setDefaults(s.conf)
	return nil
}

func setDefaults(c *Configuration) {
	if c.DBPath == "" {
		c.DBPath = "announcements.db"
	}
	if c.ExpirationWindowDays == 0 {
		c.ExpirationWindowDays = 3
	}
	if c.PublishTickSeconds == 0 {
		c.PublishTickSeconds = 60
	}
	if c.DateFieldID == "" {
		c.DateFieldID = "16"
	}
	if c.ExpirationFieldID == "" {
		c.ExpirationFieldID = "25"
	}
	if c.EmailFieldID == "" {
		c.EmailFieldID = "4"
	}
	if c.TitleFieldID == "" {
		c.TitleFieldID = "1"
	}
	if c.BodyFieldID == "" {
		c.BodyFieldID = "2"
	}
	if c.EntryMarkerKey == "" {
		c.EntryMarkerKey = "_announce_entry_id"
	}
	if c.NotifiedKey == "" {
		c.NotifiedKey = "_announce_notified"
	}
	if c.SubmitterEmailKey == "" {
		c.SubmitterEmailKey = "submitter_email"
	}
	if c.ExpirationKey == "" {
		c.ExpirationKey = "announce_expiration"
	}
	if c.Mail.Subject == "" {
		c.Mail.Subject = "Your announcement has been approved"
	}
	if c.Mail.Body == "" {
		c.Mail.Body = "Congratulations! Your announcement has been approved. " +
			"It will appear in the next Daily Announcements email."
	}
}
