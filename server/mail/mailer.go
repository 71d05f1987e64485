// Package mail implements the SMTP transport behind app.Mailer.
package mail

import (
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/imaginehigher/announcements/server/config"
	"github.com/imaginehigher/announcements/server/logging"
)

// SMTPMailer sends plain messages through the configured SMTP relay.
type SMTPMailer struct {
	config config.Service
	logger logging.Logger
}

func NewSMTPMailer(cfg config.Service, logger logging.Logger) *SMTPMailer {
	return &SMTPMailer{config: cfg, logger: logger}
}

// Send composes and delivers one message. Caller-supplied headers override
// the generated ones.
func (m *SMTPMailer) Send(to, subject, body string, headers map[string]string) error {
	settings := m.config.GetConfiguration().Mail
	if settings.Host == "" || settings.From == "" {
		return errors.New("announce: smtp not configured")
	}
	addr := net.JoinHostPort(settings.Host, strconv.Itoa(settings.Port))

	fromName := settings.FromName
	if fromName == "" {
		fromName = "Announcements"
	}

	all := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", fromName), settings.From),
		"To":           to,
		"Subject":      mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version": "1.0",
		"Content-Type": "text/plain; charset=UTF-8",
	}
	for k, v := range headers {
		all[k] = v
	}

	var msg strings.Builder
	for k, v := range all {
		fmt.Fprintf(&msg, "%s: %s\r\n", k, v)
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if settings.Username != "" {
		auth = smtp.PlainAuth("", settings.Username, settings.Password, settings.Host)
	}

	if settings.StartTLS {
		return m.sendStartTLS(addr, settings, auth, to, msg.String())
	}
	return smtp.SendMail(addr, auth, settings.From, []string{to}, []byte(msg.String()))
}

func (m *SMTPMailer) sendStartTLS(addr string, settings config.MailSettings, auth smtp.Auth, to, msg string) error {
	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "announce: failed to dial smtp %s", addr)
	}
	_ = conn.SetDeadline(time.Now().Add(15 * time.Second))

	host, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "announce: smtp handshake failed")
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return errors.Wrap(err, "announce: starttls failed")
		}
	}
	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return errors.Wrap(err, "announce: smtp auth failed")
		}
	}
	if err := c.Mail(settings.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}
