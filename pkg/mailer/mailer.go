// Package mailer sends transactional email. SMTP delivers through a relay and
// Log only records messages, which is what local development uses.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errors.New("recipient is required")
	}
	if strings.ContainsAny(m.To+m.Subject, "\r\n") {
		return errors.New("header values must not contain line breaks")
	}
	return nil
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP mailer when a host is configured, otherwise a Log mailer.
func New(cfg config.MailConfig, logg *logger.Logger) Mailer {
	if strings.TrimSpace(cfg.Host) == "" {
		return NewLog(logg)
	}
	return NewSMTP(cfg)
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTP struct {
	addr string
	from string
	auth smtp.Auth
	send sendFunc
	now  func() time.Time
}

func NewSMTP(cfg config.MailConfig) *SMTP {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTP{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.From,
		auth: auth,
		send: smtp.SendMail,
		now:  time.Now,
	}
}

// Send delivers msg. smtp.SendMail has no context support, so ctx is only
// checked before dialing.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.send(s.addr, s.auth, s.from, []string{msg.To}, s.render(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

func (s *SMTP) render(msg Message) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", s.now().UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return buf.Bytes()
}

type Log struct {
	logg *logger.Logger
}

func NewLog(logg *logger.Logger) *Log {
	return &Log{logg: logg}
}

func (l *Log) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if l.logg != nil {
		l.logg.Info(l.logg.WithFields(ctx, map[string]any{
			"mail_to":      msg.To,
			"mail_subject": msg.Subject,
		}), "email delivery skipped (no smtp host)")
	}
	return nil
}
