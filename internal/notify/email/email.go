// Package email sends notifications over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"golang.org/x/time/rate"

	"github.com/JonMunkholm/sheetnotify/internal/core"
	"github.com/JonMunkholm/sheetnotify/internal/notify"
)

// Defaults match a Gmail account using an app password.
const (
	DefaultHost    = "smtp.gmail.com"
	DefaultPort    = 587
	DefaultTimeout = 20 * time.Second
)

// Config describes the SMTP account.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // empty: Username
	FromName string

	// RatePerSecond bounds outgoing messages. Zero or negative disables the limit.
	RatePerSecond float64
	Timeout       time.Duration
}

// dialer is the part of *mail.Client the Sender uses.
type dialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Sender implements core.Sender with one SMTP connection per message.
type Sender struct {
	client  dialer
	tmpl    *notify.Template
	from    string
	name    string
	limiter *rate.Limiter
}

// New creates a Sender. A nil template uses the default greeting.
func New(cfg Config, tmpl *notify.Template) (*Sender, error) {
	cfg = withDefaults(cfg)
	if cfg.Username == "" {
		return nil, errors.New("email: username is required")
	}
	if cfg.Password == "" {
		return nil, errors.New("email: password is required")
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("email: create client: %w", err)
	}
	return newSender(client, cfg, tmpl), nil
}

func newSender(client dialer, cfg Config, tmpl *notify.Template) *Sender {
	if tmpl == nil {
		tmpl = notify.MustDefaultTemplate()
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &Sender{
		client:  client,
		tmpl:    tmpl,
		from:    from,
		name:    cfg.FromName,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func withDefaults(cfg Config) Config {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.Password = StripSpaces(cfg.Password)
	return cfg
}

// StripSpaces removes all whitespace. Gmail displays app passwords in
// groups of four and users paste them that way.
func StripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Send renders the message for name and delivers it to recipient.
func (s *Sender) Send(ctx context.Context, recipient, name string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return &core.SendError{Recipient: recipient, Err: fmt.Errorf("rate limit: %w", err)}
	}

	msg, err := s.buildMessage(recipient, name)
	if err != nil {
		return &core.SendError{Recipient: recipient, Err: err}
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return &core.SendError{Recipient: recipient, Err: err}
	}
	return nil
}

func (s *Sender) buildMessage(recipient, name string) (*mail.Msg, error) {
	content, err := s.tmpl.Render(notify.Data{Name: name, Recipient: recipient})
	if err != nil {
		return nil, err
	}

	m := mail.NewMsg()
	if s.name != "" {
		err = m.FromFormat(s.name, s.from)
	} else {
		err = m.From(s.from)
	}
	if err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := m.To(recipient); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	m.Subject(content.Subject)
	m.SetBodyString(mail.TypeTextPlain, content.Body)
	if content.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, content.HTML)
	}
	return m, nil
}
