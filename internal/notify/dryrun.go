package notify

import (
	"context"
	"log/slog"
	"sync"
)

// DryRun is a core.Sender that renders and logs each message instead of
// sending it. Runs using it still write markers.
type DryRun struct {
	tmpl   *Template
	logger *slog.Logger

	mu   sync.Mutex
	sent []string
}

// NewDryRun creates a DryRun sender. A nil template uses the default.
func NewDryRun(tmpl *Template, logger *slog.Logger) *DryRun {
	if tmpl == nil {
		tmpl = MustDefaultTemplate()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRun{tmpl: tmpl, logger: logger}
}

// Send renders the message and logs it.
func (d *DryRun) Send(ctx context.Context, recipient, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := d.tmpl.Render(Data{Name: name, Recipient: recipient})
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.sent = append(d.sent, recipient)
	d.mu.Unlock()

	d.logger.InfoContext(ctx, "dry run: message not sent",
		"recipient", recipient,
		"subject", msg.Subject,
		"body_bytes", len(msg.Body),
	)
	return nil
}

// Recipients returns everyone a message was rendered for, in order.
func (d *DryRun) Recipients() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.sent...)
}
