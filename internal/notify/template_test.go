package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/JonMunkholm/sheetnotify/internal/core"
)

func TestTemplate_RenderDefault(t *testing.T) {
	msg, err := MustDefaultTemplate().Render(Data{Name: "Alice", Recipient: "a@x.com"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if msg.Subject != DefaultSubject {
		t.Errorf("Subject = %q, want %q", msg.Subject, DefaultSubject)
	}
	if !strings.HasPrefix(msg.Body, "Hi Alice,\n\n") {
		t.Errorf("Body = %q, want greeting for Alice", msg.Body)
	}
	if !strings.HasSuffix(msg.Body, "Best regards,\nYanwun") {
		t.Errorf("Body = %q, want signature", msg.Body)
	}
	if msg.HTML != "" {
		t.Errorf("HTML = %q, want empty", msg.HTML)
	}
}

func TestTemplate_Custom(t *testing.T) {
	tmpl, err := NewTemplate("Hello {{.Name}}", "To {{.Recipient}}", "<p>Hi {{.Name}}</p>")
	if err != nil {
		t.Fatalf("NewTemplate() error = %v", err)
	}

	msg, err := tmpl.Render(Data{Name: "<Bob>", Recipient: "b@x.com"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if msg.Subject != "Hello <Bob>" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.Body != "To b@x.com" {
		t.Errorf("Body = %q", msg.Body)
	}
	if msg.HTML != "<p>Hi &lt;Bob&gt;</p>" {
		t.Errorf("HTML = %q, want escaped name", msg.HTML)
	}
}

func TestNewTemplate_Errors(t *testing.T) {
	tests := []struct {
		name                string
		subject, body, html string
	}{
		{"bad subject", "{{.Name", "", ""},
		{"bad body", "", "{{if}}", ""},
		{"bad html", "", "", "{{end}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTemplate(tt.subject, tt.body, tt.html); err == nil {
				t.Error("NewTemplate() error = nil, want parse error")
			}
		})
	}
}

func TestTemplate_UnknownField(t *testing.T) {
	tmpl, err := NewTemplate("", "{{.Phone}}", "")
	if err != nil {
		t.Fatalf("NewTemplate() error = %v", err)
	}
	if _, err := tmpl.Render(Data{Name: "A"}); err == nil {
		t.Error("Render() error = nil, want unknown field error")
	}
}

func TestDryRun(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	d := NewDryRun(nil, logger)

	var _ core.Sender = d

	if err := d.Send(context.Background(), "a@x.com", "Alice"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := d.Recipients(); len(got) != 1 || got[0] != "a@x.com" {
		t.Errorf("Recipients() = %v, want [a@x.com]", got)
	}
	if !strings.Contains(buf.String(), "recipient=a@x.com") {
		t.Errorf("log output = %q, want recipient", buf.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Send(ctx, "b@x.com", "Bob"); !errors.Is(err, context.Canceled) {
		t.Errorf("Send(cancelled) error = %v, want context.Canceled", err)
	}
}
