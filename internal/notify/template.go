// Package notify renders notification messages and provides the senders
// that do not need a mail server.
package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"
)

// Default message content.
const (
	DefaultSubject = "感謝您喜愛我們的產品！"
	DefaultBody    = "Hi {{.Name}},\n\n感謝您喜歡我們的某項產品！我們很高興能為您服務。\n\nBest regards,\nYanwun"
)

// Data is the value a template is executed against.
type Data struct {
	Name      string
	Recipient string
}

// Message is one rendered notification.
type Message struct {
	Subject string
	Body    string
	HTML    string // empty when the template has no HTML part
}

// Template holds the parsed subject, plain-text body and optional HTML body.
type Template struct {
	subject *template.Template
	body    *template.Template
	html    *htmltemplate.Template
}

// NewTemplate parses the given sources. Empty subject or body fall back to
// the defaults; an empty html source disables the HTML alternative.
func NewTemplate(subject, body, html string) (*Template, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	if body == "" {
		body = DefaultBody
	}

	t := &Template{}
	var err error
	if t.subject, err = template.New("subject").Option("missingkey=error").Parse(subject); err != nil {
		return nil, fmt.Errorf("parse subject: %w", err)
	}
	if t.body, err = template.New("body").Option("missingkey=error").Parse(body); err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	if html != "" {
		if t.html, err = htmltemplate.New("html").Parse(html); err != nil {
			return nil, fmt.Errorf("parse html: %w", err)
		}
	}
	return t, nil
}

// MustDefaultTemplate returns the built-in greeting.
func MustDefaultTemplate() *Template {
	t, err := NewTemplate("", "", "")
	if err != nil {
		panic(err)
	}
	return t
}

// Render executes the template for one recipient.
func (t *Template) Render(d Data) (Message, error) {
	var msg Message
	var buf bytes.Buffer

	if err := t.subject.Execute(&buf, d); err != nil {
		return msg, fmt.Errorf("render subject: %w", err)
	}
	msg.Subject = buf.String()

	buf.Reset()
	if err := t.body.Execute(&buf, d); err != nil {
		return msg, fmt.Errorf("render body: %w", err)
	}
	msg.Body = buf.String()

	if t.html != nil {
		buf.Reset()
		if err := t.html.Execute(&buf, d); err != nil {
			return msg, fmt.Errorf("render html: %w", err)
		}
		msg.HTML = buf.String()
	}
	return msg, nil
}
