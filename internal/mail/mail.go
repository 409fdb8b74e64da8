package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/nxl-pharma/crm-api/internal/config"
)

// Message is a single email to send.
type Message struct {
	To      []string
	Subject string
	HTML    string
	ReplyTo string
}

// Sender sends emails through an SMTP relay.
type Sender struct {
	cfg config.MailConfig
}

// New builds a Sender. A disabled config turns Send into a no-op.
func New(cfg config.MailConfig) *Sender {
	return &Sender{cfg: cfg}
}

// Enabled reports whether messages are actually delivered.
func (s *Sender) Enabled() bool {
	return s != nil && s.cfg.Enable && s.cfg.Host != ""
}

// Send dispatches an email.
func (s *Sender) Send(msg Message) error {
	if !s.Enabled() || len(msg.To) == 0 {
		return nil
	}
	port := s.cfg.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, port)

	from := s.cfg.From
	if from == "" {
		from = s.cfg.User
	}

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}
	return smtp.SendMail(addr, auth, from, msg.To, Compose(from, msg))
}

// Compose renders the RFC 5322 message body.
func Compose(from string, msg Message) []byte {
	var body bytes.Buffer
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString(fmt.Sprintf("From: %s\r\n", from))
	body.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject)))
	body.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	if msg.ReplyTo != "" {
		body.WriteString(fmt.Sprintf("Reply-To: %s\r\n", msg.ReplyTo))
	}
	body.WriteString("\r\n")
	body.WriteString(msg.HTML)
	return body.Bytes()
}

const layoutTpl = `<!DOCTYPE html>
<html lang="en">
<head><meta http-equiv="Content-Type" content="text/html; charset=UTF-8" /></head>
<body style="font-family:ui-sans-serif,system-ui,-apple-system,Segoe UI,Roboto,Helvetica Neue,Arial,sans-serif;background:#f5f7fa;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px;border-top:4px solid #0e7490">
{{block "content" .}}{{end}}
<hr style="border:none;border-top:1px solid #eaeaea;margin:24px 0" />
<p style="font-size:11px;color:#9ca3af;text-align:center">&copy;{{year}} NXL Pharma</p>
</div>
</body>
</html>`

const inquiryNotifyTpl = `{{define "content"}}
<h2 style="color:#111;font-size:18px">New inquiry from {{.Name}}</h2>
<p style="font-size:14px;color:#333">
<strong>Email:</strong> {{.Email}}<br />
{{if .Phone}}<strong>Phone:</strong> {{.Phone}}<br />{{end}}
{{if .Subject}}<strong>Subject:</strong> {{.Subject}}<br />{{end}}
</p>
<div style="background:#f3f4f6;border-radius:8px;padding:12px 16px;font-size:13px;color:#333;white-space:pre-wrap">{{.Message}}</div>
<p style="margin-top:24px"><a href="{{.DashboardURL}}" style="background:#0e7490;color:#fff;padding:8px 16px;text-decoration:none;border-radius:4px">Open in dashboard</a></p>
{{end}}`

const replyTpl = `{{define "content"}}
<p style="font-size:14px;color:#333">Dear {{.Name}},</p>
<div style="font-size:14px;line-height:22px;color:#111">{{.Body}}</div>
<p style="font-size:14px;color:#333;margin-top:24px">{{.FromName}}<br />NXL Pharma</p>
{{if .OriginalMessage}}
<p style="font-size:12px;color:#6b7280;margin-top:24px">Your original message:</p>
<div style="background:#f3f4f6;border-radius:8px;padding:12px 16px;font-size:12px;color:#4b5563;white-space:pre-wrap">{{.OriginalMessage}}</div>
{{end}}
{{end}}`

const resetLinkTpl = `{{define "content"}}
<h2 style="color:#111;font-size:18px">Reset your password</h2>
<p style="font-size:14px;color:#333">Hello {{.Name}}, a password reset was requested for your dashboard account.</p>
<p style="margin-top:24px"><a href="{{.ResetURL}}" style="background:#0e7490;color:#fff;padding:8px 16px;text-decoration:none;border-radius:4px">Choose a new password</a></p>
<p style="font-size:12px;color:#9ca3af">The link expires at {{.ExpiresAt.UTC.Format "2006-01-02 15:04 MST"}}. If you did not expect this email you can ignore it.</p>
{{end}}`

// InquiryNotifyData feeds the staff notification for a new inquiry.
type InquiryNotifyData struct {
	Name         string
	Email        string
	Phone        string
	Subject      string
	Message      string
	DashboardURL string
}

// ReplyData feeds the reply sent to an inquirer. Body must already be sanitized.
type ReplyData struct {
	Name            string
	Body            template.HTML
	FromName        string
	OriginalMessage string
}

// ResetLinkData feeds the password reset email.
type ResetLinkData struct {
	Name      string
	ResetURL  string
	ExpiresAt time.Time
}

func renderTemplate(tpl string, data any) (string, error) {
	t, err := template.New("layout").Funcs(template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},
	}).Parse(layoutTpl)
	if err != nil {
		return "", err
	}
	if _, err := t.Parse(tpl); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// InquiryNotification builds the staff alert for a new contact-form submission.
func InquiryNotification(to []string, data InquiryNotifyData) (Message, error) {
	html, err := renderTemplate(inquiryNotifyTpl, data)
	if err != nil {
		return Message{}, err
	}
	subject := "New inquiry"
	if strings.TrimSpace(data.Subject) != "" {
		subject = "New inquiry: " + data.Subject
	}
	return Message{To: to, Subject: subject, HTML: html, ReplyTo: data.Email}, nil
}

// InquiryReply builds the outgoing answer to an inquirer.
func InquiryReply(to, subject string, data ReplyData) (Message, error) {
	html, err := renderTemplate(replyTpl, data)
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{to}, Subject: subject, HTML: html}, nil
}

// ResetLink builds the password reset email.
func ResetLink(to string, data ResetLinkData) (Message, error) {
	html, err := renderTemplate(resetLinkTpl, data)
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{to}, Subject: "Reset your NXL dashboard password", HTML: html}, nil
}
