package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/nxl-pharma/crm-api/internal/events"
	appmail "github.com/nxl-pharma/crm-api/internal/mail"
)

// Mailer delivers outgoing email.
type Mailer interface {
	Send(msg appmail.Message) error
}

// ObjectStore holds uploaded media files.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// KeyStore keeps short-lived counters and markers.
type KeyStore interface {
	SetOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Count(ctx context.Context, key string) (int64, error)
	Del(ctx context.Context, key string) error
}

type noopMailer struct{}

func (noopMailer) Send(appmail.Message) error { return nil }

func mailerOrNoop(m Mailer) Mailer {
	if m == nil {
		return noopMailer{}
	}
	return m
}

func clockOrNow(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}

func publish(ctx context.Context, d events.Dispatcher, event events.Event) {
	if d == nil {
		return
	}
	_ = d.Publish(ctx, event)
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidEmail accepts bare addresses only: no display names or angle brackets.
func ValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return at > 0 && strings.Contains(email[at+1:], ".")
}
