package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	appmail "github.com/nxl-pharma/crm-api/internal/mail"
)

// KeyStore mimics the Redis key helpers with expiring entries. A non-nil Err
// fails every call the way an unreachable Redis does.
type KeyStore struct {
	mu      sync.Mutex
	Err     error
	now     func() time.Time
	entries map[string]keyEntry
}

type keyEntry struct {
	value   int64
	expires time.Time
}

// NewKeyStore builds an empty store driven by now.
func NewKeyStore(now func() time.Time) *KeyStore {
	if now == nil {
		now = time.Now
	}
	return &KeyStore{now: now, entries: map[string]keyEntry{}}
}

func (k *KeyStore) live(key string) (keyEntry, bool) {
	e, ok := k.entries[key]
	if !ok {
		return keyEntry{}, false
	}
	if !k.now().Before(e.expires) {
		delete(k.entries, key)
		return keyEntry{}, false
	}
	return e, true
}

func (k *KeyStore) SetOnce(_ context.Context, key string, ttl time.Duration) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.Err != nil {
		return false, k.Err
	}
	if _, ok := k.live(key); ok {
		return false, nil
	}
	k.entries[key] = keyEntry{value: 1, expires: k.now().Add(ttl)}
	return true, nil
}

func (k *KeyStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.Err != nil {
		return 0, k.Err
	}
	e, ok := k.live(key)
	if !ok {
		e = keyEntry{expires: k.now().Add(ttl)}
	}
	e.value++
	k.entries[key] = e
	return e.value, nil
}

func (k *KeyStore) Count(_ context.Context, key string) (int64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.Err != nil {
		return 0, k.Err
	}
	e, _ := k.live(key)
	return e.value, nil
}

func (k *KeyStore) Del(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.Err != nil {
		return k.Err
	}
	delete(k.entries, key)
	return nil
}

// Mailer records every message instead of sending it.
type Mailer struct {
	mu   sync.Mutex
	Sent []appmail.Message
	Err  error
}

func (m *Mailer) Send(msg appmail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// Messages returns a copy of the recorded messages.
func (m *Mailer) Messages() []appmail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]appmail.Message(nil), m.Sent...)
}

// ObjectStore keeps uploaded objects in memory.
type ObjectStore struct {
	mu      sync.Mutex
	BaseURL string
	Objects map[string][]byte
	FailPut bool
}

// NewObjectStore builds an empty store serving from baseURL.
func NewObjectStore(baseURL string) *ObjectStore {
	return &ObjectStore{BaseURL: baseURL, Objects: map[string][]byte{}}
}

func (s *ObjectStore) Put(_ context.Context, key, _ string, body []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPut {
		return "", errors.New("put failed")
	}
	s.Objects[key] = append([]byte(nil), body...)
	return s.BaseURL + "/" + key, nil
}

func (s *ObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, key)
	return nil
}

// Has reports whether key is stored.
func (s *ObjectStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Objects[key]
	return ok
}
