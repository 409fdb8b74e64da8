package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/nxl-pharma/crm-api/internal/auth"
	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/events"
	"github.com/nxl-pharma/crm-api/internal/repository"
	apperrors "github.com/nxl-pharma/crm-api/pkg/util"
)

// MaxBulkEmails caps a single bulk add or import.
const MaxBulkEmails = 5000

// SubscriberService owns the newsletter list and the lock window rule.
type SubscriberService struct {
	subscribers repository.SubscriberRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// SubscriberDependencies bundles requirements for the subscriber service.
type SubscriberDependencies struct {
	SubscriberRepo repository.SubscriberRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Now            func() time.Time
}

// SubscriberView is a subscriber as seen by one actor.
type SubscriberView struct {
	domain.Subscriber
	Locked bool
}

// SubscriberPage is a listing result.
type SubscriberPage struct {
	Items []SubscriberView
	Total int64
}

// BulkAddResult reports the outcome of a bulk add or import.
type BulkAddResult struct {
	Added   int      `json:"added"`
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Invalid []string `json:"invalid"`
}

// BulkDeleteResult reports the outcome of a bulk delete.
type BulkDeleteResult struct {
	Deleted int `json:"deleted"`
	Locked  int `json:"locked"`
	Missing int `json:"missing"`
}

// NewSubscriberService constructs the service.
func NewSubscriberService(deps SubscriberDependencies) *SubscriberService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriberService{
		subscribers: deps.SubscriberRepo,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		now:         clockOrNow(deps.Now),
	}
}

// List returns subscribers newest first with the locked flag computed for actor.
func (s *SubscriberService) List(ctx context.Context, actor *domain.StaffMember, search string, limit int) (*SubscriberPage, error) {
	filter := repository.SubscriberFilter{Search: strings.TrimSpace(strings.ToLower(search)), Limit: limit}
	items, err := s.subscribers.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.subscribers.Count(ctx, repository.SubscriberFilter{Search: filter.Search})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	role := actorRole(actor)
	views := make([]SubscriberView, 0, len(items))
	for _, item := range items {
		views = append(views, SubscriberView{
			Subscriber: item,
			Locked:     auth.SubscriberLocked(role, item.AddedAt, now),
		})
	}
	return &SubscriberPage{Items: views, Total: total}, nil
}

// Add inserts an address on behalf of a staff member. Existing addresses conflict.
func (s *SubscriberService) Add(ctx context.Context, actor *domain.StaffMember, email string) (*domain.Subscriber, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": email})
	}
	sub := s.newSubscriber(actor, email, domain.SubscriberSourceAdmin)
	if err := s.subscribers.Insert(ctx, sub); err != nil {
		derr := apperrors.ToDomainError(err)
		if derr.Code == "CONFLICT" {
			return nil, apperrors.NewConflict("subscriber already exists", map[string]any{"email": email})
		}
		return nil, derr
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventSubscriberAdded,
		Target:    email,
		Actor:     events.ActorFrom(actor),
		Timestamp: sub.AddedAt,
	})
	return sub, nil
}

// Subscribe handles a public signup. Repeat signups succeed without changing the record.
func (s *SubscriberService) Subscribe(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return false, apperrors.NewValidationError("invalid email", nil)
	}
	created, err := s.subscribers.Upsert(ctx, s.newSubscriber(nil, email, domain.SubscriberSourceSignup))
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return created, nil
}

// Delete removes one subscriber if the lock window allows it for actor.
func (s *SubscriberService) Delete(ctx context.Context, actor *domain.StaffMember, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return apperrors.NewValidationError("email is required", nil)
	}
	sub, err := s.subscribers.Get(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("subscriber", map[string]any{"email": email})
		}
		return apperrors.MapError(err)
	}
	if !auth.CanDeleteSubscriber(actorRole(actor), sub.AddedAt, s.now()) {
		return apperrors.NewForbidden("subscriber is locked")
	}
	if err := s.subscribers.Delete(ctx, email); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("subscriber", map[string]any{"email": email})
		}
		return apperrors.MapError(err)
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventSubscriberDeleted,
		Target:    email,
		Actor:     events.ActorFrom(actor),
		Timestamp: s.now(),
	})
	return nil
}

// BulkDelete applies Delete to every address and tallies the outcomes.
func (s *SubscriberService) BulkDelete(ctx context.Context, actor *domain.StaffMember, emails []string) (*BulkDeleteResult, error) {
	if len(emails) == 0 {
		return nil, apperrors.NewValidationError("emails are required", nil)
	}
	result := &BulkDeleteResult{}
	seen := make(map[string]struct{}, len(emails))
	for _, raw := range emails {
		email := NormalizeEmail(raw)
		if _, dup := seen[email]; dup || email == "" {
			continue
		}
		seen[email] = struct{}{}

		err := s.Delete(ctx, actor, email)
		derr := apperrors.ToDomainError(err)
		switch {
		case err == nil:
			result.Deleted++
		case derr.Code == "NOT_FOUND":
			result.Missing++
		case derr.Code == "FORBIDDEN":
			result.Locked++
		default:
			return nil, err
		}
	}
	return result, nil
}

// NormalizeEmails lower-cases and de-duplicates candidates, keeping first-seen
// order, and separates out the entries that are not bare addresses.
func NormalizeEmails(raw []string) (valid, invalid []string) {
	valid = []string{}
	invalid = []string{}
	seenValid := map[string]struct{}{}
	seenInvalid := map[string]struct{}{}
	for _, candidate := range raw {
		email := NormalizeEmail(candidate)
		if email == "" {
			continue
		}
		if ValidEmail(email) {
			if _, ok := seenValid[email]; !ok {
				seenValid[email] = struct{}{}
				valid = append(valid, email)
			}
			continue
		}
		trimmed := strings.TrimSpace(candidate)
		if _, ok := seenInvalid[trimmed]; !ok {
			seenInvalid[trimmed] = struct{}{}
			invalid = append(invalid, trimmed)
		}
	}
	return valid, invalid
}

// BulkAdd upserts every valid address. Existing addresses count as updated and keep their addedAt.
func (s *SubscriberService) BulkAdd(ctx context.Context, actor *domain.StaffMember, emails []string) (*BulkAddResult, error) {
	return s.bulkAdd(ctx, actor, emails, domain.SubscriberSourceBulk)
}

func (s *SubscriberService) bulkAdd(ctx context.Context, actor *domain.StaffMember, emails []string, source domain.SubscriberSource) (*BulkAddResult, error) {
	valid, invalid := NormalizeEmails(emails)
	if len(valid)+len(invalid) == 0 {
		return nil, apperrors.NewValidationError("no email addresses provided", nil)
	}
	if len(valid) > MaxBulkEmails {
		return nil, apperrors.NewValidationError("too many email addresses", map[string]any{"max": MaxBulkEmails})
	}

	result := &BulkAddResult{Invalid: invalid}
	for _, email := range valid {
		created, err := s.subscribers.Upsert(ctx, s.newSubscriber(actor, email, source))
		switch {
		case err != nil:
			result.Failed++
			s.logger.Warn("bulk add subscriber", zap.String("email", email), zap.Error(err))
		case created:
			result.Added++
		default:
			result.Updated++
		}
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventSubscribersImported,
		Target:    string(source),
		Actor:     events.ActorFrom(actor),
		Timestamp: s.now(),
		Payload: events.SubscribersImportedPayload{
			Added:   result.Added,
			Updated: result.Updated,
			Invalid: len(result.Invalid),
		},
	})
	return result, nil
}

// Import reads addresses from an uploaded .csv or .txt file.
func (s *SubscriberService) Import(ctx context.Context, actor *domain.StaffMember, filename string, data []byte) (*BulkAddResult, error) {
	cells, err := ExtractEmailCells(filename, data)
	if err != nil {
		return nil, err
	}
	return s.bulkAdd(ctx, actor, cells, domain.SubscriberSourceImport)
}

// ExtractEmailCells splits an import file into candidate addresses. Every CSV
// cell is a candidate except a header row that holds no address.
func ExtractEmailCells(filename string, data []byte) ([]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		reader := csv.NewReader(bytes.NewReader(data))
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true
		reader.TrimLeadingSpace = true

		var cells []string
		first := true
		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, apperrors.NewValidationError("could not parse csv", map[string]any{"error": err.Error()})
			}
			if first {
				first = false
				if !rowHasAddress(record) {
					continue
				}
			}
			for _, cell := range record {
				if strings.TrimSpace(cell) != "" {
					cells = append(cells, cell)
				}
			}
		}
		return cells, nil
	case ".txt":
		return strings.FieldsFunc(string(data), func(r rune) bool {
			return unicode.IsSpace(r) || r == ',' || r == ';'
		}), nil
	default:
		return nil, apperrors.NewValidationError("file must be .csv or .txt", nil)
	}
}

func rowHasAddress(record []string) bool {
	for _, cell := range record {
		if strings.Contains(cell, "@") {
			return true
		}
	}
	return false
}

func (s *SubscriberService) newSubscriber(actor *domain.StaffMember, email string, source domain.SubscriberSource) *domain.Subscriber {
	sub := &domain.Subscriber{Email: email, AddedAt: s.now(), Source: source}
	if actor != nil {
		sub.AddedBy = actor.ID
		sub.StaffName = actor.Name
	}
	return sub
}

func actorRole(actor *domain.StaffMember) domain.StaffRole {
	if actor == nil {
		return ""
	}
	return actor.Role
}
