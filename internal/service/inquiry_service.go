package service

import (
	"context"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/nxl-pharma/crm-api/internal/auth"
	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/events"
	appmail "github.com/nxl-pharma/crm-api/internal/mail"
	"github.com/nxl-pharma/crm-api/internal/repository"
	apperrors "github.com/nxl-pharma/crm-api/pkg/util"
)

const (
	maxInquiryMessage = 5000
	maxInquiryField   = 200
)

var plainText = bluemonday.StrictPolicy()

// InquiryService coordinates contact-form inquiries and replies.
type InquiryService struct {
	inquiries  repository.InquiryRepository
	dispatcher events.Dispatcher
	mailer     Mailer
	logger     *zap.Logger
	now        func() time.Time
}

// InquiryDependencies bundles requirements for the inquiry service.
type InquiryDependencies struct {
	InquiryRepo repository.InquiryRepository
	Dispatcher  events.Dispatcher
	Mailer      Mailer
	Logger      *zap.Logger
	Now         func() time.Time
}

// ContactInput is a public contact-form submission.
type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// ReplyInput is a staff answer to an inquiry. Note stays internal.
type ReplyInput struct {
	Subject string
	Message string
	Note    string
}

// InquiryPage is a listing result.
type InquiryPage struct {
	Items []domain.Inquiry
	Total int64
}

// NewInquiryService constructs the service.
func NewInquiryService(deps InquiryDependencies) *InquiryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InquiryService{
		inquiries:  deps.InquiryRepo,
		dispatcher: deps.Dispatcher,
		mailer:     mailerOrNoop(deps.Mailer),
		logger:     logger,
		now:        clockOrNow(deps.Now),
	}
}

// cleanText strips markup and leaves plain characters unescaped; output templates escape again.
func cleanText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(strings.TrimSpace(raw))))
}

// Submit stores a contact-form submission with status new.
func (s *InquiryService) Submit(ctx context.Context, input ContactInput) (*domain.Inquiry, error) {
	inquiry := &domain.Inquiry{
		Name:    cleanText(input.Name),
		Email:   NormalizeEmail(input.Email),
		Phone:   cleanText(input.Phone),
		Subject: cleanText(input.Subject),
		Message: cleanText(input.Message),
	}

	details := map[string]any{}
	if inquiry.Name == "" {
		details["name"] = "required"
	}
	if !ValidEmail(inquiry.Email) {
		details["email"] = "invalid"
	}
	if inquiry.Message == "" {
		details["message"] = "required"
	}
	if utf8.RuneCountInString(inquiry.Message) > maxInquiryMessage {
		details["message"] = "too long"
	}
	for field, value := range map[string]string{"name": inquiry.Name, "phone": inquiry.Phone, "subject": inquiry.Subject} {
		if utf8.RuneCountInString(value) > maxInquiryField {
			details[field] = "too long"
		}
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid inquiry", details)
	}

	now := s.now()
	inquiry.ID = uuid.NewString()
	inquiry.Status = domain.InquiryStatusNew
	inquiry.Replies = []domain.InquiryReply{}
	inquiry.StatusHistory = []domain.InquiryStatusChange{}
	inquiry.CreatedAt = now
	inquiry.UpdatedAt = now
	if err := s.inquiries.Create(ctx, inquiry); err != nil {
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventInquiryCreated,
		Target:    inquiry.ID,
		Detail:    inquiry.Email,
		Timestamp: now,
		Payload:   events.InquiryCreatedPayload{Inquiry: *inquiry},
	})
	return inquiry, nil
}

// List returns inquiries newest first.
func (s *InquiryService) List(ctx context.Context, filter repository.InquiryFilter) (*InquiryPage, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *filter.Status})
	}
	items, err := s.inquiries.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	count := filter
	count.Limit, count.Offset = 0, 0
	total, err := s.inquiries.Count(ctx, count)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &InquiryPage{Items: items, Total: total}, nil
}

// Get fetches one inquiry without side effects.
func (s *InquiryService) Get(ctx context.Context, id string) (*domain.Inquiry, error) {
	inquiry, err := s.inquiries.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("inquiry", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return inquiry, nil
}

// Open fetches an inquiry for reading; a new inquiry becomes read.
func (s *InquiryService) Open(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Inquiry, error) {
	inquiry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inquiry.Status != domain.InquiryStatusNew {
		return inquiry, nil
	}
	change := s.change(actor, inquiry.Status, domain.InquiryStatusRead)
	if err := s.inquiries.SetStatus(ctx, inquiry.ID, change); err != nil {
		s.logger.Warn("mark inquiry read", zap.String("inquiry_id", inquiry.ID), zap.Error(err))
		return inquiry, nil
	}
	applyChange(inquiry, change)
	return inquiry, nil
}

// SetStatus moves an inquiry to any status and records the change.
func (s *InquiryService) SetStatus(ctx context.Context, actor *domain.StaffMember, id string, status domain.InquiryStatus) (*domain.Inquiry, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}
	inquiry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inquiry.Status == status {
		return inquiry, nil
	}
	change := s.change(actor, inquiry.Status, status)
	if err := s.inquiries.SetStatus(ctx, inquiry.ID, change); err != nil {
		return nil, apperrors.MapError(err)
	}
	applyChange(inquiry, change)

	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventInquiryStatusChanged,
		Target:    inquiry.ID,
		Actor:     events.ActorFrom(actor),
		Detail:    string(change.From) + "->" + string(change.To),
		Timestamp: change.At,
		Payload:   events.InquiryStatusChangedPayload{OldStatus: change.From, NewStatus: change.To},
	})
	return inquiry, nil
}

// Reply appends an answer, marks the inquiry replied and emails the inquirer.
func (s *InquiryService) Reply(ctx context.Context, actor *domain.StaffMember, id string, input ReplyInput) (*domain.Inquiry, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	subject := strings.TrimSpace(input.Subject)
	message := strings.TrimSpace(input.Message)
	details := map[string]any{}
	if subject == "" {
		details["subject"] = "required"
	}
	if message == "" {
		details["message"] = "required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid reply", details)
	}

	inquiry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	reply := domain.InquiryReply{
		Subject:  subject,
		Message:  message,
		FromName: actor.Name,
		At:       s.now(),
		Note:     strings.TrimSpace(input.Note),
	}
	var change *domain.InquiryStatusChange
	if inquiry.Status != domain.InquiryStatusReplied {
		c := s.change(actor, inquiry.Status, domain.InquiryStatusReplied)
		change = &c
	}
	if err := s.inquiries.AppendReply(ctx, inquiry.ID, reply, change); err != nil {
		return nil, apperrors.MapError(err)
	}
	inquiry.Replies = append(inquiry.Replies, reply)
	inquiry.UpdatedAt = reply.At
	if change != nil {
		applyChange(inquiry, *change)
	}

	s.mailReply(inquiry, reply)
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventInquiryReplied,
		Target:    inquiry.ID,
		Actor:     events.ActorFrom(actor),
		Detail:    subject,
		Timestamp: reply.At,
	})
	return inquiry, nil
}

func (s *InquiryService) mailReply(inquiry *domain.Inquiry, reply domain.InquiryReply) {
	body, err := appmail.RenderMarkdown(reply.Message)
	if err != nil {
		s.logger.Warn("render reply", zap.String("inquiry_id", inquiry.ID), zap.Error(err))
		return
	}
	msg, err := appmail.InquiryReply(inquiry.Email, reply.Subject, appmail.ReplyData{
		Name:            inquiry.Name,
		Body:            body,
		FromName:        reply.FromName,
		OriginalMessage: inquiry.Message,
	})
	if err == nil {
		err = s.mailer.Send(msg)
	}
	if err != nil {
		s.logger.Warn("send reply", zap.String("inquiry_id", inquiry.ID), zap.Error(err))
	}
}

// Delete removes an inquiry permanently.
func (s *InquiryService) Delete(ctx context.Context, actor *domain.StaffMember, id string) error {
	if !auth.CanHardDelete(actorRole(actor)) {
		return apperrors.NewForbidden("insufficient role")
	}
	if err := s.inquiries.Delete(ctx, id); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("inquiry", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventInquiryDeleted,
		Target:    id,
		Actor:     events.ActorFrom(actor),
		Timestamp: s.now(),
	})
	return nil
}

func (s *InquiryService) change(actor *domain.StaffMember, from, to domain.InquiryStatus) domain.InquiryStatusChange {
	by := ""
	if actor != nil {
		by = actor.Name
	}
	return domain.InquiryStatusChange{From: from, To: to, By: by, At: s.now()}
}

func applyChange(inquiry *domain.Inquiry, change domain.InquiryStatusChange) {
	inquiry.Status = change.To
	inquiry.UpdatedAt = change.At
	inquiry.StatusHistory = append(inquiry.StatusHistory, change)
}
