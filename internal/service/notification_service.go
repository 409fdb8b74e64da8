package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nxl-pharma/crm-api/internal/config"
	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/events"
	appmail "github.com/nxl-pharma/crm-api/internal/mail"
	"github.com/nxl-pharma/crm-api/internal/repository"
)

// NotificationService reacts to domain events: it writes the activity log and
// alerts staff about new inquiries.
type NotificationService struct {
	dispatcher events.Dispatcher
	logs       repository.ActivityLogRepository
	staff      repository.StaffRepository
	mailer     Mailer
	logger     *zap.Logger
	adminURL   string
	now        func() time.Time
}

// NotificationDependencies bundles requirements for the notification service.
type NotificationDependencies struct {
	Dispatcher      events.Dispatcher
	ActivityLogRepo repository.ActivityLogRepository
	StaffRepo       repository.StaffRepository
	Mailer          Mailer
	Logger          *zap.Logger
	Now             func() time.Time
}

// NewNotificationService creates the service.
func NewNotificationService(cfg config.Config, deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		logs:       deps.ActivityLogRepo,
		staff:      deps.StaffRepo,
		mailer:     mailerOrNoop(deps.Mailer),
		logger:     logger,
		adminURL:   strings.TrimRight(cfg.App.AdminURL, "/"),
		now:        clockOrNow(deps.Now),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, t := range events.AllEventTypes {
		n.dispatcher.Subscribe(t, n.recordActivity)
	}
	n.dispatcher.Subscribe(events.EventInquiryCreated, n.handleInquiryCreated)
}

func (n *NotificationService) recordActivity(ctx context.Context, event events.Event) error {
	if n.logs == nil {
		return nil
	}
	at := event.Timestamp
	if at.IsZero() {
		at = n.now()
	}
	entry := &domain.ActivityLog{
		ID:        uuid.NewString(),
		ActorID:   event.Actor.StaffID,
		ActorName: event.Actor.Name,
		Action:    domain.ActivityAction(event.Type),
		Target:    event.Target,
		Detail:    event.Detail,
		At:        at,
	}
	return n.logs.Create(ctx, entry)
}

func (n *NotificationService) handleInquiryCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.InquiryCreatedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("InquiryCreated", zap.String("inquiry_id", payload.Inquiry.ID))

	recipients, err := n.staff.ListNotifiable(ctx)
	if err != nil {
		return err
	}
	to := make([]string, 0, len(recipients))
	for _, r := range recipients {
		to = append(to, r.Email)
	}
	if len(to) == 0 {
		return nil
	}

	inquiry := payload.Inquiry
	msg, err := appmail.InquiryNotification(to, appmail.InquiryNotifyData{
		Name:         inquiry.Name,
		Email:        inquiry.Email,
		Phone:        inquiry.Phone,
		Subject:      inquiry.Subject,
		Message:      inquiry.Message,
		DashboardURL: n.adminURL + "/admin/inquiries/" + inquiry.ID,
	})
	if err != nil {
		return err
	}
	return n.mailer.Send(msg)
}
