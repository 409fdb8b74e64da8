package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nxl-pharma/crm-api/internal/auth"
	"github.com/nxl-pharma/crm-api/internal/config"
	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/events"
	appmail "github.com/nxl-pharma/crm-api/internal/mail"
	"github.com/nxl-pharma/crm-api/internal/repository"
	apperrors "github.com/nxl-pharma/crm-api/pkg/util"
)

// StaffService manages dashboard accounts.
type StaffService struct {
	staff      repository.StaffRepository
	resets     repository.PasswordResetRepository
	dispatcher events.Dispatcher
	mailer     Mailer
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	adminURL   string
	now        func() time.Time
}

// StaffDependencies encapsulates repositories required for staff management.
type StaffDependencies struct {
	StaffRepo         repository.StaffRepository
	PasswordResetRepo repository.PasswordResetRepository
	Dispatcher        events.Dispatcher
	Mailer            Mailer
	Logger            *zap.Logger
	Now               func() time.Time
}

// StaffCreateInput describes a new account.
type StaffCreateInput struct {
	Name          string
	Email         string
	Password      string
	Role          domain.StaffRole
	Notifications bool
}

// StaffUpdateInput describes a partial account update.
type StaffUpdateInput struct {
	Name          *string
	Email         *string
	Role          *domain.StaffRole
	Notifications *bool
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, deps StaffDependencies) *StaffService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{
		staff:      deps.StaffRepo,
		resets:     deps.PasswordResetRepo,
		dispatcher: deps.Dispatcher,
		mailer:     mailerOrNoop(deps.Mailer),
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   cfg.Auth.PasswordResetTTL(),
		adminURL:   strings.TrimRight(cfg.App.AdminURL, "/"),
		now:        clockOrNow(deps.Now),
	}
}

// List returns staff accounts.
func (s *StaffService) List(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	items, err := s.staff.List(ctx, filter)
	return items, apperrors.MapError(err)
}

// Get fetches one account.
func (s *StaffService) Get(ctx context.Context, id string) (*domain.StaffMember, error) {
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("staff member", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

func (s *StaffService) authorize(actor, target *domain.StaffMember) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !auth.CanModifyStaff(actor.Role, actor.ID == target.ID, target.Role) {
		return apperrors.NewForbidden("you cannot modify this account")
	}
	return nil
}

// Create adds a new account with a role the actor is allowed to manage.
func (s *StaffService) Create(ctx context.Context, actor *domain.StaffMember, input StaffCreateInput) (*domain.StaffMember, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	name := strings.TrimSpace(input.Name)
	email := NormalizeEmail(input.Email)
	details := map[string]any{}
	if name == "" {
		details["name"] = "required"
	}
	if !ValidEmail(email) {
		details["email"] = "invalid"
	}
	if !input.Role.Valid() {
		details["role"] = "invalid"
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		details["password"] = err.Error()
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid staff member", details)
	}
	if !auth.CanModifyStaff(actor.Role, false, input.Role) {
		return nil, apperrors.NewForbidden("you cannot create an account with this role")
	}
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	now := s.now()
	staff := &domain.StaffMember{
		ID:            uuid.NewString(),
		Name:          name,
		Email:         email,
		PasswordHash:  hash,
		Role:          input.Role,
		Notifications: input.Notifications,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.emit(ctx, events.EventStaffCreated, actor, staff, string(staff.Role))
	return staff, nil
}

// Update applies changes to another account. Role changes must be allowed for
// both the current and the requested role.
func (s *StaffService) Update(ctx context.Context, actor *domain.StaffMember, id string, input StaffUpdateInput) (*domain.StaffMember, error) {
	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, target); err != nil {
		return nil, err
	}

	var changes []string
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name is required", nil)
		}
		target.Name = name
		changes = append(changes, "name")
	}
	if input.Email != nil {
		email := NormalizeEmail(*input.Email)
		if !ValidEmail(email) {
			return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": "invalid"})
		}
		if email != target.Email {
			if err := s.ensureEmailFree(ctx, email, target.ID); err != nil {
				return nil, err
			}
			target.Email = email
			changes = append(changes, "email")
		}
	}
	if input.Role != nil && *input.Role != target.Role {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": "invalid"})
		}
		if !auth.CanModifyStaff(actor.Role, actor.ID == target.ID, *input.Role) {
			return nil, apperrors.NewForbidden("you cannot assign this role")
		}
		changes = append(changes, "role:"+string(target.Role)+"->"+string(*input.Role))
		target.Role = *input.Role
	}
	if input.Notifications != nil {
		target.Notifications = *input.Notifications
		changes = append(changes, "notifications")
	}

	target.UpdatedAt = s.now()
	if err := s.staff.Update(ctx, target); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.emit(ctx, events.EventStaffUpdated, actor, target, strings.Join(changes, ","))
	return target, nil
}

// Delete removes an account.
func (s *StaffService) Delete(ctx context.Context, actor *domain.StaffMember, id string) error {
	target, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, target); err != nil {
		return err
	}
	if err := s.staff.Delete(ctx, target.ID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.resets.DeleteForStaff(ctx, target.ID); err != nil {
		s.logger.Warn("remove reset tokens", zap.String("staff_id", target.ID), zap.Error(err))
	}
	s.emit(ctx, events.EventStaffDeleted, actor, target, string(target.Role))
	return nil
}

// ResetPassword sets a new password on another account directly.
func (s *StaffService) ResetPassword(ctx context.Context, actor *domain.StaffMember, id, password string) error {
	if err := auth.ValidatePassword(password); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	target, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, target); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	target.PasswordHash = hash
	target.UpdatedAt = s.now()
	if err := s.staff.Update(ctx, target); err != nil {
		return apperrors.MapError(err)
	}
	s.emit(ctx, events.EventStaffPasswordReset, actor, target, "direct")
	return nil
}

// SendResetLink issues a single-use token and mails the reset URL to the account owner.
func (s *StaffService) SendResetLink(ctx context.Context, actor *domain.StaffMember, id string) (*domain.PasswordReset, error) {
	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, target); err != nil {
		return nil, err
	}

	token, err := newResetToken()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	now := s.now()
	reset := &domain.PasswordReset{
		ID:        uuid.NewString(),
		StaffID:   target.ID,
		Token:     token,
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return nil, apperrors.MapError(err)
	}

	msg, err := appmail.ResetLink(target.Email, appmail.ResetLinkData{
		Name:      target.Name,
		ResetURL:  s.ResetURL(token),
		ExpiresAt: reset.ExpiresAt,
	})
	if err == nil {
		err = s.mailer.Send(msg)
	}
	if err != nil {
		s.logger.Warn("send reset link", zap.String("staff_id", target.ID), zap.Error(err))
	}
	s.emit(ctx, events.EventStaffResetLinkSent, actor, target, "")
	return reset, nil
}

// ResetURL is the dashboard page that redeems token.
func (s *StaffService) ResetURL(token string) string {
	return s.adminURL + "/reset-password?token=" + url.QueryEscape(token)
}

func (s *StaffService) ensureEmailFree(ctx context.Context, email, exceptID string) error {
	existing, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return apperrors.MapError(err)
	}
	if existing.ID == exceptID {
		return nil
	}
	return apperrors.NewConflict("email already in use", map[string]any{"email": email})
}

func (s *StaffService) emit(ctx context.Context, t events.EventType, actor, target *domain.StaffMember, detail string) {
	publish(ctx, s.dispatcher, events.Event{
		Type:      t,
		Target:    target.Email,
		Actor:     events.ActorFrom(actor),
		Detail:    detail,
		Timestamp: s.now(),
	})
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
