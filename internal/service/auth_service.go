package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nxl-pharma/crm-api/internal/auth"
	"github.com/nxl-pharma/crm-api/internal/config"
	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/events"
	"github.com/nxl-pharma/crm-api/internal/repository"
	apperrors "github.com/nxl-pharma/crm-api/pkg/util"
)

// AuthService coordinates login, profile and password flows.
type AuthService struct {
	staff       repository.StaffRepository
	resets      repository.PasswordResetRepository
	keys        KeyStore
	tokenMgr    *auth.TokenManager
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	bcryptCost  int
	maxFailures int
	lockout     time.Duration
	now         func() time.Time
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	StaffRepo         repository.StaffRepository
	PasswordResetRepo repository.PasswordResetRepository
	Keys              KeyStore
	TokenManager      *auth.TokenManager
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
	Now               func() time.Time
}

// ProfileUpdate carries self-service profile changes.
type ProfileUpdate struct {
	Name          *string
	Notifications *bool
}

// ResetTokenInfo describes a redeemable reset token.
type ResetTokenInfo struct {
	Valid     bool      `json:"valid"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		staff:       deps.StaffRepo,
		resets:      deps.PasswordResetRepo,
		keys:        deps.Keys,
		tokenMgr:    deps.TokenManager,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		bcryptCost:  cfg.Auth.BcryptCost,
		maxFailures: cfg.Auth.LoginMaxFailures,
		lockout:     cfg.Auth.LoginLockout(),
		now:         clockOrNow(deps.Now),
	}
}

func loginFailKey(email string) string {
	return "login:fail:" + email
}

// Login authenticates staff and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.StaffMember, string, time.Time, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
	}
	if err := s.checkThrottle(ctx, email); err != nil {
		return nil, "", time.Time{}, err
	}

	staff, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.recordFailure(ctx, email)
			return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		s.recordFailure(ctx, email)
		return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
	}

	if s.keys != nil {
		if err := s.keys.Del(ctx, loginFailKey(email)); err != nil {
			s.logger.Warn("clear login failures", zap.Error(err))
		}
	}

	now := s.now()
	staff.LastLoginAt = &now
	if err := s.staff.Update(ctx, staff); err != nil {
		s.logger.Warn("record last login", zap.String("staff_id", staff.ID), zap.Error(err))
	}

	token, exp, err := s.tokenMgr.GenerateToken(staff)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventStaffLoggedIn,
		Target:    staff.Email,
		Actor:     events.ActorFrom(staff),
		Timestamp: now,
	})
	return staff, token, exp, nil
}

func (s *AuthService) checkThrottle(ctx context.Context, email string) error {
	if s.keys == nil || s.maxFailures <= 0 {
		return nil
	}
	failures, err := s.keys.Count(ctx, loginFailKey(email))
	if err != nil {
		s.logger.Warn("read login failures", zap.Error(err))
		return nil
	}
	if failures >= int64(s.maxFailures) {
		return apperrors.NewTooManyRequests("too many failed login attempts, try again later")
	}
	return nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.keys == nil {
		return
	}
	if _, err := s.keys.Incr(ctx, loginFailKey(email), s.lockout); err != nil {
		s.logger.Warn("record login failure", zap.Error(err))
	}
}

// UpdateProfile applies self-service changes to the caller's account.
func (s *AuthService) UpdateProfile(ctx context.Context, staff *domain.StaffMember, update ProfileUpdate) (*domain.StaffMember, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name is required", nil)
		}
		staff.Name = name
	}
	if update.Notifications != nil {
		staff.Notifications = *update.Notifications
	}
	staff.UpdatedAt = s.now()
	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, staffID, currentPassword, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(staff.PasswordHash, currentPassword); err != nil {
		return apperrors.NewInvalidCredentials()
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	staff.PasswordHash = hash
	staff.UpdatedAt = s.now()
	return apperrors.MapError(s.staff.Update(ctx, staff))
}

// InspectResetToken reports whether a reset token can still be redeemed.
func (s *AuthService) InspectResetToken(ctx context.Context, token string) (*ResetTokenInfo, error) {
	reset, staff, err := s.loadReset(ctx, token)
	if err != nil {
		return nil, err
	}
	return &ResetTokenInfo{Valid: true, Email: staff.Email, ExpiresAt: reset.ExpiresAt}, nil
}

// ConfirmPasswordReset validates the reset token and updates password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	reset, staff, err := s.loadReset(ctx, token)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	now := s.now()
	if err := s.resets.MarkUsed(ctx, reset.ID, now); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewGone("reset link has already been used")
		}
		return apperrors.MapError(err)
	}
	staff.PasswordHash = hash
	staff.UpdatedAt = now
	if err := s.staff.Update(ctx, staff); err != nil {
		return apperrors.MapError(err)
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventStaffPasswordReset,
		Target:    staff.Email,
		Actor:     events.ActorFrom(staff),
		Detail:    "via reset link",
		Timestamp: now,
	})
	return nil
}

func (s *AuthService) loadReset(ctx context.Context, token string) (*domain.PasswordReset, *domain.StaffMember, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, apperrors.NewNotFound("reset token", nil)
	}
	reset, err := s.resets.GetByToken(ctx, token)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, apperrors.NewNotFound("reset token", nil)
		}
		return nil, nil, apperrors.MapError(err)
	}
	if !reset.Usable(s.now()) {
		return nil, nil, apperrors.NewGone("reset link has expired or was already used")
	}
	staff, err := s.staff.GetByID(ctx, reset.StaffID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, apperrors.NewGone("account no longer exists")
		}
		return nil, nil, apperrors.MapError(err)
	}
	return reset, staff, nil
}

// SeedDevAccount creates the bootstrap dev account when no staff exists yet.
func (s *AuthService) SeedDevAccount(ctx context.Context, seed config.SeedConfig) (bool, error) {
	if !seed.Enabled() {
		return false, nil
	}
	count, err := s.staff.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	email := NormalizeEmail(seed.DevEmail)
	if !ValidEmail(email) {
		return false, errors.New("SEED_DEV_EMAIL is not a valid address")
	}
	if err := auth.ValidatePassword(seed.DevPassword); err != nil {
		return false, err
	}
	hash, err := auth.HashPassword(seed.DevPassword, s.bcryptCost)
	if err != nil {
		return false, err
	}
	now := s.now()
	staff := &domain.StaffMember{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(seed.DevName),
		Email:         email,
		PasswordHash:  hash,
		Role:          domain.StaffRoleDev,
		Notifications: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return false, err
	}
	s.logger.Info("seeded dev account", zap.String("email", email))
	return true, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
