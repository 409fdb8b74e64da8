package dto

import (
	"time"

	"github.com/nxl-pharma/crm-api/internal/domain"
)

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      StaffResponse `json:"user"`
}

// ProfileUpdateRequest payload for PATCH /api/auth/me.
type ProfileUpdateRequest struct {
	Name          *string `json:"name"`
	Notifications *bool   `json:"notifications"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// PasswordSetRequest payload for a direct password reset.
type PasswordSetRequest struct {
	Password string `json:"password"`
}

// PasswordResetConfirmRequest payload for redeeming a reset link.
type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// StaffResponse is the public shape of a staff account.
type StaffResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Email         string           `json:"email"`
	Role          domain.StaffRole `json:"role"`
	Notifications bool             `json:"notifications"`
	LastLoginAt   *time.Time       `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// NewStaffResponse maps a staff account, never exposing the password hash.
func NewStaffResponse(s *domain.StaffMember) StaffResponse {
	return StaffResponse{
		ID:            s.ID,
		Name:          s.Name,
		Email:         s.Email,
		Role:          s.Role,
		Notifications: s.Notifications,
		LastLoginAt:   s.LastLoginAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// NewStaffResponses maps a list.
func NewStaffResponses(items []domain.StaffMember) []StaffResponse {
	out := make([]StaffResponse, 0, len(items))
	for i := range items {
		out = append(out, NewStaffResponse(&items[i]))
	}
	return out
}

// StaffCreateRequest payload.
type StaffCreateRequest struct {
	Name          string           `json:"name"`
	Email         string           `json:"email"`
	Password      string           `json:"password"`
	Role          domain.StaffRole `json:"role"`
	Notifications bool             `json:"notifications"`
}

// StaffUpdateRequest payload.
type StaffUpdateRequest struct {
	Name          *string           `json:"name"`
	Email         *string           `json:"email"`
	Role          *domain.StaffRole `json:"role"`
	Notifications *bool             `json:"notifications"`
}
