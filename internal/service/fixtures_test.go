package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nxl-pharma/crm-api/internal/auth"
	"github.com/nxl-pharma/crm-api/internal/config"
	"github.com/nxl-pharma/crm-api/internal/domain"
	apperrors "github.com/nxl-pharma/crm-api/pkg/util"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testConfig() config.Config {
	return config.Config{
		App: config.AppConfig{
			SiteURL:  "https://nxl.example",
			AdminURL: "https://admin.nxl.example",
		},
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 60,
			BcryptCost:              4,
			CookieName:              "nxl_jwt",
			LoginMaxFailures:        3,
			LoginLockoutMinutes:     15,
		},
		Storage: config.StorageConfig{
			Bucket:         "media",
			MaxUploadBytes: 1 << 20,
			ThumbnailWidth: 32,
		},
		Analytics: config.AnalyticsConfig{VisitorSalt: "salt"},
	}
}

func newStaff(id string, role domain.StaffRole) *domain.StaffMember {
	return &domain.StaffMember{
		ID:        id,
		Name:      "Member " + id,
		Email:     id + "@nxl.example",
		Role:      role,
		CreatedAt: testNow.Add(-time.Hour),
		UpdatedAt: testNow.Add(-time.Hour),
	}
}

func withPassword(t *testing.T, s *domain.StaffMember, password string) *domain.StaffMember {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	s.PasswordHash = hash
	return s
}

func errCode(err error) string {
	if err == nil {
		return ""
	}
	return apperrors.ToDomainError(err).Code
}
