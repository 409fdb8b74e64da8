package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/nxl-pharma/crm-api/internal/auth"
	"github.com/nxl-pharma/crm-api/internal/domain"
	apperrors "github.com/nxl-pharma/crm-api/pkg/util"
)

// currentStaff returns the authenticated caller loaded by the auth middleware.
func currentStaff(c *fiber.Ctx) (*domain.StaffMember, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Staff, nil
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
