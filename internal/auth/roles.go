package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nxl-pharma/crm-api/internal/domain"
	apperrors "github.com/nxl-pharma/crm-api/pkg/util"
)

// RequireStaffRole ensures the staff principal has one of the allowed roles.
func RequireStaffRole(allowed ...domain.StaffRole) fiber.Handler {
	allowedSet := make(map[domain.StaffRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Staff.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireManager allows admin, superadmin and dev.
func RequireManager() fiber.Handler {
	return RequireStaffRole(domain.StaffRoleAdmin, domain.StaffRoleSuperadmin, domain.StaffRoleDev)
}

// RequireOwner allows superadmin and dev.
func RequireOwner() fiber.Handler {
	return RequireStaffRole(domain.StaffRoleSuperadmin, domain.StaffRoleDev)
}

// RequireAnyRole ensures caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return RequireStaffRole()
}
