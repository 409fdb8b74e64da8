package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/nxl-pharma/crm-api/internal/api/dto"
	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/repository"
	"github.com/nxl-pharma/crm-api/internal/service"
)

// StaffHandler exposes staff management endpoints.
type StaffHandler struct {
	staffService *service.StaffService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{staffService: staffService}
}

// List handles GET /api/staff.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	filter := repository.StaffFilter{
		Search: c.Query("q"),
		Limit:  queryInt(c, "limit", 100),
		Offset: queryInt(c, "offset", 0),
	}
	if raw := c.Query("role"); raw != "" {
		role := domain.StaffRole(raw)
		if !role.Valid() {
			return fiber.NewError(http.StatusBadRequest, "invalid role")
		}
		filter.Role = &role
	}

	items, err := h.staffService.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"staff": dto.NewStaffResponses(items)})
}

// Get handles GET /api/staff/:id.
func (h *StaffHandler) Get(c *fiber.Ctx) error {
	staff, err := h.staffService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewStaffResponse(staff)})
}

// Create handles POST /api/staff.
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.StaffCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	staff, err := h.staffService.Create(c.UserContext(), actor, service.StaffCreateInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		Role:          req.Role,
		Notifications: req.Notifications,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"user": dto.NewStaffResponse(staff)})
}

// Update handles PATCH /api/staff/:id.
func (h *StaffHandler) Update(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.StaffUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	staff, err := h.staffService.Update(c.UserContext(), actor, c.Params("id"), service.StaffUpdateInput{
		Name:          req.Name,
		Email:         req.Email,
		Role:          req.Role,
		Notifications: req.Notifications,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewStaffResponse(staff)})
}

// Delete handles DELETE /api/staff/:id.
func (h *StaffHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	if err := h.staffService.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ResetPassword handles POST /api/staff/:id/reset-password.
func (h *StaffHandler) ResetPassword(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.PasswordSetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.staffService.ResetPassword(c.UserContext(), actor, c.Params("id"), req.Password); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

// SendResetLink handles POST /api/staff/:id/send-reset-link.
func (h *StaffHandler) SendResetLink(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	reset, err := h.staffService.SendResetLink(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"ok": true, "expiresAt": reset.ExpiresAt})
}
