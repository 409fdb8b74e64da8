package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/nxl-pharma/crm-api/internal/api/dto"
	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/repository"
	"github.com/nxl-pharma/crm-api/internal/service"
)

// InquiriesHandler exposes the contact form and the inquiry inbox.
type InquiriesHandler struct {
	inquiries *service.InquiryService
}

// NewInquiriesHandler constructs handler.
func NewInquiriesHandler(inquiries *service.InquiryService) *InquiriesHandler {
	return &InquiriesHandler{inquiries: inquiries}
}

// Contact handles the public POST /api/contact.
func (h *InquiriesHandler) Contact(c *fiber.Ctx) error {
	var req dto.ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	inquiry, err := h.inquiries.Submit(c.UserContext(), service.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"ok": true, "id": inquiry.ID})
}

// List handles GET /api/inquiries.
func (h *InquiriesHandler) List(c *fiber.Ctx) error {
	filter := repository.InquiryFilter{
		Search: c.Query("q"),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.InquiryStatus(raw)
		if !status.Valid() {
			return fiber.NewError(http.StatusBadRequest, "invalid status")
		}
		filter.Status = &status
	}

	page, err := h.inquiries.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"inquiries": dto.NewInquiryResponses(page.Items), "total": page.Total})
}

// Get handles GET /api/inquiries/:id and marks new inquiries as read.
func (h *InquiriesHandler) Get(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	inquiry, err := h.inquiries.Open(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"inquiry": dto.NewInquiryResponse(inquiry)})
}

// SetStatus handles PATCH /api/inquiries/:id/status.
func (h *InquiriesHandler) SetStatus(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.InquiryStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	inquiry, err := h.inquiries.SetStatus(c.UserContext(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"inquiry": dto.NewInquiryResponse(inquiry)})
}

// Reply handles POST /api/inquiries/:id/reply.
func (h *InquiriesHandler) Reply(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.InquiryReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	inquiry, err := h.inquiries.Reply(c.UserContext(), actor, c.Params("id"), service.ReplyInput{
		Subject: req.Subject,
		Message: req.Message,
		Note:    req.Note,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"inquiry": dto.NewInquiryResponse(inquiry)})
}

// Delete handles DELETE /api/inquiries/:id.
func (h *InquiriesHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	if err := h.inquiries.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
