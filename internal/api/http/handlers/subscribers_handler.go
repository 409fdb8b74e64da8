package handlers

import (
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/nxl-pharma/crm-api/internal/api/dto"
	"github.com/nxl-pharma/crm-api/internal/service"
)

// SubscribersHandler exposes the newsletter list.
type SubscribersHandler struct {
	subscribers *service.SubscriberService
	maxUpload   int64
}

// NewSubscribersHandler constructs handler.
func NewSubscribersHandler(subscribers *service.SubscriberService, maxUpload int64) *SubscribersHandler {
	return &SubscribersHandler{subscribers: subscribers, maxUpload: maxUpload}
}

// List handles GET /api/subscribers.
func (h *SubscribersHandler) List(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	page, err := h.subscribers.List(c.UserContext(), actor, c.Query("q"), queryInt(c, "limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSubscriberListResponse(page))
}

// Add handles POST /api/subscribers.
func (h *SubscribersHandler) Add(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.SubscriberRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	sub, err := h.subscribers.Add(c.UserContext(), actor, req.Email)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"subscriber": dto.NewSubscriberResponse(service.SubscriberView{Subscriber: *sub}),
	})
}

// Subscribe handles the public POST /api/subscribe.
func (h *SubscribersHandler) Subscribe(c *fiber.Ctx) error {
	var req dto.SubscriberRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	created, err := h.subscribers.Subscribe(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"ok": true})
}

// Delete handles DELETE /api/subscribers?email=.
func (h *SubscribersHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	email := c.Query("email")
	if email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}
	if err := h.subscribers.Delete(c.UserContext(), actor, email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

// BulkDelete handles DELETE /api/subscribers/bulk.
func (h *SubscribersHandler) BulkDelete(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.EmailsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	result, err := h.subscribers.BulkDelete(c.UserContext(), actor, req.Emails)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// BulkAdd handles POST /api/subscribers/bulk-emails.
func (h *SubscribersHandler) BulkAdd(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.EmailsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	result, err := h.subscribers.BulkAdd(c.UserContext(), actor, req.Emails)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Import handles POST /api/subscribers/import with a multipart "file" field.
func (h *SubscribersHandler) Import(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "file required")
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		return fiber.NewError(http.StatusRequestEntityTooLarge, "file too large")
	}
	file, err := header.Open()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "unreadable file")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "unreadable file")
	}

	result, err := h.subscribers.Import(c.UserContext(), actor, header.Filename, data)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
