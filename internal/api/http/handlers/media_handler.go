package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/nxl-pharma/crm-api/internal/api/dto"
	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/service"
)

// VisitorHasher derives the anonymous visitor identity used for like dedupe.
type VisitorHasher func(ip, userAgent string) string

// MediaHandler serves gallery and certification endpoints for both audiences.
type MediaHandler struct {
	media     *service.MediaService
	hashVisit VisitorHasher
}

// NewMediaHandler constructs handler.
func NewMediaHandler(media *service.MediaService, hashVisit VisitorHasher) *MediaHandler {
	return &MediaHandler{media: media, hashVisit: hashVisit}
}

// List returns the admin listing for kind, hidden items included.
func (h *MediaHandler) List(kind domain.MediaKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := h.media.List(c.UserContext(), kind, false)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"items": dto.NewMediaResponses(items)})
	}
}

// PublicList returns the visible items of kind without admin notes.
func (h *MediaHandler) PublicList(kind domain.MediaKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := h.media.List(c.UserContext(), kind, true)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"items": dto.NewPublicMediaResponses(items)})
	}
}

// Create accepts a multipart upload with an "image" file field.
func (h *MediaHandler) Create(kind domain.MediaKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentStaff(c)
		if err != nil {
			return err
		}
		header, err := c.FormFile("image")
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "image required")
		}
		file, err := header.Open()
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "unreadable image")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "unreadable image")
		}

		visible := true
		if raw := c.FormValue("visible"); raw != "" {
			if visible, err = strconv.ParseBool(raw); err != nil {
				return fiber.NewError(http.StatusBadRequest, "invalid visible flag")
			}
		}

		item, err := h.media.Create(c.UserContext(), actor, kind, service.MediaUpload{
			Title:       c.FormValue("title"),
			Description: c.FormValue("description"),
			Visible:     visible,
			Note:        c.FormValue("note"),
			Filename:    header.Filename,
			Data:        data,
		})
		if err != nil {
			return err
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{"item": dto.NewMediaResponse(item)})
	}
}

// Update applies a partial metadata change.
func (h *MediaHandler) Update(kind domain.MediaKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentStaff(c)
		if err != nil {
			return err
		}
		var req dto.MediaUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid payload")
		}
		item, err := h.media.Update(c.UserContext(), actor, kind, c.Params("id"), service.MediaUpdate{
			Title:       req.Title,
			Description: req.Description,
			Visible:     req.Visible,
			Note:        req.Note,
			Order:       req.Order,
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"item": dto.NewMediaResponse(item)})
	}
}

// Delete removes an item and its stored objects.
func (h *MediaHandler) Delete(kind domain.MediaKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentStaff(c)
		if err != nil {
			return err
		}
		if err := h.media.Delete(c.UserContext(), actor, kind, c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(http.StatusNoContent)
	}
}

// Reorder assigns order = position in the submitted id list.
func (h *MediaHandler) Reorder(kind domain.MediaKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentStaff(c)
		if err != nil {
			return err
		}
		var req dto.ReorderRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid payload")
		}
		if err := h.media.Reorder(c.UserContext(), actor, kind, req.IDs); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}

// View handles POST /api/public/:kind/:id/view.
func (h *MediaHandler) View(c *fiber.Ctx) error {
	views, err := h.media.RecordView(c.UserContext(), domain.MediaKind(c.Params("kind")), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"views": views})
}

// Like handles POST /api/likes.
func (h *MediaHandler) Like(c *fiber.Ctx) error {
	var req dto.LikeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.ID == "" {
		return fiber.NewError(http.StatusBadRequest, "id required")
	}
	visitor := h.hashVisit(c.IP(), c.Get(fiber.HeaderUserAgent))
	result, err := h.media.Like(c.UserContext(), req.Kind, req.ID, visitor)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
