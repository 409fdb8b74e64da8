package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/nxl-pharma/crm-api/internal/api/dto"
	"github.com/nxl-pharma/crm-api/internal/service"
)

// AnalyticsHandler serves visitor tracking and dashboard figures.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Track handles the public POST /api/visitors/track.
func (h *AnalyticsHandler) Track(c *fiber.Ctx) error {
	var req dto.TrackRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	recorded, err := h.analytics.Track(c.UserContext(), service.TrackInput{
		Path:      req.Path,
		Referrer:  req.Referrer,
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "recorded": recorded})
}

// Overview handles GET /api/analytics/overview.
func (h *AnalyticsHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.analytics.Overview(c.UserContext(), c.Query("range"))
	if err != nil {
		return err
	}
	return c.JSON(overview)
}

// Submissions handles GET /api/analytics/submissions.
func (h *AnalyticsHandler) Submissions(c *fiber.Ctx) error {
	series, err := h.analytics.Submissions(c.UserContext(), c.Query("range"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"series": series})
}

// Status handles GET /api/analytics/status.
func (h *AnalyticsHandler) Status(c *fiber.Ctx) error {
	counts, err := h.analytics.StatusCounts(c.UserContext(), c.Query("range"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"byStatus": counts})
}

// Visitors handles GET /api/analytics/visitors/:dimension.
func (h *AnalyticsHandler) Visitors(c *fiber.Ctx) error {
	label := c.Query("range")
	dimension := c.Params("dimension")
	if dimension == "daily" {
		series, err := h.analytics.VisitorsDaily(c.UserContext(), label)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"series": series})
	}

	rows, err := h.analytics.VisitorBreakdown(c.UserContext(), dimension, label, queryInt(c, "limit", 10))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": rows})
}
