package handlers

import (
	"runtime"

	"github.com/gofiber/fiber/v2"

	"github.com/nxl-pharma/crm-api/internal/observability"
)

// SystemHandler exposes process diagnostics to developers.
type SystemHandler struct {
	metrics *observability.Metrics
	version string
}

// NewSystemHandler constructs handler.
func NewSystemHandler(metrics *observability.Metrics, version string) *SystemHandler {
	return &SystemHandler{metrics: metrics, version: version}
}

// Metrics handles GET /api/system/metrics.
func (h *SystemHandler) Metrics(c *fiber.Ctx) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return c.JSON(fiber.Map{
		"version":    h.version,
		"goroutines": runtime.NumGoroutine(),
		"heapBytes":  mem.HeapAlloc,
		"http":       h.metrics.Snapshot(),
	})
}
