package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nxl-pharma/crm-api/internal/service"
)

// ExportHandler serves CSV downloads.
type ExportHandler struct {
	exports *service.ExportService
	now     func() time.Time
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports, now: time.Now}
}

// Download handles GET /api/export/:kind.csv.
func (h *ExportHandler) Download(c *fiber.Ctx) error {
	kind := c.Params("kind")
	if !service.ValidExportKind(kind) {
		return fiber.NewError(http.StatusNotFound, "unknown export")
	}

	// buffered so a cursor failure becomes an error response, never a cut-off 200
	var buf bytes.Buffer
	if err := h.exports.Export(c.UserContext(), kind, &buf); err != nil {
		return err
	}

	filename := kind + "-" + h.now().UTC().Format("20060102") + ".csv"
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}
