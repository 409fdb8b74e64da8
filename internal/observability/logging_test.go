package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteKey(t *testing.T) {
	var keys []string
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			keys = append(keys, RouteKey(c))
			return c.SendStatus(fiber.StatusNotFound)
		},
	})
	app.Get("/api/inquiries/:id", func(c *fiber.Ctx) error {
		keys = append(keys, RouteKey(c))
		return c.SendStatus(fiber.StatusOK)
	})

	for _, path := range []string{"/api/inquiries/a1", "/api/inquiries/b2", "/nope/123"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil), -1)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	assert.Equal(t, []string{"/api/inquiries/:id", "/api/inquiries/:id", UnmatchedRoute}, keys)
}
