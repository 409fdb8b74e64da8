package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nxl-pharma/crm-api/internal/api/http/handlers"
	"github.com/nxl-pharma/crm-api/internal/auth"
	"github.com/nxl-pharma/crm-api/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Staff          *handlers.StaffHandler
	Subscribers    *handlers.SubscribersHandler
	Inquiries      *handlers.InquiriesHandler
	Media          *handlers.MediaHandler
	Analytics      *handlers.AnalyticsHandler
	Export         *handlers.ExportHandler
	System         *handlers.SystemHandler
	AuthMiddleware *auth.AuthMiddleware
	PublicLimiter  *IPRateLimiter
	BeaconLimiter  *IPRateLimiter
}

var mediaKinds = []domain.MediaKind{domain.MediaKindGallery, domain.MediaKindCertifications}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	// analytics beacons use their own per-IP bucket
	limited := withLimiter(cfg.PublicLimiter)
	beacon := withLimiter(cfg.BeaconLimiter)

	// public
	api.Post("/auth/login", limited(cfg.Auth.Login)...)
	api.Post("/auth/logout", cfg.Auth.Logout)
	api.Get("/staff/reset-token/:token", cfg.Auth.InspectResetToken)
	api.Post("/staff/reset-password-with-token", limited(cfg.Auth.ConfirmPasswordReset)...)
	api.Post("/contact", limited(cfg.Inquiries.Contact)...)
	api.Post("/subscribe", limited(cfg.Subscribers.Subscribe)...)
	api.Post("/visitors/track", beacon(cfg.Analytics.Track)...)
	api.Post("/likes", beacon(cfg.Media.Like)...)
	for _, kind := range mediaKinds {
		api.Get("/public/"+string(kind), cfg.Media.PublicList(kind))
	}
	api.Post("/public/:kind/:id/view", beacon(cfg.Media.View)...)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	manager := auth.RequireManager()
	owner := auth.RequireOwner()

	protected.Get("/auth/me", cfg.Auth.Me)
	protected.Patch("/auth/me", cfg.Auth.UpdateMe)
	protected.Post("/auth/change-password", cfg.Auth.ChangePassword)

	protected.Get("/staff", manager, cfg.Staff.List)
	protected.Get("/staff/:id", manager, cfg.Staff.Get)
	protected.Post("/staff", owner, cfg.Staff.Create)
	protected.Patch("/staff/:id", owner, cfg.Staff.Update)
	protected.Delete("/staff/:id", owner, cfg.Staff.Delete)
	protected.Post("/staff/:id/reset-password", owner, cfg.Staff.ResetPassword)
	protected.Post("/staff/:id/send-reset-link", owner, cfg.Staff.SendResetLink)

	protected.Get("/subscribers", cfg.Subscribers.List)
	protected.Post("/subscribers", manager, cfg.Subscribers.Add)
	protected.Delete("/subscribers/bulk", manager, cfg.Subscribers.BulkDelete)
	protected.Delete("/subscribers", manager, cfg.Subscribers.Delete)
	protected.Post("/subscribers/import", manager, cfg.Subscribers.Import)
	protected.Post("/subscribers/bulk-emails", manager, cfg.Subscribers.BulkAdd)

	protected.Get("/inquiries", cfg.Inquiries.List)
	protected.Get("/inquiries/:id", cfg.Inquiries.Get)
	protected.Patch("/inquiries/:id/status", cfg.Inquiries.SetStatus)
	protected.Post("/inquiries/:id/reply", cfg.Inquiries.Reply)
	protected.Delete("/inquiries/:id", owner, cfg.Inquiries.Delete)

	for _, kind := range mediaKinds {
		group := protected.Group("/" + string(kind))
		group.Get("", cfg.Media.List(kind))
		group.Post("", manager, cfg.Media.Create(kind))
		group.Put("/reorder", manager, cfg.Media.Reorder(kind))
		group.Patch("/:id", manager, cfg.Media.Update(kind))
		group.Delete("/:id", manager, cfg.Media.Delete(kind))
	}

	analytics := protected.Group("/analytics")
	analytics.Get("/overview", cfg.Analytics.Overview)
	analytics.Get("/submissions", cfg.Analytics.Submissions)
	analytics.Get("/status", cfg.Analytics.Status)
	analytics.Get("/visitors/:dimension", cfg.Analytics.Visitors)

	protected.Get("/export/:kind.csv", manager, cfg.Export.Download)

	protected.Get("/system/metrics", auth.RequireStaffRole(domain.StaffRoleDev), cfg.System.Metrics)
}

func withLimiter(limiter *IPRateLimiter) func(fiber.Handler) []fiber.Handler {
	return func(h fiber.Handler) []fiber.Handler {
		if limiter == nil {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{limiter.Handle, h}
	}
}
