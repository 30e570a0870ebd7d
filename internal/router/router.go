package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/field-visit-api/internal/handler"
	"github.com/iliyamo/field-visit-api/internal/middleware"
)

// OpenPaths is the unauthenticated allow-list the session middleware matches
// by prefix. Everything else requires a valid session. /auth/logout also
// covers /auth/logout-successful; /visit/voice is public so notification
// download links work without a session.
var OpenPaths = []string{
	"/auth/login",
	"/auth/logout",
	"/admin_init",
	"/telegram_callback",
	"/visit/voice",
	"/healthz",
	"/hc",
	"/docs",
	"/metrics",
}

// Deps bundles the constructed handlers and the admin guard's store so route
// registration stays a single call from main.
type Deps struct {
	Auth    *handler.AuthHandler
	Admin   *handler.AdminHandler
	Visit   *handler.VisitHandler
	Webhook *handler.WebhookHandler
	Admins  middleware.AdminStore
}

// RegisterRoutes wires every endpoint. The session middleware is installed
// globally here; admin-only routes additionally pass the RequireAdmin guard.
func RegisterRoutes(e *echo.Echo, d Deps, session echo.MiddlewareFunc) {
	e.Use(session)

	// Health and metrics for probes and scrapers.
	e.GET("/healthz", handler.Health)
	e.GET("/hc", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// One-time bootstrap, open by design: it refuses to run twice.
	e.POST("/admin_init/init", d.Admin.InitAdmin)

	// Authentication endpoints.
	auth := e.Group("/auth")
	auth.POST("/login", d.Auth.Login)
	auth.POST("/logout", d.Auth.Logout)
	auth.GET("/logout-successful", d.Auth.LogoutSuccessful)

	// Admin-only management, guarded after the session middleware.
	admin := e.Group("/admin")
	admin.Use(middleware.RequireAdmin(d.Admins))
	admin.POST("/new_admin", d.Admin.NewAdmin)
	admin.DELETE("/remove_admin/:admin_id", d.Admin.RemoveAdmin)
	admin.POST("/create_user/", d.Admin.CreateUser)

	// Visit intake (authenticated) and voice download (public, see OpenPaths).
	visit := e.Group("/visit")
	visit.POST("/upload", d.Visit.Upload)
	visit.GET("/voice/:visit_id", d.Visit.Voice)

	// Inbound Telegram webhook.
	e.POST("/telegram_callback", d.Webhook.TelegramCallback)
}
