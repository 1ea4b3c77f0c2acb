package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ftfc/crm/internal/infrastructure/http/middleware"
)

// Router holds all handlers
type Router struct {
	environment string
	auth        *Auth
	notes       *Notes
	webhooks    *Webhooks
	sessions    middleware.SessionValidator
	gatherer    prometheus.Gatherer
}

// NewRouter creates a new router with all handlers
func NewRouter(
	environment string,
	auth *Auth,
	notes *Notes,
	webhooks *Webhooks,
	sessions middleware.SessionValidator,
	gatherer prometheus.Gatherer,
) *Router {
	return &Router{
		environment: environment,
		auth:        auth,
		notes:       notes,
		webhooks:    webhooks,
		sessions:    sessions,
		gatherer:    gatherer,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)
	if rt.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := e.Group("/v1")
	requireAuth := middleware.EchoAuth(rt.sessions)

	rt.setupAuthRoutes(v1, requireAuth)
	rt.setupNotesRoutes(v1, requireAuth)
	rt.setupWebhookRoutes(v1)
}

// setupAuthRoutes configures the Google connection routes
func (rt *Router) setupAuthRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	authGroup := g.Group("/auth")

	if rt.auth == nil {
		authGroup.Any("/*", rt.notImplemented)
		return
	}

	authGroup.GET("/google/login", rt.auth.GoogleLogin)
	authGroup.GET("/google/callback", rt.auth.GoogleCallback)
	authGroup.GET("/me", rt.auth.Me, requireAuth)
	authGroup.POST("/google/disconnect", rt.auth.Disconnect, requireAuth)
}

// setupNotesRoutes configures the scan trigger and transcript reads
func (rt *Router) setupNotesRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	if rt.notes == nil {
		g.POST("/notes/scan", rt.notImplemented)
		return
	}

	g.POST("/notes/scan", rt.notes.Scan, requireAuth)

	transcripts := g.Group("/transcripts", requireAuth)
	transcripts.GET("", rt.notes.ListTranscripts)
	transcripts.GET("/:id", rt.notes.GetTranscript)
	transcripts.GET("/:id/archive", rt.notes.TranscriptArchive)
}

// setupWebhookRoutes configures inbound webhooks; they authenticate by signature
func (rt *Router) setupWebhookRoutes(g *echo.Group) {
	if rt.webhooks == nil {
		return
	}

	hooks := g.Group("/webhooks")
	hooks.POST("/risc", rt.webhooks.RISC)
	hooks.POST("/calendly", rt.webhooks.Calendly)
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":  "This endpoint is not yet implemented",
		"path":   c.Request().URL.Path,
		"method": c.Request().Method,
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.environment,
	})
}
