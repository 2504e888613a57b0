package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/piresc/tirtha/internal/pkg/middleware"
	"github.com/piresc/tirtha/internal/pkg/models"
	httpHandler "github.com/piresc/tirtha/services/tracking/handler/http"
	wsHandler "github.com/piresc/tirtha/services/tracking/handler/websocket"
)

// Handler combines the HTTP and websocket handlers of the tracking service
type Handler struct {
	trackingHTTP *httpHandler.TrackingHandler
	liveFeed     *wsHandler.LiveFeedHandler
	cfg          *models.Config
}

// NewHandler creates a new combined handler
func NewHandler(trackingHTTP *httpHandler.TrackingHandler, liveFeed *wsHandler.LiveFeedHandler, cfg *models.Config) *Handler {
	return &Handler{
		trackingHTTP: trackingHTTP,
		liveFeed:     liveFeed,
		cfg:          cfg,
	}
}

// RegisterRoutes registers all tracking routes
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// The websocket manager authenticates upgrades itself so browsers can pass ?token=
	e.GET("/v1/tracking/live-feed", h.liveFeed.HandleLiveFeed)

	v1 := e.Group("/v1/tracking", middleware.JWTAuthMiddleware(h.cfg.JWT))
	v1.POST("/location-update", h.trackingHTTP.LocationUpdate)
	v1.POST("/stop-tracking", h.trackingHTTP.StopTracking)
	v1.GET("/location/:actorId", h.trackingHTTP.GetLocation)
	v1.GET("/proximity", h.trackingHTTP.Proximity)
	v1.GET("/nearby", h.trackingHTTP.Nearby)
	v1.POST("/emergency", h.trackingHTTP.Emergency)

	// Internal routes for service-to-service communication (API key required)
	internal := e.Group("/internal/tracking", middleware.ValidateAPIKey(h.cfg.APIKey.TrackingService))
	internal.POST("/location-update", h.trackingHTTP.InternalLocationUpdate)
}
