package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/piresc/tirtha/internal/pkg/logger"
	"github.com/piresc/tirtha/internal/pkg/middleware"
	"github.com/piresc/tirtha/internal/pkg/models"
	"github.com/piresc/tirtha/internal/utils"
	"github.com/piresc/tirtha/services/tracking"
)

var errInvalidReference = errors.New("reference must be \"lat,lon\"")

// TrackingHandler handles HTTP requests for location tracking
type TrackingHandler struct {
	trackingUC          tracking.TrackingUC
	defaultNearbyRadius float64
}

// NewTrackingHandler creates a new tracking HTTP handler
func NewTrackingHandler(trackingUC tracking.TrackingUC, cfg models.TrackingConfig) *TrackingHandler {
	radius := cfg.NearbyDefaultRadiusMeter
	if radius <= 0 {
		radius = 1000
	}
	return &TrackingHandler{
		trackingUC:          trackingUC,
		defaultNearbyRadius: radius,
	}
}

type locationUpdateRequest struct {
	ActorID string `json:"actor_id"`
	models.LocationSample
	Profile *models.ActorProfile `json:"profile,omitempty"`
}

type stopTrackingRequest struct {
	ActorID string `json:"actor_id"`
}

type emergencyRequest struct {
	Message   string   `json:"message"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// ProximityResponse is the body returned by the proximity endpoint
type ProximityResponse struct {
	Entries []models.LiveFeedEntry `json:"entries"`
	Stats   models.ProximityStats  `json:"stats"`
}

// LocationUpdate records a sample for the caller, or for another actor when the
// caller is privileged
func (h *TrackingHandler) LocationUpdate(c echo.Context) error {
	var req locationUpdateRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "invalid request body")
	}

	caller := callerFrom(c)
	actorID, err := caller.ResolveActor(req.ActorID)
	if err != nil {
		return utils.ErrorFromDomain(c, err)
	}

	profile := profileFrom(c)
	if actorID != caller.ActorID {
		profile = models.ActorProfile{}
		if req.Profile != nil {
			profile = *req.Profile
		}
	}
	middleware.SetActorID(c, actorID)

	result, err := h.trackingUC.RecordSample(c.Request().Context(), actorID, profile, req.LocationSample)
	if err != nil {
		middleware.NoticeError(c, err)
		return utils.ErrorFromDomain(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Location recorded", result)
}

// InternalLocationUpdate accepts a sample relayed by a trusted service
func (h *TrackingHandler) InternalLocationUpdate(c echo.Context) error {
	var req models.DeviceSample
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "invalid request body")
	}
	if req.ActorID == "" {
		return utils.BadRequestResponse(c, "actor_id is required")
	}

	result, err := h.trackingUC.RecordSample(c.Request().Context(), req.ActorID, req.Profile, req.Sample)
	if err != nil {
		return utils.ErrorFromDomain(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Location recorded", result)
}

// StopTracking pauses tracking and leaves the last sample in place
func (h *TrackingHandler) StopTracking(c echo.Context) error {
	var req stopTrackingRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "invalid request body")
	}

	actorID, err := callerFrom(c).ResolveActor(req.ActorID)
	if err != nil {
		return utils.ErrorFromDomain(c, err)
	}

	if err := h.trackingUC.StopTracking(c.Request().Context(), actorID); err != nil {
		logger.WarnCtx(c.Request().Context(), "Failed to stop tracking",
			logger.String("actor_id", actorID),
			logger.Err(err))
		return utils.ErrorFromDomain(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Tracking stopped", map[string]interface{}{"ok": true, "actor_id": actorID})
}

// GetLocation returns the durable state of one actor
func (h *TrackingHandler) GetLocation(c echo.Context) error {
	actorID := c.Param("actorId")
	if actorID == "" {
		return utils.BadRequestResponse(c, "actor id is required")
	}

	state, err := h.trackingUC.GetCurrentLocation(c.Request().Context(), actorID)
	if err != nil {
		return utils.ErrorFromDomain(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Location retrieved", state)
}

// Proximity returns a one-shot snapshot of a feed ordered by distance from reference
func (h *TrackingHandler) Proximity(c echo.Context) error {
	reference, err := parseReference(c.QueryParam("reference"))
	if err != nil {
		return utils.BadRequestResponse(c, err.Error())
	}

	req := models.FeedRequest{
		Scope:    models.FeedScope(c.QueryParam("scope")),
		Target:   c.QueryParam("target"),
		Strategy: models.GroupStrategy(c.QueryParam("strategy")),
	}
	if req.Scope == "" {
		req.Scope = models.ScopeGlobal
	}
	if err := callerFrom(c).AuthorizeFeed(req); err != nil {
		return utils.ErrorFromDomain(c, err)
	}

	entries, stats, err := h.trackingUC.Proximity(c.Request().Context(), req, reference)
	if err != nil {
		return utils.ErrorFromDomain(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Proximity snapshot", ProximityResponse{Entries: entries, Stats: stats})
}

// Nearby lists tracking actors within a radius of a point
func (h *TrackingHandler) Nearby(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return utils.BadRequestResponse(c, "invalid lat")
	}
	lon, err := strconv.ParseFloat(c.QueryParam("lon"), 64)
	if err != nil {
		return utils.BadRequestResponse(c, "invalid lon")
	}
	radius := h.defaultNearbyRadius
	if raw := c.QueryParam("radius_m"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return utils.BadRequestResponse(c, "invalid radius_m")
		}
	}

	entries, err := h.trackingUC.Nearby(c.Request().Context(), models.GeoPoint{Latitude: lat, Longitude: lon}, radius)
	if err != nil {
		return utils.ErrorFromDomain(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Nearby actors", entries)
}

// Emergency raises an emergency event for the caller
func (h *TrackingHandler) Emergency(c echo.Context) error {
	var req emergencyRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "invalid request body")
	}

	var sample *models.LocationSample
	if req.Latitude != nil || req.Longitude != nil {
		if req.Latitude == nil || req.Longitude == nil {
			return utils.BadRequestResponse(c, "latitude and longitude must be sent together")
		}
		sample = &models.LocationSample{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
			Accuracy:  req.Accuracy,
		}
	}

	caller := callerFrom(c)
	event, err := h.trackingUC.ReportEmergency(c.Request().Context(), caller.ActorID, profileFrom(c), sample, req.Message)
	if err != nil {
		middleware.NoticeError(c, err)
		return utils.ErrorFromDomain(c, err)
	}

	logger.WarnCtx(c.Request().Context(), "Emergency reported",
		logger.String("actor_id", caller.ActorID),
		logger.String("event_id", event.EventID))
	return utils.SuccessResponse(c, http.StatusAccepted, "Emergency reported", event)
}

func callerFrom(c echo.Context) tracking.Caller {
	return tracking.Caller{
		ActorID: middleware.ActorID(c),
		Role:    middleware.StringValue(c, middleware.ContextUserRole),
		GroupID: middleware.StringValue(c, middleware.ContextGroupID),
	}
}

func profileFrom(c echo.Context) models.ActorProfile {
	return models.ActorProfile{
		GroupID:     middleware.StringValue(c, middleware.ContextGroupID),
		DisplayName: middleware.StringValue(c, middleware.ContextDisplayName),
		ContactRef:  middleware.StringValue(c, middleware.ContextMSISDN),
	}
}

// parseReference reads "lat,lon". An empty value means no reference.
func parseReference(raw string) (*models.GeoPoint, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil, errInvalidReference
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, errInvalidReference
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, errInvalidReference
	}
	return &models.GeoPoint{Latitude: lat, Longitude: lon}, nil
}
