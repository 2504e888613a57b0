package websocket

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/piresc/tirtha/internal/pkg/constants"
	apperrors "github.com/piresc/tirtha/internal/pkg/errors"
	"github.com/piresc/tirtha/internal/pkg/logger"
	"github.com/piresc/tirtha/internal/pkg/models"
	pkgws "github.com/piresc/tirtha/internal/pkg/websocket"
	"github.com/piresc/tirtha/services/tracking"
)

// SubscribeRequest is the payload of a subscribe event
type SubscribeRequest struct {
	models.FeedRequest
	Reference *models.GeoPoint `json:"reference,omitempty"`
}

// LiveStateMessage reports a feed lifecycle change
type LiveStateMessage struct {
	Scope  models.FeedScope `json:"scope,omitempty"`
	Target string           `json:"target,omitempty"`
	State  models.FeedState `json:"state"`
}

// LiveFeedHandler streams proximity snapshots to websocket clients
type LiveFeedHandler struct {
	wsManager  *pkgws.Manager
	trackingUC tracking.TrackingUC
	feeds      tracking.FeedManager
}

// NewLiveFeedHandler creates a new live feed handler
func NewLiveFeedHandler(wsManager *pkgws.Manager, trackingUC tracking.TrackingUC, feeds tracking.FeedManager) *LiveFeedHandler {
	return &LiveFeedHandler{
		wsManager:  wsManager,
		trackingUC: trackingUC,
		feeds:      feeds,
	}
}

// feedSession is the per-connection subscription state, owned by the read loop
type feedSession struct {
	conn    *pkgws.Conn
	current *SubscribeRequest
}

// HandleLiveFeed upgrades the connection and serves subscribe, unsubscribe,
// location_update and ping events until the client goes away
func (h *LiveFeedHandler) HandleLiveFeed(c echo.Context) error {
	return h.wsManager.HandleConnection(c, func(conn *pkgws.Conn) error {
		ctx := c.Request().Context()
		sess := &feedSession{conn: conn}
		defer h.feeds.Close(conn.ID())

		if scope := c.QueryParam("scope"); scope != "" {
			req := SubscribeRequest{FeedRequest: models.FeedRequest{
				Scope:    models.FeedScope(scope),
				Target:   c.QueryParam("target"),
				Strategy: models.GroupStrategy(c.QueryParam("strategy")),
			}}
			h.subscribe(ctx, sess, req)
		}

		for {
			msg, err := conn.ReadMessage()
			if err != nil {
				logger.Info("Live feed client disconnected",
					logger.String("conn_id", conn.ID()),
					logger.String("user_id", conn.Client.UserID))
				return nil
			}
			h.dispatch(ctx, sess, msg)
		}
	})
}

func (h *LiveFeedHandler) dispatch(ctx context.Context, sess *feedSession, msg models.WSMessage) {
	conn := sess.conn
	switch msg.Event {
	case constants.EventPing:
		_ = conn.Send(constants.EventPong, map[string]string{"conn_id": conn.ID()})

	case constants.EventSubscribe:
		var req SubscribeRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			_ = conn.SendError(constants.ErrorInvalidFormat, "invalid subscribe payload")
			return
		}
		h.subscribe(ctx, sess, req)

	case constants.EventUnsubscribe:
		h.feeds.Close(conn.ID())
		sess.current = nil
		_ = conn.Send(constants.EventLiveState, LiveStateMessage{State: models.FeedIdle})

	case constants.EventLocationUpdate:
		h.recordSample(ctx, conn, msg.Data)

	default:
		_ = conn.SendError(constants.ErrorInvalidFormat, "unknown event "+msg.Event)
	}
}

func (h *LiveFeedHandler) subscribe(ctx context.Context, sess *feedSession, req SubscribeRequest) {
	conn := sess.conn
	if req.Scope == "" {
		req.Scope = models.ScopeGlobal
	}
	if err := callerOf(conn).AuthorizeFeed(req.FeedRequest); err != nil {
		_ = conn.SendError(constants.ErrorUnauthorized, err.Error())
		return
	}

	// The reference is bound into the update callback, so a new reference
	// needs a fresh subscription even for the same feed.
	if sess.current != nil && sess.current.FeedRequest.Equal(req.FeedRequest) && !samePoint(sess.current.Reference, req.Reference) {
		h.feeds.Close(conn.ID())
	}

	reference := clonePoint(req.Reference)
	err := h.feeds.Open(ctx, conn.ID(), req.FeedRequest, func(update models.FeedUpdate) {
		h.push(conn, update, reference)
	})
	switch {
	case err == nil:
		sess.current = &req
	case errors.Is(err, apperrors.ErrLiveLayerUnavailable):
		h.fallback(ctx, sess, req)
	case errors.Is(err, apperrors.ErrValidation):
		_ = conn.SendError(constants.ErrorValidationFailed, err.Error())
	default:
		logger.ErrorCtx(ctx, "Failed to open live feed",
			logger.String("conn_id", conn.ID()),
			logger.String("scope", string(req.Scope)),
			logger.Err(err))
		_ = conn.SendError(constants.ErrorSubscribeFailed, "could not open live feed")
	}
}

// fallback serves one snapshot from the durable store when the live layer is down
func (h *LiveFeedHandler) fallback(ctx context.Context, sess *feedSession, req SubscribeRequest) {
	conn := sess.conn
	sess.current = nil
	entries, stats, err := h.trackingUC.Proximity(ctx, req.FeedRequest, req.Reference)
	if err != nil {
		logger.WarnCtx(ctx, "Live feed fallback failed",
			logger.String("conn_id", conn.ID()),
			logger.Err(err))
		_ = conn.SendError(constants.ErrorSubscribeFailed, "live layer unavailable")
		return
	}
	_ = conn.Send(constants.EventLiveSnapshot, snapshotMessage(req.FeedRequest, models.FeedClosed, entries, stats))
}

func (h *LiveFeedHandler) push(conn *pkgws.Conn, update models.FeedUpdate, reference *models.GeoPoint) {
	req := update.Request
	if update.State != models.FeedLive {
		_ = conn.Send(constants.EventLiveState, LiveStateMessage{Scope: req.Scope, Target: req.Target, State: update.State})
		return
	}

	states := update.States
	if req.Scope == models.ScopeSingle {
		states = nil
		if update.Entry != nil {
			states = []*models.ActorLocationState{update.Entry}
		}
	}
	entries, stats := h.trackingUC.Enrich(states, reference)
	if err := conn.Send(constants.EventLiveSnapshot, snapshotMessage(req, update.State, entries, stats)); err != nil {
		logger.Debug("Dropped live snapshot",
			logger.String("conn_id", conn.ID()),
			logger.Err(err))
	}
}

func (h *LiveFeedHandler) recordSample(ctx context.Context, conn *pkgws.Conn, data json.RawMessage) {
	var sample models.LocationSample
	if err := json.Unmarshal(data, &sample); err != nil {
		_ = conn.SendError(constants.ErrorInvalidFormat, "invalid location payload")
		return
	}

	profile := models.ActorProfile{
		GroupID:     conn.Client.GroupID,
		DisplayName: conn.Client.DisplayName,
		ContactRef:  conn.Client.MSISDN,
	}
	result, err := h.trackingUC.RecordSample(ctx, conn.Client.UserID, profile, sample)
	switch {
	case err == nil:
		_ = conn.Send(constants.EventLocationUpdate, result)
	case errors.Is(err, apperrors.ErrValidation):
		_ = conn.SendError(constants.ErrorInvalidLocation, err.Error())
	case errors.Is(err, apperrors.ErrRateLimited):
		_ = conn.SendError(constants.ErrorRateLimitExceeded, err.Error())
	default:
		logger.ErrorCtx(ctx, "Failed to record websocket sample",
			logger.String("user_id", conn.Client.UserID),
			logger.Err(err))
		_ = conn.SendError(constants.ErrorInternalError, "could not record location")
	}
}

func snapshotMessage(req models.FeedRequest, state models.FeedState, entries []models.LiveFeedEntry, stats models.ProximityStats) models.LiveSnapshotMessage {
	if entries == nil {
		entries = []models.LiveFeedEntry{}
	}
	msg := models.LiveSnapshotMessage{
		Scope:   req.Scope,
		Target:  req.Target,
		Entries: entries,
		Stats:   stats,
		State:   string(state),
	}
	if req.Scope == models.ScopeSingle && len(entries) > 0 {
		entry := entries[0]
		msg.Entry = &entry
	}
	return msg
}

func callerOf(conn *pkgws.Conn) tracking.Caller {
	return tracking.Caller{
		ActorID: conn.Client.UserID,
		Role:    conn.Client.Role,
		GroupID: conn.Client.GroupID,
	}
}

func samePoint(a, b *models.GeoPoint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func clonePoint(p *models.GeoPoint) *models.GeoPoint {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
