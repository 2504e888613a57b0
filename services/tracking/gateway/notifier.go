package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/piresc/tirtha/internal/pkg/constants"
	"github.com/piresc/tirtha/internal/pkg/logger"
	"github.com/piresc/tirtha/internal/pkg/models"
	natspkg "github.com/piresc/tirtha/internal/pkg/nats"
)

// LocationChangedEvent is the payload of tracking.location.changed
type LocationChangedEvent struct {
	ActorID             string    `json:"actor_id"`
	GroupID             string    `json:"group_id,omitempty"`
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	CapturedAt          int64     `json:"captured_at"`
	TotalDistanceMeters float64   `json:"total_distance_meters"`
	IsTracking          bool      `json:"is_tracking"`
	OccurredAt          time.Time `json:"occurred_at"`
}

// NATSNotifier publishes tracking events to NATS. Location changes go out on
// core NATS; emergencies are persisted in JetStream and deduplicated by event id.
type NATSNotifier struct {
	client *natspkg.Client
}

// NewNATSNotifier creates a notifier backed by client
func NewNATSNotifier(client *natspkg.Client) *NATSNotifier {
	return &NATSNotifier{client: client}
}

// PublishLocationChanged announces a recorded position
func (n *NATSNotifier) PublishLocationChanged(ctx context.Context, state *models.ActorLocationState) error {
	if state == nil || state.LatestSample == nil {
		return nil
	}
	event := LocationChangedEvent{
		ActorID:             state.ActorID,
		GroupID:             state.GroupID,
		Latitude:            state.LatestSample.Latitude,
		Longitude:           state.LatestSample.Longitude,
		CapturedAt:          state.LatestSample.CapturedAt,
		TotalDistanceMeters: state.TotalDistanceMeters,
		IsTracking:          state.IsTracking,
		OccurredAt:          time.Now().UTC(),
	}
	if err := n.client.PublishJSON(constants.SubjectLocationChanged, event); err != nil {
		return fmt.Errorf("failed to publish location changed: %w", err)
	}
	return nil
}

// PublishEmergency stores an emergency event in the TRACKING_EVENTS stream
func (n *NATSNotifier) PublishEmergency(ctx context.Context, event *models.LocationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal emergency event: %w", err)
	}

	if err := n.client.PublishWithOptions(natspkg.PublishOptions{
		Subject: constants.SubjectEmergency,
		Data:    data,
		MsgID:   event.EventID,
	}); err != nil {
		return fmt.Errorf("failed to publish emergency event: %w", err)
	}

	logger.InfoCtx(ctx, "Emergency event published to JetStream",
		logger.String("event_id", event.EventID),
		logger.String("actor_id", event.ActorID))
	return nil
}

// NopNotifier discards every event; used when NATS is not configured
type NopNotifier struct{}

// PublishLocationChanged does nothing
func (NopNotifier) PublishLocationChanged(context.Context, *models.ActorLocationState) error {
	return nil
}

// PublishEmergency logs the event and drops it
func (NopNotifier) PublishEmergency(ctx context.Context, event *models.LocationEvent) error {
	logger.WarnCtx(ctx, "Emergency dropped, no notification sink configured",
		logger.String("event_id", event.EventID),
		logger.String("actor_id", event.ActorID))
	return nil
}
