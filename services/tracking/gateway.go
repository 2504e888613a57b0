package tracking

import (
	"context"

	"github.com/piresc/tirtha/internal/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks github.com/piresc/tirtha/services/tracking LivePublisher,Notifier,GroupDirectory

// LivePublisher is the ephemeral push-on-write layer holding current positions.
// Selectors ending in "/" match by prefix, anything else matches one key exactly.
type LivePublisher interface {
	Publish(ctx context.Context, state *models.ActorLocationState) error
	Retract(ctx context.Context, actorID, groupID string) error
	// Subscribe registers onChange for every change under selector and returns an
	// unsubscribe function that is idempotent and synchronous
	Subscribe(selector string, onChange func([]*models.ActorLocationState)) (func(), error)
	Snapshot(selector string) ([]*models.ActorLocationState, error)
}

// Notifier is the fire-and-forget sink for domain events
type Notifier interface {
	PublishLocationChanged(ctx context.Context, state *models.ActorLocationState) error
	PublishEmergency(ctx context.Context, event *models.LocationEvent) error
}

// GroupDirectory resolves group membership from the group-management service
type GroupDirectory interface {
	ResolveMembers(ctx context.Context, groupID string) (*models.GroupMembership, error)
}
