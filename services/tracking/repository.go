package tracking

import (
	"context"

	"github.com/piresc/tirtha/internal/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks github.com/piresc/tirtha/services/tracking LocationRepo

// UpdateFunc derives the next durable state from the current one. It may be
// invoked more than once when the store retries an optimistic transaction, so
// it must not have side effects. current is never nil; an actor seen for the
// first time has a nil LatestSample.
type UpdateFunc func(current *models.ActorLocationState) (*models.ActorLocationState, error)

// LocationRepo is the durable store of each actor's last position and odometer
type LocationRepo interface {
	// UpdateActorLocation runs fn as an atomic read-modify-write for one actor
	UpdateActorLocation(ctx context.Context, actorID string, fn UpdateFunc) (*models.ActorLocationState, error)
	// SetTracking toggles the tracking flag, returning ErrNotFound for unknown actors
	SetTracking(ctx context.Context, actorID string, tracking bool) (*models.ActorLocationState, error)
	GetActorLocation(ctx context.Context, actorID string) (*models.ActorLocationState, error)
	ListTrackingActors(ctx context.Context) ([]*models.ActorLocationState, error)
	// FindNearby returns tracking actors whose last position may lie within radiusMeters
	FindNearby(ctx context.Context, center models.GeoPoint, radiusMeters float64) ([]*models.ActorLocationState, error)
}
