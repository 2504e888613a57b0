package tracking

import (
	"context"

	"github.com/piresc/tirtha/internal/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_usecase.go -package=mocks github.com/piresc/tirtha/services/tracking TrackingUC,FeedManager

// TrackingUC defines the location tracking business logic
type TrackingUC interface {
	RecordSample(ctx context.Context, actorID string, profile models.ActorProfile, sample models.LocationSample) (*models.RecordResult, error)
	StopTracking(ctx context.Context, actorID string) error
	GetCurrentLocation(ctx context.Context, actorID string) (*models.ActorLocationState, error)
	Proximity(ctx context.Context, req models.FeedRequest, reference *models.GeoPoint) ([]models.LiveFeedEntry, models.ProximityStats, error)
	Nearby(ctx context.Context, center models.GeoPoint, radiusMeters float64) ([]models.LiveFeedEntry, error)
	ReportEmergency(ctx context.Context, actorID string, profile models.ActorProfile, sample *models.LocationSample, message string) (*models.LocationEvent, error)
	RebuildLive(ctx context.Context) (int, error)
	// Enrich turns raw live states into feed entries relative to reference
	Enrich(states []*models.ActorLocationState, reference *models.GeoPoint) ([]models.LiveFeedEntry, models.ProximityStats)
}

// FeedManager owns scoped live subscriptions, at most one per owner
type FeedManager interface {
	// Open starts or replaces owner's subscription. onUpdate must not call Close.
	Open(ctx context.Context, owner string, req models.FeedRequest, onUpdate func(models.FeedUpdate)) error
	// Close stops owner's subscription; no onUpdate call happens after it returns
	Close(owner string)
	// Snapshot returns the current contents of a feed without subscribing
	Snapshot(ctx context.Context, req models.FeedRequest) ([]*models.ActorLocationState, error)
	// Members returns the resolved membership a filter-strategy group feed is
	// defined by, or nil when req selects by key instead
	Members(ctx context.Context, req models.FeedRequest) (*models.GroupMembership, error)
}
