package usecase

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/piresc/tirtha/internal/pkg/errors"
	"github.com/piresc/tirtha/internal/pkg/keylock"
	"github.com/piresc/tirtha/internal/pkg/logger"
	"github.com/piresc/tirtha/internal/pkg/models"
	nrpkg "github.com/piresc/tirtha/internal/pkg/newrelic"
	"github.com/piresc/tirtha/internal/utils"
	"github.com/piresc/tirtha/services/tracking"
	"github.com/piresc/tirtha/services/tracking/proximity"
	"golang.org/x/time/rate"
)

// EventEmergency is the type of events raised by ReportEmergency
const EventEmergency = "emergency"

const (
	// DefaultLimiterIdleTTL is how long an actor's rate limiter survives without samples
	DefaultLimiterIdleTTL = time.Hour
	// DefaultLimiterSweepInterval is how often idle limiters are removed
	DefaultLimiterSweepInterval = 5 * time.Minute
)

// Config holds the tunables of the tracking use case
type Config struct {
	OnlineThreshold     time.Duration
	StorageTimeout      time.Duration
	IngestRatePerSecond float64 // 0 disables per-actor rate limiting
	IngestBurst         int
	LocationEvents      bool

	LimiterIdleTTL       time.Duration
	LimiterSweepInterval time.Duration
}

// ConfigFromModel converts application configuration into use case settings
func ConfigFromModel(cfg models.TrackingConfig) Config {
	return Config{
		OnlineThreshold:     time.Duration(cfg.OnlineThresholdSeconds) * time.Second,
		StorageTimeout:      time.Duration(cfg.StorageTimeoutMs) * time.Millisecond,
		IngestRatePerSecond: cfg.IngestRatePerSecond,
		IngestBurst:         cfg.IngestBurst,
		LocationEvents:      cfg.LocationEventsEnabled,
		LimiterIdleTTL:      time.Duration(cfg.LimiterIdleSeconds) * time.Second,
	}
}

var _ tracking.TrackingUC = (*TrackingUC)(nil)

// TrackingUC implements tracking.TrackingUC
type TrackingUC struct {
	repo     tracking.LocationRepo
	live     tracking.LivePublisher
	feeds    tracking.FeedManager
	notifier tracking.Notifier
	cfg      Config

	locks      *keylock.KeyLock
	limitersMu sync.Mutex
	limiters   map[string]*limiterEntry
	stopSweep  chan struct{}
	closeOnce  sync.Once
	now        func() time.Time
}

// limiterEntry is an actor's rate limiter and the time it was last consulted
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewTrackingUC creates the tracking use case. notifier may be nil. When rate
// limiting is enabled a background sweep removes idle limiters until Close.
func NewTrackingUC(
	repo tracking.LocationRepo,
	live tracking.LivePublisher,
	feeds tracking.FeedManager,
	notifier tracking.Notifier,
	cfg Config,
) *TrackingUC {
	if cfg.OnlineThreshold <= 0 {
		cfg.OnlineThreshold = proximity.DefaultOnlineThreshold
	}
	if cfg.IngestBurst <= 0 {
		cfg.IngestBurst = 1
	}
	if cfg.LimiterIdleTTL <= 0 {
		cfg.LimiterIdleTTL = DefaultLimiterIdleTTL
	}
	if cfg.LimiterSweepInterval <= 0 {
		cfg.LimiterSweepInterval = DefaultLimiterSweepInterval
	}
	u := &TrackingUC{
		repo:      repo,
		live:      live,
		feeds:     feeds,
		notifier:  notifier,
		cfg:       cfg,
		locks:     keylock.New(),
		limiters:  make(map[string]*limiterEntry),
		stopSweep: make(chan struct{}),
		now:       time.Now,
	}
	if cfg.IngestRatePerSecond > 0 {
		go u.sweepLimitersEvery(cfg.LimiterSweepInterval)
	}
	return u
}

// Close stops the idle limiter sweep. It is safe to call more than once.
func (u *TrackingUC) Close() {
	u.closeOnce.Do(func() { close(u.stopSweep) })
}

// RecordSample stores sample as the actor's current position and advances its
// odometer by the distance from the previous position. The delta is zero for
// the first sample and for the first sample after tracking was stopped. A
// sample captured before the stored one is superseded: nothing changes and the
// stored position is returned.
func (u *TrackingUC) RecordSample(ctx context.Context, actorID string, profile models.ActorProfile, sample models.LocationSample) (*models.RecordResult, error) {
	defer nrpkg.StartSegment(ctx, "TrackingUC.RecordSample")()

	if actorID == "" {
		return nil, apperrors.Validation("actor_id is required")
	}
	if err := validateSample(sample); err != nil {
		return nil, err
	}
	if !u.allow(actorID) {
		return nil, apperrors.ErrRateLimited
	}
	if sample.CapturedAt == 0 {
		sample.CapturedAt = u.now().UnixMilli()
	}

	unlock := u.locks.Lock(actorID)
	defer unlock()

	sctx, cancel := u.storageContext(ctx)
	defer cancel()

	var (
		delta      float64
		superseded bool
	)
	state, err := u.repo.UpdateActorLocation(sctx, actorID, func(current *models.ActorLocationState) (*models.ActorLocationState, error) {
		delta = 0
		superseded = current.LatestSample != nil && sample.CapturedAt < current.LatestSample.CapturedAt
		if superseded {
			return current.Clone(), nil
		}
		if current.IsTracking {
			delta = utils.SampleDistance(current.LatestSample, &sample)
		}
		next := current.Clone()
		next.ApplyProfile(profile)
		next.LatestSample = sample.Clone()
		next.IsTracking = true
		next.TotalDistanceMeters = current.TotalDistanceMeters + delta
		return next, nil
	})
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to record location sample",
			logger.String("actor_id", actorID),
			logger.Err(err))
		return nil, err
	}

	if superseded {
		logger.DebugCtx(ctx, "Out-of-order sample superseded by a newer one",
			logger.String("actor_id", actorID),
			logger.Int64("captured_at", sample.CapturedAt),
			logger.Int64("stored_captured_at", state.LatestSample.CapturedAt))
		return &models.RecordResult{
			LatestSample:        *state.LatestSample,
			TotalDistanceMeters: state.TotalDistanceMeters,
			Superseded:          true,
		}, nil
	}

	if txn := nrpkg.FromContext(ctx); txn != nil {
		nrpkg.AddTransactionAttribute(txn, "actor.id", actorID)
		nrpkg.AddTransactionAttribute(txn, "odometer.delta_m", delta)
	}

	// Published under the actor lock so live delivery follows write order
	if err := u.live.Publish(ctx, state); err != nil {
		logger.WarnCtx(ctx, "Live layer publish failed, durable write kept",
			logger.String("actor_id", actorID),
			logger.Err(err))
	}
	if u.notifier != nil && u.cfg.LocationEvents {
		if err := u.notifier.PublishLocationChanged(ctx, state); err != nil {
			logger.WarnCtx(ctx, "Failed to publish location changed event",
				logger.String("actor_id", actorID),
				logger.Err(err))
		}
	}

	logger.DebugCtx(ctx, "Location sample recorded",
		logger.String("actor_id", actorID),
		logger.Float64("delta_meters", delta),
		logger.Float64("total_distance_meters", state.TotalDistanceMeters))

	return &models.RecordResult{
		LatestSample:        *state.LatestSample,
		TotalDistanceMeters: state.TotalDistanceMeters,
		DeltaMeters:         delta,
	}, nil
}

// StopTracking clears the tracking flag and removes the actor from the live
// layer. The last sample and odometer stay in the durable store. Stopping an
// unknown actor is a no-op.
func (u *TrackingUC) StopTracking(ctx context.Context, actorID string) error {
	defer nrpkg.StartSegment(ctx, "TrackingUC.StopTracking")()

	if actorID == "" {
		return apperrors.Validation("actor_id is required")
	}

	unlock := u.locks.Lock(actorID)
	defer unlock()

	sctx, cancel := u.storageContext(ctx)
	defer cancel()

	state, err := u.repo.SetTracking(sctx, actorID, false)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		logger.DebugCtx(ctx, "Stop tracking for unknown actor", logger.String("actor_id", actorID))
		return nil
	}
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to stop tracking",
			logger.String("actor_id", actorID),
			logger.Err(err))
		return err
	}

	if err := u.live.Retract(ctx, actorID, state.GroupID); err != nil {
		logger.WarnCtx(ctx, "Live layer retract failed",
			logger.String("actor_id", actorID),
			logger.Err(err))
	}
	u.dropLimiter(actorID)

	logger.InfoCtx(ctx, "Tracking stopped",
		logger.String("actor_id", actorID),
		logger.Float64("total_distance_meters", state.TotalDistanceMeters))
	return nil
}

// GetCurrentLocation returns the durable state of an actor, or ErrNotFound
func (u *TrackingUC) GetCurrentLocation(ctx context.Context, actorID string) (*models.ActorLocationState, error) {
	if actorID == "" {
		return nil, apperrors.Validation("actor_id is required")
	}
	sctx, cancel := u.storageContext(ctx)
	defer cancel()
	return u.repo.GetActorLocation(sctx, actorID)
}

// Proximity enriches the current contents of a feed relative to reference.
// When the live layer is down the durable store answers instead.
func (u *TrackingUC) Proximity(ctx context.Context, req models.FeedRequest, reference *models.GeoPoint) ([]models.LiveFeedEntry, models.ProximityStats, error) {
	defer nrpkg.StartSegment(ctx, "TrackingUC.Proximity")()

	if reference != nil && !utils.ValidCoordinate(reference.Latitude, reference.Longitude) {
		return nil, models.ProximityStats{}, apperrors.Validation("invalid reference coordinates")
	}

	states, err := u.feeds.Snapshot(ctx, req)
	if apperrors.Is(err, apperrors.ErrLiveLayerUnavailable) {
		logger.WarnCtx(ctx, "Live layer unavailable, reading durable store",
			logger.String("scope", string(req.Scope)))
		states, err = u.durableSnapshot(ctx, req)
	}
	if err != nil {
		return nil, models.ProximityStats{}, err
	}

	entries, stats := u.Enrich(states, reference)
	return entries, stats, nil
}

// Nearby returns tracking actors within radiusMeters of center, nearest first
func (u *TrackingUC) Nearby(ctx context.Context, center models.GeoPoint, radiusMeters float64) ([]models.LiveFeedEntry, error) {
	if !utils.ValidCoordinate(center.Latitude, center.Longitude) {
		return nil, apperrors.Validation("invalid center coordinates")
	}
	if radiusMeters <= 0 || math.IsNaN(radiusMeters) || math.IsInf(radiusMeters, 0) {
		return nil, apperrors.Validation("radius must be positive")
	}

	sctx, cancel := u.storageContext(ctx)
	defer cancel()

	candidates, err := u.repo.FindNearby(sctx, center, radiusMeters)
	if err != nil {
		return nil, err
	}

	entries := proximity.Resolve(candidates, &center, u.now(), u.cfg.OnlineThreshold)
	out := entries[:0]
	for _, e := range entries {
		if e.DistanceFromReferenceMeters != nil && *e.DistanceFromReferenceMeters <= radiusMeters {
			out = append(out, e)
		}
	}
	return out, nil
}

// ReportEmergency raises an emergency event at the actor's position. A supplied
// sample is recorded first; otherwise the last durable position is used.
func (u *TrackingUC) ReportEmergency(ctx context.Context, actorID string, profile models.ActorProfile, sample *models.LocationSample, message string) (*models.LocationEvent, error) {
	if sample != nil {
		if _, err := u.RecordSample(ctx, actorID, profile, *sample); err != nil {
			return nil, err
		}
	}
	state, err := u.GetCurrentLocation(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if state.LatestSample == nil {
		return nil, apperrors.NotFound("location for actor", actorID)
	}
	state.ApplyProfile(profile)

	event := &models.LocationEvent{
		EventID:             uuid.NewString(),
		Type:                EventEmergency,
		ActorID:             actorID,
		GroupID:             state.GroupID,
		DisplayName:         state.DisplayName,
		ContactRef:          state.ContactRef,
		Latitude:            state.LatestSample.Latitude,
		Longitude:           state.LatestSample.Longitude,
		TotalDistanceMeters: state.TotalDistanceMeters,
		Message:             message,
		OccurredAt:          u.now().UTC(),
	}

	if u.notifier == nil {
		logger.WarnCtx(ctx, "Emergency raised without a notification sink",
			logger.String("actor_id", actorID))
		return event, nil
	}
	if err := u.notifier.PublishEmergency(ctx, event); err != nil {
		logger.ErrorCtx(ctx, "Failed to publish emergency",
			logger.String("actor_id", actorID),
			logger.Err(err))
		return nil, err
	}

	logger.InfoCtx(ctx, "Emergency published",
		logger.String("actor_id", actorID),
		logger.String("event_id", event.EventID))
	return event, nil
}

// RebuildLive republishes every tracking actor from the durable store
func (u *TrackingUC) RebuildLive(ctx context.Context) (int, error) {
	sctx, cancel := u.storageContext(ctx)
	states, err := u.repo.ListTrackingActors(sctx)
	cancel()
	if err != nil {
		return 0, err
	}

	published := 0
	for _, s := range states {
		if s.LatestSample == nil {
			continue
		}
		unlock := u.locks.Lock(s.ActorID)
		err := u.live.Publish(ctx, s)
		unlock()
		if err != nil {
			return published, err
		}
		published++
	}

	logger.InfoCtx(ctx, "Live layer rebuilt from durable store", logger.Int("actors", published))
	return published, nil
}

// Enrich computes distance, liveness and aggregate stats for a snapshot
func (u *TrackingUC) Enrich(states []*models.ActorLocationState, reference *models.GeoPoint) ([]models.LiveFeedEntry, models.ProximityStats) {
	entries := proximity.Resolve(states, reference, u.now(), u.cfg.OnlineThreshold)
	return entries, proximity.ComputeStats(entries)
}

func (u *TrackingUC) durableSnapshot(ctx context.Context, req models.FeedRequest) ([]*models.ActorLocationState, error) {
	sctx, cancel := u.storageContext(ctx)
	defer cancel()

	switch req.Scope {
	case models.ScopeSingle:
		state, err := u.repo.GetActorLocation(sctx, req.Target)
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return []*models.ActorLocationState{}, nil
		}
		if err != nil {
			return nil, err
		}
		if !state.IsTracking {
			return []*models.ActorLocationState{}, nil
		}
		return []*models.ActorLocationState{state}, nil
	case models.ScopeGroup:
		// Filter-strategy groups are defined by the directory, not the stored group id
		members, err := u.feeds.Members(ctx, req)
		if err != nil {
			return nil, err
		}
		states, err := u.repo.ListTrackingActors(sctx)
		if err != nil {
			return nil, err
		}
		out := make([]*models.ActorLocationState, 0, len(states))
		for _, s := range states {
			if (members != nil && members.Contains(s.ActorID)) || (members == nil && s.GroupID == req.Target) {
				out = append(out, s)
			}
		}
		return out, nil
	default:
		return u.repo.ListTrackingActors(sctx)
	}
}

func (u *TrackingUC) storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.cfg.StorageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, u.cfg.StorageTimeout)
}

func (u *TrackingUC) allow(actorID string) bool {
	if u.cfg.IngestRatePerSecond <= 0 {
		return true
	}
	u.limitersMu.Lock()
	entry, ok := u.limiters[actorID]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(u.cfg.IngestRatePerSecond), u.cfg.IngestBurst)}
		u.limiters[actorID] = entry
	}
	entry.lastSeen = u.now()
	limiter := entry.limiter
	u.limitersMu.Unlock()
	return limiter.Allow()
}

func (u *TrackingUC) sweepLimitersEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			u.sweepLimiters()
		case <-u.stopSweep:
			return
		}
	}
}

// sweepLimiters drops limiters of actors that sent nothing within LimiterIdleTTL
func (u *TrackingUC) sweepLimiters() int {
	threshold := u.now().Add(-u.cfg.LimiterIdleTTL)

	u.limitersMu.Lock()
	defer u.limitersMu.Unlock()
	removed := 0
	for actorID, entry := range u.limiters {
		if entry.lastSeen.Before(threshold) {
			delete(u.limiters, actorID)
			removed++
		}
	}
	return removed
}

func (u *TrackingUC) limiterCount() int {
	u.limitersMu.Lock()
	defer u.limitersMu.Unlock()
	return len(u.limiters)
}

func (u *TrackingUC) dropLimiter(actorID string) {
	u.limitersMu.Lock()
	delete(u.limiters, actorID)
	u.limitersMu.Unlock()
}

func validateSample(s models.LocationSample) error {
	if !utils.ValidCoordinate(s.Latitude, s.Longitude) {
		return apperrors.Validation("invalid coordinates (%v, %v)", s.Latitude, s.Longitude)
	}
	if s.Accuracy != nil && (*s.Accuracy < 0 || math.IsNaN(*s.Accuracy)) {
		return apperrors.Validation("accuracy must not be negative")
	}
	if s.Speed != nil && (*s.Speed < 0 || math.IsNaN(*s.Speed)) {
		return apperrors.Validation("speed must not be negative")
	}
	if s.Heading != nil && (*s.Heading < 0 || *s.Heading >= 360 || math.IsNaN(*s.Heading)) {
		return apperrors.Validation("heading must be within [0, 360)")
	}
	if s.CapturedAt < 0 {
		return apperrors.Validation("captured_at must not be negative")
	}
	return nil
}
