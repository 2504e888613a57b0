package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/golang/mock/gomock"
	"github.com/piresc/tirtha/internal/pkg/database"
	apperrors "github.com/piresc/tirtha/internal/pkg/errors"
	"github.com/piresc/tirtha/internal/pkg/models"
	"github.com/piresc/tirtha/internal/utils"
	"github.com/piresc/tirtha/services/tracking"
	"github.com/piresc/tirtha/services/tracking/live"
	"github.com/piresc/tirtha/services/tracking/mocks"
	"github.com/piresc/tirtha/services/tracking/repository"
	"github.com/piresc/tirtha/services/tracking/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	uc    *TrackingUC
	live  *live.Broadcaster
	feeds *subscription.Manager
	repo  *repository.RedisLocationRepo
}

func newHarness(t *testing.T, directory tracking.GroupDirectory, cfg Config) *harness {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := repository.NewRedisLocationRepo(&database.RedisClient{Client: client}, 50)
	b := live.NewBroadcaster()
	t.Cleanup(b.Close)
	feeds := subscription.NewManager(b, directory, subscription.Config{})
	t.Cleanup(feeds.CloseAll)

	uc := NewTrackingUC(repo, b, feeds, nil, cfg)
	t.Cleanup(uc.Close)

	return &harness{
		uc:    uc,
		live:  b,
		feeds: feeds,
		repo:  repo,
	}
}

func sampleAt(lat, lon float64, capturedAt int64) models.LocationSample {
	return models.LocationSample{Latitude: lat, Longitude: lon, CapturedAt: capturedAt}
}

func TestRecordSample_ConcreteScenario(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	directory := mocks.NewMockGroupDirectory(ctrl)
	directory.EXPECT().ResolveMembers(gomock.Any(), "g1").
		Return(models.NewGroupMembership("g1", []string{"A", "B"}), nil)

	h := newHarness(t, directory, Config{})
	ctx := context.Background()
	t0 := time.Now().UnixMilli()

	first, err := h.uc.RecordSample(ctx, "A", models.ActorProfile{GroupID: "g1"}, sampleAt(10.0, 77.0, t0))
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.DeltaMeters)

	second, err := h.uc.RecordSample(ctx, "A", models.ActorProfile{GroupID: "g1"}, sampleAt(10.001, 77.001, t0+1000))
	require.NoError(t, err)
	assert.InDelta(t, 156, second.DeltaMeters, 2)
	assert.InDelta(t, second.DeltaMeters, second.TotalDistanceMeters, 1e-9)

	state, err := h.uc.GetCurrentLocation(ctx, "A")
	require.NoError(t, err)
	assert.True(t, state.IsTracking)

	var mu sync.Mutex
	seen := map[string]bool{}
	req := models.FeedRequest{Scope: models.ScopeGroup, Target: "g1", Strategy: models.StrategyFilter}
	require.NoError(t, h.feeds.Open(ctx, "operator", req, func(u models.FeedUpdate) {
		mu.Lock()
		defer mu.Unlock()
		for _, s := range u.States {
			seen[s.ActorID] = true
		}
	}))

	var wg sync.WaitGroup
	for _, id := range []string{"B", "C"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := h.uc.RecordSample(ctx, id, models.ActorProfile{GroupID: "g1"}, sampleAt(10.002, 77.002, t0+2000))
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["A"] && seen["B"]
	}, time.Second, 5*time.Millisecond)

	h.feeds.Close("operator")
	mu.Lock()
	defer mu.Unlock()
	assert.False(t, seen["C"])
}

func TestRecordSample_OdometerSumsConsecutiveDeltas(t *testing.T) {
	h := newHarness(t, nil, Config{})
	ctx := context.Background()

	path := []models.GeoPoint{
		{Latitude: -6.2000, Longitude: 106.8166},
		{Latitude: -6.2010, Longitude: 106.8170},
		{Latitude: -6.2030, Longitude: 106.8190},
		{Latitude: -6.2031, Longitude: 106.8250},
		{Latitude: -6.1990, Longitude: 106.8300},
	}

	var expected float64
	var result *models.RecordResult
	for i, p := range path {
		if i > 0 {
			expected += utils.DistanceBetween(path[i-1], p)
		}
		var err error
		result, err = h.uc.RecordSample(ctx, "a1", models.ActorProfile{}, sampleAt(p.Latitude, p.Longitude, int64(1000+i)))
		require.NoError(t, err)
	}
	assert.InDelta(t, expected, result.TotalDistanceMeters, 1e-6)
}

func TestStopTracking_KeepsSampleAndOdometer(t *testing.T) {
	h := newHarness(t, nil, Config{})
	ctx := context.Background()

	_, err := h.uc.RecordSample(ctx, "a1", models.ActorProfile{GroupID: "g1"}, sampleAt(10, 77, 1))
	require.NoError(t, err)
	last, err := h.uc.RecordSample(ctx, "a1", models.ActorProfile{}, sampleAt(10.001, 77.001, 2))
	require.NoError(t, err)

	require.NoError(t, h.uc.StopTracking(ctx, "a1"))

	state, err := h.uc.GetCurrentLocation(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, state.IsTracking)
	require.NotNil(t, state.LatestSample)
	assert.Equal(t, 10.001, state.LatestSample.Latitude)
	assert.InDelta(t, last.TotalDistanceMeters, state.TotalDistanceMeters, 1e-9)

	all, err := h.live.Snapshot(live.GlobalPrefix)
	require.NoError(t, err)
	assert.Empty(t, all)
	group, err := h.live.Snapshot(live.GroupPrefix("g1"))
	require.NoError(t, err)
	assert.Empty(t, group)
}

func TestRecordSample_ResumeAfterStopAddsNoDelta(t *testing.T) {
	h := newHarness(t, nil, Config{})
	ctx := context.Background()

	_, err := h.uc.RecordSample(ctx, "a1", models.ActorProfile{}, sampleAt(10, 77, 1))
	require.NoError(t, err)
	moved, err := h.uc.RecordSample(ctx, "a1", models.ActorProfile{}, sampleAt(10.001, 77.001, 2))
	require.NoError(t, err)
	require.NoError(t, h.uc.StopTracking(ctx, "a1"))

	resumed, err := h.uc.RecordSample(ctx, "a1", models.ActorProfile{}, sampleAt(11, 78, 3))
	require.NoError(t, err)
	assert.Equal(t, 0.0, resumed.DeltaMeters)
	assert.InDelta(t, moved.TotalDistanceMeters, resumed.TotalDistanceMeters, 1e-9)
}

func TestRecordSample_ConcurrentWritesNeverLoseDistance(t *testing.T) {
	h := newHarness(t, nil, Config{})
	ctx := context.Background()

	var (
		mu     sync.Mutex
		deltas float64
		wg     sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lat := 10 + float64(i%2)*0.001
			res, err := h.uc.RecordSample(ctx, "a1", models.ActorProfile{}, sampleAt(lat, 77, int64(i+1)))
			if assert.NoError(t, err) {
				mu.Lock()
				deltas += res.DeltaMeters
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	state, err := h.uc.GetCurrentLocation(ctx, "a1")
	require.NoError(t, err)
	assert.InDelta(t, deltas, state.TotalDistanceMeters, 1e-6)
}

func TestRecordSample_OutOfOrderSampleIsSuperseded(t *testing.T) {
	h := newHarness(t, nil, Config{})
	ctx := context.Background()

	var got []models.FeedUpdate
	var mu sync.Mutex
	_, err := h.uc.RecordSample(ctx, "a1", models.ActorProfile{}, sampleAt(10, 77, 1000))
	require.NoError(t, err)
	latest, err := h.uc.RecordSample(ctx, "a1", models.ActorProfile{}, sampleAt(10.001, 77.001, 3000))
	require.NoError(t, err)
	assert.InDelta(t, 156, latest.TotalDistanceMeters, 2)

	require.NoError(t, h.feeds.Open(ctx, "watcher", models.FeedRequest{Scope: models.ScopeSingle, Target: "a1"}, func(u models.FeedUpdate) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, u)
	}))
	defer h.feeds.Close("watcher")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0 && got[len(got)-1].Entry != nil
	}, time.Second, 5*time.Millisecond)

	// A redelivered sample captured between the two stored ones
	late, err := h.uc.RecordSample(ctx, "a1", models.ActorProfile{}, sampleAt(10.002, 77.0, 2000))
	require.NoError(t, err)
	assert.True(t, late.Superseded)
	assert.Equal(t, 0.0, late.DeltaMeters)
	assert.Equal(t, int64(3000), late.LatestSample.CapturedAt)
	assert.InDelta(t, latest.TotalDistanceMeters, late.TotalDistanceMeters, 1e-9)

	state, err := h.uc.GetCurrentLocation(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), state.LatestSample.CapturedAt)
	assert.Equal(t, 10.001, state.LatestSample.Latitude)
	assert.InDelta(t, latest.TotalDistanceMeters, state.TotalDistanceMeters, 1e-9)

	current, err := h.live.Snapshot(live.ActorKey("a1"))
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, int64(3000), current[0].LatestSample.CapturedAt)

	// Same timestamp is not out of order
	same, err := h.uc.RecordSample(ctx, "a1", models.ActorProfile{}, sampleAt(10.001, 77.001, 3000))
	require.NoError(t, err)
	assert.False(t, same.Superseded)
}

func TestRecordSample_FirstSampleZeroDelta(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLocationRepo(ctrl)
	publisher := mocks.NewMockLivePublisher(ctrl)
	feeds := mocks.NewMockFeedManager(ctrl)

	repo.EXPECT().UpdateActorLocation(gomock.Any(), "a1", gomock.Any()).
		DoAndReturn(func(_ context.Context, actorID string, fn tracking.UpdateFunc) (*models.ActorLocationState, error) {
			return fn(&models.ActorLocationState{ActorID: actorID})
		})
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	uc := NewTrackingUC(repo, publisher, feeds, nil, Config{})
	res, err := uc.RecordSample(context.Background(), "a1", models.ActorProfile{}, sampleAt(10, 77, 5))
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.DeltaMeters)
	assert.Equal(t, 0.0, res.TotalDistanceMeters)
	assert.Equal(t, int64(5), res.LatestSample.CapturedAt)
}

func TestRecordSample_DefaultsCapturedAt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLocationRepo(ctrl)
	publisher := mocks.NewMockLivePublisher(ctrl)
	repo.EXPECT().UpdateActorLocation(gomock.Any(), "a1", gomock.Any()).
		DoAndReturn(func(_ context.Context, actorID string, fn tracking.UpdateFunc) (*models.ActorLocationState, error) {
			return fn(&models.ActorLocationState{ActorID: actorID})
		})
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	uc := NewTrackingUC(repo, publisher, mocks.NewMockFeedManager(ctrl), nil, Config{})
	uc.now = func() time.Time { return time.UnixMilli(42_000) }

	res, err := uc.RecordSample(context.Background(), "a1", models.ActorProfile{}, models.LocationSample{Latitude: 1, Longitude: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(42_000), res.LatestSample.CapturedAt)
}

func TestRecordSample_ValidationRejectsBeforeStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc := NewTrackingUC(mocks.NewMockLocationRepo(ctrl), mocks.NewMockLivePublisher(ctrl), mocks.NewMockFeedManager(ctrl), nil, Config{})
	negative := -1.0
	heading := 360.0

	tests := []struct {
		name    string
		actorID string
		sample  models.LocationSample
	}{
		{"missing actor", "", sampleAt(1, 1, 1)},
		{"latitude out of range", "a1", sampleAt(91, 1, 1)},
		{"longitude out of range", "a1", sampleAt(1, -181, 1)},
		{"negative accuracy", "a1", models.LocationSample{Latitude: 1, Longitude: 1, Accuracy: &negative}},
		{"negative speed", "a1", models.LocationSample{Latitude: 1, Longitude: 1, Speed: &negative}},
		{"heading out of range", "a1", models.LocationSample{Latitude: 1, Longitude: 1, Heading: &heading}},
		{"negative timestamp", "a1", sampleAt(1, 1, -5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.RecordSample(context.Background(), tt.actorID, models.ActorProfile{}, tt.sample)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestRecordSample_StorageTimeoutSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLocationRepo(ctrl)
	repo.EXPECT().UpdateActorLocation(gomock.Any(), "a1", gomock.Any()).
		Return(nil, apperrors.Storage("update actor location", context.DeadlineExceeded))

	uc := NewTrackingUC(repo, mocks.NewMockLivePublisher(ctrl), mocks.NewMockFeedManager(ctrl), nil, Config{StorageTimeout: time.Second})
	_, err := uc.RecordSample(context.Background(), "a1", models.ActorProfile{}, sampleAt(1, 1, 1))
	assert.ErrorIs(t, err, apperrors.ErrStorageTimeout)
}

func TestRecordSample_StorageDeadlineApplied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLocationRepo(ctrl)
	repo.EXPECT().UpdateActorLocation(gomock.Any(), "a1", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ tracking.UpdateFunc) (*models.ActorLocationState, error) {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			<-ctx.Done()
			return nil, apperrors.Storage("update actor location", ctx.Err())
		})

	uc := NewTrackingUC(repo, mocks.NewMockLivePublisher(ctrl), mocks.NewMockFeedManager(ctrl), nil, Config{StorageTimeout: 10 * time.Millisecond})
	_, err := uc.RecordSample(context.Background(), "a1", models.ActorProfile{}, sampleAt(1, 1, 1))
	assert.ErrorIs(t, err, apperrors.ErrStorageTimeout)
}

func TestRecordSample_LiveFailureDoesNotFailWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLocationRepo(ctrl)
	publisher := mocks.NewMockLivePublisher(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)

	repo.EXPECT().UpdateActorLocation(gomock.Any(), "a1", gomock.Any()).
		DoAndReturn(func(_ context.Context, actorID string, fn tracking.UpdateFunc) (*models.ActorLocationState, error) {
			return fn(&models.ActorLocationState{ActorID: actorID})
		})
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(apperrors.ErrLiveLayerUnavailable)
	notifier.EXPECT().PublishLocationChanged(gomock.Any(), gomock.Any()).Return(errors.New("nats down"))

	uc := NewTrackingUC(repo, publisher, mocks.NewMockFeedManager(ctrl), notifier, Config{LocationEvents: true})
	res, err := uc.RecordSample(context.Background(), "a1", models.ActorProfile{}, sampleAt(1, 1, 1))
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestRecordSample_RateLimited(t *testing.T) {
	h := newHarness(t, nil, Config{IngestRatePerSecond: 0.001, IngestBurst: 1})
	ctx := context.Background()

	_, err := h.uc.RecordSample(ctx, "a1", models.ActorProfile{}, sampleAt(1, 1, 1))
	require.NoError(t, err)
	_, err = h.uc.RecordSample(ctx, "a1", models.ActorProfile{}, sampleAt(1, 1, 2))
	assert.ErrorIs(t, err, apperrors.ErrRateLimited)

	// Other actors have their own budget
	_, err = h.uc.RecordSample(ctx, "a2", models.ActorProfile{}, sampleAt(1, 1, 1))
	assert.NoError(t, err)

	// Stopping resets the actor's budget
	require.NoError(t, h.uc.StopTracking(ctx, "a1"))
	_, err = h.uc.RecordSample(ctx, "a1", models.ActorProfile{}, sampleAt(1, 1, 3))
	assert.NoError(t, err)
}

func TestSweepLimiters_DropsIdleActors(t *testing.T) {
	h := newHarness(t, nil, Config{IngestRatePerSecond: 100, IngestBurst: 10, LimiterIdleTTL: time.Hour})
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		_, err := h.uc.RecordSample(ctx, fmt.Sprintf("pilgrim-%d", i), models.ActorProfile{}, sampleAt(1, 1, 1))
		require.NoError(t, err)
	}
	assert.Equal(t, 200, h.uc.limiterCount())

	later := time.Now().Add(2 * time.Hour)
	h.uc.now = func() time.Time { return later }
	_, err := h.uc.RecordSample(ctx, "active", models.ActorProfile{}, sampleAt(1, 1, 1))
	require.NoError(t, err)

	assert.Equal(t, 200, h.uc.sweepLimiters())
	assert.Equal(t, 1, h.uc.limiterCount())

	// A swept actor starts over with a fresh budget
	_, err = h.uc.RecordSample(ctx, "pilgrim-0", models.ActorProfile{}, sampleAt(1, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, h.uc.limiterCount())
}

func TestSweepLimiters_RunsUntilClose(t *testing.T) {
	h := newHarness(t, nil, Config{
		IngestRatePerSecond:  100,
		LimiterIdleTTL:       time.Millisecond,
		LimiterSweepInterval: 5 * time.Millisecond,
	})
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := h.uc.RecordSample(ctx, id, models.ActorProfile{}, sampleAt(1, 1, 1))
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool { return h.uc.limiterCount() == 0 }, time.Second, 5*time.Millisecond)

	h.uc.Close()
	h.uc.Close()
}

func TestStopTracking_UnknownActorIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLocationRepo(ctrl)
	repo.EXPECT().SetTracking(gomock.Any(), "ghost", false).Return(nil, apperrors.NotFound("actor", "ghost"))

	uc := NewTrackingUC(repo, mocks.NewMockLivePublisher(ctrl), mocks.NewMockFeedManager(ctrl), nil, Config{})
	assert.NoError(t, uc.StopTracking(context.Background(), "ghost"))
}

func TestStopTracking_StorageErrorSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLocationRepo(ctrl)
	repo.EXPECT().SetTracking(gomock.Any(), "a1", false).Return(nil, apperrors.Storage("set tracking", context.DeadlineExceeded))

	uc := NewTrackingUC(repo, mocks.NewMockLivePublisher(ctrl), mocks.NewMockFeedManager(ctrl), nil, Config{})
	assert.ErrorIs(t, uc.StopTracking(context.Background(), "a1"), apperrors.ErrStorageTimeout)
}

func TestGetCurrentLocation_NotFound(t *testing.T) {
	h := newHarness(t, nil, Config{})
	_, err := h.uc.GetCurrentLocation(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProximity_FromLiveLayer(t *testing.T) {
	h := newHarness(t, nil, Config{})
	ctx := context.Background()
	now := time.Now().UnixMilli()

	_, err := h.uc.RecordSample(ctx, "far", models.ActorProfile{}, sampleAt(10.1, 77.1, now))
	require.NoError(t, err)
	_, err = h.uc.RecordSample(ctx, "near", models.ActorProfile{}, sampleAt(10.001, 77.001, now))
	require.NoError(t, err)
	_, err = h.uc.RecordSample(ctx, "stale", models.ActorProfile{}, sampleAt(10.01, 77.01, now-time.Hour.Milliseconds()))
	require.NoError(t, err)

	entries, stats, err := h.uc.Proximity(ctx, models.FeedRequest{Scope: models.ScopeGlobal}, &models.GeoPoint{Latitude: 10, Longitude: 77})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "near", entries[0].ActorID)
	assert.Equal(t, "stale", entries[1].ActorID)
	assert.Equal(t, "far", entries[2].ActorID)
	assert.Equal(t, 3, stats.TotalCount)
	assert.Equal(t, 2, stats.OnlineCount)
	assert.Equal(t, 3, stats.TrackingCount)
	assert.Greater(t, stats.AverageDistance, 0.0)
}

func TestProximity_InvalidReference(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc := NewTrackingUC(mocks.NewMockLocationRepo(ctrl), mocks.NewMockLivePublisher(ctrl), mocks.NewMockFeedManager(ctrl), nil, Config{})
	_, _, err := uc.Proximity(context.Background(), models.FeedRequest{Scope: models.ScopeGlobal}, &models.GeoPoint{Latitude: 100})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestProximity_FallsBackToDurableStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLocationRepo(ctrl)
	feeds := mocks.NewMockFeedManager(ctrl)
	req := models.FeedRequest{Scope: models.ScopeGroup, Target: "g1"}

	feeds.EXPECT().Snapshot(gomock.Any(), req).Return(nil, apperrors.ErrLiveLayerUnavailable)
	feeds.EXPECT().Members(gomock.Any(), req).Return(nil, nil)
	repo.EXPECT().ListTrackingActors(gomock.Any()).Return([]*models.ActorLocationState{
		{ActorID: "a", GroupID: "g1", IsTracking: true, LatestSample: &models.LocationSample{Latitude: 1, Longitude: 1}},
		{ActorID: "b", GroupID: "g2", IsTracking: true, LatestSample: &models.LocationSample{Latitude: 1, Longitude: 1}},
	}, nil)

	uc := NewTrackingUC(repo, mocks.NewMockLivePublisher(ctrl), feeds, nil, Config{})
	entries, stats, err := uc.Proximity(context.Background(), req, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].ActorID)
	assert.Equal(t, 0.0, stats.AverageDistance)
}

func TestProximity_FilterFallbackUsesMembership(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLocationRepo(ctrl)
	feeds := mocks.NewMockFeedManager(ctrl)
	req := models.FeedRequest{Scope: models.ScopeGroup, Target: "g1", Strategy: models.StrategyFilter}
	here := &models.LocationSample{Latitude: 1, Longitude: 1}

	feeds.EXPECT().Snapshot(gomock.Any(), req).Return(nil, apperrors.ErrLiveLayerUnavailable)
	feeds.EXPECT().Members(gomock.Any(), req).Return(models.NewGroupMembership("g1", []string{"a", "c"}), nil)
	repo.EXPECT().ListTrackingActors(gomock.Any()).Return([]*models.ActorLocationState{
		{ActorID: "a", GroupID: "g1", IsTracking: true, LatestSample: here},
		{ActorID: "b", GroupID: "g1", IsTracking: true, LatestSample: here},
		{ActorID: "c", GroupID: "g2", IsTracking: true, LatestSample: here},
	}, nil)

	uc := NewTrackingUC(repo, mocks.NewMockLivePublisher(ctrl), feeds, nil, Config{})
	entries, _, err := uc.Proximity(context.Background(), req, nil)
	require.NoError(t, err)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ActorID)
	}
	assert.ElementsMatch(t, []string{"a", "c"}, ids)
}

func TestProximity_FilterFallbackDirectoryErrorSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	feeds := mocks.NewMockFeedManager(ctrl)
	req := models.FeedRequest{Scope: models.ScopeGroup, Target: "g1", Strategy: models.StrategyFilter}
	feeds.EXPECT().Snapshot(gomock.Any(), req).Return(nil, apperrors.ErrLiveLayerUnavailable)
	feeds.EXPECT().Members(gomock.Any(), req).Return(nil, errors.New("directory down"))

	uc := NewTrackingUC(mocks.NewMockLocationRepo(ctrl), mocks.NewMockLivePublisher(ctrl), feeds, nil, Config{})
	_, _, err := uc.Proximity(context.Background(), req, nil)
	assert.Error(t, err)
}

func TestProximity_SingleFallbackSkipsStoppedActor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLocationRepo(ctrl)
	feeds := mocks.NewMockFeedManager(ctrl)
	req := models.FeedRequest{Scope: models.ScopeSingle, Target: "a"}

	feeds.EXPECT().Snapshot(gomock.Any(), req).Return(nil, apperrors.ErrLiveLayerUnavailable).Times(2)
	gomock.InOrder(
		repo.EXPECT().GetActorLocation(gomock.Any(), "a").Return(&models.ActorLocationState{ActorID: "a"}, nil),
		repo.EXPECT().GetActorLocation(gomock.Any(), "a").Return(nil, apperrors.NotFound("actor", "a")),
	)

	uc := NewTrackingUC(repo, mocks.NewMockLivePublisher(ctrl), feeds, nil, Config{})
	for i := 0; i < 2; i++ {
		entries, _, err := uc.Proximity(context.Background(), req, nil)
		require.NoError(t, err)
		assert.Empty(t, entries)
	}
}

func TestNearby(t *testing.T) {
	h := newHarness(t, nil, Config{})
	ctx := context.Background()
	now := time.Now().UnixMilli()

	_, err := h.uc.RecordSample(ctx, "near", models.ActorProfile{}, sampleAt(10.001, 77.001, now))
	require.NoError(t, err)
	_, err = h.uc.RecordSample(ctx, "far", models.ActorProfile{}, sampleAt(10.05, 77.05, now))
	require.NoError(t, err)

	entries, err := h.uc.Nearby(ctx, models.GeoPoint{Latitude: 10, Longitude: 77}, 500)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "near", entries[0].ActorID)
	assert.True(t, entries[0].IsOnline)

	_, err = h.uc.Nearby(ctx, models.GeoPoint{Latitude: 10, Longitude: 77}, 0)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = h.uc.Nearby(ctx, models.GeoPoint{Latitude: 95, Longitude: 77}, 10)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestReportEmergency(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLocationRepo(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)

	repo.EXPECT().GetActorLocation(gomock.Any(), "a1").Return(&models.ActorLocationState{
		ActorID:             "a1",
		GroupID:             "g1",
		TotalDistanceMeters: 12,
		LatestSample:        &models.LocationSample{Latitude: 10, Longitude: 77, CapturedAt: 1},
	}, nil)
	notifier.EXPECT().PublishEmergency(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event *models.LocationEvent) error {
			assert.Equal(t, EventEmergency, event.Type)
			assert.Equal(t, "g1", event.GroupID)
			assert.Equal(t, "Asha", event.DisplayName)
			assert.Equal(t, "help", event.Message)
			assert.NotEmpty(t, event.EventID)
			return nil
		})

	uc := NewTrackingUC(repo, mocks.NewMockLivePublisher(ctrl), mocks.NewMockFeedManager(ctrl), notifier, Config{})
	event, err := uc.ReportEmergency(context.Background(), "a1", models.ActorProfile{DisplayName: "Asha"}, nil, "help")
	require.NoError(t, err)
	assert.Equal(t, 10.0, event.Latitude)
}

func TestReportEmergency_NotifierErrorSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLocationRepo(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)
	repo.EXPECT().GetActorLocation(gomock.Any(), "a1").Return(&models.ActorLocationState{
		ActorID:      "a1",
		LatestSample: &models.LocationSample{Latitude: 10, Longitude: 77},
	}, nil)
	notifier.EXPECT().PublishEmergency(gomock.Any(), gomock.Any()).Return(errors.New("nats down"))

	uc := NewTrackingUC(repo, mocks.NewMockLivePublisher(ctrl), mocks.NewMockFeedManager(ctrl), notifier, Config{})
	_, err := uc.ReportEmergency(context.Background(), "a1", models.ActorProfile{}, nil, "")
	assert.Error(t, err)
}

func TestReportEmergency_RecordsSuppliedSample(t *testing.T) {
	h := newHarness(t, nil, Config{})
	ctx := context.Background()

	sample := sampleAt(-8.65, 115.21, time.Now().UnixMilli())
	event, err := h.uc.ReportEmergency(ctx, "a1", models.ActorProfile{GroupID: "g1"}, &sample, "lost")
	require.NoError(t, err)
	assert.Equal(t, -8.65, event.Latitude)

	state, err := h.uc.GetCurrentLocation(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, state.IsTracking)

	_, err = h.uc.ReportEmergency(ctx, "ghost", models.ActorProfile{}, nil, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRebuildLive(t *testing.T) {
	h := newHarness(t, nil, Config{})
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := h.uc.RecordSample(ctx, id, models.ActorProfile{GroupID: "g1"}, sampleAt(1, 1, 1))
		require.NoError(t, err)
	}
	require.NoError(t, h.uc.StopTracking(ctx, "c"))

	fresh := live.NewBroadcaster()
	defer fresh.Close()
	uc := NewTrackingUC(h.repo, fresh, subscription.NewManager(fresh, nil, subscription.Config{}), nil, Config{})

	n, err := uc.RebuildLive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	group, err := fresh.Snapshot(live.GroupPrefix("g1"))
	require.NoError(t, err)
	assert.Len(t, group, 2)
}
