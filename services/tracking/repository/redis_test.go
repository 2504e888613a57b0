package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/piresc/tirtha/internal/pkg/constants"
	"github.com/piresc/tirtha/internal/pkg/database"
	apperrors "github.com/piresc/tirtha/internal/pkg/errors"
	"github.com/piresc/tirtha/internal/pkg/models"
	"github.com/piresc/tirtha/services/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T, txRetries int) (*RedisLocationRepo, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLocationRepo(&database.RedisClient{Client: client}, txRetries), mr
}

func moveTo(lat, lon float64, capturedAt int64) tracking.UpdateFunc {
	return func(current *models.ActorLocationState) (*models.ActorLocationState, error) {
		next := current.Clone()
		next.IsTracking = true
		next.LatestSample = &models.LocationSample{Latitude: lat, Longitude: lon, CapturedAt: capturedAt}
		return next, nil
	}
}

func TestRedis_UpdateAndGet(t *testing.T) {
	repo, mr := newRedisRepo(t, 3)
	ctx := context.Background()

	acc := 4.5
	state, err := repo.UpdateActorLocation(ctx, "a1", func(current *models.ActorLocationState) (*models.ActorLocationState, error) {
		assert.Nil(t, current.LatestSample)
		next := current.Clone()
		next.GroupID = "g1"
		next.IsTracking = true
		next.TotalDistanceMeters = 12.5
		next.LatestSample = &models.LocationSample{Latitude: 10, Longitude: 77, Accuracy: &acc, CapturedAt: 1000}
		return next, nil
	})
	require.NoError(t, err)
	assert.Len(t, state.Geohash, StoredGeohashPrecision)

	got, err := repo.GetActorLocation(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "g1", got.GroupID)
	assert.True(t, got.IsTracking)
	assert.Equal(t, 12.5, got.TotalDistanceMeters)
	require.NotNil(t, got.LatestSample)
	require.NotNil(t, got.LatestSample.Accuracy)
	assert.Equal(t, 4.5, *got.LatestSample.Accuracy)
	assert.Nil(t, got.LatestSample.Speed)
	assert.Equal(t, int64(1000), got.LatestSample.CapturedAt)

	members, err := mr.SMembers(constants.KeyTrackingActors)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, members)
}

func TestRedis_OptionalFieldsCleared(t *testing.T) {
	repo, _ := newRedisRepo(t, 3)
	ctx := context.Background()

	speed := 3.0
	_, err := repo.UpdateActorLocation(ctx, "a1", func(c *models.ActorLocationState) (*models.ActorLocationState, error) {
		next := c.Clone()
		next.LatestSample = &models.LocationSample{Latitude: 1, Longitude: 1, Speed: &speed, CapturedAt: 1}
		return next, nil
	})
	require.NoError(t, err)
	_, err = repo.UpdateActorLocation(ctx, "a1", moveTo(2, 2, 2))
	require.NoError(t, err)

	got, err := repo.GetActorLocation(ctx, "a1")
	require.NoError(t, err)
	assert.Nil(t, got.LatestSample.Speed)
}

func TestRedis_UpdateFuncErrorIsReturned(t *testing.T) {
	repo, _ := newRedisRepo(t, 3)
	_, err := repo.UpdateActorLocation(context.Background(), "a1", func(*models.ActorLocationState) (*models.ActorLocationState, error) {
		return nil, apperrors.Validation("nope")
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = repo.GetActorLocation(context.Background(), "a1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRedis_SetTracking(t *testing.T) {
	repo, mr := newRedisRepo(t, 3)
	ctx := context.Background()

	_, err := repo.SetTracking(ctx, "ghost", false)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = repo.UpdateActorLocation(ctx, "a1", moveTo(10, 77, 1))
	require.NoError(t, err)

	state, err := repo.SetTracking(ctx, "a1", false)
	require.NoError(t, err)
	assert.False(t, state.IsTracking)
	require.NotNil(t, state.LatestSample)
	assert.Equal(t, 10.0, state.LatestSample.Latitude)

	members, _ := mr.SMembers(constants.KeyTrackingActors)
	assert.Empty(t, members)

	list, err := repo.ListTrackingActors(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRedis_ListTrackingActors(t *testing.T) {
	repo, _ := newRedisRepo(t, 3)
	ctx := context.Background()
	for _, id := range []string{"b", "a", "c"} {
		_, err := repo.UpdateActorLocation(ctx, id, moveTo(1, 1, 1))
		require.NoError(t, err)
	}

	list, err := repo.ListTrackingActors(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].ActorID)
	assert.Equal(t, "c", list[2].ActorID)
}

func TestRedis_FindNearby(t *testing.T) {
	repo, _ := newRedisRepo(t, 3)
	ctx := context.Background()

	_, err := repo.UpdateActorLocation(ctx, "near", moveTo(10.001, 77.001, 1))
	require.NoError(t, err)
	_, err = repo.UpdateActorLocation(ctx, "far", moveTo(11, 78, 1))
	require.NoError(t, err)
	_, err = repo.UpdateActorLocation(ctx, "stopped", moveTo(10, 77.0005, 1))
	require.NoError(t, err)
	_, err = repo.SetTracking(ctx, "stopped", false)
	require.NoError(t, err)

	states, err := repo.FindNearby(ctx, models.GeoPoint{Latitude: 10, Longitude: 77}, 1000)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "near", states[0].ActorID)
}

func TestRedis_ConcurrentUpdatesAreSerialized(t *testing.T) {
	repo, _ := newRedisRepo(t, 200)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateActorLocation(ctx, "a1", func(c *models.ActorLocationState) (*models.ActorLocationState, error) {
				next := c.Clone()
				next.TotalDistanceMeters++
				next.LatestSample = &models.LocationSample{Latitude: 1, Longitude: 1, CapturedAt: 1}
				return next, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetActorLocation(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, float64(writers), got.TotalDistanceMeters)
}

func TestRedis_ConnectionFailure(t *testing.T) {
	repo, mr := newRedisRepo(t, 0)
	mr.Close()

	_, err := repo.GetActorLocation(context.Background(), "a1")
	assert.Error(t, err)
	assert.False(t, apperrors.Is(err, apperrors.ErrNotFound))
}
