package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/piresc/tirtha/internal/pkg/constants"
	"github.com/piresc/tirtha/internal/pkg/database"
	apperrors "github.com/piresc/tirtha/internal/pkg/errors"
	"github.com/piresc/tirtha/internal/pkg/models"
	"github.com/piresc/tirtha/internal/pkg/retry"
	"github.com/piresc/tirtha/internal/utils"
	"github.com/piresc/tirtha/services/tracking"
)

// RedisLocationRepo keeps each actor in a hash, with a set of tracking actors
// and a geo set of last positions alongside
type RedisLocationRepo struct {
	client  *redis.Client
	retrier *retry.Retrier
	now     func() time.Time
}

// NewRedisLocationRepo creates a Redis backed location repository. txRetries
// bounds how often an optimistic transaction is replayed after a concurrent write.
func NewRedisLocationRepo(redisClient *database.RedisClient, txRetries int) *RedisLocationRepo {
	cfg := retry.Config{
		MaxRetries: txRetries,
		BaseDelay:  5 * time.Millisecond,
		MaxDelay:   100 * time.Millisecond,
		Multiplier: 2,
		Jitter:     true,
		RetryableFunc: func(err error) bool {
			return errors.Is(err, redis.TxFailedErr)
		},
	}
	return &RedisLocationRepo{
		client:  redisClient.GetClient(),
		retrier: retry.New(cfg, nil),
		now:     time.Now,
	}
}

func actorKey(actorID string) string {
	return fmt.Sprintf(constants.KeyActorLocation, actorID)
}

// domainError marks an error raised by the caller's update function so it is
// returned as is rather than classified as a storage failure
type domainError struct{ err error }

func (e domainError) Error() string { return e.err.Error() }
func (e domainError) Unwrap() error { return e.err }

// UpdateActorLocation watches the actor's hash and replays fn when another
// writer commits first
func (r *RedisLocationRepo) UpdateActorLocation(ctx context.Context, actorID string, fn tracking.UpdateFunc) (*models.ActorLocationState, error) {
	key := actorKey(actorID)
	var result *models.ActorLocationState

	txf := func(tx *redis.Tx) error {
		values, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		current := stateFromHash(actorID, values)

		next, err := fn(current)
		if err != nil {
			return domainError{err}
		}
		next = next.Clone()
		next.ActorID = actorID
		next.UpdatedAt = r.now().UTC()
		next.Geohash = ""
		if next.LatestSample != nil {
			next.Geohash = utils.EncodeGeohash(next.LatestSample.Latitude, next.LatestSample.Longitude, StoredGeohashPrecision)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, stateToHash(next))
			var cleared []string
			if next.LatestSample != nil {
				if next.LatestSample.Accuracy == nil {
					cleared = append(cleared, constants.FieldAccuracy)
				}
				if next.LatestSample.Speed == nil {
					cleared = append(cleared, constants.FieldSpeed)
				}
				if next.LatestSample.Heading == nil {
					cleared = append(cleared, constants.FieldHeading)
				}
				pipe.GeoAdd(ctx, constants.KeyActorGeo, &redis.GeoLocation{
					Name:      actorID,
					Longitude: next.LatestSample.Longitude,
					Latitude:  next.LatestSample.Latitude,
				})
			}
			if len(cleared) > 0 {
				pipe.HDel(ctx, key, cleared...)
			}
			if next.IsTracking {
				pipe.SAdd(ctx, constants.KeyTrackingActors, actorID)
			} else {
				pipe.SRem(ctx, constants.KeyTrackingActors, actorID)
			}
			return nil
		})
		if err != nil {
			return err
		}
		result = next
		return nil
	}

	err := r.retrier.Execute(ctx, func(ctx context.Context) error {
		return r.client.Watch(ctx, txf, key)
	})
	if err != nil {
		var de domainError
		if errors.As(err, &de) {
			return nil, de.err
		}
		return nil, apperrors.Storage("update actor location", err)
	}
	return result, nil
}

// SetTracking flips the tracking flag, leaving position and odometer untouched
func (r *RedisLocationRepo) SetTracking(ctx context.Context, actorID string, isTracking bool) (*models.ActorLocationState, error) {
	key := actorKey(actorID)
	var result *models.ActorLocationState

	txf := func(tx *redis.Tx) error {
		values, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(values) == 0 {
			return domainError{apperrors.NotFound("actor", actorID)}
		}
		state := stateFromHash(actorID, values)
		state.IsTracking = isTracking
		state.UpdatedAt = r.now().UTC()

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				constants.FieldTracking, strconv.FormatBool(isTracking),
				constants.FieldUpdatedAt, state.UpdatedAt.Format(time.RFC3339Nano))
			if isTracking {
				pipe.SAdd(ctx, constants.KeyTrackingActors, actorID)
			} else {
				pipe.SRem(ctx, constants.KeyTrackingActors, actorID)
			}
			return nil
		})
		if err != nil {
			return err
		}
		result = state
		return nil
	}

	err := r.retrier.Execute(ctx, func(ctx context.Context) error {
		return r.client.Watch(ctx, txf, key)
	})
	if err != nil {
		var de domainError
		if errors.As(err, &de) {
			return nil, de.err
		}
		return nil, apperrors.Storage("set tracking", err)
	}
	return result, nil
}

// GetActorLocation returns the durable state of one actor
func (r *RedisLocationRepo) GetActorLocation(ctx context.Context, actorID string) (*models.ActorLocationState, error) {
	values, err := r.client.HGetAll(ctx, actorKey(actorID)).Result()
	if err != nil {
		return nil, apperrors.Storage("get actor location", err)
	}
	if len(values) == 0 {
		return nil, apperrors.NotFound("actor", actorID)
	}
	return stateFromHash(actorID, values), nil
}

// ListTrackingActors returns every actor currently sharing its location, ordered by id
func (r *RedisLocationRepo) ListTrackingActors(ctx context.Context) ([]*models.ActorLocationState, error) {
	ids, err := r.client.SMembers(ctx, constants.KeyTrackingActors).Result()
	if err != nil {
		return nil, apperrors.Storage("list tracking actors", err)
	}
	sort.Strings(ids)
	return r.load(ctx, ids, false)
}

// FindNearby returns tracking actors whose last position lies within radiusMeters of center
func (r *RedisLocationRepo) FindNearby(ctx context.Context, center models.GeoPoint, radiusMeters float64) ([]*models.ActorLocationState, error) {
	locations, err := r.client.GeoRadius(ctx, constants.KeyActorGeo, center.Longitude, center.Latitude, &redis.GeoRadiusQuery{
		Radius: radiusMeters,
		Unit:   "m",
		Sort:   "ASC",
	}).Result()
	if err != nil {
		return nil, apperrors.Storage("find nearby", err)
	}

	ids := make([]string, 0, len(locations))
	for _, loc := range locations {
		ids = append(ids, loc.Name)
	}
	return r.load(ctx, ids, true)
}

func (r *RedisLocationRepo) load(ctx context.Context, ids []string, trackingOnly bool) ([]*models.ActorLocationState, error) {
	if len(ids) == 0 {
		return []*models.ActorLocationState{}, nil
	}

	cmds := make([]*redis.StringStringMapCmd, len(ids))
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, actorKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Storage("load actor locations", err)
	}

	out := make([]*models.ActorLocationState, 0, len(ids))
	for i, cmd := range cmds {
		values := cmd.Val()
		if len(values) == 0 {
			continue
		}
		state := stateFromHash(ids[i], values)
		if trackingOnly && !state.IsTracking {
			continue
		}
		out = append(out, state)
	}
	return out, nil
}

func stateToHash(s *models.ActorLocationState) map[string]interface{} {
	h := map[string]interface{}{
		constants.FieldTracking:      strconv.FormatBool(s.IsTracking),
		constants.FieldTotalDistance: formatFloat(s.TotalDistanceMeters),
		constants.FieldGroupID:       s.GroupID,
		constants.FieldDisplayName:   s.DisplayName,
		constants.FieldContactRef:    s.ContactRef,
		constants.FieldGeohash:       s.Geohash,
		constants.FieldUpdatedAt:     s.UpdatedAt.Format(time.RFC3339Nano),
	}
	if sample := s.LatestSample; sample != nil {
		h[constants.FieldLatitude] = formatFloat(sample.Latitude)
		h[constants.FieldLongitude] = formatFloat(sample.Longitude)
		h[constants.FieldCapturedAt] = strconv.FormatInt(sample.CapturedAt, 10)
		if sample.Accuracy != nil {
			h[constants.FieldAccuracy] = formatFloat(*sample.Accuracy)
		}
		if sample.Speed != nil {
			h[constants.FieldSpeed] = formatFloat(*sample.Speed)
		}
		if sample.Heading != nil {
			h[constants.FieldHeading] = formatFloat(*sample.Heading)
		}
	}
	return h
}

func stateFromHash(actorID string, h map[string]string) *models.ActorLocationState {
	s := &models.ActorLocationState{
		ActorID:     actorID,
		GroupID:     h[constants.FieldGroupID],
		DisplayName: h[constants.FieldDisplayName],
		ContactRef:  h[constants.FieldContactRef],
		Geohash:     h[constants.FieldGeohash],
	}
	s.IsTracking, _ = strconv.ParseBool(h[constants.FieldTracking])
	s.TotalDistanceMeters, _ = strconv.ParseFloat(h[constants.FieldTotalDistance], 64)
	if ts, err := time.Parse(time.RFC3339Nano, h[constants.FieldUpdatedAt]); err == nil {
		s.UpdatedAt = ts
	}

	lat, latErr := strconv.ParseFloat(h[constants.FieldLatitude], 64)
	lon, lonErr := strconv.ParseFloat(h[constants.FieldLongitude], 64)
	capturedAt, tsErr := strconv.ParseInt(h[constants.FieldCapturedAt], 10, 64)
	if latErr == nil && lonErr == nil && tsErr == nil {
		s.LatestSample = &models.LocationSample{
			Latitude:   lat,
			Longitude:  lon,
			CapturedAt: capturedAt,
			Accuracy:   parseOptional(h, constants.FieldAccuracy),
			Speed:      parseOptional(h, constants.FieldSpeed),
			Heading:    parseOptional(h, constants.FieldHeading),
		}
	}
	return s
}

func parseOptional(h map[string]string, field string) *float64 {
	raw, ok := h[field]
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
