package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	apperrors "github.com/piresc/tirtha/internal/pkg/errors"
	"github.com/piresc/tirtha/internal/pkg/models"
	"github.com/piresc/tirtha/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"actor_id", "group_id", "display_name", "contact_ref",
	"latitude", "longitude", "accuracy", "speed", "heading", "captured_at",
	"is_tracking", "total_distance_meters", "geohash", "updated_at",
}

func newMockRepo(t *testing.T) (*PostgresLocationRepo, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	repo := NewPostgresLocationRepo(sqlx.NewDb(mockDB, "pgx"))
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }
	return repo, mock
}

func emptyRow(actorID string) *sqlmock.Rows {
	return sqlmock.NewRows(columns).
		AddRow(actorID, "", "", "", nil, nil, nil, nil, nil, nil, false, 0.0, "", time.Now())
}

func trackedRow(actorID string, tracking bool) *sqlmock.Rows {
	return sqlmock.NewRows(columns).
		AddRow(actorID, "g1", "Asha", "+620000", 10.0, 77.0, 5.0, nil, nil, int64(1000), tracking, 156.4, "tdr1wxyz0", time.Now())
}

func TestPostgres_UpdateActorLocation_FirstSample(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO actor_locations (actor_id) VALUES ($1) ON CONFLICT (actor_id) DO NOTHING")).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("a1").
		WillReturnRows(emptyRow("a1"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE actor_locations SET")).
		WithArgs("a1", "g1", "Asha", "", 10.0, 77.0, nil, nil, nil, int64(1000), true, 0.0,
			utils.EncodeGeohash(10, 77, StoredGeohashPrecision), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var seen *models.ActorLocationState
	state, err := repo.UpdateActorLocation(ctx, "a1", func(current *models.ActorLocationState) (*models.ActorLocationState, error) {
		seen = current.Clone()
		next := current.Clone()
		next.GroupID = "g1"
		next.DisplayName = "Asha"
		next.IsTracking = true
		next.LatestSample = &models.LocationSample{Latitude: 10, Longitude: 77, CapturedAt: 1000}
		return next, nil
	})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Nil(t, seen.LatestSample)
	assert.Equal(t, "a1", state.ActorID)
	assert.True(t, state.IsTracking)
	assert.Len(t, state.Geohash, StoredGeohashPrecision)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateActorLocation_ReadsExistingSample(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO actor_locations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FOR UPDATE").WithArgs("a1").WillReturnRows(trackedRow("a1", true))
	mock.ExpectExec("UPDATE actor_locations SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.UpdateActorLocation(context.Background(), "a1", func(current *models.ActorLocationState) (*models.ActorLocationState, error) {
		require.NotNil(t, current.LatestSample)
		assert.Equal(t, 10.0, current.LatestSample.Latitude)
		require.NotNil(t, current.LatestSample.Accuracy)
		assert.Equal(t, 5.0, *current.LatestSample.Accuracy)
		assert.Nil(t, current.LatestSample.Speed)
		assert.InDelta(t, 156.4, current.TotalDistanceMeters, 1e-9)
		return current, nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateActorLocation_FuncErrorRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO actor_locations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(emptyRow("a1"))
	mock.ExpectRollback()

	boom := apperrors.Validation("bad sample")
	_, err := repo.UpdateActorLocation(context.Background(), "a1", func(*models.ActorLocationState) (*models.ActorLocationState, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateActorLocation_Timeout(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin().WillReturnError(context.DeadlineExceeded)

	_, err := repo.UpdateActorLocation(context.Background(), "a1", func(s *models.ActorLocationState) (*models.ActorLocationState, error) {
		return s, nil
	})
	assert.ErrorIs(t, err, apperrors.ErrStorageTimeout)
}

func TestPostgres_SetTracking(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE actor_locations SET is_tracking = $2")).
		WithArgs("a1", false, sqlmock.AnyArg()).
		WillReturnRows(trackedRow("a1", false))

	state, err := repo.SetTracking(context.Background(), "a1", false)
	require.NoError(t, err)
	assert.False(t, state.IsTracking)
	assert.InDelta(t, 156.4, state.TotalDistanceMeters, 1e-9)
	require.NotNil(t, state.LatestSample)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetTracking_UnknownActor(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("UPDATE actor_locations SET is_tracking").WillReturnError(sql.ErrNoRows)

	_, err := repo.SetTracking(context.Background(), "ghost", false)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgres_GetActorLocation(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM actor_locations WHERE actor_id = $1")).
		WithArgs("a1").
		WillReturnRows(trackedRow("a1", true))

	state, err := repo.GetActorLocation(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "g1", state.GroupID)
	assert.Equal(t, "Asha", state.DisplayName)
	assert.Equal(t, int64(1000), state.LatestSample.CapturedAt)

	mock.ExpectQuery("FROM actor_locations").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetActorLocation(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	mock.ExpectQuery("FROM actor_locations").WillReturnError(errors.New("connection reset"))
	_, err = repo.GetActorLocation(context.Background(), "a1")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestPostgres_ListTrackingActors(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows(columns).
		AddRow("a1", "g1", "", "", 10.0, 77.0, nil, nil, nil, int64(1), true, 0.0, "", time.Now()).
		AddRow("a2", "", "", "", 11.0, 78.0, nil, nil, nil, int64(2), true, 3.0, "", time.Now())
	mock.ExpectQuery("WHERE is_tracking ORDER BY actor_id").WillReturnRows(rows)

	states, err := repo.ListTrackingActors(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "a2", states[1].ActorID)
}

func TestPostgres_FindNearby(t *testing.T) {
	repo, mock := newMockRepo(t)
	center := models.GeoPoint{Latitude: 10, Longitude: 77}
	precision := utils.GeohashPrecisionForRadius(500)
	cells := utils.CoveringGeohashes(10, 77, precision)

	args := []driver.Value{sqlmock.AnyArg()}
	for _, c := range cells {
		args = append(args, c)
	}
	mock.ExpectQuery(regexp.QuoteMeta("substr(geohash, 1, $1) IN ($2")).
		WithArgs(args...).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("a1", "", "", "", 10.001, 77.001, nil, nil, nil, int64(1), true, 0.0, "", time.Now()))

	states, err := repo.FindNearby(context.Background(), center, 500)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "a1", states[0].ActorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_EnsureSchema(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS actor_locations").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
