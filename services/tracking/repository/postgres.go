package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	apperrors "github.com/piresc/tirtha/internal/pkg/errors"
	"github.com/piresc/tirtha/internal/pkg/models"
	"github.com/piresc/tirtha/internal/utils"
	"github.com/piresc/tirtha/services/tracking"
)

// StoredGeohashPrecision is the precision of the geohash kept with each durable position
const StoredGeohashPrecision = 9

//go:embed schema.sql
var schema string

const actorColumns = `actor_id, group_id, display_name, contact_ref,
	latitude, longitude, accuracy, speed, heading, captured_at,
	is_tracking, total_distance_meters, geohash, updated_at`

type actorRow struct {
	ActorID             string          `db:"actor_id"`
	GroupID             string          `db:"group_id"`
	DisplayName         string          `db:"display_name"`
	ContactRef          string          `db:"contact_ref"`
	Latitude            sql.NullFloat64 `db:"latitude"`
	Longitude           sql.NullFloat64 `db:"longitude"`
	Accuracy            sql.NullFloat64 `db:"accuracy"`
	Speed               sql.NullFloat64 `db:"speed"`
	Heading             sql.NullFloat64 `db:"heading"`
	CapturedAt          sql.NullInt64   `db:"captured_at"`
	IsTracking          bool            `db:"is_tracking"`
	TotalDistanceMeters float64         `db:"total_distance_meters"`
	Geohash             string          `db:"geohash"`
	UpdatedAt           time.Time       `db:"updated_at"`
}

func (r actorRow) toState() *models.ActorLocationState {
	s := &models.ActorLocationState{
		ActorID:             r.ActorID,
		GroupID:             r.GroupID,
		DisplayName:         r.DisplayName,
		ContactRef:          r.ContactRef,
		IsTracking:          r.IsTracking,
		TotalDistanceMeters: r.TotalDistanceMeters,
		Geohash:             r.Geohash,
		UpdatedAt:           r.UpdatedAt,
	}
	if r.Latitude.Valid && r.Longitude.Valid && r.CapturedAt.Valid {
		s.LatestSample = &models.LocationSample{
			Latitude:   r.Latitude.Float64,
			Longitude:  r.Longitude.Float64,
			Accuracy:   fromNull(r.Accuracy),
			Speed:      fromNull(r.Speed),
			Heading:    fromNull(r.Heading),
			CapturedAt: r.CapturedAt.Int64,
		}
	}
	return s
}

// PostgresLocationRepo keeps actor positions in the actor_locations table
type PostgresLocationRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresLocationRepo creates a Postgres backed location repository
func NewPostgresLocationRepo(db *sqlx.DB) *PostgresLocationRepo {
	return &PostgresLocationRepo{db: db, now: time.Now}
}

// EnsureSchema creates the actor_locations table and its indexes when missing
func (r *PostgresLocationRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return apperrors.Storage("ensure schema", err)
	}
	return nil
}

// UpdateActorLocation locks the actor's row for the duration of fn, creating it on first use
func (r *PostgresLocationRepo) UpdateActorLocation(ctx context.Context, actorID string, fn tracking.UpdateFunc) (*models.ActorLocationState, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperrors.Storage("begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO actor_locations (actor_id) VALUES ($1) ON CONFLICT (actor_id) DO NOTHING`,
		actorID,
	); err != nil {
		return nil, apperrors.Storage("insert actor location", err)
	}

	var row actorRow
	if err := tx.GetContext(ctx, &row,
		`SELECT `+actorColumns+` FROM actor_locations WHERE actor_id = $1 FOR UPDATE`,
		actorID,
	); err != nil {
		return nil, apperrors.Storage("lock actor location", err)
	}

	next, err := fn(row.toState())
	if err != nil {
		return nil, err
	}
	next = next.Clone()
	next.ActorID = actorID
	next.UpdatedAt = r.now().UTC()
	next.Geohash = ""
	if next.LatestSample != nil {
		next.Geohash = utils.EncodeGeohash(next.LatestSample.Latitude, next.LatestSample.Longitude, StoredGeohashPrecision)
	}

	var lat, lon, acc, speed, heading sql.NullFloat64
	var capturedAt sql.NullInt64
	if s := next.LatestSample; s != nil {
		lat = sql.NullFloat64{Float64: s.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: s.Longitude, Valid: true}
		acc, speed, heading = toNull(s.Accuracy), toNull(s.Speed), toNull(s.Heading)
		capturedAt = sql.NullInt64{Int64: s.CapturedAt, Valid: true}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE actor_locations SET
			group_id = $2, display_name = $3, contact_ref = $4,
			latitude = $5, longitude = $6, accuracy = $7, speed = $8, heading = $9, captured_at = $10,
			is_tracking = $11, total_distance_meters = $12, geohash = $13, updated_at = $14
		WHERE actor_id = $1`,
		actorID, next.GroupID, next.DisplayName, next.ContactRef,
		lat, lon, acc, speed, heading, capturedAt,
		next.IsTracking, next.TotalDistanceMeters, next.Geohash, next.UpdatedAt,
	); err != nil {
		return nil, apperrors.Storage("update actor location", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Storage("commit actor location", err)
	}
	return next, nil
}

// SetTracking flips the tracking flag, leaving position and odometer untouched
func (r *PostgresLocationRepo) SetTracking(ctx context.Context, actorID string, isTracking bool) (*models.ActorLocationState, error) {
	var row actorRow
	err := r.db.GetContext(ctx, &row,
		`UPDATE actor_locations SET is_tracking = $2, updated_at = $3 WHERE actor_id = $1 RETURNING `+actorColumns,
		actorID, isTracking, r.now().UTC(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("actor", actorID)
	}
	if err != nil {
		return nil, apperrors.Storage("set tracking", err)
	}
	return row.toState(), nil
}

// GetActorLocation returns the durable state of one actor
func (r *PostgresLocationRepo) GetActorLocation(ctx context.Context, actorID string) (*models.ActorLocationState, error) {
	var row actorRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+actorColumns+` FROM actor_locations WHERE actor_id = $1`,
		actorID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("actor", actorID)
	}
	if err != nil {
		return nil, apperrors.Storage("get actor location", err)
	}
	return row.toState(), nil
}

// ListTrackingActors returns every actor currently sharing its location
func (r *PostgresLocationRepo) ListTrackingActors(ctx context.Context) ([]*models.ActorLocationState, error) {
	var rows []actorRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT `+actorColumns+` FROM actor_locations WHERE is_tracking ORDER BY actor_id`,
	); err != nil {
		return nil, apperrors.Storage("list tracking actors", err)
	}
	return toStates(rows), nil
}

// FindNearby narrows candidates to the geohash cells around center. The caller
// applies the exact radius.
func (r *PostgresLocationRepo) FindNearby(ctx context.Context, center models.GeoPoint, radiusMeters float64) ([]*models.ActorLocationState, error) {
	precision := utils.GeohashPrecisionForRadius(radiusMeters)
	cells := utils.CoveringGeohashes(center.Latitude, center.Longitude, precision)

	query, args, err := sqlx.In(
		`SELECT `+actorColumns+` FROM actor_locations
		WHERE is_tracking AND substr(geohash, 1, ?) IN (?)
		ORDER BY actor_id`,
		int(precision), cells,
	)
	if err != nil {
		return nil, apperrors.Storage("build nearby query", err)
	}

	var rows []actorRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, apperrors.Storage("find nearby", err)
	}
	return toStates(rows), nil
}

func toStates(rows []actorRow) []*models.ActorLocationState {
	out := make([]*models.ActorLocationState, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toState())
	}
	return out
}

func toNull(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func fromNull(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
