package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mmcloughlin/geohash"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// GeohashPrecision is the precision of the pickup/dropoff geohash columns
// (cells of roughly 150m x 150m).
const GeohashPrecision = 7

const journeyColumns = `id, rider_id, driver_id, vehicle_class, status,
	pickup_address, pickup_lng, pickup_lat,
	dropoff_address, dropoff_lng, dropoff_lat,
	estimated_fare, estimated_distance_km, actual_fare, distance_km, duration_minutes,
	payment_method, payment_status,
	requested_at, accepted_at, arrived_at, started_at, completed_at, cancelled_at,
	cancellation_reason, cancelled_by, rating, feedback, created_at, updated_at`

// JourneyRepository is a PostgreSQL implementation of repository.JourneyRepository.
type JourneyRepository struct {
	q Querier
}

var _ repository.JourneyRepository = (*JourneyRepository)(nil)

// NewJourneyRepository creates a new PostgreSQL journey repository.
func NewJourneyRepository(db *sql.DB) *JourneyRepository {
	return &JourneyRepository{q: db}
}

// NewJourneyRepositoryWithTx creates a journey repository using a transaction.
func NewJourneyRepositoryWithTx(tx *sql.Tx) *JourneyRepository {
	return &JourneyRepository{q: tx}
}

// Create persists a new journey.
func (r *JourneyRepository) Create(ctx context.Context, j *domain.Journey) error {
	query := `
		INSERT INTO journeys (
			id, rider_id, driver_id, vehicle_class, status,
			pickup_address, pickup_lng, pickup_lat, pickup_geohash,
			dropoff_address, dropoff_lng, dropoff_lat, dropoff_geohash,
			estimated_fare, estimated_distance_km,
			payment_method, payment_status, requested_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.q.ExecContext(ctx, query,
		j.ID,
		j.RiderID,
		nullString(j.DriverID),
		j.VehicleClass,
		j.Status,
		j.Pickup.Address,
		j.Pickup.Point.Lng,
		j.Pickup.Point.Lat,
		geohash.EncodeWithPrecision(j.Pickup.Point.Lat, j.Pickup.Point.Lng, GeohashPrecision),
		j.Dropoff.Address,
		j.Dropoff.Point.Lng,
		j.Dropoff.Point.Lat,
		geohash.EncodeWithPrecision(j.Dropoff.Point.Lat, j.Dropoff.Point.Lng, GeohashPrecision),
		j.EstimatedFare,
		j.EstimatedDistanceKm,
		j.PaymentMethod,
		j.PaymentStatus,
		j.RequestedAt,
		j.CreatedAt,
		j.UpdatedAt,
	)
	return mapError(err)
}

// GetByID retrieves a journey by ID.
func (r *JourneyRepository) GetByID(ctx context.Context, id string) (*domain.Journey, error) {
	query := `SELECT ` + journeyColumns + ` FROM journeys WHERE id = $1`

	j, err := scanJourney(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return j, nil
}

// List returns journeys matching the filter, newest request first.
func (r *JourneyRepository) List(ctx context.Context, f repository.JourneyFilter) ([]*domain.Journey, error) {
	var (
		where []string
		args  []any
	)
	if f.RiderID != "" {
		args = append(args, f.RiderID)
		where = append(where, fmt.Sprintf("rider_id = $%d", len(args)))
	}
	if f.DriverID != "" {
		args = append(args, f.DriverID)
		where = append(where, fmt.Sprintf("driver_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}

	query := `SELECT ` + journeyColumns + ` FROM journeys`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY requested_at DESC LIMIT $%d`, len(args))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var journeys []*domain.Journey
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			return nil, err
		}
		journeys = append(journeys, j)
	}
	return journeys, rows.Err()
}

// UpdateIfMatch writes the mutable journey fields in one statement guarded
// by the expected status and payment status.
func (r *JourneyRepository) UpdateIfMatch(ctx context.Context, j *domain.Journey, m repository.Match) error {
	query := `
		UPDATE journeys
		SET driver_id = $1, status = $2, actual_fare = $3, distance_km = $4, duration_minutes = $5,
			payment_status = $6, accepted_at = $7, arrived_at = $8, started_at = $9, completed_at = $10,
			cancelled_at = $11, cancellation_reason = $12, cancelled_by = $13, rating = $14, feedback = $15,
			updated_at = $16
		WHERE id = $17 AND status = $18 AND payment_status = $19
	`

	var rating sql.NullInt64
	if j.Rating != nil {
		rating = sql.NullInt64{Int64: int64(*j.Rating), Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query,
		nullString(j.DriverID),
		j.Status,
		nullInt64(j.ActualFare),
		nullFloat64(j.DistanceKm),
		nullInt64(j.DurationMinutes),
		j.PaymentStatus,
		nullTime(j.AcceptedAt),
		nullTime(j.ArrivedAt),
		nullTime(j.StartedAt),
		nullTime(j.CompletedAt),
		nullTime(j.CancelledAt),
		nullString(j.CancellationReason),
		nullString(string(j.CancelledBy)),
		rating,
		nullString(j.Feedback),
		j.UpdatedAt,
		j.ID,
		m.Status,
		m.PaymentStatus,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 1 {
		return nil
	}

	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM journeys WHERE id = $1)`, j.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrPreconditionFailed
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJourney(row rowScanner) (*domain.Journey, error) {
	var (
		j                  domain.Journey
		driverID           sql.NullString
		actualFare         sql.NullInt64
		distanceKm         sql.NullFloat64
		durationMinutes    sql.NullInt64
		acceptedAt         sql.NullTime
		arrivedAt          sql.NullTime
		startedAt          sql.NullTime
		completedAt        sql.NullTime
		cancelledAt        sql.NullTime
		cancellationReason sql.NullString
		cancelledBy        sql.NullString
		rating             sql.NullInt64
		feedback           sql.NullString
	)

	err := row.Scan(
		&j.ID,
		&j.RiderID,
		&driverID,
		&j.VehicleClass,
		&j.Status,
		&j.Pickup.Address,
		&j.Pickup.Point.Lng,
		&j.Pickup.Point.Lat,
		&j.Dropoff.Address,
		&j.Dropoff.Point.Lng,
		&j.Dropoff.Point.Lat,
		&j.EstimatedFare,
		&j.EstimatedDistanceKm,
		&actualFare,
		&distanceKm,
		&durationMinutes,
		&j.PaymentMethod,
		&j.PaymentStatus,
		&j.RequestedAt,
		&acceptedAt,
		&arrivedAt,
		&startedAt,
		&completedAt,
		&cancelledAt,
		&cancellationReason,
		&cancelledBy,
		&rating,
		&feedback,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	j.DriverID = driverID.String
	j.ActualFare = int64Ptr(actualFare)
	j.DistanceKm = float64Ptr(distanceKm)
	j.DurationMinutes = int64Ptr(durationMinutes)
	j.AcceptedAt = timePtr(acceptedAt)
	j.ArrivedAt = timePtr(arrivedAt)
	j.StartedAt = timePtr(startedAt)
	j.CompletedAt = timePtr(completedAt)
	j.CancelledAt = timePtr(cancelledAt)
	j.CancellationReason = cancellationReason.String
	j.CancelledBy = domain.Party(cancelledBy.String)
	if rating.Valid {
		r := int(rating.Int64)
		j.Rating = &r
	}
	j.Feedback = feedback.String

	return &j, nil
}
