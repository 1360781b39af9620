package postgres_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mmcloughlin/geohash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
	"dispatch/internal/repository/postgres"
)

var journeyColumnNames = []string{
	"id", "rider_id", "driver_id", "vehicle_class", "status",
	"pickup_address", "pickup_lng", "pickup_lat",
	"dropoff_address", "dropoff_lng", "dropoff_lat",
	"estimated_fare", "estimated_distance_km", "actual_fare", "distance_km", "duration_minutes",
	"payment_method", "payment_status",
	"requested_at", "accepted_at", "arrived_at", "started_at", "completed_at", "cancelled_at",
	"cancellation_reason", "cancelled_by", "rating", "feedback", "created_at", "updated_at",
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newJourney(now time.Time) *domain.Journey {
	return &domain.Journey{
		ID:            "j-1",
		RiderID:       "rider-1",
		VehicleClass:  domain.VehicleClassCar,
		Status:        domain.JourneyStatusRequested,
		Pickup:        domain.Place{Address: "Connaught Place", Point: domain.Point{Lng: 77.0, Lat: 28.0}},
		Dropoff:       domain.Place{Address: "Hauz Khas", Point: domain.Point{Lng: 77.1, Lat: 28.1}},
		EstimatedFare: 228,
		PaymentMethod: domain.PaymentMethodCash,
		PaymentStatus: domain.PaymentStatusPending,
		RequestedAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func requestedRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(journeyColumnNames).AddRow(
		"j-1", "rider-1", nil, "CAR", "REQUESTED",
		"Connaught Place", 77.0, 28.0,
		"Hauz Khas", 77.1, 28.1,
		int64(228), 14.83, nil, nil, nil,
		"CASH", "PENDING",
		now, nil, nil, nil, nil, nil,
		nil, nil, nil, nil, now, now,
	)
}

func TestJourneyRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewJourneyRepository(db)
	j := newJourney(time.Now())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO journeys")).
		WithArgs(
			j.ID, j.RiderID, nil, "CAR", "REQUESTED",
			"Connaught Place", 77.0, 28.0, geohash.EncodeWithPrecision(28.0, 77.0, postgres.GeohashPrecision),
			"Hauz Khas", 77.1, 28.1, geohash.EncodeWithPrecision(28.1, 77.1, postgres.GeohashPrecision),
			int64(228), 0.0, "CASH", "PENDING",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), j)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJourneyRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewJourneyRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM journeys WHERE id = $1")).
		WithArgs("j-1").
		WillReturnRows(requestedRow(now))

	j, err := repo.GetByID(context.Background(), "j-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JourneyStatusRequested, j.Status)
	assert.Equal(t, domain.VehicleClassCar, j.VehicleClass)
	assert.Empty(t, j.DriverID)
	assert.Nil(t, j.ActualFare)
	assert.Nil(t, j.AcceptedAt)
	assert.Equal(t, int64(228), j.EstimatedFare)
	assert.Equal(t, 28.1, j.Dropoff.Point.Lat)
}

func TestJourneyRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewJourneyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM journeys WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestJourneyRepository_List_FiltersAndSorts(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewJourneyRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM journeys WHERE rider_id = $1 AND status = $2 ORDER BY requested_at DESC LIMIT $3")).
		WithArgs("rider-1", "REQUESTED", repository.DefaultListLimit).
		WillReturnRows(requestedRow(now))

	journeys, err := repo.List(context.Background(), repository.JourneyFilter{
		RiderID: "rider-1",
		Status:  domain.JourneyStatusRequested,
	})
	require.NoError(t, err)
	assert.Len(t, journeys, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJourneyRepository_UpdateIfMatch(t *testing.T) {
	now := time.Now()
	match := repository.Match{Status: domain.JourneyStatusRequested, PaymentStatus: domain.PaymentStatusPending}

	t.Run("matched", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := postgres.NewJourneyRepository(db)
		j := newJourney(now)
		j.Status = domain.JourneyStatusAccepted
		j.DriverID = "driver-1"

		mock.ExpectExec(regexp.QuoteMeta("WHERE id = $17 AND status = $18 AND payment_status = $19")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateIfMatch(context.Background(), j, match))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := postgres.NewJourneyRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE journeys")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs("j-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := repo.UpdateIfMatch(context.Background(), newJourney(now), match)
		assert.ErrorIs(t, err, repository.ErrPreconditionFailed)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := postgres.NewJourneyRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE journeys")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs("j-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := repo.UpdateIfMatch(context.Background(), newJourney(now), match)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
