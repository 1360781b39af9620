package postgres

import (
	"context"
	"database/sql"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

const driverColumns = `id, account_id,
	language_preference, city, profile_picture, national_id_encrypted,
	license_number, license_expiry, rc_number, rc_expiry,
	vehicle_type, vehicle_number, vehicle_model, vehicle_color,
	is_online, is_verified, profile_completion_percentage,
	rating, total_rides, created_at, updated_at`

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

var _ repository.DriverRepository = (*DriverRepository)(nil)

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

// Create adds a new driver profile.
func (r *DriverRepository) Create(ctx context.Context, d *domain.Driver) error {
	query := `INSERT INTO drivers (` + driverColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	_, err := r.q.ExecContext(ctx, query,
		d.ID,
		d.AccountID,
		d.PersonalInfo.LanguagePreference,
		d.PersonalInfo.City,
		nullString(d.PersonalInfo.ProfilePicture),
		d.PersonalInfo.NationalID,
		d.Documents.LicenseNumber,
		nullTime(d.Documents.LicenseExpiry),
		d.Documents.RCNumber,
		nullTime(d.Documents.RCExpiry),
		d.VehicleInfo.VehicleType,
		nullString(d.VehicleInfo.VehicleNumber),
		nullString(d.VehicleInfo.VehicleModel),
		nullString(d.VehicleInfo.VehicleColor),
		d.Status.IsOnline,
		d.Status.IsVerified,
		d.Status.ProfileCompletionPercentage,
		d.Stats.Rating,
		d.Stats.TotalRides,
		d.CreatedAt,
		d.UpdatedAt,
	)
	return mapError(err)
}

// GetByID retrieves a driver profile by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`

	d, err := scanDriver(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

// GetByAccountID retrieves the driver profile owned by an account.
func (r *DriverRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE account_id = $1`

	d, err := scanDriver(r.q.QueryRowContext(ctx, query, accountID))
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

// Update overwrites the mutable fields of a driver profile.
func (r *DriverRepository) Update(ctx context.Context, d *domain.Driver) error {
	query := `
		UPDATE drivers
		SET language_preference = $1, city = $2, profile_picture = $3,
			license_expiry = $4, rc_expiry = $5,
			vehicle_number = $6, vehicle_model = $7, vehicle_color = $8,
			is_online = $9, is_verified = $10, profile_completion_percentage = $11,
			updated_at = $12
		WHERE id = $13
	`

	result, err := r.q.ExecContext(ctx, query,
		d.PersonalInfo.LanguagePreference,
		d.PersonalInfo.City,
		nullString(d.PersonalInfo.ProfilePicture),
		nullTime(d.Documents.LicenseExpiry),
		nullTime(d.Documents.RCExpiry),
		nullString(d.VehicleInfo.VehicleNumber),
		nullString(d.VehicleInfo.VehicleModel),
		nullString(d.VehicleInfo.VehicleColor),
		d.Status.IsOnline,
		d.Status.IsVerified,
		d.Status.ProfileCompletionPercentage,
		d.UpdatedAt,
		d.ID,
	)
	if err != nil {
		return mapError(err)
	}

	return expectOneRow(result)
}

// IncrementTotalRides adds one completed ride to the driver's stats.
func (r *DriverRepository) IncrementTotalRides(ctx context.Context, id string) error {
	query := `UPDATE drivers SET total_rides = total_rides + 1, updated_at = NOW() WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanDriver(row rowScanner) (*domain.Driver, error) {
	var (
		d              domain.Driver
		profilePicture sql.NullString
		licenseExpiry  sql.NullTime
		rcExpiry       sql.NullTime
		vehicleNumber  sql.NullString
		vehicleModel   sql.NullString
		vehicleColor   sql.NullString
	)

	err := row.Scan(
		&d.ID,
		&d.AccountID,
		&d.PersonalInfo.LanguagePreference,
		&d.PersonalInfo.City,
		&profilePicture,
		&d.PersonalInfo.NationalID,
		&d.Documents.LicenseNumber,
		&licenseExpiry,
		&d.Documents.RCNumber,
		&rcExpiry,
		&d.VehicleInfo.VehicleType,
		&vehicleNumber,
		&vehicleModel,
		&vehicleColor,
		&d.Status.IsOnline,
		&d.Status.IsVerified,
		&d.Status.ProfileCompletionPercentage,
		&d.Stats.Rating,
		&d.Stats.TotalRides,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.PersonalInfo.ProfilePicture = profilePicture.String
	d.Documents.LicenseExpiry = timePtr(licenseExpiry)
	d.Documents.RCExpiry = timePtr(rcExpiry)
	d.VehicleInfo.VehicleNumber = vehicleNumber.String
	d.VehicleInfo.VehicleModel = vehicleModel.String
	d.VehicleInfo.VehicleColor = vehicleColor.String

	return &d, nil
}
