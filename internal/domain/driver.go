package domain

import "time"

// PersonalInfo holds the driver's personal details.
type PersonalInfo struct {
	LanguagePreference string
	City               string
	ProfilePicture     string
	// NationalID holds ciphertext only. Use pii.Mask on the decrypted value for display.
	NationalID string
}

// Documents holds the driver's licence and registration documents.
type Documents struct {
	LicenseNumber string
	LicenseExpiry *time.Time
	RCNumber      string
	RCExpiry      *time.Time
}

// VehicleInfo describes the driver's vehicle.
type VehicleInfo struct {
	VehicleType   VehicleClass
	VehicleNumber string
	VehicleModel  string
	VehicleColor  string
}

// DriverStatus holds availability and verification flags.
type DriverStatus struct {
	IsOnline   bool
	IsVerified bool
	// ProfileCompletionPercentage is derived from the profile fields on every
	// read and write; it is never authoritative on its own.
	ProfileCompletionPercentage int
}

// DriverStats holds aggregate driver statistics.
type DriverStats struct {
	Rating     float64
	TotalRides int64
}

// Driver is a driver profile attached to exactly one account.
type Driver struct {
	ID           string
	AccountID    string
	PersonalInfo PersonalInfo
	Documents    Documents
	VehicleInfo  VehicleInfo
	Status       DriverStatus
	Stats        DriverStats
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
