// Package fare estimates journey distance and fare from coordinates.
package fare

import (
	"errors"
	"math"

	"dispatch/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// ErrUnknownVehicleClass is returned for a vehicle class with no tariff.
var ErrUnknownVehicleClass = errors.New("unknown vehicle class")

// Tariff is a per-class base fare and per-kilometre rate in the smallest
// whole unit of the currency.
type Tariff struct {
	Base      float64
	PerKmRate float64
}

var tariffs = map[domain.VehicleClass]Tariff{
	domain.VehicleClassCar:             {Base: 50, PerKmRate: 12},
	domain.VehicleClassBike:            {Base: 20, PerKmRate: 6},
	domain.VehicleClassAuto:            {Base: 30, PerKmRate: 8},
	domain.VehicleClassERickshaw:       {Base: 25, PerKmRate: 7},
	domain.VehicleClassElectricScooter: {Base: 15, PerKmRate: 5},
}

// Estimate is the result of a fare estimation.
type Estimate struct {
	DistanceKm float64
	Fare       int64
}

// TariffFor returns the tariff for a vehicle class.
func TariffFor(class domain.VehicleClass) (Tariff, error) {
	t, ok := tariffs[class]
	if !ok {
		return Tariff{}, ErrUnknownVehicleClass
	}
	return t, nil
}

// ValidClass reports whether class has a tariff.
func ValidClass(class domain.VehicleClass) bool {
	_, ok := tariffs[class]
	return ok
}

// EstimateFare computes the great-circle distance between pickup and dropoff
// and the fare for the given class, rounded half up to a whole unit.
func EstimateFare(pickup, dropoff domain.Point, class domain.VehicleClass) (Estimate, error) {
	t, err := TariffFor(class)
	if err != nil {
		return Estimate{}, err
	}

	km := Distance(pickup, dropoff)
	return Estimate{
		DistanceKm: km,
		Fare:       roundHalfUp(t.Base + km*t.PerKmRate),
	}, nil
}

// Distance returns the haversine distance in kilometres.
func Distance(a, b domain.Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
