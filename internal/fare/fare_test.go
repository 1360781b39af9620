package fare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/domain"
)

func TestEstimateFare_Deterministic(t *testing.T) {
	pickup := domain.Point{Lng: 77.0, Lat: 28.0}
	dropoff := domain.Point{Lng: 77.1, Lat: 28.1}

	first, err := EstimateFare(pickup, dropoff, domain.VehicleClassCar)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		again, err := EstimateFare(pickup, dropoff, domain.VehicleClassCar)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	// 14.83 km -> 50 + 14.83*12 = 227.97
	assert.InDelta(t, 14.8306, first.DistanceKm, 0.0001)
	assert.Equal(t, int64(228), first.Fare)
}

func TestEstimateFare_PerClassTariffs(t *testing.T) {
	same := domain.Point{Lng: 72.8777, Lat: 19.0760}

	cases := map[domain.VehicleClass]int64{
		domain.VehicleClassCar:             50,
		domain.VehicleClassBike:            20,
		domain.VehicleClassAuto:            30,
		domain.VehicleClassERickshaw:       25,
		domain.VehicleClassElectricScooter: 15,
	}
	for class, base := range cases {
		est, err := EstimateFare(same, same, class)
		require.NoError(t, err, class)
		assert.Zero(t, est.DistanceKm, class)
		assert.Equal(t, base, est.Fare, class)
	}
}

func TestEstimateFare_UnknownClass(t *testing.T) {
	_, err := EstimateFare(domain.Point{}, domain.Point{}, domain.VehicleClass("HELICOPTER"))
	assert.ErrorIs(t, err, ErrUnknownVehicleClass)
}

func TestDistance_OneDegreeOfLatitude(t *testing.T) {
	d := Distance(domain.Point{Lng: 0, Lat: 0}, domain.Point{Lng: 0, Lat: 1})
	assert.InDelta(t, 111.19, d, 0.01)
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, int64(93), roundHalfUp(92.5))
	assert.Equal(t, int64(92), roundHalfUp(92.49))
	assert.Equal(t, int64(0), roundHalfUp(0.4))
}
