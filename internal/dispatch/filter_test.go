package dispatch_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pharmadispatch/internal/config"
	"pharmadispatch/internal/dispatch"
	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/geo"
)

func dispatchCfg() config.Dispatch {
	return config.Dispatch{MaxActiveDeliveries: 3, SearchRadiusKm: 15}
}

func courierAt(id int64, p geo.Point, status domain.CourierStatus) domain.Courier {
	updated := time.Now()
	return domain.Courier{
		ID:                id,
		Status:            status,
		Location:          &p,
		LocationUpdatedAt: &updated,
	}
}

func TestFilter_KeepsOnlyServiceableCouriers(t *testing.T) {
	t.Parallel()

	pickup := &geo.Point{Lat: 41.3, Lng: 69.28}
	near := geo.Point{Lat: 41.31, Lng: 69.29}

	noLocation := domain.Courier{ID: 4, Status: domain.CourierAvailable}

	pool := []dispatch.Candidate{
		{Courier: courierAt(1, near, domain.CourierAvailable), Active: 0},
		{Courier: courierAt(2, near, domain.CourierBusy), Active: 3},
		{Courier: courierAt(3, near, domain.CourierOffline), Active: 0},
		{Courier: noLocation, Active: 0},
		{Courier: courierAt(5, near, domain.CourierAvailable), Active: 3}, // at cap
		{Courier: courierAt(6, geo.Point{Lat: 42.5, Lng: 69.28}, domain.CourierAvailable), Active: 0}, // far away
	}

	got := dispatch.Filter(pool, pickup, nil, dispatchCfg())

	require.Len(t, got, 1)
	require.Equal(t, int64(1), got[0].Courier.ID)
}

func TestFilter_NoPickupSkipsRadiusCheck(t *testing.T) {
	t.Parallel()

	far := geo.Point{Lat: 42.5, Lng: 69.28}
	pool := []dispatch.Candidate{
		{Courier: courierAt(1, far, domain.CourierAvailable), Active: 0},
	}

	got := dispatch.Filter(pool, nil, nil, dispatchCfg())
	require.Len(t, got, 1)
}

func TestFilter_ExcludesListedCouriers(t *testing.T) {
	t.Parallel()

	near := geo.Point{Lat: 41.31, Lng: 69.29}
	pool := []dispatch.Candidate{
		{Courier: courierAt(1, near, domain.CourierAvailable), Active: 0},
		{Courier: courierAt(2, near, domain.CourierAvailable), Active: 0},
	}

	got := dispatch.Filter(pool, nil, map[int64]struct{}{1: {}}, dispatchCfg())

	require.Len(t, got, 1)
	require.Equal(t, int64(2), got[0].Courier.ID)
}

func TestFilter_EmptyPoolIsNotAnError(t *testing.T) {
	t.Parallel()

	got := dispatch.Filter(nil, nil, nil, dispatchCfg())
	require.Empty(t, got)
}
