package dispatch

import (
	"pharmadispatch/internal/config"
	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/geo"
)

// Candidate is a courier together with its current active-delivery count.
type Candidate struct {
	Courier domain.Courier
	Active  int
}

// Filter narrows the courier pool to couriers that can take one more
// delivery: status available, a known coordinate, under the concurrency cap
// and, when the pickup point is known, inside the search radius. Capacity
// and radius are independent predicates evaluated in-process, so the result
// does not depend on store-specific aggregate filtering.
//
// An empty result is a normal outcome, not an error.
func Filter(pool []Candidate, pickup *geo.Point, exclude map[int64]struct{}, cfg config.Dispatch) []Candidate {
	out := make([]Candidate, 0, len(pool))
	for _, cand := range pool {
		c := cand.Courier
		if _, skip := exclude[c.ID]; skip {
			continue
		}
		if c.Status != domain.CourierAvailable {
			continue
		}
		if c.Location == nil {
			continue
		}
		if cand.Active >= cfg.MaxActiveDeliveries {
			continue
		}
		if pickup != nil && geo.DistanceKm(*pickup, *c.Location) > cfg.SearchRadiusKm {
			continue
		}
		out = append(out, cand)
	}
	return out
}
