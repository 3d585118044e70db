package dispatch

import (
	"sort"
	"time"

	"pharmadispatch/internal/config"
	"pharmadispatch/internal/geo"
)

// Score weights. The four terms add up to a 0-100 composite.
const (
	maxDistancePoints   = 40.0
	maxRatingPoints     = 30.0
	maxExperiencePoints = 20.0
	maxFreshnessPoints  = 10.0

	// unknownDistancePoints is assigned when the pickup point is unknown.
	unknownDistancePoints = 20.0

	// deliveriesPerPoint saturates experience at 100 lifetime deliveries.
	deliveriesPerPoint = 5

	locationFreshFor   = 5 * time.Minute
	locationStaleAfter = time.Hour
)

// Scored pairs a candidate with its composite desirability score.
type Scored struct {
	Candidate
	Score float64
}

// Score computes the 0-100 composite score for one candidate.
func Score(cand Candidate, pickup *geo.Point, now time.Time, cfg config.Dispatch) float64 {
	c := cand.Courier

	distance := unknownDistancePoints
	if pickup != nil && c.Location != nil {
		d := geo.DistanceKm(*pickup, *c.Location)
		distance = maxDistancePoints * (1 - d/cfg.SearchRadiusKm)
		if distance < 0 {
			distance = 0
		}
	}

	rating := c.EffectiveRating() / 5 * maxRatingPoints

	experience := float64(c.CompletedDeliveries) / deliveriesPerPoint
	if experience > maxExperiencePoints {
		experience = maxExperiencePoints
	}

	freshness := 0.0
	if c.LocationUpdatedAt != nil {
		age := now.Sub(*c.LocationUpdatedAt)
		switch {
		case age <= locationFreshFor:
			freshness = maxFreshnessPoints
		case age >= locationStaleAfter:
			freshness = 0
		default:
			span := (locationStaleAfter - locationFreshFor).Seconds()
			freshness = maxFreshnessPoints * (1 - (age-locationFreshFor).Seconds()/span)
		}
	}

	return distance + rating + experience + freshness
}

// Rank scores every candidate and orders them best-first. The sort is
// stable, so candidates with equal scores keep their input order and the
// result is deterministic.
func Rank(candidates []Candidate, pickup *geo.Point, now time.Time, cfg config.Dispatch) []Scored {
	out := make([]Scored, 0, len(candidates))
	for _, cand := range candidates {
		out = append(out, Scored{Candidate: cand, Score: Score(cand, pickup, now, cfg)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Best returns the highest-scoring candidate, or nil when the set is empty.
func Best(candidates []Candidate, pickup *geo.Point, now time.Time, cfg config.Dispatch) *Scored {
	ranked := Rank(candidates, pickup, now, cfg)
	if len(ranked) == 0 {
		return nil
	}
	return &ranked[0]
}
