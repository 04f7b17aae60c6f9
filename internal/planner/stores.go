// Package planner builds candidate multi-store shopping plans from pending
// item intents, augments them with real drive times, filters them against
// trip constraints and plan tier, applies discounts, and picks one.
package planner

import "math"

// Demo store identities beyond the default catalog store. WarehouseClub is
// the membership-gated club store; NeighborhoodMarket fills out the
// three-store plan.
const (
	WarehouseClubStoreID   = "warehouse_club"
	WarehouseClubStoreName = "WarehouseClub"

	NeighborhoodMarketStoreID   = "neighborhood_market"
	NeighborhoodMarketStoreName = "NeighborhoodMarket"
)

// Stub drive minutes used until the travel augmenter replaces them with
// real values.
const (
	fredMeyerStubMinutes     = 10.0
	warehouseClubStubMinutes = 18.0
	neighborhoodStubMinutes  = 12.0

	oneStorePlanStubMinutes   = 10.0
	twoStorePlanStubMinutes   = 18.0
	threeStorePlanStubMinutes = 20.0
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
