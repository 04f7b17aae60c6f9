package planner

import (
	"github.com/kartquake/kartquake/internal/catalog"
	"github.com/kartquake/kartquake/internal/model"
)

// Base prices per canonical category, used for stores the catalog does not
// cover.
var categoryBasePrice = map[string]float64{
	model.CategoryMilk:      3.99,
	model.CategoryEggs:      2.49,
	model.CategoryCereal:    4.99,
	model.CategoryTablet:    699,
	model.CategoryDetergent: 12.99,
	model.CategoryOther:     5.00,
}

func storeMultiplier(storeID string) float64 {
	switch storeID {
	case catalog.FredMeyerStoreID:
		return 1.00
	case WarehouseClubStoreID:
		return 0.92
	default:
		return 1.05
	}
}

// EstimatePrice guesses a line price for an intent at a store: category base
// price times a per-store multiplier times quantity, rounded to cents.
func EstimatePrice(intent *model.ItemIntent, storeID string) float64 {
	base, ok := categoryBasePrice[intent.CanonicalCategory]
	if !ok {
		base = categoryBasePrice[model.CategoryOther]
	}
	return round2(base * storeMultiplier(storeID) * float64(intent.EffectiveQuantity()))
}
