package planner

import (
	"github.com/kartquake/kartquake/internal/catalog"
	"github.com/kartquake/kartquake/internal/model"
)

// GenerateResult is the raw candidate set before travel augmentation,
// filtering, and discounts.
type GenerateResult struct {
	Plans             []*model.CandidatePlan
	SubstitutionNotes []string
}

// Categories the two-store plan routes to the warehouse club.
var twoStoreClubCategories = map[string]bool{
	model.CategoryMilk:      true,
	model.CategoryEggs:      true,
	model.CategoryCereal:    true,
	model.CategoryDetergent: true,
}

// Categories the three-store plan routes to the warehouse club; detergent
// stays at the catalog store and everything else goes to the neighborhood
// market.
var threeStoreClubCategories = map[string]bool{
	model.CategoryMilk:   true,
	model.CategoryEggs:   true,
	model.CategoryCereal: true,
}

// Generate builds the three fixed-shape candidate plans from the pending
// intents. Catalog pricing only applies to the default store leg; every
// other assignment is estimated.
func Generate(intents []model.ItemIntent) GenerateResult {
	var result GenerateResult
	noteSeen := make(map[string]bool)

	addNote := func(note string) {
		if note == "" || noteSeen[note] {
			return
		}
		noteSeen[note] = true
		result.SubstitutionNotes = append(result.SubstitutionNotes, note)
	}

	// priceAt prices one intent at a store, preferring the catalog for the
	// default store and falling back to the estimator.
	priceAt := func(intent *model.ItemIntent, storeID string) float64 {
		if storeID == catalog.FredMeyerStoreID {
			if price, note := catalog.Price(intent); price != nil {
				addNote(note)
				return *price
			}
		}
		return EstimatePrice(intent, storeID)
	}

	item := func(intent *model.ItemIntent, storeID, storeName string, travel float64) model.PlanItem {
		return model.PlanItem{
			ID:                intent.ID,
			RawText:           intent.RawText,
			CanonicalCategory: intent.CanonicalCategory,
			Quantity:          intent.EffectiveQuantity(),
			StoreID:           storeID,
			StoreName:         storeName,
			EstimatedPrice:    priceAt(intent, storeID),
			TravelMinutes:     travel,
		}
	}

	finish := func(plan *model.CandidatePlan) *model.CandidatePlan {
		var total float64
		for _, it := range plan.Items {
			total += it.EstimatedPrice
		}
		plan.TotalPrice = round2(total)
		plan.NumberOfStores = len(plan.Stores)
		return plan
	}

	// One store: everything at the default store.
	one := &model.CandidatePlan{
		Key:   model.PlanKeyOneStore,
		Label: "One-store plan (Fred Meyer)",
		Stores: []model.PlanStoreStop{
			{ID: catalog.FredMeyerStoreID, Name: catalog.FredMeyerStoreName, DistanceMinutes: fredMeyerStubMinutes},
		},
		TravelMinutes: oneStorePlanStubMinutes,
	}
	for i := range intents {
		one.Items = append(one.Items,
			item(&intents[i], catalog.FredMeyerStoreID, catalog.FredMeyerStoreName, fredMeyerStubMinutes))
	}

	// Two stores: staples at the club, the rest at the default store.
	two := &model.CandidatePlan{
		Key:   model.PlanKeyTwoStore,
		Label: "Two-store plan (Fred Meyer + WarehouseClub)",
		Stores: []model.PlanStoreStop{
			{ID: catalog.FredMeyerStoreID, Name: catalog.FredMeyerStoreName, DistanceMinutes: fredMeyerStubMinutes},
			{ID: WarehouseClubStoreID, Name: WarehouseClubStoreName, DistanceMinutes: warehouseClubStubMinutes},
		},
		TravelMinutes: twoStorePlanStubMinutes,
	}
	for i := range intents {
		in := &intents[i]
		if twoStoreClubCategories[in.CanonicalCategory] {
			two.Items = append(two.Items, item(in, WarehouseClubStoreID, WarehouseClubStoreName, warehouseClubStubMinutes))
		} else {
			two.Items = append(two.Items, item(in, catalog.FredMeyerStoreID, catalog.FredMeyerStoreName, fredMeyerStubMinutes))
		}
	}

	// Three stores: dairy aisle staples at the club, detergent at the default
	// store, everything else at the neighborhood market.
	three := &model.CandidatePlan{
		Key:   model.PlanKeyThreeStore,
		Label: "Three-store demo plan",
		Stores: []model.PlanStoreStop{
			{ID: catalog.FredMeyerStoreID, Name: catalog.FredMeyerStoreName, DistanceMinutes: fredMeyerStubMinutes},
			{ID: WarehouseClubStoreID, Name: WarehouseClubStoreName, DistanceMinutes: warehouseClubStubMinutes},
			{ID: NeighborhoodMarketStoreID, Name: NeighborhoodMarketStoreName, DistanceMinutes: neighborhoodStubMinutes},
		},
		TravelMinutes: threeStorePlanStubMinutes,
	}
	for i := range intents {
		in := &intents[i]
		switch {
		case threeStoreClubCategories[in.CanonicalCategory]:
			three.Items = append(three.Items, item(in, WarehouseClubStoreID, WarehouseClubStoreName, warehouseClubStubMinutes))
		case in.CanonicalCategory == model.CategoryDetergent:
			three.Items = append(three.Items, item(in, catalog.FredMeyerStoreID, catalog.FredMeyerStoreName, fredMeyerStubMinutes))
		default:
			three.Items = append(three.Items, item(in, NeighborhoodMarketStoreID, NeighborhoodMarketStoreName, neighborhoodStubMinutes))
		}
	}

	result.Plans = []*model.CandidatePlan{finish(one), finish(two), finish(three)}
	return result
}
