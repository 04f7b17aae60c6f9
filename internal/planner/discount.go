package planner

import (
	"fmt"

	"github.com/kartquake/kartquake/internal/catalog"
	"github.com/kartquake/kartquake/internal/model"
)

const fredMeyerCouponThreshold = 50.0

// ApplyDiscounts rewrites each plan's total and discount list in place.
// Two demo rules stack: a 5% membership discount on the warehouse club
// subtotal, and a flat $5 coupon at the default store on baskets of $50 or
// more. Plans with no applicable rule get an explicit empty list.
func ApplyDiscounts(plans []*model.CandidatePlan, memberBrands map[string]bool) {
	for _, plan := range plans {
		subtotals := storeSubtotals(plan)
		discounts := []string{}
		var total float64

		if memberBrands[WarehouseClubStoreName] {
			if sub := subtotals[WarehouseClubStoreName]; sub > 0 {
				amount := round2(sub * 0.05)
				total += amount
				discounts = append(discounts,
					fmt.Sprintf("5%% membership discount at %s (-$%.2f)", WarehouseClubStoreName, amount))
			}
		}

		if subtotals[catalog.FredMeyerStoreName] >= fredMeyerCouponThreshold {
			total += 5
			discounts = append(discounts,
				fmt.Sprintf("$5 coupon applied at %s (basket >= $50)", catalog.FredMeyerStoreName))
		}

		plan.Discounts = discounts
		newTotal := plan.TotalPrice - round2(total)
		if newTotal < 0 {
			newTotal = 0
		}
		plan.TotalPrice = round2(newTotal)
	}
}

// storeSubtotals sums item prices per store name. Items with no store
// assignment fall back to the plan's first store, or "Unknown" when the plan
// has none.
func storeSubtotals(plan *model.CandidatePlan) map[string]float64 {
	fallback := "Unknown"
	if len(plan.Stores) > 0 {
		fallback = plan.Stores[0].Name
	}

	subtotals := make(map[string]float64)
	for _, it := range plan.Items {
		name := it.StoreName
		if name == "" {
			name = fallback
		}
		subtotals[name] += it.EstimatedPrice
	}
	return subtotals
}
