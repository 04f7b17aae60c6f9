package planner

import "github.com/kartquake/kartquake/internal/model"

// Allowed reports whether a plan survives the user's trip constraints and
// plan tier.
func Allowed(plan *model.CandidatePlan, user *model.User, c model.PlanConstraints) bool {
	if user.IsFree() && plan.NumberOfStores > 1 {
		return false
	}
	if c.MaxStores != nil && plan.NumberOfStores > *c.MaxStores {
		return false
	}

	visitsClub := plan.HasStore(WarehouseClubStoreName)
	if c.AvoidCostco && visitsClub {
		return false
	}
	if c.MustIncludeCostco && !visitsClub {
		return false
	}
	if visitsClub && !user.AllowClubStore() {
		return false
	}
	return true
}

// Filter drops plans the user cannot take. When nothing survives, the
// one-store plan is kept anyway so there is always something to select.
func Filter(plans []*model.CandidatePlan, user *model.User, c model.PlanConstraints) []*model.CandidatePlan {
	var kept []*model.CandidatePlan
	for _, plan := range plans {
		if Allowed(plan, user, c) {
			kept = append(kept, plan)
		}
	}
	if len(kept) > 0 {
		return kept
	}

	for _, plan := range plans {
		if plan.Key == model.PlanKeyOneStore {
			return []*model.CandidatePlan{plan}
		}
	}
	return plans[:1]
}
