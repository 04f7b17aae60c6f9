package model

import "time"

// Optimization objectives for plan selection.
const (
	OptimizeBalanced        = "balanced"
	OptimizeCheapestOverall = "cheapest_overall"
	OptimizeFastestDrive    = "fastest_drive"
)

// PlanConstraints is the persisted "trip memory": structured rules distilled
// from the user's free-form messages. AvoidCostco and MustIncludeCostco are
// mutually exclusive; the constraint parser enforces that whichever is set
// last clears the other.
type PlanConstraints struct {
	MaxStores          *int   `json:"max_stores,omitempty"`
	AvoidCostco        bool   `json:"avoid_costco"`
	MustIncludeCostco  bool   `json:"must_include_costco"`
	IncludeCheapestGas bool   `json:"include_cheapest_gas"`
	OptimizeFor        string `json:"optimize_for"`
}

// DefaultConstraints returns the zero-rule constraint set.
func DefaultConstraints() PlanConstraints {
	return PlanConstraints{OptimizeFor: OptimizeBalanced}
}

// Equal compares two constraint sets field by field. Used to skip persisting
// a merge that did not change anything.
func (c PlanConstraints) Equal(o PlanConstraints) bool {
	if (c.MaxStores == nil) != (o.MaxStores == nil) {
		return false
	}
	if c.MaxStores != nil && *c.MaxStores != *o.MaxStores {
		return false
	}
	return c.AvoidCostco == o.AvoidCostco &&
		c.MustIncludeCostco == o.MustIncludeCostco &&
		c.IncludeCheapestGas == o.IncludeCheapestGas &&
		c.OptimizeFor == o.OptimizeFor
}

// TripSession holds one user's current trip constraints. One session per
// user, fetched by recency and created lazily on first use.
type TripSession struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Constraints PlanConstraints `json:"constraints"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
