package model

// Candidate plan keys, in generation order. Selection falls back to the
// first surviving key in this order when the ranking oracle is unavailable.
const (
	PlanKeyOneStore   = "one_store"
	PlanKeyTwoStore   = "two_store"
	PlanKeyThreeStore = "three_store"
)

// PlanStoreStop is one store visit inside a candidate plan.
type PlanStoreStop struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	DistanceMinutes float64 `json:"distance_minutes"`
}

// PlanItem is one priced item assignment inside a candidate plan.
type PlanItem struct {
	ID                string  `json:"id"`
	RawText           string  `json:"raw_text"`
	CanonicalCategory string  `json:"canonical_category,omitempty"`
	Quantity          int     `json:"quantity"`
	StoreID           string  `json:"store_id"`
	StoreName         string  `json:"store_name"`
	EstimatedPrice    float64 `json:"estimated_price"`
	TravelMinutes     float64 `json:"travel_minutes,omitempty"`
}

// CandidatePlan is one store-assignment solution built fresh per planning
// request. It is never persisted; only derived effects (watchlist price
// history) outlive the response.
type CandidatePlan struct {
	Key            string          `json:"key"`
	Label          string          `json:"label"`
	Stores         []PlanStoreStop `json:"stores"`
	NumberOfStores int             `json:"number_of_stores"`
	TotalPrice     float64         `json:"total_price"`
	TravelMinutes  float64         `json:"travel_minutes"`
	Items          []PlanItem      `json:"items"`
	Discounts      []string        `json:"discounts"`
}

// HasStore reports whether the plan visits a store with the given name.
func (p *CandidatePlan) HasStore(name string) bool {
	for _, s := range p.Stores {
		if s.Name == name {
			return true
		}
	}
	return false
}
