package model

import "time"

// Item intent lifecycle states.
const (
	IntentStatusPending  = "pending"
	IntentStatusResolved = "resolved"
)

// Canonical categories the extraction oracle is allowed to emit. Anything
// else is stored as "other".
const (
	CategoryMilk      = "milk"
	CategoryEggs      = "eggs"
	CategoryCereal    = "cereal"
	CategoryTablet    = "tablet"
	CategoryDetergent = "detergent"
	CategoryOther     = "other"
)

// ItemIntent is one parsed product the user wants to buy. Attributes is an
// open bag keyed by category-specific keys (fat_level, volume, brand, ...).
type ItemIntent struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	RawText           string         `json:"raw_text"`
	CanonicalCategory string         `json:"canonical_category,omitempty"`
	Attributes        map[string]any `json:"attributes"`
	Quantity          int            `json:"quantity"`
	Status            string         `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
}

// EffectiveQuantity clamps the quantity to at least one for pricing.
func (i *ItemIntent) EffectiveQuantity() int {
	if i.Quantity < 1 {
		return 1
	}
	return i.Quantity
}
