package model

import "time"

// WatchlistItem tracks prices for one item intent. Two-slot history: last
// observed price and the one before it. Toggling an existing row flips
// IsActive instead of deleting.
type WatchlistItem struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ItemIntentID  string    `json:"item_intent_id"`
	IsActive      bool      `json:"is_active"`
	LastPrice     *float64  `json:"last_price,omitempty"`
	PreviousPrice *float64  `json:"previous_price,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WatchedItem is a watchlist row joined with its item intent, including the
// derived drop amount (previous - last; positive means the price went down).
type WatchedItem struct {
	ItemID            string   `json:"item_id"`
	RawText           string   `json:"raw_text"`
	CanonicalCategory string   `json:"canonical_category,omitempty"`
	LastPrice         *float64 `json:"last_price,omitempty"`
	PreviousPrice     *float64 `json:"previous_price,omitempty"`
	PriceDrop         *float64 `json:"price_drop,omitempty"`
}
