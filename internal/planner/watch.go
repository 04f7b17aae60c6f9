package planner

import (
	"github.com/kartquake/kartquake/internal/model"
	"github.com/kartquake/kartquake/internal/store"
)

// PriceDrop is one watched item whose best observed price went down during a
// planning run.
type PriceDrop struct {
	UserID       string  `json:"user_id"`
	ItemIntentID string  `json:"item_intent_id"`
	OldPrice     float64 `json:"old_price"`
	NewPrice     float64 `json:"new_price"`
}

// UpdateWatchlistPrices records the cheapest observed price per item across
// the candidate plans into the two-slot watchlist history, and reports which
// watched items got cheaper. Items without an active watch row are left
// alone.
func UpdateWatchlistPrices(watchlist *store.WatchlistStore, userID string, plans []*model.CandidatePlan) ([]PriceDrop, error) {
	best := make(map[string]float64)
	var ids []string
	for _, plan := range plans {
		for _, it := range plan.Items {
			price, seen := best[it.ID]
			if !seen {
				best[it.ID] = it.EstimatedPrice
				ids = append(ids, it.ID)
			} else if it.EstimatedPrice < price {
				best[it.ID] = it.EstimatedPrice
			}
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	watched, err := watchlist.ListActiveByItemIDs(userID, ids)
	if err != nil {
		return nil, err
	}

	var drops []PriceDrop
	for _, w := range watched {
		price := best[w.ItemIntentID]
		if w.LastPrice != nil && price < *w.LastPrice {
			drops = append(drops, PriceDrop{
				UserID:       w.UserID,
				ItemIntentID: w.ItemIntentID,
				OldPrice:     *w.LastPrice,
				NewPrice:     price,
			})
		}
		if err := watchlist.RecordPrice(w.ID, price); err != nil {
			return nil, err
		}
	}
	return drops, nil
}
