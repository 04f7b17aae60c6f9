package handler

import (
	"encoding/json"
	"net/http"

	"github.com/kartquake/kartquake/internal/auth"
	"github.com/kartquake/kartquake/internal/model"
	"github.com/kartquake/kartquake/internal/store"
)

type WatchlistHandler struct {
	watchlist *store.WatchlistStore
	intents   *store.IntentStore
}

func NewWatchlistHandler(watchlist *store.WatchlistStore, intents *store.IntentStore) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist, intents: intents}
}

// Toggle watches an item, or flips the active flag when a watch row already
// exists. History survives toggling off and back on.
func (h *WatchlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req struct {
		ItemIntentID string `json:"item_intent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ItemIntentID == "" {
		writeError(w, http.StatusBadRequest, "item_intent_id is required")
		return
	}

	intent, err := h.intents.GetByID(req.ItemIntentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if intent == nil || intent.UserID != userID {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	existing, err := h.watchlist.GetByUserItem(userID, req.ItemIntentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get watchlist item")
		return
	}

	var item *model.WatchlistItem
	if existing == nil {
		item, err = h.watchlist.Create(userID, req.ItemIntentID)
	} else {
		item, err = h.watchlist.ToggleActive(existing.ID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update watchlist")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.watchlist.ListWatched(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list watched items")
		return
	}
	if items == nil {
		items = []model.WatchedItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *WatchlistHandler) PriceDrops(w http.ResponseWriter, r *http.Request) {
	items, err := h.watchlist.ListDrops(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list price drops")
		return
	}
	if items == nil {
		items = []model.WatchedItem{}
	}
	writeJSON(w, http.StatusOK, items)
}
