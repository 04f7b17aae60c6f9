package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kartquake/kartquake/internal/auth"
	"github.com/kartquake/kartquake/internal/model"
	"github.com/kartquake/kartquake/internal/store"
)

type IntentHandler struct {
	users   *store.UserStore
	intents *store.IntentStore
}

func NewIntentHandler(users *store.UserStore, intents *store.IntentStore) *IntentHandler {
	return &IntentHandler{users: users, intents: intents}
}

func (h *IntentHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.intents.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.ItemIntent{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Create adds one item directly, bypassing the chat assistant. Free-tier
// users are capped on pending items.
func (h *IntentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	var req struct {
		RawText           string         `json:"raw_text"`
		CanonicalCategory string         `json:"canonical_category"`
		Attributes        map[string]any `json:"attributes"`
		Quantity          int            `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.RawText = strings.TrimSpace(req.RawText)
	if req.RawText == "" {
		writeError(w, http.StatusBadRequest, "raw_text is required")
		return
	}

	if user.IsFree() {
		pending, err := h.intents.CountPending(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to count items")
			return
		}
		if pending >= user.FreeItemsLimit {
			writeError(w, http.StatusPaymentRequired, "free tier item limit reached; upgrade to add more items")
			return
		}
	}

	intent, err := h.intents.Create(user.ID, req.RawText, req.CanonicalCategory, req.Attributes, req.Quantity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create item")
		return
	}
	writeJSON(w, http.StatusCreated, intent)
}

// Update applies a partial item update. Absent fields keep their current
// value.
func (h *IntentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	existing, err := h.intents.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if existing == nil || existing.UserID != userID {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	var req struct {
		CanonicalCategory *string         `json:"canonical_category"`
		Attributes        *map[string]any `json:"attributes"`
		Quantity          *int            `json:"quantity"`
		Status            *string         `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	category := existing.CanonicalCategory
	if req.CanonicalCategory != nil {
		category = *req.CanonicalCategory
	}
	attributes := existing.Attributes
	if req.Attributes != nil {
		attributes = *req.Attributes
	}
	quantity := existing.Quantity
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	status := existing.Status
	if req.Status != nil {
		switch *req.Status {
		case model.IntentStatusPending, model.IntentStatusResolved:
			status = *req.Status
		default:
			writeError(w, http.StatusBadRequest, "status must be pending or resolved")
			return
		}
	}

	intent, err := h.intents.Update(existing.ID, category, attributes, quantity, status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	writeJSON(w, http.StatusOK, intent)
}
