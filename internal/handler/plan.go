package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kartquake/kartquake/internal/auth"
	"github.com/kartquake/kartquake/internal/planner"
	"github.com/kartquake/kartquake/internal/push"
	"github.com/kartquake/kartquake/internal/store"
	"github.com/kartquake/kartquake/internal/websocket"
)

type PlanHandler struct {
	planner *planner.Service
	hub     *websocket.Hub
	push    *push.Service
	subs    *store.PushStore
}

// NewPlanHandler wires the planning pipeline to its notification fanout.
// hub and pushService may be nil; notifications are then skipped.
func NewPlanHandler(svc *planner.Service, hub *websocket.Hub, pushService *push.Service, subs *store.PushStore) *PlanHandler {
	return &PlanHandler{planner: svc, hub: hub, push: pushService, subs: subs}
}

// Build runs the planning pipeline and notifies the user about the result
// and any watched price drops.
func (h *PlanHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preference  string `json:"preference"`
		Origin      string `json:"origin"`
		Destination string `json:"destination"`
	}
	if r.Body != nil {
		// An empty body builds with saved constraints only.
		json.NewDecoder(r.Body).Decode(&req)
	}

	userID := auth.UserID(r.Context())
	result, err := h.planner.Build(r.Context(), planner.BuildRequest{
		UserID:      userID,
		Preference:  req.Preference,
		Origin:      req.Origin,
		Destination: req.Destination,
	})
	if err != nil {
		switch {
		case errors.Is(err, planner.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, planner.ErrPlanRunsExhausted):
			writeError(w, http.StatusPaymentRequired, "free plan runs exhausted; upgrade to keep planning")
		case errors.Is(err, planner.ErrNoPendingItems):
			writeError(w, http.StatusBadRequest, "no pending items to plan; add some items first")
		default:
			slog.Error("build plans", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to build plans")
		}
		return
	}

	h.notify(userID, result)
	writeJSON(w, http.StatusOK, result)
}

func (h *PlanHandler) notify(userID string, result *planner.BuildResult) {
	if h.hub != nil {
		h.hub.BroadcastTo(userID, websocket.NewMessage("plan_built", userID, map[string]any{
			"selected_plan_key": result.SelectedKey,
			"plan_count":        len(result.Plans),
		}))
		for _, drop := range result.PriceDrops {
			h.hub.BroadcastTo(drop.UserID, websocket.NewMessage("price_drop", drop.UserID, map[string]any{
				"item_intent_id": drop.ItemIntentID,
				"old_price":      drop.OldPrice,
				"new_price":      drop.NewPrice,
			}))
		}
	}

	if h.push == nil || h.subs == nil {
		return
	}
	for _, drop := range result.PriceDrops {
		subs, err := h.subs.ListByUser(drop.UserID)
		if err != nil {
			slog.Error("list push subscriptions", "error", err)
			continue
		}
		payload := push.Payload{
			Title: "Price drop on a watched item",
			Body:  fmt.Sprintf("Now $%.2f (was $%.2f)", drop.NewPrice, drop.OldPrice),
			Tag:   "price-drop-" + drop.ItemIntentID,
		}
		for i := range subs {
			err := h.push.Send(&subs[i], payload)
			if errors.Is(err, push.ErrExpired) {
				h.subs.DeleteByEndpoint(subs[i].Endpoint)
			} else if err != nil {
				slog.Warn("send push", "error", err)
			}
		}
	}
}
