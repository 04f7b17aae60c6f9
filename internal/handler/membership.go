package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kartquake/kartquake/internal/auth"
	"github.com/kartquake/kartquake/internal/locator"
	"github.com/kartquake/kartquake/internal/model"
	"github.com/kartquake/kartquake/internal/planner"
	"github.com/kartquake/kartquake/internal/store"
)

type MembershipHandler struct {
	memberships *store.MembershipStore
	users       *store.UserStore
	resolver    *locator.Resolver
}

func NewMembershipHandler(memberships *store.MembershipStore, users *store.UserStore, resolver *locator.Resolver) *MembershipHandler {
	return &MembershipHandler{memberships: memberships, users: users, resolver: resolver}
}

// Create registers a store membership, materializing the store location on
// the way. A warehouse club membership also flips the user's profile flag
// so the planner admits club-store plans.
func (h *MembershipHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req struct {
		StoreBrand           string `json:"store_brand"`
		LocationDisplayName  string `json:"location_display_name"`
		MembershipType       string `json:"membership_type"`
		ExternalMembershipID string `json:"external_membership_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.StoreBrand = strings.TrimSpace(req.StoreBrand)
	if req.StoreBrand == "" {
		writeError(w, http.StatusBadRequest, "store_brand is required")
		return
	}
	displayName := strings.TrimSpace(req.LocationDisplayName)
	if displayName == "" {
		displayName = req.StoreBrand
	}

	location, err := h.resolver.ResolveOrCreate(r.Context(), req.StoreBrand, displayName, req.StoreBrand+" "+displayName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve store location")
		return
	}

	membership, err := h.memberships.Create(userID, location.ID, req.MembershipType, req.ExternalMembershipID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create membership")
		return
	}

	if req.StoreBrand == planner.WarehouseClubStoreName {
		if user, err := h.users.GetByID(userID); err == nil && user != nil && !user.HasCostcoMembership {
			h.users.UpdateProfile(user.ID, user.Name, user.ZipCode, true, user.HasCostcoAddon)
		}
	}

	writeJSON(w, http.StatusCreated, membership)
}

func (h *MembershipHandler) List(w http.ResponseWriter, r *http.Request) {
	memberships, err := h.memberships.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list memberships")
		return
	}
	if memberships == nil {
		memberships = []model.MembershipInfo{}
	}
	writeJSON(w, http.StatusOK, memberships)
}
