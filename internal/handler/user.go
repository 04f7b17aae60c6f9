package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kartquake/kartquake/internal/auth"
	"github.com/kartquake/kartquake/internal/store"
)

type UserHandler struct {
	users *store.UserStore
}

func NewUserHandler(users *store.UserStore) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe applies a partial profile update. Absent fields keep their
// current value.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	existing, err := h.users.GetByID(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	var req struct {
		Name                *string `json:"name"`
		ZipCode             *string `json:"zip_code"`
		HasCostcoMembership *bool   `json:"has_costco_membership"`
		HasCostcoAddon      *bool   `json:"has_costco_addon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	name := existing.Name
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	zipCode := existing.ZipCode
	if req.ZipCode != nil {
		zipCode = strings.TrimSpace(*req.ZipCode)
	}
	membership := existing.HasCostcoMembership
	if req.HasCostcoMembership != nil {
		membership = *req.HasCostcoMembership
	}
	addon := existing.HasCostcoAddon
	if req.HasCostcoAddon != nil {
		addon = *req.HasCostcoAddon
	}

	user, err := h.users.UpdateProfile(existing.ID, name, zipCode, membership, addon)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
