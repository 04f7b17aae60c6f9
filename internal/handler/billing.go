package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/kartquake/kartquake/internal/auth"
	"github.com/kartquake/kartquake/internal/billing"
	"github.com/kartquake/kartquake/internal/store"
)

// Limits applied when a user upgrades to premium.
const premiumLimit = 999999

type BillingHandler struct {
	billing *billing.Client
	users   *store.UserStore
}

func NewBillingHandler(client *billing.Client, users *store.UserStore) *BillingHandler {
	return &BillingHandler{billing: client, users: users}
}

// Checkout starts a Stripe checkout session for the premium plan or the
// club-store add-on.
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan string `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Plan != billing.PlanPremium && req.Plan != billing.PlanCostcoAddon {
		writeError(w, http.StatusBadRequest, "plan must be premium or costco_addon")
		return
	}

	url, err := h.billing.CreateCheckoutSession(auth.UserID(r.Context()), req.Plan)
	if errors.Is(err, billing.ErrUnknownPlan) {
		writeError(w, http.StatusInternalServerError, "billing is not configured for that plan")
		return
	}
	if err != nil {
		slog.Error("create checkout session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start checkout")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Webhook applies completed checkouts to the user account.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}

	event, err := h.billing.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	if event.Type == "checkout.session.completed" {
		h.handleCheckoutCompleted(event)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *BillingHandler) handleCheckoutCompleted(event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		slog.Error("webhook: unmarshal checkout session", "error", err)
		return
	}

	userID := sess.Metadata["user_id"]
	plan := sess.Metadata["plan"]
	if userID == "" {
		slog.Error("webhook: checkout session missing user_id metadata")
		return
	}

	switch plan {
	case billing.PlanPremium:
		if err := h.users.SetPremium(userID, premiumLimit, premiumLimit); err != nil {
			slog.Error("webhook: set premium", "error", err, "user_id", userID)
			return
		}
	case billing.PlanCostcoAddon:
		if err := h.users.SetCostcoAddon(userID, true); err != nil {
			slog.Error("webhook: set costco addon", "error", err, "user_id", userID)
			return
		}
	default:
		slog.Warn("webhook: unknown plan in metadata", "plan", plan)
		return
	}

	slog.Info("webhook: checkout completed", "user_id", userID, "plan", plan)
}
