package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kartquake/kartquake/internal/auth"
	"github.com/kartquake/kartquake/internal/constraints"
	"github.com/kartquake/kartquake/internal/llm"
	"github.com/kartquake/kartquake/internal/model"
	"github.com/kartquake/kartquake/internal/store"
)

// IntentExtractor is the piece of the LLM client the chat flow needs.
type IntentExtractor interface {
	ExtractIntents(ctx context.Context, message string) (llm.Extraction, error)
}

type ChatHandler struct {
	users     *store.UserStore
	trips     *store.TripStore
	intents   *store.IntentStore
	extractor IntentExtractor
}

func NewChatHandler(users *store.UserStore, trips *store.TripStore, intents *store.IntentStore, extractor IntentExtractor) *ChatHandler {
	return &ChatHandler{users: users, trips: trips, intents: intents, extractor: extractor}
}

// Keywords that mark a message as shopping-related even when extraction
// came back empty.
var shoppingKeywords = []string{
	"buy", "need", "get", "pick up", "grocery", "groceries", "store", "shopping",
	"milk", "eggs", "cereal", "tablet", "detergent",
}

func looksLikeShopping(message string) bool {
	t := strings.ToLower(message)
	for _, kw := range shoppingKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	for _, r := range message {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

type chatResponse struct {
	Reply       string                `json:"reply"`
	Items       []model.ItemIntent    `json:"items"`
	Constraints model.PlanConstraints `json:"constraints"`
}

// Message runs one assistant turn: merge trip constraints from the text,
// extract item intents, and persist what the user's tier allows.
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
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
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	trip, err := h.trips.GetOrCreate(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load trip session")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusOK, chatResponse{
			Reply:       "Tell me what you need to buy, or ask me to plan your shopping trip.",
			Items:       []model.ItemIntent{},
			Constraints: trip.Constraints,
		})
		return
	}

	tripConstraints := trip.Constraints
	if merged := constraints.Parse(message, tripConstraints); !merged.Equal(tripConstraints) {
		if err := h.trips.SaveConstraints(trip.ID, merged); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save constraints")
			return
		}
		tripConstraints = merged
	}

	extraction, err := h.extractor.ExtractIntents(r.Context(), message)
	if err != nil {
		slog.Error("extract intents", "error", err)
		writeError(w, http.StatusBadGateway, "the assistant is unavailable right now")
		return
	}

	switch ex := extraction.(type) {
	case llm.Clarification:
		writeJSON(w, http.StatusOK, chatResponse{
			Reply:       ex.Reply,
			Items:       []model.ItemIntent{},
			Constraints: tripConstraints,
		})
		return

	case llm.IntentList:
		h.handleIntentList(w, r, user, tripConstraints, message, ex)

	default:
		writeError(w, http.StatusInternalServerError, "unexpected assistant response")
	}
}

func (h *ChatHandler) handleIntentList(w http.ResponseWriter, r *http.Request, user *model.User, c model.PlanConstraints, message string, list llm.IntentList) {
	drafts := list.Intents
	if len(drafts) == 0 {
		reply := list.Reply
		if looksLikeShopping(message) {
			reply = "It sounds like you want to buy something, but I couldn't work out what. Could you name the items?"
		}
		if reply == "" {
			reply = "Happy to help with your shopping. What do you need?"
		}
		writeJSON(w, http.StatusOK, chatResponse{Reply: reply, Items: []model.ItemIntent{}, Constraints: c})
		return
	}

	var truncated bool
	if user.IsFree() {
		pending, err := h.intents.CountPending(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to count items")
			return
		}
		if pending >= user.FreeItemsLimit {
			writeJSON(w, http.StatusOK, chatResponse{
				Reply: fmt.Sprintf("Your list is full: the free plan tracks up to %d items at a time. Build a plan, resolve some items, or upgrade to add more.",
					user.FreeItemsLimit),
				Items:       []model.ItemIntent{},
				Constraints: c,
			})
			return
		}
		if remaining := user.FreeItemsLimit - pending; len(drafts) > remaining {
			drafts = drafts[:remaining]
			truncated = true
		}
	}

	created := []model.ItemIntent{}
	for _, d := range drafts {
		if strings.TrimSpace(d.RawText) == "" {
			continue
		}
		intent, err := h.intents.Create(user.ID, d.RawText, d.CanonicalCategory, d.Attributes, d.Quantity)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save items")
			return
		}
		created = append(created, *intent)
	}

	reply := list.Reply
	if reply == "" {
		switch len(created) {
		case 0:
			reply = "I didn't find any items to add."
		case 1:
			reply = fmt.Sprintf("I added %q to your list.", created[0].RawText)
		default:
			reply = fmt.Sprintf("I added %d items to your list.", len(created))
		}
	}
	if truncated {
		reply += fmt.Sprintf(" I could only add %d of them: the free plan tracks up to %d items at a time.",
			len(created), user.FreeItemsLimit)
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, Items: created, Constraints: c})
}
