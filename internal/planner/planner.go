package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kartquake/kartquake/internal/constraints"
	"github.com/kartquake/kartquake/internal/model"
	"github.com/kartquake/kartquake/internal/store"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrPlanRunsExhausted = errors.New("free plan runs exhausted")
	ErrNoPendingItems    = errors.New("no pending items to plan")
)

// Service runs the full planning pipeline for one request.
type Service struct {
	users       *store.UserStore
	trips       *store.TripStore
	intents     *store.IntentStore
	watchlist   *store.WatchlistStore
	memberships *store.MembershipStore
	oracle      Oracle
	augmenter   *Augmenter
	logger      *slog.Logger
}

func NewService(users *store.UserStore, trips *store.TripStore, intents *store.IntentStore,
	watchlist *store.WatchlistStore, memberships *store.MembershipStore,
	oracle Oracle, augmenter *Augmenter) *Service {
	return &Service{
		users:       users,
		trips:       trips,
		intents:     intents,
		watchlist:   watchlist,
		memberships: memberships,
		oracle:      oracle,
		augmenter:   augmenter,
		logger:      slog.Default(),
	}
}

// BuildRequest carries the planning inputs. Preference is free-form trip
// language merged into the user's saved constraints before planning.
type BuildRequest struct {
	UserID      string
	Preference  string
	Origin      string
	Destination string
}

// BuildResult is the full planning response. Plans are keyed by plan key so
// the client can look up the recommended plan directly; Items is the pending
// list the plans were actually built from, after any free-tier truncation.
type BuildResult struct {
	Items       []model.ItemIntent              `json:"items"`
	Plans       map[string]*model.CandidatePlan `json:"plans"`
	SelectedKey string                          `json:"selected_plan_key"`
	Explanation string                          `json:"explanation"`
	Constraints model.PlanConstraints           `json:"constraints"`
	PriceDrops  []PriceDrop                     `json:"-"`
}

// Build runs the pipeline: tier gate, constraint merge, candidate
// generation, travel augmentation, admissibility filtering, discounts,
// watchlist price recording, and selection.
func (s *Service) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	user, err := s.users.GetByID(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if user.IsFree() {
		if user.FreePlanRunsUsed >= user.FreePlanRunsLimit {
			return nil, ErrPlanRunsExhausted
		}
		if err := s.users.IncrementPlanRuns(user.ID); err != nil {
			return nil, fmt.Errorf("count plan run: %w", err)
		}
	}

	trip, err := s.trips.GetOrCreate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("load trip session: %w", err)
	}
	tripConstraints := trip.Constraints
	if req.Preference != "" {
		merged := constraints.Parse(req.Preference, tripConstraints)
		if !merged.Equal(tripConstraints) {
			if err := s.trips.SaveConstraints(trip.ID, merged); err != nil {
				return nil, fmt.Errorf("save constraints: %w", err)
			}
		}
		tripConstraints = merged
	}

	pending, err := s.intents.ListPending(user.ID)
	if err != nil {
		return nil, fmt.Errorf("load pending items: %w", err)
	}
	if len(pending) == 0 {
		return nil, ErrNoPendingItems
	}
	if user.IsFree() && len(pending) > user.FreeItemsLimit {
		pending = pending[:user.FreeItemsLimit]
	}

	gen := Generate(pending)

	if s.augmenter != nil && (req.Origin != "" || req.Destination != "") {
		s.augmenter.Augment(ctx, gen.Plans, req.Origin, req.Destination)
	}

	survivors := Filter(gen.Plans, user, tripConstraints)

	memberBrands, err := s.memberships.MemberBrands(user.ID)
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}
	ApplyDiscounts(survivors, memberBrands)

	drops, err := UpdateWatchlistPrices(s.watchlist, user.ID, survivors)
	if err != nil {
		return nil, fmt.Errorf("update watchlist: %w", err)
	}

	key, explanation := Select(ctx, s.oracle, survivors, req.Preference, tripConstraints, gen.SubstitutionNotes)

	s.logger.Info("built plans",
		"user_id", user.ID,
		"candidates", len(survivors),
		"selected", key,
		"price_drops", len(drops))

	keyed := make(map[string]*model.CandidatePlan, len(survivors))
	for _, p := range survivors {
		keyed[p.Key] = p
	}

	return &BuildResult{
		Items:       pending,
		Plans:       keyed,
		SelectedKey: key,
		Explanation: explanation,
		Constraints: tripConstraints,
		PriceDrops:  drops,
	}, nil
}
