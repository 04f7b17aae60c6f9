package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kartquake/kartquake/internal/database"
	"github.com/kartquake/kartquake/internal/model"
	"github.com/kartquake/kartquake/internal/store"
)

type serviceFixture struct {
	svc     *Service
	users   *store.UserStore
	trips   *store.TripStore
	intents *store.IntentStore
	oracle  *fakeOracle
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	trips := store.NewTripStore(db)
	intents := store.NewIntentStore(db)
	watchlist := store.NewWatchlistStore(db)
	memberships := store.NewMembershipStore(db)
	oracle := &fakeOracle{}

	return &serviceFixture{
		svc:     NewService(users, trips, intents, watchlist, memberships, oracle, nil),
		users:   users,
		trips:   trips,
		intents: intents,
		oracle:  oracle,
	}
}

func (f *serviceFixture) createUser(t *testing.T) *model.User {
	t.Helper()
	user, err := f.users.Create("", "Shopper", "", "anonymous", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (f *serviceFixture) addIntent(t *testing.T, userID, rawText, category string) *model.ItemIntent {
	t.Helper()
	intent, err := f.intents.Create(userID, rawText, category, nil, 1)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	return intent
}

func TestBuildUnknownUser(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Build(context.Background(), BuildRequest{UserID: "nope"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestBuildNoPendingItems(t *testing.T) {
	f := newServiceFixture(t)
	user := f.createUser(t)

	_, err := f.svc.Build(context.Background(), BuildRequest{UserID: user.ID})
	if !errors.Is(err, ErrNoPendingItems) {
		t.Errorf("err = %v, want ErrNoPendingItems", err)
	}

	// The attempt still consumed a plan run.
	got, err := f.users.GetByID(user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.FreePlanRunsUsed != 1 {
		t.Errorf("plan runs used = %d, want 1", got.FreePlanRunsUsed)
	}
}

func TestBuildFreeRunsExhausted(t *testing.T) {
	f := newServiceFixture(t)
	user := f.createUser(t)
	f.addIntent(t, user.ID, "milk", model.CategoryMilk)

	for i := 0; i < user.FreePlanRunsLimit; i++ {
		if err := f.users.IncrementPlanRuns(user.ID); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	_, err := f.svc.Build(context.Background(), BuildRequest{UserID: user.ID})
	if !errors.Is(err, ErrPlanRunsExhausted) {
		t.Errorf("err = %v, want ErrPlanRunsExhausted", err)
	}
}

func TestBuildFreeUserGetsOneStorePlan(t *testing.T) {
	f := newServiceFixture(t)
	user := f.createUser(t)
	f.addIntent(t, user.ID, "2% milk", model.CategoryMilk)
	f.addIntent(t, user.ID, "large eggs", model.CategoryEggs)

	result, err := f.svc.Build(context.Background(), BuildRequest{UserID: user.ID})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	plan := result.Plans[model.PlanKeyOneStore]
	if len(result.Plans) != 1 || plan == nil {
		t.Fatalf("plans = %d, want only one_store for a free user", len(result.Plans))
	}
	if result.SelectedKey != model.PlanKeyOneStore {
		t.Errorf("selected = %s, want one_store", result.SelectedKey)
	}
	if f.oracle.called {
		t.Error("oracle should not run with a single survivor")
	}
	if !strings.Contains(result.Explanation, "did not satisfy your constraints or your current plan tier") {
		t.Errorf("explanation = %q", result.Explanation)
	}
	if plan.Discounts == nil {
		t.Error("discounts should be an explicit empty list")
	}
	if len(result.Items) != 2 {
		t.Errorf("items = %d, want the planned pending list", len(result.Items))
	}
}

func TestBuildPremiumUsesOracle(t *testing.T) {
	f := newServiceFixture(t)
	user := f.createUser(t)
	if err := f.users.SetPremium(user.ID, 999, 999); err != nil {
		t.Fatalf("set premium: %v", err)
	}
	if err := f.users.SetCostcoAddon(user.ID, true); err != nil {
		t.Fatalf("set addon: %v", err)
	}
	f.addIntent(t, user.ID, "2% milk", model.CategoryMilk)

	f.oracle.key = model.PlanKeyTwoStore
	f.oracle.explanation = "Two stops fit your preference."

	result, err := f.svc.Build(context.Background(), BuildRequest{UserID: user.ID})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(result.Plans) != 3 {
		t.Fatalf("plans = %d, want all three for premium with club access", len(result.Plans))
	}
	if result.SelectedKey != model.PlanKeyTwoStore {
		t.Errorf("selected = %s, want two_store", result.SelectedKey)
	}
	if !f.oracle.called {
		t.Error("oracle should rank multiple survivors")
	}

	// Premium builds do not consume free-tier runs.
	got, err := f.users.GetByID(user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.FreePlanRunsUsed != 0 {
		t.Errorf("plan runs used = %d, want 0 for premium", got.FreePlanRunsUsed)
	}
}

func TestBuildPersistsMergedConstraints(t *testing.T) {
	f := newServiceFixture(t)
	user := f.createUser(t)
	f.addIntent(t, user.ID, "milk", model.CategoryMilk)

	result, err := f.svc.Build(context.Background(), BuildRequest{
		UserID:     user.ID,
		Preference: "avoid costco, cheapest overall",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if !result.Constraints.AvoidCostco {
		t.Error("expected avoid_costco in the result constraints")
	}
	if result.Constraints.OptimizeFor != model.OptimizeCheapestOverall {
		t.Errorf("optimize_for = %q", result.Constraints.OptimizeFor)
	}

	trip, err := f.trips.GetOrCreate(user.ID)
	if err != nil {
		t.Fatalf("load trip: %v", err)
	}
	if !trip.Constraints.AvoidCostco {
		t.Error("merged constraints were not persisted")
	}
}

func TestBuildFreeItemTruncation(t *testing.T) {
	f := newServiceFixture(t)
	user := f.createUser(t)
	for i := 0; i < user.FreeItemsLimit+2; i++ {
		f.addIntent(t, user.ID, fmt.Sprintf("item %d", i), model.CategoryOther)
	}

	result, err := f.svc.Build(context.Background(), BuildRequest{UserID: user.ID})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if got := len(result.Plans[model.PlanKeyOneStore].Items); got != user.FreeItemsLimit {
		t.Errorf("planned items = %d, want the free limit %d", got, user.FreeItemsLimit)
	}
	if got := len(result.Items); got != user.FreeItemsLimit {
		t.Errorf("response items = %d, want the truncated list %d", got, user.FreeItemsLimit)
	}
}

func TestBuildCountsPlanRun(t *testing.T) {
	f := newServiceFixture(t)
	user := f.createUser(t)
	f.addIntent(t, user.ID, "milk", model.CategoryMilk)

	if _, err := f.svc.Build(context.Background(), BuildRequest{UserID: user.ID}); err != nil {
		t.Fatalf("build: %v", err)
	}

	got, err := f.users.GetByID(user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.FreePlanRunsUsed != 1 {
		t.Errorf("plan runs used = %d, want 1", got.FreePlanRunsUsed)
	}
}
