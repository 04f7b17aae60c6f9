package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kartquake/kartquake/internal/database"
	"github.com/kartquake/kartquake/internal/model"
	"github.com/kartquake/kartquake/internal/planner"
	"github.com/kartquake/kartquake/internal/store"
)

func setupPlanHandler(t *testing.T) (*PlanHandler, *store.IntentStore, *store.UserStore, *model.User) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	intents := store.NewIntentStore(db)
	svc := planner.NewService(users,
		store.NewTripStore(db), intents,
		store.NewWatchlistStore(db), store.NewMembershipStore(db),
		nil, nil)

	user, err := users.Create("", "Planner", "", "anonymous", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewPlanHandler(svc, nil, nil, nil), intents, users, user
}

func TestPlanBuild(t *testing.T) {
	h, intents, _, user := setupPlanHandler(t)
	if _, err := intents.Create(user.ID, "2% milk", model.CategoryMilk, map[string]any{"fat_level": "2%"}, 1); err != nil {
		t.Fatalf("create intent: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Build(rec, authedRequest("POST", "/api/plans/build", `{}`, user.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var result planner.BuildResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.SelectedKey == "" || len(result.Plans) == 0 {
		t.Errorf("result = %+v", result)
	}
	if result.Plans[result.SelectedKey] == nil {
		t.Errorf("selected key %q not present in plans %v", result.SelectedKey, result.Plans)
	}
}

func TestPlanBuildResponseKeyedByPlan(t *testing.T) {
	h, intents, _, user := setupPlanHandler(t)
	if _, err := intents.Create(user.ID, "2% milk", model.CategoryMilk, nil, 1); err != nil {
		t.Fatalf("create intent: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Build(rec, authedRequest("POST", "/api/plans/build", `{}`, user.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var raw struct {
		Items       []map[string]any          `json:"items"`
		Plans       map[string]map[string]any `json:"plans"`
		SelectedKey string                    `json:"selected_plan_key"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("decode raw response: %v", err)
	}

	if len(raw.Items) != 1 {
		t.Errorf("items = %d, want the planned pending list", len(raw.Items))
	}
	selected, ok := raw.Plans[raw.SelectedKey]
	if !ok {
		t.Fatalf("plans lack the selected key %q: %v", raw.SelectedKey, raw.Plans)
	}
	if selected["key"] != raw.SelectedKey {
		t.Errorf("plan key field = %v, want %q", selected["key"], raw.SelectedKey)
	}
}

func TestPlanBuildEmptyBody(t *testing.T) {
	h, intents, _, user := setupPlanHandler(t)
	if _, err := intents.Create(user.ID, "eggs", model.CategoryEggs, nil, 1); err != nil {
		t.Fatalf("create intent: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Build(rec, authedRequest("POST", "/api/plans/build", "", user.ID))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPlanBuildNoItems(t *testing.T) {
	h, _, _, user := setupPlanHandler(t)

	rec := httptest.NewRecorder()
	h.Build(rec, authedRequest("POST", "/api/plans/build", `{}`, user.ID))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 with no pending items", rec.Code)
	}
}

func TestPlanBuildUnknownUser(t *testing.T) {
	h, _, _, _ := setupPlanHandler(t)

	rec := httptest.NewRecorder()
	h.Build(rec, authedRequest("POST", "/api/plans/build", `{}`, "ghost"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPlanBuildRunsExhausted(t *testing.T) {
	h, intents, users, user := setupPlanHandler(t)
	if _, err := intents.Create(user.ID, "milk", model.CategoryMilk, nil, 1); err != nil {
		t.Fatalf("create intent: %v", err)
	}
	for i := 0; i < user.FreePlanRunsLimit; i++ {
		if err := users.IncrementPlanRuns(user.ID); err != nil {
			t.Fatalf("increment plan runs: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	h.Build(rec, authedRequest("POST", "/api/plans/build", `{}`, user.ID))

	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("status = %d, want 402", rec.Code)
	}
}
