package store

import (
	"testing"

	"github.com/kartquake/kartquake/internal/database"
	"github.com/kartquake/kartquake/internal/model"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreateGuest(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("", "Guest", "97201", "anonymous", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == "" {
		t.Error("expected a generated id")
	}
	if u.Email != "" {
		t.Errorf("email = %q, want empty", u.Email)
	}
	if u.AuthProvider != "anonymous" {
		t.Errorf("auth provider = %q", u.AuthProvider)
	}
	if !u.IsFree() {
		t.Error("new users start on the free plan")
	}
	if u.FreeItemsLimit != model.DefaultFreeItemsLimit {
		t.Errorf("items limit = %d, want %d", u.FreeItemsLimit, model.DefaultFreeItemsLimit)
	}
	if u.FreePlanRunsLimit != model.DefaultFreePlanRunsLimit {
		t.Errorf("plan runs limit = %d, want %d", u.FreePlanRunsLimit, model.DefaultFreePlanRunsLimit)
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.Create("alice@example.com", "Alice", "", "password", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create("alice@example.com", "Alice2", "", "password", "hash"); err == nil {
		t.Fatal("expected error for duplicate email")
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.GetByID("missing")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if u != nil {
		t.Error("expected nil for nonexistent user")
	}
}

func TestUserGetByEmail(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.Create("alice@example.com", "Alice", "", "password", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	u, err := us.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u == nil {
		t.Fatal("expected user")
	}
	if u.Name != "Alice" || u.PasswordHash != "hash" {
		t.Errorf("user = %+v", u)
	}
}

func TestUserSetCredentials(t *testing.T) {
	us := setupUserTestDB(t)

	guest, err := us.Create("", "Guest", "", "anonymous", "")
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}

	if err := us.SetCredentials(guest.ID, "new@example.com", "hash2"); err != nil {
		t.Fatalf("set credentials: %v", err)
	}

	u, err := us.GetByID(guest.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.Email != "new@example.com" || u.AuthProvider != "password" {
		t.Errorf("user = %+v, want upgraded credentials", u)
	}
}

func TestUserUpdateProfile(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("", "Before", "", "anonymous", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	updated, err := us.UpdateProfile(u.ID, "After", "97202", true, false)
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != "After" || updated.ZipCode != "97202" {
		t.Errorf("profile = %+v", updated)
	}
	if !updated.HasCostcoMembership {
		t.Error("expected membership flag set")
	}
}

func TestUserSetPremium(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("", "Shopper", "", "anonymous", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := us.SetPremium(u.ID, 100, 200); err != nil {
		t.Fatalf("set premium: %v", err)
	}

	got, _ := us.GetByID(u.ID)
	if got.IsFree() {
		t.Error("expected premium plan")
	}
	if got.FreeItemsLimit != 100 || got.FreePlanRunsLimit != 200 {
		t.Errorf("limits = %d/%d", got.FreeItemsLimit, got.FreePlanRunsLimit)
	}
}

func TestUserSetCostcoAddon(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("", "Shopper", "", "anonymous", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.AllowClubStore() {
		t.Error("new users have no club access")
	}

	if err := us.SetCostcoAddon(u.ID, true); err != nil {
		t.Fatalf("set addon: %v", err)
	}
	got, _ := us.GetByID(u.ID)
	if !got.AllowClubStore() {
		t.Error("expected club access with the add-on")
	}
}

func TestUserIncrementPlanRuns(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("", "Shopper", "", "anonymous", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := us.IncrementPlanRuns(u.ID); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	got, _ := us.GetByID(u.ID)
	if got.FreePlanRunsUsed != 3 {
		t.Errorf("runs used = %d, want 3", got.FreePlanRunsUsed)
	}
}
