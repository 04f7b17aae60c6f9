package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kartquake/kartquake/internal/database"
	"github.com/kartquake/kartquake/internal/model"
	"github.com/kartquake/kartquake/internal/store"
)

func setupUserHandler(t *testing.T) (*UserHandler, *model.User) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	user, err := users.Create("", "Sam", "97201", "anonymous", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewUserHandler(users), user
}

func TestUserMe(t *testing.T) {
	h, user := setupUserHandler(t)

	rec := httptest.NewRecorder()
	h.Me(rec, authedRequest("GET", "/api/me", "", user.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got model.User
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != user.ID || got.Name != "Sam" || got.ZipCode != "97201" {
		t.Errorf("user = %+v", got)
	}
}

func TestUserMeUnknown(t *testing.T) {
	h, _ := setupUserHandler(t)

	rec := httptest.NewRecorder()
	h.Me(rec, authedRequest("GET", "/api/me", "", "ghost"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUserUpdateMePartial(t *testing.T) {
	h, user := setupUserHandler(t)

	rec := httptest.NewRecorder()
	h.UpdateMe(rec, authedRequest("PATCH", "/api/me", `{"has_costco_membership": true}`, user.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got model.User
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.HasCostcoMembership {
		t.Error("expected membership flag set")
	}
	if got.Name != "Sam" || got.ZipCode != "97201" {
		t.Errorf("absent fields changed: %+v", got)
	}
}

func TestUserUpdateMeTrimsFields(t *testing.T) {
	h, user := setupUserHandler(t)

	rec := httptest.NewRecorder()
	h.UpdateMe(rec, authedRequest("PATCH", "/api/me", `{"name": "  Pat  ", "zip_code": " 98101 "}`, user.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got model.User
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Pat" || got.ZipCode != "98101" {
		t.Errorf("user = %+v", got)
	}
}
