package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kartquake/kartquake/internal/auth"
	"github.com/kartquake/kartquake/internal/database"
	"github.com/kartquake/kartquake/internal/store"
)

var testSecret = []byte("test-secret")

func setupAuthHandler(t *testing.T) (*AuthHandler, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	return NewAuthHandler(users, testSecret), users
}

func decodeAuthResponse(t *testing.T, rec *httptest.ResponseRecorder) (string, map[string]any) {
	t.Helper()
	var body struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body.Token, body.User
}

func TestGuestSignup(t *testing.T) {
	h, _ := setupAuthHandler(t)

	req := httptest.NewRequest("POST", "/api/auth/guest", strings.NewReader(`{"name": "Sam"}`))
	rec := httptest.NewRecorder()
	h.Guest(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	token, user := decodeAuthResponse(t, rec)
	if token == "" {
		t.Error("expected a token")
	}
	if user["auth_provider"] != "anonymous" {
		t.Errorf("auth_provider = %v", user["auth_provider"])
	}

	userID, err := auth.ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if userID != user["id"] {
		t.Errorf("token subject = %q, user id = %v", userID, user["id"])
	}
}

func TestGuestSignupEmptyBody(t *testing.T) {
	h, _ := setupAuthHandler(t)

	req := httptest.NewRequest("POST", "/api/auth/guest", nil)
	rec := httptest.NewRecorder()
	h.Guest(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 for an empty body", rec.Code)
	}
}

func TestRegister(t *testing.T) {
	h, _ := setupAuthHandler(t)

	req := httptest.NewRequest("POST", "/api/auth/register",
		strings.NewReader(`{"email": "sam@example.com", "password": "longenough", "name": "Sam"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	_, user := decodeAuthResponse(t, rec)
	if user["email"] != "sam@example.com" {
		t.Errorf("email = %v", user["email"])
	}
	if user["auth_provider"] != "password" {
		t.Errorf("auth_provider = %v", user["auth_provider"])
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _ := setupAuthHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"password": "longenough"}`},
		{"bad email", `{"email": "nope", "password": "longenough"}`},
		{"short password", `{"email": "a@b.com", "password": "short"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Register(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _ := setupAuthHandler(t)

	body := `{"email": "sam@example.com", "password": "longenough"}`
	req := httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(body))
	h.Register(httptest.NewRecorder(), req)

	req = httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestRegisterUpgradesGuest(t *testing.T) {
	h, users := setupAuthHandler(t)

	guest, err := users.Create("", "Guest", "", "anonymous", "")
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}
	token, err := auth.IssueToken(testSecret, guest.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/auth/register",
		strings.NewReader(`{"email": "guest@example.com", "password": "longenough"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	_, user := decodeAuthResponse(t, rec)
	if user["id"] != guest.ID {
		t.Errorf("user id = %v, want the upgraded guest %s", user["id"], guest.ID)
	}
	if user["auth_provider"] != "password" {
		t.Errorf("auth_provider = %v", user["auth_provider"])
	}
}

func TestLogin(t *testing.T) {
	h, _ := setupAuthHandler(t)

	req := httptest.NewRequest("POST", "/api/auth/register",
		strings.NewReader(`{"email": "sam@example.com", "password": "longenough"}`))
	h.Register(httptest.NewRecorder(), req)

	req = httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"email": "sam@example.com", "password": "longenough"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := decodeAuthResponse(t, rec)
	if token == "" {
		t.Error("expected a token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h, _ := setupAuthHandler(t)

	req := httptest.NewRequest("POST", "/api/auth/register",
		strings.NewReader(`{"email": "sam@example.com", "password": "longenough"}`))
	h.Register(httptest.NewRecorder(), req)

	req = httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"email": "sam@example.com", "password": "wrongwrong"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	h, _ := setupAuthHandler(t)

	req := httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"email": "nobody@example.com", "password": "whatever1"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
