package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/kartquake/kartquake/internal/auth"
	"github.com/kartquake/kartquake/internal/model"
	"github.com/kartquake/kartquake/internal/store"
)

type AuthHandler struct {
	users  *store.UserStore
	secret []byte
}

func NewAuthHandler(users *store.UserStore, secret []byte) *AuthHandler {
	return &AuthHandler{users: users, secret: secret}
}

// Guest creates an anonymous account so the app works before signup.
func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		ZipCode string `json:"zip_code"`
	}
	// Body is optional for guest signup.
	json.NewDecoder(r.Body).Decode(&req)

	user, err := h.users.Create("", strings.TrimSpace(req.Name), strings.TrimSpace(req.ZipCode), "anonymous", "")
	if err != nil {
		slog.Error("create guest user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := auth.IssueToken(h.secret, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"token": token, "user": user})
}

// Register creates a password account, or attaches credentials to the
// calling guest account when the request carries a valid token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		ZipCode  string `json:"zip_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check email")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "an account with that email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	// A guest upgrading keeps their items and trip history.
	user := h.guestFromToken(r)
	if user != nil {
		if err := h.users.SetCredentials(user.ID, req.Email, string(hash)); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to attach credentials")
			return
		}
		user, err = h.users.GetByID(user.ID)
	} else {
		user, err = h.users.Create(req.Email, strings.TrimSpace(req.Name), strings.TrimSpace(req.ZipCode), "password", string(hash))
	}
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := auth.IssueToken(h.secret, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"token": token, "user": user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.users.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}
	if user == nil || user.PasswordHash == "" {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := auth.IssueToken(h.secret, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

// guestFromToken returns the calling anonymous user when the request carries
// a valid token, nil otherwise.
func (h *AuthHandler) guestFromToken(r *http.Request) *model.User {
	header := r.Header.Get("Authorization")
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return nil
	}
	userID, err := auth.ParseToken(h.secret, tokenString)
	if err != nil {
		return nil
	}
	user, err := h.users.GetByID(userID)
	if err != nil || user == nil || user.AuthProvider != "anonymous" {
		return nil
	}
	return user
}
