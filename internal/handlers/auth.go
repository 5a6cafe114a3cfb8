package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/crucial707/applog/internal/middleware"
	"github.com/crucial707/applog/internal/models"
	"github.com/crucial707/applog/internal/repo"
	"golang.org/x/crypto/bcrypt"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	UserRepo *repo.UserRepo
	Secret   []byte
	// TokenTTL defaults to 24h.
	TokenTTL time.Duration
	// SecureCookie marks the auth cookie Secure (HTTPS only).
	SecureCookie bool
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type credentials struct {
	Username string `json:"username" validate:"required,min=3,max=64,username"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ==========================
// Register
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if !decodeJSON(w, r, &input) {
		return
	}
	if !validateStruct(w, input) {
		return
	}

	cost := h.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), cost)
	if err != nil {
		internalError(w, r, "register: hash password", err)
		return
	}

	user, err := h.UserRepo.Create(r.Context(), input.Username, string(hash), models.RoleUser)
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			JSONError(w, "username already exists", http.StatusConflict)
			return
		}
		internalError(w, r, "register: create user", err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// ==========================
// Login
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.Username == "" || input.Password == "" {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	user, err := h.UserRepo.GetByUsername(r.Context(), input.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		internalError(w, r, "login: load user", err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	signed, exp, err := middleware.NewToken(h.Secret, user, ttl)
	if err != nil {
		internalError(w, r, "login: sign token", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": signed,
		"user":  user,
	})
}

// ==========================
// Logout
// ==========================
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
