package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/userchat-be/internal/auth"
	"github.com/isdelr/userchat-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles signup, login, logout and the current-user lookup.
type AuthHandler struct {
	service  services.AuthServiceProvider
	sessions *auth.Manager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.AuthServiceProvider, sessions *auth.Manager) *AuthHandler {
	return &AuthHandler{service: service, sessions: sessions}
}

// SignupPayload defines the structure for registration requests.
type SignupPayload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role"`
	Password    string `json:"password"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles new user registration.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.Signup(r.Context(), services.SignupInput{
		Name:        payload.Name,
		Email:       payload.Email,
		PhoneNumber: payload.PhoneNumber,
		Role:        payload.Role,
		Password:    payload.Password,
	})
	if err != nil {
		if errors.Is(err, services.ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, "Email already exists")
			return
		}
		log.Error().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The stored record goes back as-is, hash included; the frontend relies on it.
	writeJSON(w, http.StatusCreated, user)
}

// Login verifies credentials and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snap, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	switch {
	case errors.Is(err, services.ErrNoSuchUser):
		writeJSON(w, http.StatusNotFound, "No Records found")
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		writeJSON(w, http.StatusUnauthorized, "Password doesn't match")
		return
	case err != nil:
		log.Error().Err(err).Str("email", payload.Email).Msg("Login failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.sessions.Establish(w, r, snap); err != nil {
		log.Error().Err(err).Str("user_id", snap.ID).Msg("Failed to establish session")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, "Success")
}

// Logout destroys the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.Destroy(w, r)
	switch {
	case errors.Is(err, auth.ErrNoSession):
		writeError(w, http.StatusBadRequest, "No session found")
	case err != nil:
		log.Error().Err(err).Msg("Failed to destroy session")
		writeError(w, http.StatusInternalServerError, "Failed to logout")
	default:
		writeJSON(w, http.StatusOK, "Logout successful")
	}
}

// GetMe returns the user snapshot stored in the session. It can be stale
// if the user was changed after login.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	snap, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": snap})
}
