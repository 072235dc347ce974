package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/userchat-be/internal/models"
	"github.com/isdelr/userchat-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler exposes the user directory. Successful responses use 201 and
// unknown IDs answer null, which is what the frontend expects.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// GetAll handles listing every user.
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.GetAllUsers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, users)
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		h.respondMissing(w, id, err, http.StatusBadRequest, "Failed to get user by ID")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Update handles a partial update of a user record.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch models.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, patch)
	if err != nil {
		h.respondMissing(w, id, err, http.StatusInternalServerError, "Failed to update user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Delete handles removing a user and echoes the deleted record.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.service.DeleteUser(r.Context(), id)
	if err != nil {
		h.respondMissing(w, id, err, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// respondMissing answers null for unknown users and failStatus for anything else.
func (h *UserHandler) respondMissing(w http.ResponseWriter, id string, err error, failStatus int, msg string) {
	if errors.Is(err, services.ErrUserNotFound) {
		writeJSON(w, http.StatusCreated, nil)
		return
	}
	log.Warn().Err(err).Str("user_id", id).Msg(msg)
	writeError(w, failStatus, err.Error())
}
