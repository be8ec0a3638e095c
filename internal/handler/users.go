package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/actuallystonmai/users-service/internal/domain"
	"github.com/actuallystonmai/users-service/internal/validation"
	"github.com/go-chi/chi/v5"
)

// GET /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GET /api/users/{userID}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.UserInput
	if err := validation.Decode(r.Body, &in); err != nil {
		h.writeServiceError(w, err)
		return
	}

	user, err := h.service.CreateUser(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// PUT /api/users/{userID}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.UserInput
	if err := validation.Decode(r.Body, &in); err != nil {
		h.writeServiceError(w, err)
		return
	}

	// An unparsable id stays 0, which never matches, so body errors still
	// win over the 404.
	id, _ := userID(r)
	user, err := h.service.UpdateUser(r.Context(), id, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DELETE /api/users/{userID}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ready(r.Context()); err != nil {
		log.Printf("[handler] health check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// userID parses the path id. Anything but a positive integer can never
// match a stored user.
func userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, msgUserNotFound)
	default:
		log.Printf("[handler] unexpected error: %v", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}
