package http

import (
	"log/slog"
	"net/http"

	"budgetbuddy/internal/core"
)

type updateUserRequest struct {
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request, user core.User) {
	writeJSON(w, http.StatusOK, user.Public())
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, user core.User) {
	var req updateUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	upd := core.UserUpdate{Image: req.Image}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		upd.Name = &name
	}

	updated, err := s.store.UpdateUser(r.Context(), user.ID, upd)
	if err != nil {
		// The authenticated user vanished between the auth gate and
		// the update; treat it like any other failed resolution.
		slog.WarnContext(r.Context(), "User update failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, updated.Public())
}
