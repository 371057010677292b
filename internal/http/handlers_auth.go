package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/storage"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

type sessionResponse struct {
	Token string          `json:"token"`
	User  core.PublicUser `json:"user"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := sanitizeInput(req.Name)
	email := core.NormalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	// Check-then-insert: uniqueness is best effort, two concurrent
	// signups with the same email can race past this check.
	_, err := s.store.UserByEmail(r.Context(), email)
	if err == nil {
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	}
	if !errors.Is(err, storage.ErrNotFound) {
		slog.ErrorContext(r.Context(), "Signup email lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.ErrorContext(r.Context(), "Password hashing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := s.store.CreateUser(r.Context(), core.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "User creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Token signing failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.InfoContext(r.Context(), "User registered", "user_id", user.ID)
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: user.Public()})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Clients may send the login under any of these keys.
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}
	if identifier == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "identifier (email or username) and password required")
		return
	}

	// An identifier containing '@' is treated as an email, anything
	// else as an exact display-name match.
	var (
		user core.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.store.UserByEmail(r.Context(), core.NormalizeEmail(identifier))
	} else {
		user, err = s.store.UserByName(r.Context(), identifier)
	}
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Token signing failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: user.Public()})
}
