// Package http exposes the ledger REST API. Handlers are backend
// agnostic: they talk to a storage.Store, and the selector behind it
// decides per call whether the document database or the file store
// answers.
package http

import (
	"net/http"

	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/events"
	"budgetbuddy/internal/storage"
)

type Server struct {
	http.Server
	store     storage.Store
	tokens    *auth.TokenManager
	publisher *events.Client
}

// NewServer configures routes and middleware, returning a
// ready-to-run http.Server. publisher may be nil; ledger events are
// then skipped.
func NewServer(addr string, store storage.Store, tokens *auth.TokenManager, publisher *events.Client) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:     store,
		tokens:    tokens,
		publisher: publisher,
	}

	mux.HandleFunc("GET /{$}", s.withRequestLog(s.handleIndex))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/signup", s.withRequestLog(s.handleSignup))
	mux.HandleFunc("POST /api/login", s.withRequestLog(s.handleLogin))

	mux.HandleFunc("GET /api/user", s.withRequestLog(s.requireAuth(s.handleGetUser)))
	mux.HandleFunc("PUT /api/user", s.withRequestLog(s.requireAuth(s.handleUpdateUser)))

	mux.HandleFunc("GET /api/transactions", s.withRequestLog(s.requireAuth(s.handleListTransactions)))
	mux.HandleFunc("POST /api/transactions", s.withRequestLog(s.requireAuth(s.handleCreateTransaction)))
	mux.HandleFunc("POST /api/expense", s.withRequestLog(s.requireAuth(s.handleAddExpense)))
	mux.HandleFunc("POST /api/income", s.withRequestLog(s.requireAuth(s.handleAddIncome)))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withRequestLog(s.requireAuth(s.handleDeleteTransaction)))
	mux.HandleFunc("GET /api/summary", s.withRequestLog(s.requireAuth(s.handleSummary)))

	return s
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	// The API stays up without the primary backend, so readiness does
	// not depend on a database probe.
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleIndex makes the API discoverable in a browser.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Budget Buddy API",
		"info":    "See /api/* endpoints",
		"endpoints": []string{
			"/api/signup",
			"/api/login",
			"/api/user",
			"/api/transactions",
			"/api/summary",
		},
	})
}
