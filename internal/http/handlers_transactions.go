package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/events"
	"budgetbuddy/internal/storage"
)

type createTransactionRequest struct {
	Type     string `json:"type"`
	Amount   any    `json:"amount"`
	Category string `json:"category"`
	Note     string `json:"note"`
}

type transactionResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Category  string    `json:"category"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:        t.ID,
		Type:      string(t.Type),
		Amount:    t.Amount,
		Category:  t.Category,
		Note:      t.Note,
		CreatedAt: t.CreatedAt,
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	txns, err := s.store.Transactions(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction list failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreateTransaction accepts the generic form where the type is
// part of the body.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.createTransaction(w, r, user, core.TransactionType(req.Type), req)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.createTransaction(w, r, user, core.Expense, req)
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request, user core.User) {
	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.createTransaction(w, r, user, core.Income, req)
}

// createTransaction is the shared path behind the generic endpoint and
// the income/expense shorthands.
func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request, user core.User, typ core.TransactionType, req createTransactionRequest) {
	if !typ.IsValid() || req.Amount == nil {
		writeError(w, http.StatusBadRequest, "type (income|expense) and amount required")
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	txn, err := s.store.CreateTransaction(r.Context(), core.Transaction{
		UserID:   user.ID,
		Type:     typ,
		Amount:   amount,
		Category: sanitizeInput(req.Category),
		Note:     sanitizeInput(req.Note),
	})
	if errors.Is(err, core.ErrInvalidType) || errors.Is(err, core.ErrInvalidAmount) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction creation failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.publishEvent(r, events.NewCreatedEvent(txn.ID, user.ID, string(txn.Type)))
	writeJSON(w, http.StatusCreated, map[string]string{"id": txn.ID})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	id := r.PathValue("id")

	err := s.store.DeleteTransaction(r.Context(), user.ID, id)
	switch {
	case errors.Is(err, storage.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Transaction delete failed", "error", err, "user_id", user.ID, "transaction_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.publishEvent(r, events.NewDeletedEvent(id, user.ID))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, user core.User) {
	sum, err := s.store.Summary(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary aggregation failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// publishEvent sends a ledger event when a publisher is configured.
// The transaction is already persisted, so a publish failure is
// logged and the request still succeeds.
func (s *Server) publishEvent(r *http.Request, event *events.TransactionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(r.Context(), event); err != nil {
		slog.ErrorContext(r.Context(), "Ledger event publish failed",
			"error", err,
			"action", event.Action,
			"transaction_id", event.TransactionID)
	}
}
