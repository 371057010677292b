// Package file implements the fallback store: a single JSON document
// mirrored in memory and rewritten to disk in full on every mutation.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/storage"
)

// document is the persisted aggregate. The key layout (users,
// transactions, user, categories) is fixed; existing data files keep
// working across upgrades.
type document struct {
	Users        []userRecord        `json:"users"`
	Transactions []transactionRecord `json:"transactions"`
	DefaultUser  placeholderUser     `json:"user"`
	Categories   []string            `json:"categories"`
}

// placeholderUser is a legacy singleton kept for compatibility with
// data files written before accounts existed.
type placeholderUser struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

type userRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type transactionRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Category  string    `json:"category,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store owns the in-memory document and its backing file. Every
// mutation runs under one store-wide lock for the full
// mutate-serialize-rewrite sequence, so concurrent writers can never
// interleave partial file contents or lose updates.
type Store struct {
	path string
	mu   sync.Mutex
	doc  document
}

// Open loads the document at path. Any read or parse failure degrades
// to an empty default document; the file-backed store must come up
// even when the data file is missing or corrupt.
func Open(path string) *Store {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err == nil {
		err = json.Unmarshal(data, &s.doc)
	}
	if err != nil {
		slog.Warn("Initializing empty file store document", "path", path, "error", err)
		s.doc = defaultDocument()
	}
	return s
}

func defaultDocument() document {
	return document{
		Users:        []userRecord{},
		Transactions: []transactionRecord{},
		DefaultUser:  placeholderUser{Name: "Guest User", Image: "https://i.pravatar.cc/100"},
		Categories:   []string{},
	}
}

// persistLocked rewrites the whole document. Callers must hold mu.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}

	rec := userRecord{
		ID:        uuid.NewString(),
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.PasswordHash,
		Image:     u.Image,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Users = append(s.doc.Users, rec)
	if err := s.persistLocked(); err != nil {
		s.doc.Users = s.doc.Users[:len(s.doc.Users)-1]
		return core.User{}, err
	}
	return rec.toUser(), nil
}

func (s *Store) UserByID(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.doc.Users {
		if rec.ID == id {
			return rec.toUser(), nil
		}
	}
	return core.User{}, storage.ErrNotFound
}

func (s *Store) UserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.doc.Users {
		if rec.Email == email {
			return rec.toUser(), nil
		}
	}
	return core.User{}, storage.ErrNotFound
}

func (s *Store) UserByName(_ context.Context, name string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.doc.Users {
		if rec.Name == name {
			return rec.toUser(), nil
		}
	}
	return core.User{}, storage.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, id string, upd core.UserUpdate) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.Users {
		if s.doc.Users[i].ID != id {
			continue
		}
		if upd.IsZero() {
			return s.doc.Users[i].toUser(), nil
		}
		prev := s.doc.Users[i]
		if upd.Name != nil {
			s.doc.Users[i].Name = *upd.Name
		}
		if upd.Image != nil {
			s.doc.Users[i].Image = *upd.Image
		}
		if err := s.persistLocked(); err != nil {
			s.doc.Users[i] = prev
			return core.User{}, err
		}
		return s.doc.Users[i].toUser(), nil
	}
	return core.User{}, storage.ErrNotFound
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	rec := transactionRecord{
		ID:        uuid.NewString(),
		UserID:    t.UserID,
		Type:      string(t.Type),
		Amount:    t.Amount,
		Category:  t.Category,
		Note:      t.Note,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Transactions = append(s.doc.Transactions, rec)
	if err := s.persistLocked(); err != nil {
		s.doc.Transactions = s.doc.Transactions[:len(s.doc.Transactions)-1]
		return core.Transaction{}, err
	}
	return rec.toTransaction(), nil
}

func (s *Store) Transactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0)
	for _, rec := range s.doc.Transactions {
		if rec.UserID == userID {
			out = append(out, rec.toTransaction())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	if err := uuid.Validate(id); err != nil {
		return storage.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.doc.Transactions {
		if rec.ID != id || rec.UserID != userID {
			continue
		}
		removed := rec
		s.doc.Transactions = append(s.doc.Transactions[:i], s.doc.Transactions[i+1:]...)
		if err := s.persistLocked(); err != nil {
			s.doc.Transactions = append(s.doc.Transactions, transactionRecord{})
			copy(s.doc.Transactions[i+1:], s.doc.Transactions[i:])
			s.doc.Transactions[i] = removed
			return err
		}
		return nil
	}
	return storage.ErrNotFound
}

func (s *Store) Summary(_ context.Context, userID string) (core.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make([]core.Transaction, 0)
	for _, rec := range s.doc.Transactions {
		if rec.UserID == userID {
			owned = append(owned, rec.toTransaction())
		}
	}
	return core.Summarize(owned), nil
}

func (r userRecord) toUser() core.User {
	return core.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.Password,
		Image:        r.Image,
		CreatedAt:    r.CreatedAt,
	}
}

func (r transactionRecord) toTransaction() core.Transaction {
	return core.Transaction{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      core.TransactionType(r.Type),
		Amount:    r.Amount,
		Category:  r.Category,
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
	}
}
