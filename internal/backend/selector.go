// Package backend routes every storage operation to the primary
// document database or the file-backed fallback, deciding per call.
package backend

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/storage"
)

// Pinger is the liveness probe of the primary backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Selector implements storage.Store by probing the primary before
// every operation and delegating to whichever side is live. The
// decision is never cached: a primary that recovers mid-session is
// used again on the next call, and one that fails mid-session
// silently degrades to the fallback. Probe failures are routing
// input, not errors.
type Selector struct {
	primary  storage.Store
	pinger   Pinger
	fallback storage.Store
	timeout  time.Duration

	// Concurrent probes collapse into one in-flight ping; the result
	// is not reused once it has been delivered.
	probes singleflight.Group
}

// NewSelector wires the two adapters. primary and pinger may be nil,
// in which case every call lands on the fallback.
func NewSelector(primary storage.Store, pinger Pinger, fallback storage.Store, probeTimeout time.Duration) *Selector {
	if probeTimeout <= 0 {
		probeTimeout = 2 * time.Second
	}
	return &Selector{
		primary:  primary,
		pinger:   pinger,
		fallback: fallback,
		timeout:  probeTimeout,
	}
}

// primaryAvailable reports whether the document database answers a
// ping right now. The probe runs on its own deadline, detached from
// the request context, so one canceled request cannot fail the probe
// for the calls collapsed into it.
func (s *Selector) primaryAvailable() bool {
	if s.primary == nil || s.pinger == nil {
		return false
	}
	ok, _, _ := s.probes.Do("ping", func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			slog.Debug("Primary backend probe failed, using fallback", "error", err)
			return false, nil
		}
		return true, nil
	})
	return ok.(bool)
}

func (s *Selector) active() storage.Store {
	if s.primaryAvailable() {
		return s.primary
	}
	return s.fallback
}

func (s *Selector) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	return s.active().CreateUser(ctx, u)
}

func (s *Selector) UserByID(ctx context.Context, id string) (core.User, error) {
	return s.active().UserByID(ctx, id)
}

func (s *Selector) UserByEmail(ctx context.Context, email string) (core.User, error) {
	return s.active().UserByEmail(ctx, email)
}

func (s *Selector) UserByName(ctx context.Context, name string) (core.User, error) {
	return s.active().UserByName(ctx, name)
}

func (s *Selector) UpdateUser(ctx context.Context, id string, upd core.UserUpdate) (core.User, error) {
	return s.active().UpdateUser(ctx, id, upd)
}

func (s *Selector) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	return s.active().CreateTransaction(ctx, t)
}

func (s *Selector) Transactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.active().Transactions(ctx, userID)
}

func (s *Selector) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.active().DeleteTransaction(ctx, userID, id)
}

func (s *Selector) Summary(ctx context.Context, userID string) (core.Summary, error) {
	return s.active().Summary(ctx, userID)
}
