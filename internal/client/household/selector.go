// Package household tracks which household the client is operating on.
package household

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	wire "freshreceipt_backend/internal/api"
	"freshreceipt_backend/internal/client"
	"freshreceipt_backend/internal/client/securestore"
)

// StorageKey is the secure-store key of the selected household id.
const StorageKey = "freshreceipt.household.selected"

// Lister lists the households of the current identity.
type Lister interface {
	ListHouseholds(ctx context.Context) ([]wire.HouseholdResponse, error)
}

// Sink receives the selection; transport.Injector implements it.
type Sink interface {
	SetHousehold(id uuid.UUID)
	ClearHousehold()
}

// Selector holds the selected household id. Membership is not checked
// client-side; the server rejects ids the identity does not belong to.
type Selector struct {
	storage securestore.Store
	lister  Lister
	sink    Sink

	// writeMu serializes storage writes so the last completed write wins.
	writeMu sync.Mutex

	mu       sync.RWMutex
	current  uuid.UUID
	selected bool
}

func NewSelector(storage securestore.Store, lister Lister, sink Sink) *Selector {
	return &Selector{storage: storage, lister: lister, sink: sink}
}

// Init restores the persisted selection without touching the network. With
// nothing persisted it selects the first listed household. Failures leave
// the selection empty and are only logged.
func (s *Selector) Init(ctx context.Context) {
	if id, ok := s.restore(ctx); ok {
		s.apply(id)
		return
	}

	hs, err := s.lister.ListHouseholds(ctx)
	if err != nil {
		slog.Warn("household: listing households failed", "error", err)
		return
	}
	if len(hs) == 0 {
		return
	}
	if err := s.Select(ctx, hs[0].ID); err != nil {
		slog.Warn("household: auto-select failed", "household_id", hs[0].ID, "error", err)
	}
}

func (s *Selector) restore(ctx context.Context) (uuid.UUID, bool) {
	raw, err := s.storage.Get(ctx, StorageKey)
	if errors.Is(err, securestore.ErrNotFound) {
		return uuid.Nil, false
	}
	if err != nil {
		slog.Warn("household: reading selection failed",
			"error", &client.PersistenceError{Op: "read", Key: StorageKey, Err: err})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSpace(string(raw)))
	if err != nil || id == uuid.Nil {
		slog.Warn("household: ignoring malformed selection", "value", string(raw))
		return uuid.Nil, false
	}
	return id, true
}

// Select persists id and then makes it current. If the write fails the
// previous selection stays in effect.
func (s *Selector) Select(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return errors.New("household id is required")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.storage.Set(ctx, StorageKey, []byte(id.String())); err != nil {
		return &client.PersistenceError{Op: "write", Key: StorageKey, Err: err}
	}
	s.apply(id)
	return nil
}

// Clear drops the selection. It is safe to call when nothing is selected.
func (s *Selector) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.current, s.selected = uuid.Nil, false
	s.mu.Unlock()
	s.sink.ClearHousehold()

	if err := s.storage.Delete(ctx, StorageKey); err != nil {
		return &client.PersistenceError{Op: "delete", Key: StorageKey, Err: err}
	}
	return nil
}

func (s *Selector) Current() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.selected
}

func (s *Selector) apply(id uuid.UUID) {
	s.mu.Lock()
	s.current, s.selected = id, true
	s.mu.Unlock()
	s.sink.SetHousehold(id)
}
