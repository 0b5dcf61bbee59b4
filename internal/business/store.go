package business

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/talgya/underworld/internal/catalog"
	"github.com/talgya/underworld/internal/entropy"
)

// Store owns the business state. Mutations must be serialized by the caller;
// Snapshot may be called from any goroutine.
type Store struct {
	cat    *catalog.Catalog
	rng    entropy.Source
	logger *slog.Logger
	newID  func() string

	state atomic.Pointer[State]
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for anomalies and notable transitions.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithIDs replaces the id generator (uuid by default).
func WithIDs(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates a store with every catalog entry present and unowned.
func New(cat *catalog.Catalog, rng entropy.Source, opts ...Option) *Store {
	s := &Store{
		cat:    cat,
		rng:    rng,
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(InitialState(cat))
	return s
}

// InitialState builds a fresh state from the catalog.
func InitialState(cat *catalog.Catalog) *State {
	st := &State{LastEventHour: -1}
	for _, b := range cat.Businesses {
		st.Businesses = append(st.Businesses, Business{Business: b, Level: 1})
	}
	for _, w := range cat.Warehouses {
		st.Warehouses = append(st.Warehouses, WarehouseUpgrade{Warehouse: w})
	}
	for _, c := range cat.Contracts {
		st.Contracts = append(st.Contracts, ImportContract{Contract: c})
	}
	return st
}

// Catalog returns the static definitions the store was built from.
func (s *Store) Catalog() *catalog.Catalog { return s.cat }

// Snapshot returns the current immutable state.
func (s *Store) Snapshot() *State { return s.state.Load() }

// Restore replaces the whole state, e.g. after loading a persisted snapshot.
func (s *Store) Restore(st *State) {
	if st == nil {
		st = InitialState(s.cat)
	}
	s.state.Store(st)
}

// begin returns an editable copy of the current state.
func (s *Store) begin() *State { return s.state.Load().clone() }

// commit publishes next as the current state.
func (s *Store) commit(next *State) { s.state.Store(next) }

// appendLog records a narrative line on next.
func (s *Store) appendLog(next *State, now float64, format string, args ...any) {
	entry := LogEntry{ID: s.newID(), At: now, Message: fmt.Sprintf(format, args...)}
	next.Logs = prepend(next.Logs, entry, MaxLogs)
}
