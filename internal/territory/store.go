package territory

import (
	"log/slog"
	"sync/atomic"

	"github.com/talgya/underworld/internal/catalog"
	"github.com/talgya/underworld/internal/entropy"
	"github.com/talgya/underworld/internal/result"
)

// Ledger is the player's wallet as seen by the territory store.
type Ledger interface {
	Cash() float64
	Spend(amount float64) bool
}

// Store owns the territory state. Mutations must be serialized by the caller;
// Snapshot and ActiveBonuses may be called from any goroutine.
type Store struct {
	cat    *catalog.Catalog
	rng    entropy.Source
	logger *slog.Logger

	state atomic.Pointer[State]
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a store with every catalog territory at zero control.
func New(cat *catalog.Catalog, rng entropy.Source, opts ...Option) *Store {
	s := &Store{cat: cat, rng: rng, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(InitialState(cat))
	return s
}

// InitialState builds a fresh state from the catalog.
func InitialState(cat *catalog.Catalog) *State {
	st := &State{}
	for _, t := range cat.Territories {
		st.Territories = append(st.Territories, Territory{Territory: t})
	}
	return st
}

// Catalog returns the static definitions the store was built from.
func (s *Store) Catalog() *catalog.Catalog { return s.cat }

// Snapshot returns the current immutable state.
func (s *Store) Snapshot() *State { return s.state.Load() }

// Restore replaces the whole state.
func (s *Store) Restore(st *State) {
	if st == nil {
		st = InitialState(s.cat)
	}
	s.state.Store(st)
}

func (s *Store) commit(next *State) { s.state.Store(next) }

// Fortify pays for extra muscle in a territory. The fortification is consumed
// by the next contest, win or lose.
func (s *Store) Fortify(id string, ledger Ledger) result.Result {
	cur := s.Snapshot()
	i := cur.index(id)
	if i < 0 {
		return result.Fail(result.ReasonNotFound, 0, "Unknown territory %q", id)
	}
	t := cur.Territories[i]
	if t.Fortified {
		return result.Fail(result.ReasonAlreadyOwned, t.FortifyCost, "%s is already fortified", t.Name)
	}
	if ledger.Cash() < t.FortifyCost || !ledger.Spend(t.FortifyCost) {
		return result.Fail(result.ReasonInsufficientFunds, t.FortifyCost, "Not enough cash to fortify %s", t.Name)
	}

	next := cur.clone()
	next.Territories[i].Fortified = true
	s.commit(next)
	s.logger.Info("territory fortified", "territory", t.ID, "cost", t.FortifyCost)
	return result.Succeed(t.FortifyCost, "Fortified %s", t.Name)
}
