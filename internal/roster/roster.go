// Package roster keeps the player's crew of dealers. The territory engine
// reads dealers from here but never changes them.
package roster

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/underworld/internal/territory"
)

// MaxLevel caps dealer training.
const MaxLevel = 10

var (
	ErrNotFound = errors.New("dealer not found")
	ErrMaxLevel = errors.New("dealer already at max level")
)

// Roster is an in-memory, concurrency-safe set of dealers.
type Roster struct {
	mu      sync.RWMutex
	dealers []territory.Dealer
	newID   func() string
}

// New creates an empty roster.
func New() *Roster {
	return &Roster{newID: uuid.NewString}
}

// Hire adds a dealer and returns it.
func (r *Roster) Hire(name string, typ territory.DealerType, level int) (territory.Dealer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return territory.Dealer{}, errors.New("dealer needs a name")
	}
	if typ != territory.DealerStreet && typ != territory.DealerBusiness {
		return territory.Dealer{}, fmt.Errorf("unknown dealer type %q", typ)
	}
	if level < 1 || level > MaxLevel {
		return territory.Dealer{}, fmt.Errorf("level %d out of range 1-%d", level, MaxLevel)
	}

	d := territory.Dealer{ID: r.newID(), Name: name, Level: level, Type: typ}
	r.mu.Lock()
	r.dealers = append(r.dealers, d)
	r.mu.Unlock()
	return d, nil
}

// Get returns the dealer with id.
func (r *Roster) Get(id string) (territory.Dealer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.index(id)
	if i < 0 {
		return territory.Dealer{}, false
	}
	return r.dealers[i], true
}

// List returns a copy of every dealer in hiring order.
func (r *Roster) List() []territory.Dealer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.dealers)
}

// Train raises a dealer's level by one.
func (r *Roster) Train(id string) (territory.Dealer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return territory.Dealer{}, ErrNotFound
	}
	if r.dealers[i].Level >= MaxLevel {
		return r.dealers[i], ErrMaxLevel
	}
	r.dealers[i].Level++
	return r.dealers[i], nil
}

// Fire removes a dealer. Callers should unassign the dealer from its
// territory first; stale assignments are ignored by the territory tick.
func (r *Roster) Fire(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return ErrNotFound
	}
	r.dealers = slices.Delete(r.dealers, i, i+1)
	return nil
}

// Restore replaces the roster with saved dealers.
func (r *Roster) Restore(dealers []territory.Dealer) {
	r.mu.Lock()
	r.dealers = slices.Clone(dealers)
	r.mu.Unlock()
}

func (r *Roster) index(id string) int {
	return slices.IndexFunc(r.dealers, func(d territory.Dealer) bool { return d.ID == id })
}
