package engine

import (
	"github.com/talgya/underworld/internal/business"
	"github.com/talgya/underworld/internal/player"
	"github.com/talgya/underworld/internal/territory"
)

// Checkpoint is a consistent copy of every piece of game state.
type Checkpoint struct {
	GameMinutes float64
	Account     player.Account
	Dealers     []territory.Dealer
	Business    *business.State
	Territory   *territory.State
}

// Checkpoint captures all state between ticks.
func (s *Simulation) Checkpoint() Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Checkpoint{
		GameMinutes: s.gameMinutes,
		Account:     s.Wallet.Account(),
		Dealers:     s.Crew.List(),
		Business:    s.Business.Snapshot(),
		Territory:   s.Territory.Snapshot(),
	}
}

// Resume replaces all state with a checkpoint. Daily stats start over.
func (s *Simulation) Resume(cp Checkpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gameMinutes = max(0, cp.GameMinutes)
	s.Wallet.Restore(cp.Account)
	s.Crew.Restore(cp.Dealers)
	s.Business.Restore(cp.Business)
	s.Territory.Restore(cp.Territory)
	s.stats = Stats{}
}
