package territory

import (
	"slices"

	"github.com/talgya/underworld/internal/result"
)

// AssignDealer puts a dealer to work in a territory. A dealer works at most
// one territory at a time.
func (s *Store) AssignDealer(territoryID, dealerID string) result.Result {
	if dealerID == "" {
		return result.Fail(result.ReasonInvalid, 0, "No dealer given")
	}
	cur := s.Snapshot()
	i := cur.index(territoryID)
	if i < 0 {
		return result.Fail(result.ReasonNotFound, 0, "Unknown territory %q", territoryID)
	}
	if where, ok := cur.DealerTerritory(dealerID); ok {
		name := where
		if t, ok := cur.Territory(where); ok {
			name = t.Name
		}
		return result.Fail(result.ReasonAlreadyAssigned, 0, "Dealer is already working %s", name)
	}

	next := cur.clone()
	t := &next.Territories[i]
	t.AssignedDealerIDs = append(slices.Clone(t.AssignedDealerIDs), dealerID)
	s.commit(next)

	s.logger.Info("dealer assigned", "territory", territoryID, "dealer", dealerID, "dealers", len(t.AssignedDealerIDs))
	return result.Succeed(0, "Dealer assigned to %s", t.Name)
}

// UnassignDealer pulls a dealer off whatever territory they work.
func (s *Store) UnassignDealer(dealerID string) result.Result {
	cur := s.Snapshot()
	where, ok := cur.DealerTerritory(dealerID)
	if !ok {
		return result.Fail(result.ReasonNotFound, 0, "Dealer %q is not assigned", dealerID)
	}
	i := cur.index(where)

	next := cur.clone()
	t := &next.Territories[i]
	t.AssignedDealerIDs = slices.DeleteFunc(slices.Clone(t.AssignedDealerIDs), func(id string) bool { return id == dealerID })
	s.commit(next)

	s.logger.Info("dealer unassigned", "territory", where, "dealer", dealerID)
	return result.Succeed(0, "Dealer pulled from %s", t.Name)
}
