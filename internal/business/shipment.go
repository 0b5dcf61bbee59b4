package business

import (
	"slices"

	"github.com/talgya/underworld/internal/economy"
)

// CreateShipment rolls cargo for a contract and starts it at the first leg.
// The contract's route is copied so later catalog changes never move cargo.
func (s *Store) CreateShipment(c ImportContract, now, luck float64) Shipment {
	sh := Shipment{
		ID:         s.newID(),
		ContractID: c.ID,
		Drug:       c.Drug,
		TotalGrams: economy.RollGrams(c.MinGrams, c.MaxGrams, luck, s.rng),
		Quality:    economy.RollQuality(c.Quality, luck, s.rng),
		Route:      slices.Clone(c.Route),
		Status:     StatusEnroute,
		StartedAt:  now,
	}
	sh.ETAMinutes = sh.Remaining()
	return sh
}

// DispatchContractShipment sends a shipment on an owned contract whose
// cooldown has elapsed and re-arms the full cooldown.
func (s *Store) DispatchContractShipment(id string, now, luck float64) (Result, *Shipment) {
	cur := s.Snapshot()
	i := cur.contractIndex(id)
	if i < 0 {
		return fail(ReasonNotFound, 0, "Unknown contract %q", id), nil
	}
	c := cur.Contracts[i]
	if !c.Owned {
		return fail(ReasonNotOwned, c.Cost, "You do not hold the %s contract", c.Name), nil
	}
	if c.NextShipmentAt != nil && now < *c.NextShipmentAt {
		return fail(ReasonNotReady, 0, "%s is not ready for another %.0f minutes", c.Name, *c.NextShipmentAt-now), nil
	}

	next := cur.clone()
	sh := s.dispatch(next, i, now, luck)
	s.commit(next)
	return succeed(0, "Dispatched %dg of %s", sh.TotalGrams, c.Drug), &sh
}

// dispatch spawns a shipment on contract i of next and re-arms its cooldown.
func (s *Store) dispatch(next *State, i int, now, luck float64) Shipment {
	c := next.Contracts[i]
	sh := s.CreateShipment(c, now, luck)
	rearm := now + c.CooldownMinutes
	next.Contracts[i].NextShipmentAt = &rearm
	next.Shipments = append(next.Shipments, sh)
	s.appendLog(next, now, "%s shipped %dg of %s (q%.0f)", c.Name, sh.TotalGrams, sh.Drug, sh.Quality)
	s.logger.Debug("shipment dispatched", "contract", c.ID, "shipment", sh.ID, "grams", sh.TotalGrams)
	return sh
}

// advance moves an enroute shipment forward by minutes, skipping as many legs
// as the time covers. It reports whether the route is complete, in which case
// the shipment is pinned at the end of its final leg.
func advance(sh *Shipment, minutes float64) bool {
	if sh.Status != StatusEnroute {
		return true
	}
	sh.LegProgress += max(0, minutes)
	for sh.LegIndex < len(sh.Route) && sh.LegProgress >= sh.Route[sh.LegIndex].Minutes {
		sh.LegProgress -= sh.Route[sh.LegIndex].Minutes
		sh.LegIndex++
	}
	if sh.LegIndex >= len(sh.Route) {
		last := len(sh.Route) - 1
		sh.LegIndex = max(0, last)
		sh.LegProgress = 0
		if last >= 0 {
			sh.LegProgress = sh.Route[last].Minutes
		}
		sh.ETAMinutes = 0
		return true
	}
	sh.ETAMinutes = sh.Remaining()
	return false
}

// settle tries to offload an arrived shipment into a new lot. It reports
// whether the cargo was lotted; otherwise the shipment is left waiting.
func (s *Store) settle(next *State, sh *Shipment, now float64) (WarehouseLot, bool) {
	if next.WarehouseUsed()+sh.TotalGrams <= next.WarehouseCapacity {
		lot := WarehouseLot{
			ID:        s.newID(),
			Drug:      sh.Drug,
			Grams:     sh.TotalGrams,
			Quality:   sh.Quality,
			Origin:    s.originLabel(sh.ContractID),
			ArrivedAt: now,
		}
		next.Lots = append(next.Lots, lot)
		s.appendLog(next, now, "%dg of %s (q%.0f) arrived at the warehouse", lot.Grams, lot.Drug, lot.Quality)
		return lot, true
	}

	if sh.Status != StatusWaiting {
		sh.Status = StatusWaiting
		since := now
		sh.WaitingSince = &since
		s.appendLog(next, now, "Warehouse full: %dg of %s is waiting at the dock", sh.TotalGrams, sh.Drug)
		s.logger.Info("shipment waiting on capacity",
			"shipment", sh.ID,
			"grams", sh.TotalGrams,
			"used", next.WarehouseUsed(),
			"capacity", next.WarehouseCapacity,
		)
	}
	return WarehouseLot{}, false
}

func (s *Store) originLabel(contractID string) string {
	if c, ok := s.cat.Contract(contractID); ok {
		return c.Name
	}
	return contractID
}
