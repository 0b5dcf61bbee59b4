package business

import (
	"github.com/talgya/underworld/internal/economy"
)

// charge validates funds and takes them. It is the last step before commit.
func charge(ledger Ledger, cost float64, name string) (Result, bool) {
	if ledger.Cash() < cost || !ledger.Spend(cost) {
		return fail(ReasonInsufficientFunds, cost, "Not enough cash for %s", name), false
	}
	return Result{}, true
}

// BuyBusiness purchases a front.
func (s *Store) BuyBusiness(id string, ledger Ledger, now float64) Result {
	cur := s.Snapshot()
	i := cur.businessIndex(id)
	if i < 0 {
		return fail(ReasonNotFound, 0, "Unknown business %q", id)
	}
	b := cur.Businesses[i]
	if b.Owned {
		return fail(ReasonAlreadyOwned, b.Cost, "You already own %s", b.Name)
	}
	if ledger.Level() < b.MinLevel {
		return fail(ReasonLevelTooLow, b.Cost, "%s requires level %d", b.Name, b.MinLevel)
	}
	if res, ok := charge(ledger, b.Cost, b.Name); !ok {
		return res
	}

	next := cur.clone()
	next.Businesses[i].Owned = true
	next.Businesses[i].Level = max(1, b.Level)
	s.appendLog(next, now, "Bought %s", b.Name)
	s.commit(next)

	s.logger.Info("business bought", "business", b.ID, "cost", b.Cost)
	return succeed(b.Cost, "Bought %s", b.Name)
}

// UpgradeCost returns what the next level of a business costs.
func (s *Store) UpgradeCost(id string) (float64, bool) {
	cur := s.Snapshot()
	i := cur.businessIndex(id)
	if i < 0 {
		return 0, false
	}
	b := cur.Businesses[i]
	return economy.UpgradeCost(b.UpgradeBaseCost, b.Level), true
}

// UpgradeBusiness raises an owned business by one level. There is no cap.
func (s *Store) UpgradeBusiness(id string, ledger Ledger, now float64) Result {
	cur := s.Snapshot()
	i := cur.businessIndex(id)
	if i < 0 {
		return fail(ReasonNotFound, 0, "Unknown business %q", id)
	}
	b := cur.Businesses[i]
	cost := economy.UpgradeCost(b.UpgradeBaseCost, b.Level)
	if !b.Owned {
		return fail(ReasonNotOwned, cost, "Buy %s before upgrading it", b.Name)
	}
	if res, ok := charge(ledger, cost, b.Name+" upgrade"); !ok {
		return res
	}

	next := cur.clone()
	next.Businesses[i].Level = b.Level + 1
	s.appendLog(next, now, "Upgraded %s to level %d", b.Name, b.Level+1)
	s.commit(next)

	s.logger.Info("business upgraded", "business", b.ID, "level", b.Level+1, "cost", cost)
	return succeed(cost, "Upgraded %s to level %d", b.Name, b.Level+1)
}

// BuyWarehouse purchases a storage tier. Its capacity is added permanently.
func (s *Store) BuyWarehouse(id string, ledger Ledger, now float64) Result {
	cur := s.Snapshot()
	i := cur.warehouseIndex(id)
	if i < 0 {
		return fail(ReasonNotFound, 0, "Unknown warehouse %q", id)
	}
	w := cur.Warehouses[i]
	if w.Owned {
		return fail(ReasonAlreadyOwned, w.Cost, "You already own %s", w.Name)
	}
	if ledger.Level() < w.MinLevel {
		return fail(ReasonLevelTooLow, w.Cost, "%s requires level %d", w.Name, w.MinLevel)
	}
	if res, ok := charge(ledger, w.Cost, w.Name); !ok {
		return res
	}

	next := cur.clone()
	next.Warehouses[i].Owned = true
	next.WarehouseCapacity += w.Capacity
	s.appendLog(next, now, "Bought %s (+%dg capacity)", w.Name, w.Capacity)
	s.commit(next)

	s.logger.Info("warehouse bought", "warehouse", w.ID, "capacity", next.WarehouseCapacity)
	return succeed(w.Cost, "Bought %s", w.Name)
}

// BuyContract purchases an import contract and schedules its first delivery
// after a shortened grace period.
func (s *Store) BuyContract(id string, ledger Ledger, now float64) Result {
	cur := s.Snapshot()
	i := cur.contractIndex(id)
	if i < 0 {
		return fail(ReasonNotFound, 0, "Unknown contract %q", id)
	}
	c := cur.Contracts[i]
	if c.Owned {
		return fail(ReasonAlreadyOwned, c.Cost, "You already hold the %s contract", c.Name)
	}
	if ledger.Level() < c.MinLevel {
		return fail(ReasonLevelTooLow, c.Cost, "%s requires level %d", c.Name, c.MinLevel)
	}
	if cur.WarehouseCapacity <= 0 {
		return fail(ReasonMissingPrerequisite, c.Cost, "You need a warehouse before signing %s", c.Name)
	}
	if res, ok := charge(ledger, c.Cost, c.Name); !ok {
		return res
	}

	first := now + c.FirstDeliveryDelay()
	next := cur.clone()
	next.Contracts[i].Owned = true
	next.Contracts[i].NextShipmentAt = &first
	s.appendLog(next, now, "Signed the %s contract", c.Name)
	s.commit(next)

	s.logger.Info("contract bought", "contract", c.ID, "first_shipment_at", first)
	return succeed(c.Cost, "Signed %s", c.Name)
}
