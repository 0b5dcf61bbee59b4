package business

import (
	"math"

	"github.com/talgya/underworld/internal/economy"
)

// TickInput carries everything one business tick needs. GameMinutes is the
// absolute game clock after the elapsed time has been applied.
type TickInput struct {
	ElapsedMinutes float64
	GameMinutes    float64
	Luck           float64 // [0,1]
	// ImportSpeed scales shipment transit; values <= 0 mean 1.
	ImportSpeed float64
	// IncomeBonus is a fractional premium on business income.
	IncomeBonus float64
}

// TickResult summarises one tick. ProfitDelta is cash owed to the player.
type TickResult struct {
	ProfitDelta float64        `json:"profit_delta"`
	Income      float64        `json:"income"`
	Events      []Event        `json:"events"`
	Delivered   []WarehouseLot `json:"delivered"`
	Dispatched  []Shipment     `json:"dispatched"`
	Waiting     int            `json:"waiting"`
	Roll        EventRoll      `json:"roll"`
}

// Tick advances the business simulation by the elapsed game minutes:
// income, shipment transit and arrival, automatic contract dispatch, then the
// once-per-game-hour random event check. Transit always resolves before the
// event check.
func (s *Store) Tick(in TickInput) TickResult {
	var res TickResult
	now := in.GameMinutes
	delta := max(0, in.ElapsedMinutes)
	speed := in.ImportSpeed
	if speed <= 0 {
		speed = 1
	}

	next := s.begin()

	res.Income = s.accrueIncome(next, now, delta, in.IncomeBonus)
	res.ProfitDelta += res.Income

	res.Delivered = s.moveShipments(next, now, delta*speed)

	for i, c := range next.Contracts {
		if !c.Owned || c.NextShipmentAt == nil || now < *c.NextShipmentAt {
			continue
		}
		res.Dispatched = append(res.Dispatched, s.dispatch(next, i, now, in.Luck))
	}

	hour := int64(math.Floor(now / 60))
	if hour > next.LastEventHour {
		next.LastEventHour = hour
		res.Roll = s.rollEvent(next, hour, now, in.Luck)
		if res.Roll.Event != nil {
			res.Events = append(res.Events, *res.Roll.Event)
			res.ProfitDelta += res.Roll.Event.CashDelta
		}
	}

	for _, sh := range next.Shipments {
		if sh.Status == StatusWaiting {
			res.Waiting++
		}
	}

	s.commit(next)
	return res
}

// accrueIncome credits every owned, unpaused business and lifts expired raids.
func (s *Store) accrueIncome(next *State, now, delta, bonus float64) float64 {
	income := 0.0
	for i := range next.Businesses {
		b := &next.Businesses[i]
		if !b.Owned {
			continue
		}
		if b.PausedUntil > 0 && now >= b.PausedUntil {
			b.PausedUntil = 0
			s.appendLog(next, now, "%s reopened for business", b.Name)
		}
		if b.Paused(now) {
			continue
		}
		income += b.ProfitPerHour * economy.IncomeMultiplier(b.Level) * (1 + bonus) * delta / 60
	}
	return income
}

// moveShipments advances every live shipment and offloads arrivals. Waiting
// shipments are retried against capacity but never re-enter transit.
func (s *Store) moveShipments(next *State, now, minutes float64) []WarehouseLot {
	var delivered []WarehouseLot
	kept := next.Shipments[:0:0]
	for _, sh := range next.Shipments {
		if sh.Status == StatusEnroute && !advance(&sh, minutes) {
			kept = append(kept, sh)
			continue
		}
		if lot, ok := s.settle(next, &sh, now); ok {
			delivered = append(delivered, lot)
			continue
		}
		kept = append(kept, sh)
	}
	next.Shipments = kept
	return delivered
}
