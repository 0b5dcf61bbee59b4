package territory

import (
	"time"

	"github.com/talgya/underworld/internal/economy"
)

// TickInput carries one territory tick. Control and money advance on game
// time; contests are scheduled against WallClock.
type TickInput struct {
	ElapsedMinutes float64
	GameMinutes    float64
	WallClock      time.Time
	Dealers        []Dealer
}

// TickResult is the money and contests produced by one tick.
type TickResult struct {
	ContestEvents []ContestEvent `json:"contest_events"`
	PassiveIncome float64        `json:"passive_income"`
	UpkeepCost    float64        `json:"upkeep_cost"`
}

// Tick advances control, income and upkeep for every territory and resolves
// any contests that have come due.
func (s *Store) Tick(in TickInput) TickResult {
	var res TickResult
	delta := max(0, in.ElapsedMinutes)
	hours := delta / 60
	nowMs := in.WallClock.UnixMilli()

	roster := make(map[string]Dealer, len(in.Dealers))
	for _, d := range in.Dealers {
		roster[d.ID] = d
	}

	next := s.Snapshot().clone()
	for i := range next.Territories {
		t := &next.Territories[i]

		var dealers []Dealer
		gain := 0.0
		for _, id := range t.AssignedDealerIDs {
			if d, ok := roster[id]; ok {
				dealers = append(dealers, d)
				gain += d.ControlPerHour()
			}
		}

		t.Control = economy.Clamp(t.Control+gain*hours, 0, 100)
		if t.Control >= 100 {
			res.PassiveIncome += t.PassiveIncomePerHour * hours
		}
		res.UpkeepCost += t.UpkeepPerDealerHour * float64(len(dealers)) * hours

		switch {
		case t.NextContestAt == 0:
			if eligible(t, dealers) {
				t.NextContestAt = in.WallClock.Add(contestDelay(s.rng)).UnixMilli()
				s.logger.Debug("contest scheduled", "territory", t.ID, "at", time.UnixMilli(t.NextContestAt))
			}
		case nowMs >= t.NextContestAt:
			// A due contest is always fought, with whoever is still there.
			updated, ev := ResolveContest(*t, dealers, in.WallClock, s.rng)
			updated.NextContestAt = 0
			if eligible(&updated, dealers) {
				updated.NextContestAt = in.WallClock.Add(contestDelay(s.rng)).UnixMilli()
			}
			*t = updated
			res.ContestEvents = append(res.ContestEvents, ev)
			if ev.Result == ContestWin {
				next.ContestsWon++
			} else {
				next.ContestsLost++
			}
			s.logger.Info("territory contested",
				"territory", t.ID,
				"result", ev.Result,
				"player_power", ev.PlayerPower,
				"rival_power", ev.RivalPower,
				"control", t.Control,
			)
		}
	}

	next.TotalPassiveIncome += res.PassiveIncome
	next.TotalUpkeep += res.UpkeepCost
	s.commit(next)
	return res
}

// eligible reports whether t draws rivals: held above the threshold with at
// least one dealer working it.
func eligible(t *Territory, dealers []Dealer) bool {
	return t.Control > contestThreshold && len(dealers) > 0
}
