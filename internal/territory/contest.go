package territory

import (
	"math"
	"time"

	"github.com/talgya/underworld/internal/economy"
	"github.com/talgya/underworld/internal/entropy"
)

// Contest tuning.
const (
	fortifyPower     = 20.0
	rivalSpread      = 20.0
	winControlGain   = 5.0
	maxControlLoss   = 15.0
	contestThreshold = 50.0 // Control above this draws rivals

	minContestDelay = 6 * time.Hour
	maxContestDelay = 12 * time.Hour
)

// PlayerPower is the summed contest weight of dealers, plus fortification.
func PlayerPower(dealers []Dealer, fortified bool) float64 {
	p := 0.0
	for _, d := range dealers {
		p += d.ContestPower()
	}
	if fortified {
		p += fortifyPower
	}
	return p
}

// ResolveContest fights one contest for t with the given dealers and returns
// the updated territory and the event describing it. Fortification is always
// consumed.
func ResolveContest(t Territory, dealers []Dealer, at time.Time, rng entropy.Source) (Territory, ContestEvent) {
	player := PlayerPower(dealers, t.Fortified)
	rival := t.Difficulty.RivalBase() + rng.Float64()*rivalSpread

	ev := ContestEvent{
		TerritoryID:   t.ID,
		Name:          t.Name,
		At:            at,
		PlayerPower:   player,
		RivalPower:    rival,
		Fortified:     t.Fortified,
		ControlBefore: t.Control,
	}

	if player >= rival {
		ev.Result = ContestWin
		t.Control = economy.Clamp(t.Control+winControlGain, 0, 100)
	} else {
		ev.Result = ContestLose
		loss := min(math.Floor((rival-player)/2), maxControlLoss)
		t.Control = economy.Clamp(t.Control-loss, 0, 100)
	}
	t.Fortified = false
	t.LastContestResult = ev.Result
	ev.ControlAfter = t.Control
	return t, ev
}

// contestDelay picks the next contest horizon.
func contestDelay(rng entropy.Source) time.Duration {
	return minContestDelay + time.Duration(rng.Float64()*float64(maxContestDelay-minContestDelay))
}
