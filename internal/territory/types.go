// Package territory runs the turf war: dealers push control of each
// territory up over game time, full control pays passive income, and rival
// crews contest held ground on a wall-clock schedule.
package territory

import (
	"slices"
	"time"

	"github.com/talgya/underworld/internal/catalog"
)

// DealerType distinguishes how a dealer works a territory.
type DealerType string

const (
	DealerStreet   DealerType = "street"
	DealerBusiness DealerType = "business"
)

// Dealer is the read-only view of a roster member. The territory engine never
// stores or changes dealers; it only reads their power.
type Dealer struct {
	ID    string     `json:"id"`
	Name  string     `json:"name,omitempty"`
	Level int        `json:"level"`
	Type  DealerType `json:"type"`
}

// ControlPerHour is how much control the dealer adds each game hour.
func (d Dealer) ControlPerHour() float64 {
	mult := 1.0
	if d.Type == DealerStreet {
		mult = 1.5
	}
	return float64(d.Level) * 2 * mult
}

// ContestPower is the dealer's weight in a contest. The street multiplier
// only speeds control gain; it is not applied here.
func (d Dealer) ContestPower() float64 {
	return float64(d.Level) * 2
}

// ContestResult is the outcome of the latest contest.
type ContestResult string

const (
	ContestNone ContestResult = ""
	ContestWin  ContestResult = "win"
	ContestLose ContestResult = "lose"
)

// Territory is a catalog territory plus the player's hold on it.
type Territory struct {
	catalog.Territory
	Control           float64  `json:"control"`
	AssignedDealerIDs []string `json:"assigned_dealer_ids"`
	// NextContestAt is a wall-clock time in unix milliseconds; 0 is unscheduled.
	NextContestAt     int64         `json:"next_contest_at"`
	Fortified         bool          `json:"fortified"`
	LastContestResult ContestResult `json:"last_contest_result,omitempty"`
}

// Assigned reports whether dealerID works this territory.
func (t Territory) Assigned(dealerID string) bool {
	return slices.Contains(t.AssignedDealerIDs, dealerID)
}

// ContestEvent records one resolved contest.
type ContestEvent struct {
	TerritoryID   string        `json:"territory_id"`
	Name          string        `json:"name"`
	At            time.Time     `json:"at"`
	Result        ContestResult `json:"result"`
	PlayerPower   float64       `json:"player_power"`
	RivalPower    float64       `json:"rival_power"`
	Fortified     bool          `json:"fortified"`
	ControlBefore float64       `json:"control_before"`
	ControlAfter  float64       `json:"control_after"`
}

// ControlChange is the signed control swing of the contest.
func (e ContestEvent) ControlChange() float64 {
	return e.ControlAfter - e.ControlBefore
}

// State is one immutable snapshot of the territory store.
type State struct {
	Territories        []Territory `json:"territories"`
	TotalPassiveIncome float64     `json:"total_passive_income"`
	TotalUpkeep        float64     `json:"total_upkeep"`
	ContestsWon        int         `json:"contests_won"`
	ContestsLost       int         `json:"contests_lost"`
}

func (s *State) clone() *State {
	next := *s
	next.Territories = slices.Clone(s.Territories)
	return &next
}

func (s *State) index(id string) int {
	return slices.IndexFunc(s.Territories, func(t Territory) bool { return t.ID == id })
}

// Territory returns the territory with id.
func (s *State) Territory(id string) (Territory, bool) {
	i := s.index(id)
	if i < 0 {
		return Territory{}, false
	}
	return s.Territories[i], true
}

// DealerTerritory returns the id of the territory dealerID is assigned to.
func (s *State) DealerTerritory(dealerID string) (string, bool) {
	for _, t := range s.Territories {
		if t.Assigned(dealerID) {
			return t.ID, true
		}
	}
	return "", false
}
