package territory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/underworld/internal/catalog"
	"github.com/talgya/underworld/internal/entropy"
	"github.com/talgya/underworld/internal/result"
)

type wallet struct{ cash float64 }

func (w *wallet) Cash() float64 { return w.cash }
func (w *wallet) Spend(amount float64) bool {
	if amount > w.cash {
		return false
	}
	w.cash -= amount
	return true
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, rng entropy.Source) *Store {
	t.Helper()
	if rng == nil {
		rng = entropy.NewSeeded(1)
	}
	return New(catalog.Default(), rng)
}

// edit installs a catalog-fresh state changed by fn.
func edit(s *Store, fn func(st *State)) {
	st := InitialState(s.Catalog())
	fn(st)
	s.Restore(st)
}

func setTerritory(st *State, id string, fn func(t *Territory)) {
	fn(&st.Territories[st.index(id)])
}

func TestTier(t *testing.T) {
	cases := map[float64]int{0: 0, 24.9: 0, 25: 25, 49.99: 25, 50: 50, 74: 50, 75: 75, 99.9: 75, 100: 100}
	for control, want := range cases {
		assert.Equal(t, want, Tier(control), "control %v", control)
	}
}

func TestDealerRates(t *testing.T) {
	street := Dealer{ID: "d1", Level: 5, Type: DealerStreet}
	biz := Dealer{ID: "d2", Level: 5, Type: DealerBusiness}
	assert.Equal(t, 15.0, street.ControlPerHour())
	assert.Equal(t, 10.0, biz.ControlPerHour())
	assert.Equal(t, 10.0, street.ContestPower())
	assert.Equal(t, 40.0, PlayerPower([]Dealer{street, biz}, true))
}

func TestControlGainIncomeAndUpkeep(t *testing.T) {
	s := newTestStore(t, nil)
	require.True(t, s.AssignDealer("docks", "d1").OK)
	dealers := []Dealer{{ID: "d1", Level: 5, Type: DealerStreet}}

	res := s.Tick(TickInput{ElapsedMinutes: 30, GameMinutes: 30, WallClock: epoch, Dealers: dealers})
	docks, _ := s.Snapshot().Territory("docks")
	assert.InDelta(t, 7.5, docks.Control, 1e-9)
	assert.Zero(t, res.PassiveIncome)
	assert.InDelta(t, 9, res.UpkeepCost, 1e-9)

	edit(s, func(st *State) {
		setTerritory(st, "docks", func(t *Territory) {
			t.Control = 99
			t.AssignedDealerIDs = []string{"d1"}
			t.NextContestAt = epoch.Add(24 * time.Hour).UnixMilli()
		})
	})
	res = s.Tick(TickInput{ElapsedMinutes: 60, GameMinutes: 90, WallClock: epoch, Dealers: dealers})
	docks, _ = s.Snapshot().Territory("docks")
	assert.Equal(t, 100.0, docks.Control)
	assert.InDelta(t, 200, res.PassiveIncome, 1e-9)
	assert.InDelta(t, 18, res.UpkeepCost, 1e-9)
	assert.InDelta(t, 200, s.Snapshot().TotalPassiveIncome, 1e-9)
}

func TestUpkeepIgnoresDealersMissingFromRoster(t *testing.T) {
	s := newTestStore(t, nil)
	require.True(t, s.AssignDealer("docks", "ghost").OK)
	res := s.Tick(TickInput{ElapsedMinutes: 60, WallClock: epoch})
	assert.Zero(t, res.UpkeepCost)
	docks, _ := s.Snapshot().Territory("docks")
	assert.Zero(t, docks.Control)
}

func TestContestScheduledWithinHorizon(t *testing.T) {
	s := newTestStore(t, entropy.NewSequence(0.5))
	edit(s, func(st *State) {
		setTerritory(st, "docks", func(t *Territory) {
			t.Control = 60
			t.AssignedDealerIDs = []string{"d1"}
		})
		setTerritory(st, "campus", func(t *Territory) { t.Control = 90 })
	})
	dealers := []Dealer{{ID: "d1", Level: 5, Type: DealerStreet}}

	res := s.Tick(TickInput{WallClock: epoch, Dealers: dealers})
	assert.Empty(t, res.ContestEvents)
	st := s.Snapshot()
	docks, _ := st.Territory("docks")
	assert.Equal(t, epoch.Add(9*time.Hour).UnixMilli(), docks.NextContestAt)
	campus, _ := st.Territory("campus")
	assert.Zero(t, campus.NextContestAt, "no dealers means no rivals")

	res = s.Tick(TickInput{WallClock: epoch.Add(8 * time.Hour), Dealers: dealers})
	assert.Empty(t, res.ContestEvents)
}

func TestContestScenarioStreetDealerLoses(t *testing.T) {
	rng := entropy.NewSeeded(99)
	for i := 0; i < 200; i++ {
		s := newTestStore(t, rng)
		edit(s, func(st *State) {
			setTerritory(st, "docks", func(t *Territory) {
				t.Control = 60
				t.AssignedDealerIDs = []string{"d1"}
				t.Fortified = false
				t.NextContestAt = epoch.UnixMilli()
			})
		})
		res := s.Tick(TickInput{WallClock: epoch, Dealers: []Dealer{{ID: "d1", Level: 5, Type: DealerStreet}}})
		require.Len(t, res.ContestEvents, 1)
		ev := res.ContestEvents[0]
		assert.Equal(t, ContestLose, ev.Result)
		assert.GreaterOrEqual(t, ev.RivalPower, 30.0)
		assert.Less(t, ev.RivalPower, 50.0)
		assert.GreaterOrEqual(t, ev.ControlChange(), -15.0)
		assert.Less(t, ev.ControlChange(), 0.0)

		docks, _ := s.Snapshot().Territory("docks")
		assert.False(t, docks.Fortified)
		assert.Equal(t, ContestLose, docks.LastContestResult)
		assert.GreaterOrEqual(t, docks.NextContestAt, epoch.Add(6*time.Hour).UnixMilli())
		assert.LessOrEqual(t, docks.NextContestAt, epoch.Add(12*time.Hour).UnixMilli())
	}
}

func TestFortifiedContestWinConsumesFortification(t *testing.T) {
	docks, ok := catalog.Default().Territory("docks")
	require.True(t, ok)
	terr := Territory{Territory: docks, Control: 97, Fortified: true}
	dealers := []Dealer{{ID: "d1", Level: 10, Type: DealerBusiness}}

	// rival 30 + 0.4*20 = 38 vs 20 + 20 = 40
	out, ev := ResolveContest(terr, dealers, epoch, entropy.NewSequence(0.4))
	assert.Equal(t, ContestWin, ev.Result)
	assert.True(t, ev.Fortified)
	assert.Equal(t, 100.0, out.Control)
	assert.False(t, out.Fortified)

	// Without fortification the same roll loses floor((38-20)/2) = 9.
	terr.Fortified = false
	out, ev = ResolveContest(terr, dealers, epoch, entropy.NewSequence(0.4))
	assert.Equal(t, ContestLose, ev.Result)
	assert.Equal(t, 88.0, out.Control)
}

func TestContestLossIsCapped(t *testing.T) {
	airport, _ := catalog.Default().Territory("airport-strip")
	out, ev := ResolveContest(Territory{Territory: airport, Control: 55}, nil, epoch, entropy.NewSequence(0.99))
	assert.Equal(t, ContestLose, ev.Result)
	assert.Equal(t, 40.0, out.Control)
}

func TestDueContestResolvesAfterDealersLeave(t *testing.T) {
	// Every roll is 0.5: rival power 30 + 10 = 40 at the docks.
	s := newTestStore(t, entropy.NewSequence(0.5))
	edit(s, func(st *State) {
		setTerritory(st, "docks", func(t *Territory) {
			t.Control = 60
			t.Fortified = true
			t.NextContestAt = epoch.UnixMilli()
		})
	})

	res := s.Tick(TickInput{WallClock: epoch})
	require.Len(t, res.ContestEvents, 1)
	ev := res.ContestEvents[0]
	assert.Equal(t, ContestLose, ev.Result)
	assert.Equal(t, 20.0, ev.PlayerPower, "fortification fights alone")
	assert.True(t, ev.Fortified)

	docks, _ := s.Snapshot().Territory("docks")
	assert.Equal(t, 50.0, docks.Control)
	assert.False(t, docks.Fortified)
	assert.Zero(t, docks.NextContestAt, "no longer draws rivals")
	assert.Equal(t, 1, s.Snapshot().ContestsLost)
}

func TestDueContestReschedulesWhileHeld(t *testing.T) {
	s := newTestStore(t, entropy.NewSequence(0.5))
	edit(s, func(st *State) {
		setTerritory(st, "docks", func(t *Territory) {
			t.Control = 90
			t.AssignedDealerIDs = []string{"d1"}
			t.NextContestAt = epoch.UnixMilli()
		})
	})

	res := s.Tick(TickInput{WallClock: epoch, Dealers: []Dealer{{ID: "d1", Level: 1, Type: DealerBusiness}}})
	require.Len(t, res.ContestEvents, 1)

	docks, _ := s.Snapshot().Territory("docks")
	assert.Equal(t, 75.0, docks.Control, "loss capped at 15")
	assert.Equal(t, epoch.Add(9*time.Hour).UnixMilli(), docks.NextContestAt)
}

func TestAssignDealerIsExclusive(t *testing.T) {
	s := newTestStore(t, nil)
	assert.Equal(t, result.ReasonNotFound, s.AssignDealer("moon", "d1").Reason)
	assert.Equal(t, result.ReasonInvalid, s.AssignDealer("docks", "").Reason)

	require.True(t, s.AssignDealer("docks", "d1").OK)
	assert.Equal(t, result.ReasonAlreadyAssigned, s.AssignDealer("docks", "d1").Reason)
	assert.Equal(t, result.ReasonAlreadyAssigned, s.AssignDealer("campus", "d1").Reason)

	require.True(t, s.UnassignDealer("d1").OK)
	assert.Equal(t, result.ReasonNotFound, s.UnassignDealer("d1").Reason)
	require.True(t, s.AssignDealer("campus", "d1").OK)

	where, ok := s.Snapshot().DealerTerritory("d1")
	require.True(t, ok)
	assert.Equal(t, "campus", where)
}

func TestAssignDoesNotAliasPreviousSnapshot(t *testing.T) {
	s := newTestStore(t, nil)
	require.True(t, s.AssignDealer("docks", "d1").OK)
	before := s.Snapshot()
	require.True(t, s.AssignDealer("docks", "d2").OK)
	docks, _ := before.Territory("docks")
	assert.Equal(t, []string{"d1"}, docks.AssignedDealerIDs)
}

func TestFortify(t *testing.T) {
	s := newTestStore(t, nil)
	w := &wallet{cash: 5000}
	res := s.Fortify("docks", w)
	assert.Equal(t, result.ReasonInsufficientFunds, res.Reason)
	assert.Equal(t, 6000.0, res.Cost)

	w.cash = 7000
	require.True(t, s.Fortify("docks", w).OK)
	assert.Equal(t, 1000.0, w.cash)
	assert.Equal(t, result.ReasonAlreadyOwned, s.Fortify("docks", w).Reason)
	assert.Equal(t, result.ReasonNotFound, s.Fortify("moon", w).Reason)
}

func TestActiveBonusesScaleWithTier(t *testing.T) {
	s := newTestStore(t, nil)
	edit(s, func(st *State) {
		setTerritory(st, "docks", func(t *Territory) { t.Control = 60 })
		setTerritory(st, "campus", func(t *Territory) { t.Control = 100 })
		setTerritory(st, "downtown", func(t *Territory) { t.Control = 24 })
	})
	bonuses := s.ActiveBonuses()
	assert.Len(t, bonuses, 3)
	assert.InDelta(t, 1.10, bonuses.ImportSpeed(), 1e-9)
	assert.InDelta(t, 0.15, bonuses.SalePrice(catalog.DrugMDMA), 1e-9)
	assert.InDelta(t, 0.10, bonuses.SalePrice(catalog.DrugCannabis), 1e-9)
	assert.Zero(t, bonuses.SalePrice(catalog.DrugCocaine))
	assert.Zero(t, bonuses.Income())

	assert.Equal(t, 1.0, Bonuses(nil).ImportSpeed())
}
