package business

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/underworld/internal/catalog"
	"github.com/talgya/underworld/internal/entropy"
)

// Rolls at luck 0: positive band [0, 0.10), negative band [0.10, 0.15).
const (
	rollPositive = 0.0
	rollNegative = 0.12
)

func TestEventChances(t *testing.T) {
	assert.InDelta(t, 0.10, PositiveChance(0), 1e-9)
	assert.InDelta(t, 0.18, PositiveChance(1), 1e-9)
	assert.InDelta(t, 0.16, PositiveChance(0.5), 1e-9)
	assert.InDelta(t, 0.05, NegativeChance(0), 1e-9)
	assert.InDelta(t, 0.02, NegativeChance(1), 1e-9)
}

func TestHourlyCheckFiresOncePerHour(t *testing.T) {
	// Every roll lands in the positive band with no shipments to target.
	s := newTestStore(t, entropy.NewSequence(rollPositive))

	out := s.Tick(TickInput{ElapsedMinutes: 10, GameMinutes: 10})
	assert.True(t, out.Roll.Checked)
	assert.Equal(t, OutcomeSkipped, out.Roll.Outcome)
	assert.Equal(t, EventCargoBoost, out.Roll.Kind)
	assert.Empty(t, out.Events)

	out = s.Tick(TickInput{ElapsedMinutes: 20, GameMinutes: 30})
	assert.False(t, out.Roll.Checked, "same hour must not re-roll")
	out = s.Tick(TickInput{ElapsedMinutes: 29, GameMinutes: 59})
	assert.False(t, out.Roll.Checked)

	out = s.Tick(TickInput{ElapsedMinutes: 1, GameMinutes: 60})
	assert.True(t, out.Roll.Checked)
	assert.Equal(t, int64(1), out.Roll.Hour)

	// Crossing many hours at once evaluates exactly one roll.
	withState(t, s, func(st *State) {
		st.LastEventHour = 1
		st.WarehouseCapacity = 10000
		st.Shipments = []Shipment{testShipment("s1", catalog.DrugMeth, 100, 50, 10000)}
	})
	out = s.Tick(TickInput{ElapsedMinutes: 600, GameMinutes: 660})
	assert.True(t, out.Roll.Checked)
	assert.Equal(t, int64(11), out.Roll.Hour)
	require.Len(t, out.Events, 1)
	assert.Equal(t, 1, s.Snapshot().TotalEvents)
	assert.Equal(t, int64(11), s.Snapshot().LastEventHour)
}

func TestSkippedOutcomeLeavesStateAlone(t *testing.T) {
	s := newTestStore(t, entropy.NewSequence(rollNegative, 0.9))
	out := s.Tick(TickInput{GameMinutes: 0})
	assert.Equal(t, OutcomeSkipped, out.Roll.Outcome)
	assert.Equal(t, EventSpoilage, out.Roll.Kind)
	st := s.Snapshot()
	assert.Zero(t, st.TotalEvents)
	assert.Empty(t, st.Events)
	assert.Empty(t, st.Logs)
}

func TestNoEventBand(t *testing.T) {
	s := newTestStore(t, entropy.NewSequence(0.5))
	out := s.Tick(TickInput{GameMinutes: 0})
	assert.True(t, out.Roll.Checked)
	assert.Equal(t, OutcomeNone, out.Roll.Outcome)
}

func eventStore(t *testing.T, rolls ...float64) *Store {
	t.Helper()
	s := newTestStore(t, entropy.NewSequence(rolls...))
	withState(t, s, func(st *State) {
		st.WarehouseCapacity = 1000
		st.Shipments = []Shipment{testShipment("s1", catalog.DrugCocaine, 100, 90, 20, 100)}
		st.Lots = []WarehouseLot{{ID: "l1", Drug: catalog.DrugMeth, Grams: 100, Quality: 50}}
		for i := range st.Businesses {
			if st.Businesses[i].ID == "laundromat" {
				st.Businesses[i].Owned = true
			}
		}
	})
	return s
}

func TestCargoBoost(t *testing.T) {
	s := eventStore(t, rollPositive, 0.1, 0)
	out := s.Tick(TickInput{GameMinutes: 0})
	require.Equal(t, OutcomeFired, out.Roll.Outcome)
	st := s.Snapshot()
	assert.Equal(t, 120, st.Shipments[0].TotalGrams)
	require.Len(t, st.Events, 1)
	ev := st.Events[0]
	assert.Equal(t, EventCargoBoost, ev.Kind)
	assert.True(t, ev.Positive)
	// 20g of cocaine at q90: 60 * (0.5 + 1.35) = 111/g
	assert.InDelta(t, 2220, ev.Profit, 1e-6)
	assert.Equal(t, ev.Profit, st.TotalEventProfit)
	require.NotEmpty(t, st.Logs)
	assert.Equal(t, ev.Message, st.Logs[0].Message)
	assert.Zero(t, out.ProfitDelta, "inventory gains are not cash")
}

func TestQualityBoostCapsAt100(t *testing.T) {
	s := eventStore(t, rollPositive, 0.5, 0)
	s.Tick(TickInput{GameMinutes: 0})
	st := s.Snapshot()
	assert.Equal(t, 100.0, st.Shipments[0].Quality)
	assert.Equal(t, EventQualityBoost, st.Events[0].Kind)
}

func TestShortcutSkipsAhead(t *testing.T) {
	s := eventStore(t, rollPositive, 0.9, 0)
	s.Tick(TickInput{GameMinutes: 0})
	sh := s.Snapshot().Shipments[0]
	assert.Equal(t, 1, sh.LegIndex)
	assert.InDelta(t, 10, sh.LegProgress, 1e-9)
}

func TestShortcutCanDeliver(t *testing.T) {
	s := newTestStore(t, entropy.NewSequence(rollPositive, 0.9, 0))
	withState(t, s, func(st *State) {
		st.WarehouseCapacity = 1000
		st.Shipments = []Shipment{testShipment("s1", catalog.DrugCocaine, 100, 90, 20)}
	})
	s.Tick(TickInput{GameMinutes: 0})
	st := s.Snapshot()
	assert.Empty(t, st.Shipments)
	require.Len(t, st.Lots, 1)
	requireCapacityInvariant(t, st)
}

func TestRaidPausesIncome(t *testing.T) {
	s := eventStore(t, rollNegative, 0.1, 0, noEvent, noEvent)
	out := s.Tick(TickInput{GameMinutes: 0})
	require.Equal(t, EventRaid, out.Roll.Kind)
	st := s.Snapshot()
	b := st.Businesses[st.businessIndex("laundromat")]
	assert.Equal(t, 240.0, b.PausedUntil)
	assert.InDelta(t, 160, st.Events[0].Loss, 1e-9)

	out = s.Tick(TickInput{ElapsedMinutes: 120, GameMinutes: 120})
	assert.Zero(t, out.Income)

	out = s.Tick(TickInput{ElapsedMinutes: 120, GameMinutes: 240})
	assert.InDelta(t, 80, out.Income, 1e-9)
	st = s.Snapshot()
	assert.Zero(t, st.Businesses[st.businessIndex("laundromat")].PausedUntil)
}

func TestRaidSkipsWithoutActiveBusiness(t *testing.T) {
	s := newTestStore(t, entropy.NewSequence(rollNegative, 0.1))
	out := s.Tick(TickInput{GameMinutes: 0})
	assert.Equal(t, OutcomeSkipped, out.Roll.Outcome)
}

func TestSeizureRefundsHalf(t *testing.T) {
	s := eventStore(t, rollNegative, 0.5, 0)
	out := s.Tick(TickInput{GameMinutes: 0})
	require.Equal(t, EventSeizure, out.Roll.Kind)
	st := s.Snapshot()
	assert.Empty(t, st.Shipments)
	// 100g * 111 = 11100
	assert.InDelta(t, 5550, out.ProfitDelta, 1e-9)
	ev := st.Events[0]
	assert.InDelta(t, 5550, ev.CashDelta, 1e-9)
	assert.InDelta(t, 5550, ev.Loss, 1e-9)
	assert.InDelta(t, 5550, st.TotalEventLoss, 1e-9)
}

func TestSpoilageDestroysTenPercent(t *testing.T) {
	s := eventStore(t, rollNegative, 0.9, 0)
	out := s.Tick(TickInput{GameMinutes: 0})
	require.Equal(t, EventSpoilage, out.Roll.Kind)
	st := s.Snapshot()
	require.Len(t, st.Lots, 1)
	assert.Equal(t, 90, st.Lots[0].Grams)
	// 10g of meth at q50: 35 * 1.25 = 43.75/g
	assert.InDelta(t, 437, st.Events[0].Loss, 1e-9)
}

func TestSpoilageRemovesExhaustedLot(t *testing.T) {
	s := newTestStore(t, entropy.NewSequence(rollNegative, 0.9, 0))
	withState(t, s, func(st *State) {
		st.WarehouseCapacity = 100
		st.Lots = []WarehouseLot{{ID: "l1", Drug: catalog.DrugMeth, Grams: 1, Quality: 50}}
	})
	s.Tick(TickInput{GameMinutes: 0})
	assert.Empty(t, s.Snapshot().Lots)
}

func TestEventRingIsCapped(t *testing.T) {
	s := newTestStore(t, entropy.NewSequence(rollPositive, 0.1, 0))
	withState(t, s, func(st *State) {
		st.WarehouseCapacity = 1
		st.Shipments = []Shipment{testShipment("s1", catalog.DrugMeth, 10, 50, 1e9)}
	})
	for h := 0; h < MaxEvents+5; h++ {
		s.Tick(TickInput{GameMinutes: float64(h * 60)})
	}
	st := s.Snapshot()
	assert.Len(t, st.Events, MaxEvents)
	assert.Equal(t, MaxEvents+5, st.TotalEvents)
	assert.Greater(t, st.Events[0].At, st.Events[1].At, "most recent first")
	assert.LessOrEqual(t, len(st.Logs), MaxLogs)
}
