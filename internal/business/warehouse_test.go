package business

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/underworld/internal/catalog"
)

func saleStore(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t, nil)
	withState(t, s, func(st *State) {
		st.WarehouseCapacity = 1000
		st.Lots = []WarehouseLot{
			{ID: "a", Drug: catalog.DrugMeth, Grams: 100, Quality: 50},
			{ID: "b", Drug: catalog.DrugCocaine, Grams: 10, Quality: 80},
			{ID: "c", Drug: catalog.DrugMeth, Grams: 50, Quality: 90},
		}
	})
	return s
}

func TestSellPrefersBestQuality(t *testing.T) {
	s := saleStore(t)
	res := s.SellWarehouseStock(catalog.DrugMeth, 120, true, 0)
	assert.Equal(t, 120, res.GramsSold)
	assert.InDelta(t, (50.0*90+70.0*50)/120, res.AvgQuality, 1e-9)

	st := s.Snapshot()
	require.Len(t, st.Lots, 2)
	assert.Equal(t, "a", st.Lots[0].ID)
	assert.Equal(t, 30, st.Lots[0].Grams)
	assert.Equal(t, "b", st.Lots[1].ID)
}

func TestSellInArrivalOrder(t *testing.T) {
	s := saleStore(t)
	res := s.SellWarehouseStock(catalog.DrugMeth, 120, false, 0)
	assert.Equal(t, 120, res.GramsSold)
	assert.InDelta(t, (100.0*50+20.0*90)/120, res.AvgQuality, 1e-9)

	st := s.Snapshot()
	require.Len(t, st.Lots, 2)
	assert.Equal(t, "c", st.Lots[1].ID)
	assert.Equal(t, 30, st.Lots[1].Grams)
}

func TestSellNeverExceedsRequestOrStock(t *testing.T) {
	for _, want := range []int{1, 60, 150, 151, 10000} {
		s := saleStore(t)
		before := s.Snapshot().StockOf(catalog.DrugMeth)
		res := s.SellWarehouseStock(catalog.DrugMeth, want, true, 0)
		after := s.Snapshot().StockOf(catalog.DrugMeth)
		assert.LessOrEqual(t, res.GramsSold, want)
		assert.Equal(t, before-after, res.GramsSold)
		assert.Equal(t, 10, s.Snapshot().StockOf(catalog.DrugCocaine))
	}
}

func TestSellNothing(t *testing.T) {
	s := saleStore(t)
	before := s.Snapshot()

	res := s.SellWarehouseStock(catalog.DrugHeroin, 10, true, 0)
	assert.Zero(t, res.GramsSold)
	assert.Zero(t, res.AvgQuality)

	res = s.SellWarehouseStock(catalog.DrugMeth, 0, true, 0)
	assert.Zero(t, res.GramsSold)
	assert.Same(t, before, s.Snapshot())
}

func TestLogRingIsCapped(t *testing.T) {
	s := newTestStore(t, nil)
	st := s.begin()
	for i := 0; i < MaxLogs+10; i++ {
		s.appendLog(st, float64(i), "entry %d", i)
	}
	require.Len(t, st.Logs, MaxLogs)
	assert.Equal(t, "entry 69", st.Logs[0].Message)
	assert.Equal(t, "entry 10", st.Logs[MaxLogs-1].Message)
}
