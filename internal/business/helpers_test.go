package business

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/underworld/internal/catalog"
	"github.com/talgya/underworld/internal/entropy"
)

type wallet struct {
	level int
	cash  float64
}

func (w *wallet) Level() int    { return w.level }
func (w *wallet) Cash() float64 { return w.cash }
func (w *wallet) Spend(amount float64) bool {
	if amount > w.cash {
		return false
	}
	w.cash -= amount
	return true
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore(t *testing.T, rng entropy.Source) *Store {
	t.Helper()
	if rng == nil {
		rng = entropy.NewSeeded(1)
	}
	return New(catalog.Default(), rng, WithIDs(sequentialIDs()))
}

// withState installs a state derived from the catalog and edited by fn.
func withState(t *testing.T, s *Store, fn func(st *State)) {
	t.Helper()
	st := InitialState(s.Catalog())
	fn(st)
	s.Restore(st)
}

func testShipment(id string, drug catalog.Drug, grams int, quality float64, legs ...float64) Shipment {
	route := make(catalog.Route, 0, len(legs))
	for i, m := range legs {
		route = append(route, catalog.Leg{Name: fmt.Sprintf("leg-%d", i), Minutes: m})
	}
	return Shipment{
		ID:         id,
		ContractID: "andes-express",
		Drug:       drug,
		TotalGrams: grams,
		Quality:    quality,
		Route:      route,
		Status:     StatusEnroute,
	}
}

func requireCapacityInvariant(t *testing.T, st *State) {
	t.Helper()
	require.LessOrEqual(t, st.WarehouseUsed(), st.WarehouseCapacity, "lots exceed warehouse capacity")
}
