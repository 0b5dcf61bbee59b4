package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/underworld/internal/business"
	"github.com/talgya/underworld/internal/catalog"
	"github.com/talgya/underworld/internal/territory"
)

const oldSave = `{
  "version": 1,
  "game_minutes": 600,
  "account": {"cash": -50},
  "dealers": [
    {"id": "d1", "name": "Vic", "level": 5, "type": "street"},
    {"id": "d2", "name": "Bad", "level": 2, "type": "courier"},
    {"id": "d1", "name": "Dup", "level": 9, "type": "business"}
  ],
  "business": {
    "businesses": [
      {"id": "laundromat", "owned": true, "level": 0, "profit_per_hour": 99999},
      {"id": "strip-club", "owned": true, "level": 3},
      {"name": "no id"}
    ],
    "warehouses": [
      {"id": "storage-unit", "owned": true, "capacity": 99999},
      {"id": "garage", "owned": false}
    ],
    "warehouse_capacity": 123456,
    "contracts": [
      {"id": "humboldt-run", "owned": true},
      {"id": "andes-express", "owned": false, "next_shipment_at": 50}
    ],
    "shipments": [
      {"id": "s1", "contract_id": "humboldt-run", "drug": "cannabis", "total_grams": 200,
       "quality": 130, "leg_index": 9, "leg_progress_minutes": 500, "status": "enroute"},
      {"id": "s2", "contract_id": "gone-contract", "drug": "cannabis", "total_grams": 100},
      {"id": "s3", "contract_id": "humboldt-run", "drug": "cannabis"},
      {"id": "s4", "contract_id": "humboldt-run", "drug": "cannabis", "total_grams": 50, "status": "waiting"}
    ],
    "lots": [
      {"id": "l1", "drug": "cannabis", "grams": 120, "quality": 55},
      {"id": "l2", "drug": "oregano", "grams": 10},
      {"id": "l3", "drug": "meth", "grams": -4},
      {"id": "l4", "drug": "meth", "grams": "lots"}
    ],
    "logs": [{"id": "g1", "at_minutes": 10, "message": "hello"}, 7],
    "total_events": 3
  },
  "territory": {
    "territories": [
      {"id": "docks", "control": 140, "assigned_dealer_ids": ["d1", "ghost"], "next_contest_at": 1760000000, "fortified": true},
      {"id": "airport-strip", "control": -3, "assigned_dealer_ids": ["d1"], "last_contest_result": "lose"},
      {"id": "campus", "last_contest_result": "draw"},
      {"id": "moon-base", "control": 50}
    ],
    "contests_won": 2
  }
}`

func TestDecodeReconcilesAgainstCatalog(t *testing.T) {
	cat := catalog.Default()
	snap, err := Decode([]byte(oldSave), cat)
	require.NoError(t, err)

	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Equal(t, 600.0, snap.GameMinutes)
	assert.Zero(t, snap.Account.Cash)
	assert.Equal(t, 1, snap.Account.Level)

	require.Len(t, snap.Dealers, 1)
	assert.Equal(t, "Vic", snap.Dealers[0].Name)

	biz := snap.Business
	assert.Len(t, biz.Businesses, len(cat.Businesses))
	laundromat := biz.Businesses[0]
	assert.True(t, laundromat.Owned)
	assert.Equal(t, 1, laundromat.Level)
	assert.Equal(t, 40.0, laundromat.ProfitPerHour, "static fields come from the catalog")

	assert.Equal(t, 500, biz.WarehouseCapacity)

	humboldt := biz.Contracts[0]
	require.Equal(t, "humboldt-run", humboldt.ID)
	assert.True(t, humboldt.Owned)
	require.NotNil(t, humboldt.NextShipmentAt)
	assert.Equal(t, 600.0, *humboldt.NextShipmentAt)
	for _, c := range biz.Contracts[1:] {
		assert.False(t, c.Owned)
		assert.Nil(t, c.NextShipmentAt)
	}

	require.Len(t, biz.Shipments, 2)
	s1 := biz.Shipments[0]
	assert.Equal(t, "s1", s1.ID)
	assert.Len(t, s1.Route, 3, "route re-derived from the contract")
	assert.Equal(t, 2, s1.LegIndex)
	assert.Equal(t, 30.0, s1.LegProgress)
	assert.Equal(t, 100.0, s1.Quality)
	s4 := biz.Shipments[1]
	assert.Equal(t, business.StatusWaiting, s4.Status)
	require.NotNil(t, s4.WaitingSince)
	assert.Equal(t, 600.0, *s4.WaitingSince)

	require.Len(t, biz.Lots, 1)
	assert.Equal(t, "l1", biz.Lots[0].ID)
	require.Len(t, biz.Logs, 1)
	assert.Equal(t, 3, biz.TotalEvents)
	assert.Equal(t, int64(0), biz.LastEventHour)

	terr := snap.Territory
	assert.Len(t, terr.Territories, len(cat.Territories))
	docks, _ := terr.Territory("docks")
	assert.Equal(t, 100.0, docks.Control)
	assert.Equal(t, []string{"d1"}, docks.AssignedDealerIDs)
	assert.Equal(t, int64(1760000000000), docks.NextContestAt)
	assert.True(t, docks.Fortified)
	airport, _ := terr.Territory("airport-strip")
	assert.Zero(t, airport.Control)
	assert.Empty(t, airport.AssignedDealerIDs, "a dealer works one territory")
	assert.Equal(t, territory.ContestLose, airport.LastContestResult)
	campus, _ := terr.Territory("campus")
	assert.Equal(t, territory.ContestNone, campus.LastContestResult)
	assert.Equal(t, 2, terr.ContestsWon)
}

func TestDecodeRejectsUnusableDocuments(t *testing.T) {
	cat := catalog.Default()
	for name, raw := range map[string]string{
		"not json":   `{{`,
		"no version": `{"game_minutes": 10}`,
		"array":      `[]`,
		"too new":    `{"version": 99}`,
	} {
		_, err := Decode([]byte(raw), cat)
		assert.Error(t, err, name)
	}
}

func TestDecodeMinimalDocument(t *testing.T) {
	snap, err := Decode([]byte(`{"version": 2}`), catalog.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Account.Level)
	assert.Zero(t, snap.Business.WarehouseCapacity)
	assert.Empty(t, snap.Dealers)
}

func TestWaitingShipmentPinnedToLastLeg(t *testing.T) {
	cat := catalog.Default()
	c, ok := cat.Contract("andes-express")
	require.True(t, ok)

	sh, ok := reconcileShipment(cat, business.Shipment{
		ID:          "s1",
		ContractID:  c.ID,
		Drug:        c.Drug,
		TotalGrams:  300,
		Status:      business.StatusWaiting,
		LegIndex:    1,
		LegProgress: 5,
	}, 900)
	require.True(t, ok)

	last := len(c.Route) - 1
	assert.Equal(t, last, sh.LegIndex)
	assert.Equal(t, c.Route[last].Minutes, sh.LegProgress)
	assert.Zero(t, sh.ETAMinutes)
	require.NotNil(t, sh.WaitingSince)
	assert.Equal(t, 900.0, *sh.WaitingSince)
}
