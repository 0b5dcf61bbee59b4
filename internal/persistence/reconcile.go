package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/talgya/underworld/internal/business"
	"github.com/talgya/underworld/internal/catalog"
	"github.com/talgya/underworld/internal/economy"
	"github.com/talgya/underworld/internal/player"
	"github.com/talgya/underworld/internal/roster"
	"github.com/talgya/underworld/internal/territory"
)

// rawSnapshot mirrors Snapshot with every entity left undecoded so each one
// can be validated on its own.
type rawSnapshot struct {
	Version     int               `json:"version"`
	SavedAt     time.Time         `json:"saved_at"`
	GameMinutes float64           `json:"game_minutes"`
	Account     player.Account    `json:"account"`
	Dealers     []json.RawMessage `json:"dealers"`
	Business    rawBusiness       `json:"business"`
	Territory   rawTerritory      `json:"territory"`
}

type rawBusiness struct {
	Businesses       []json.RawMessage `json:"businesses"`
	Warehouses       []json.RawMessage `json:"warehouses"`
	Contracts        []json.RawMessage `json:"contracts"`
	Shipments        []json.RawMessage `json:"shipments"`
	Lots             []json.RawMessage `json:"lots"`
	Logs             []json.RawMessage `json:"logs"`
	Events           []json.RawMessage `json:"events"`
	TotalEvents      int               `json:"total_events"`
	TotalEventProfit float64           `json:"total_event_profit"`
	TotalEventLoss   float64           `json:"total_event_loss"`
	LastEventHour    int64             `json:"last_event_hour"`
}

type rawTerritory struct {
	Territories        []json.RawMessage `json:"territories"`
	TotalPassiveIncome float64           `json:"total_passive_income"`
	TotalUpkeep        float64           `json:"total_upkeep"`
	ContestsWon        int               `json:"contests_won"`
	ContestsLost       int               `json:"contests_lost"`
}

// upgrades convert a reconciled snapshot from version k to k+1.
var upgrades = map[int]func(*Snapshot){
	// Version 1 stored contest times in unix seconds.
	1: func(s *Snapshot) {
		for i := range s.Territory.Territories {
			s.Territory.Territories[i].NextContestAt *= 1000
		}
	},
}

// Decode validates a saved snapshot and reconciles it against cat. Entries
// for ids the catalog no longer knows, or with an unrecognized shape, are
// dropped; static fields are always taken from the catalog; owned levels and
// warehouse capacity are re-derived; missing numbers read as zero.
func Decode(raw []byte, cat *catalog.Catalog) (Snapshot, error) {
	if !conforms("snapshot", raw) {
		return Snapshot{}, fmt.Errorf("snapshot does not match schema")
	}
	var rs rawSnapshot
	if err := json.Unmarshal(raw, &rs); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if rs.Version > SnapshotVersion {
		return Snapshot{}, fmt.Errorf("snapshot version %d is newer than supported %d", rs.Version, SnapshotVersion)
	}

	snap := Snapshot{
		Version:     rs.Version,
		SavedAt:     rs.SavedAt,
		GameMinutes: max(0, rs.GameMinutes),
		Account:     player.Account{Cash: max(0, rs.Account.Cash), Level: max(1, rs.Account.Level)},
	}
	snap.Dealers = reconcileDealers(rs.Dealers)
	snap.Business = reconcileBusiness(cat, rs.Business, snap.GameMinutes)
	snap.Territory = reconcileTerritory(cat, rs.Territory, snap.Dealers)

	for snap.Version < SnapshotVersion {
		if up, ok := upgrades[snap.Version]; ok {
			up(&snap)
		}
		snap.Version++
	}
	return snap, nil
}

// decodeEntries keeps the entries that conform to def and decode cleanly.
func decodeEntries[T any](def string, raws []json.RawMessage) []T {
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		var v T
		if (def != "" && !conforms(def, raw)) || json.Unmarshal(raw, &v) != nil {
			slog.Warn("dropping unrecognized saved entry", "kind", def, "index", i)
			continue
		}
		out = append(out, v)
	}
	return out
}

func byID[T any](items []T, id func(T) string) map[string]T {
	m := make(map[string]T, len(items))
	for _, it := range items {
		m[id(it)] = it
	}
	return m
}

func warnUnknown[T any](kind string, saved map[string]T, known func(string) bool) {
	for id := range saved {
		if !known(id) {
			slog.Warn("dropping saved entry missing from catalog", "kind", kind, "id", id)
		}
	}
}

func reconcileDealers(raws []json.RawMessage) []territory.Dealer {
	var out []territory.Dealer
	seen := make(map[string]bool)
	for _, d := range decodeEntries[territory.Dealer]("dealer", raws) {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		d.Level = min(d.Level, roster.MaxLevel)
		out = append(out, d)
	}
	return out
}

func reconcileBusiness(cat *catalog.Catalog, rb rawBusiness, now float64) *business.State {
	st := business.InitialState(cat)

	businesses := byID(decodeEntries[business.Business]("business", rb.Businesses), func(b business.Business) string { return b.ID })
	warnUnknown("business", businesses, func(id string) bool { _, ok := cat.Business(id); return ok })
	for i := range st.Businesses {
		saved, ok := businesses[st.Businesses[i].ID]
		if !ok || !saved.Owned {
			continue
		}
		st.Businesses[i].Owned = true
		st.Businesses[i].Level = max(1, saved.Level)
		st.Businesses[i].PausedUntil = max(0, saved.PausedUntil)
	}

	warehouses := byID(decodeEntries[business.WarehouseUpgrade]("warehouse", rb.Warehouses), func(w business.WarehouseUpgrade) string { return w.ID })
	warnUnknown("warehouse", warehouses, func(id string) bool { _, ok := cat.Warehouse(id); return ok })
	for i := range st.Warehouses {
		if saved, ok := warehouses[st.Warehouses[i].ID]; ok && saved.Owned {
			st.Warehouses[i].Owned = true
			st.WarehouseCapacity += st.Warehouses[i].Capacity
		}
	}

	contracts := byID(decodeEntries[business.ImportContract]("contract", rb.Contracts), func(c business.ImportContract) string { return c.ID })
	warnUnknown("contract", contracts, func(id string) bool { _, ok := cat.Contract(id); return ok })
	for i := range st.Contracts {
		saved, ok := contracts[st.Contracts[i].ID]
		if !ok || !saved.Owned {
			continue
		}
		at := now
		if saved.NextShipmentAt != nil {
			at = max(0, *saved.NextShipmentAt)
		}
		st.Contracts[i].Owned = true
		st.Contracts[i].NextShipmentAt = &at
	}

	for _, sh := range decodeEntries[business.Shipment]("shipment", rb.Shipments) {
		if fixed, ok := reconcileShipment(cat, sh, now); ok {
			st.Shipments = append(st.Shipments, fixed)
		}
	}

	for _, lot := range decodeEntries[business.WarehouseLot]("lot", rb.Lots) {
		if cat.BasePrice(lot.Drug) <= 0 || lot.Grams <= 0 {
			slog.Warn("dropping saved lot", "lot", lot.ID, "drug", lot.Drug, "grams", lot.Grams)
			continue
		}
		lot.Quality = economy.Clamp(lot.Quality, 0, economy.MaxQuality)
		st.Lots = append(st.Lots, lot)
	}
	if used := st.WarehouseUsed(); used > st.WarehouseCapacity {
		slog.Warn("saved stock exceeds warehouse capacity", "used", used, "capacity", st.WarehouseCapacity)
	}

	logs := decodeEntries[business.LogEntry]("", rb.Logs)
	st.Logs = logs[:min(len(logs), business.MaxLogs)]
	events := decodeEntries[business.Event]("", rb.Events)
	st.Events = events[:min(len(events), business.MaxEvents)]

	st.TotalEvents = max(0, rb.TotalEvents)
	st.TotalEventProfit = max(0, rb.TotalEventProfit)
	st.TotalEventLoss = max(0, rb.TotalEventLoss)
	st.LastEventHour = max(-1, rb.LastEventHour)
	return st
}

// reconcileShipment repairs a saved shipment, or reports false when it can
// no longer be delivered.
func reconcileShipment(cat *catalog.Catalog, sh business.Shipment, now float64) (business.Shipment, bool) {
	c, ok := cat.Contract(sh.ContractID)
	if !ok || cat.BasePrice(sh.Drug) <= 0 || sh.TotalGrams < 1 {
		slog.Warn("dropping saved shipment", "shipment", sh.ID, "contract", sh.ContractID)
		return sh, false
	}
	if len(sh.Route) == 0 {
		sh.Route = slices.Clone(c.Route)
	}
	sh.Quality = economy.Clamp(sh.Quality, 0, economy.MaxQuality)
	sh.LegIndex = min(max(0, sh.LegIndex), len(sh.Route)-1)
	sh.LegProgress = economy.Clamp(sh.LegProgress, 0, sh.Route[sh.LegIndex].Minutes)
	sh.StartedAt = max(0, sh.StartedAt)

	switch sh.Status {
	case business.StatusWaiting:
		last := len(sh.Route) - 1
		sh.LegIndex = last
		sh.LegProgress = sh.Route[last].Minutes
		if sh.WaitingSince == nil {
			since := now
			sh.WaitingSince = &since
		}
	default:
		sh.Status = business.StatusEnroute
		sh.WaitingSince = nil
	}
	sh.ETAMinutes = sh.Remaining()
	return sh, true
}

func reconcileTerritory(cat *catalog.Catalog, rt rawTerritory, dealers []territory.Dealer) *territory.State {
	st := territory.InitialState(cat)

	onRoster := make(map[string]bool, len(dealers))
	for _, d := range dealers {
		onRoster[d.ID] = true
	}
	placed := make(map[string]bool)

	saved := byID(decodeEntries[territory.Territory]("territory", rt.Territories), func(t territory.Territory) string { return t.ID })
	warnUnknown("territory", saved, func(id string) bool { _, ok := cat.Territory(id); return ok })
	for i := range st.Territories {
		t := &st.Territories[i]
		s, ok := saved[t.ID]
		if !ok {
			continue
		}
		t.Control = economy.Clamp(s.Control, 0, 100)
		t.NextContestAt = max(0, s.NextContestAt)
		t.Fortified = s.Fortified
		if s.LastContestResult == territory.ContestWin || s.LastContestResult == territory.ContestLose {
			t.LastContestResult = s.LastContestResult
		}
		for _, id := range s.AssignedDealerIDs {
			if !onRoster[id] || placed[id] {
				slog.Warn("dropping saved dealer assignment", "territory", t.ID, "dealer", id)
				continue
			}
			placed[id] = true
			t.AssignedDealerIDs = append(t.AssignedDealerIDs, id)
		}
	}

	st.TotalPassiveIncome = max(0, rt.TotalPassiveIncome)
	st.TotalUpkeep = max(0, rt.TotalUpkeep)
	st.ContestsWon = max(0, rt.ContestsWon)
	st.ContestsLost = max(0, rt.ContestsLost)
	return st
}
