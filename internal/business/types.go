// Package business runs the player's fronts, import contracts, shipments and
// warehouse. All state lives in an immutable State snapshot that is replaced
// wholesale on every mutation.
package business

import (
	"slices"

	"github.com/talgya/underworld/internal/catalog"
)

// Ring buffer caps, most recent first.
const (
	MaxLogs   = 60
	MaxEvents = 30
)

// Business is a catalog front plus the player's ownership of it.
type Business struct {
	catalog.Business
	Owned bool `json:"owned"`
	Level int  `json:"level"`
	// PausedUntil is a game-minute timestamp; income is suspended until it
	// is reached. Zero means active.
	PausedUntil float64 `json:"paused_until"`
}

// Paused reports whether the business earns nothing at game minute now.
func (b Business) Paused(now float64) bool {
	return b.PausedUntil > 0 && now < b.PausedUntil
}

// WarehouseUpgrade is a storage tier and whether it has been bought.
type WarehouseUpgrade struct {
	catalog.Warehouse
	Owned bool `json:"owned"`
}

// ImportContract is a catalog contract plus its delivery schedule.
type ImportContract struct {
	catalog.Contract
	Owned bool `json:"owned"`
	// NextShipmentAt is only meaningful while Owned.
	NextShipmentAt *float64 `json:"next_shipment_at"`
}

// ShipmentStatus is the lifecycle state of a live shipment.
type ShipmentStatus string

const (
	StatusEnroute ShipmentStatus = "enroute"
	StatusWaiting ShipmentStatus = "waiting" // Arrived, warehouse full
)

// Shipment is cargo moving along a route snapshotted from its contract.
type Shipment struct {
	ID           string         `json:"id"`
	ContractID   string         `json:"contract_id"`
	Drug         catalog.Drug   `json:"drug"`
	TotalGrams   int            `json:"total_grams"`
	Quality      float64        `json:"quality"`
	Route        catalog.Route  `json:"route"`
	LegIndex     int            `json:"leg_index"`
	LegProgress  float64        `json:"leg_progress_minutes"`
	Status       ShipmentStatus `json:"status"`
	StartedAt    float64        `json:"started_at_minutes"`
	ETAMinutes   float64        `json:"eta_minutes"`
	WaitingSince *float64       `json:"waiting_since_minutes,omitempty"`
}

// CurrentLeg returns the leg the shipment is on.
func (s Shipment) CurrentLeg() catalog.Leg {
	if s.LegIndex < 0 || s.LegIndex >= len(s.Route) {
		return catalog.Leg{}
	}
	return s.Route[s.LegIndex]
}

// Remaining returns the minutes left on the route.
func (s Shipment) Remaining() float64 {
	if s.Status == StatusWaiting {
		return 0
	}
	rem := 0.0
	for i := s.LegIndex; i < len(s.Route); i++ {
		rem += s.Route[i].Minutes
	}
	return max(0, rem-s.LegProgress)
}

// WarehouseLot is a batch of product sitting in the warehouse. Lots are never
// merged.
type WarehouseLot struct {
	ID        string       `json:"id"`
	Drug      catalog.Drug `json:"drug"`
	Grams     int          `json:"grams"`
	Quality   float64      `json:"quality"`
	Origin    string       `json:"origin"`
	ArrivedAt float64      `json:"arrived_at_minutes"`
}

// LogEntry is a narrative line for the player's business feed.
type LogEntry struct {
	ID      string  `json:"id"`
	At      float64 `json:"at_minutes"`
	Message string  `json:"message"`
}

// EventKind names a random event outcome.
type EventKind string

const (
	EventCargoBoost   EventKind = "cargo_boost"
	EventQualityBoost EventKind = "quality_boost"
	EventShortcut     EventKind = "shortcut"
	EventRaid         EventKind = "raid"
	EventSeizure      EventKind = "seizure"
	EventSpoilage     EventKind = "spoilage"
)

// Positive reports whether the kind is a favorable outcome.
func (k EventKind) Positive() bool {
	switch k {
	case EventCargoBoost, EventQualityBoost, EventShortcut:
		return true
	}
	return false
}

// Event is a structured record of a fired random event. Profit and Loss are
// value estimates; CashDelta is the part paid out to the player.
type Event struct {
	ID        string    `json:"id"`
	At        float64   `json:"at_minutes"`
	Kind      EventKind `json:"kind"`
	Positive  bool      `json:"positive"`
	TargetID  string    `json:"target_id"`
	Message   string    `json:"message"`
	Profit    float64   `json:"profit"`
	Loss      float64   `json:"loss"`
	CashDelta float64   `json:"cash_delta"`
}

// State is one immutable snapshot of the business store. Never modify a State
// returned by Store.Snapshot.
type State struct {
	Businesses        []Business         `json:"businesses"`
	Warehouses        []WarehouseUpgrade `json:"warehouses"`
	WarehouseCapacity int                `json:"warehouse_capacity"`
	Contracts         []ImportContract   `json:"contracts"`
	Shipments         []Shipment         `json:"shipments"`
	Lots              []WarehouseLot     `json:"lots"`
	Logs              []LogEntry         `json:"logs"`
	Events            []Event            `json:"events"`
	TotalEvents       int                `json:"total_events"`
	TotalEventProfit  float64            `json:"total_event_profit"`
	TotalEventLoss    float64            `json:"total_event_loss"`
	// LastEventHour is the game hour of the last event check, -1 before the first.
	LastEventHour int64 `json:"last_event_hour"`
}

// clone copies every collection so the copy can be edited without touching s.
// Routes and pointer fields are shared; they are replaced, never written through.
func (s *State) clone() *State {
	next := *s
	next.Businesses = slices.Clone(s.Businesses)
	next.Warehouses = slices.Clone(s.Warehouses)
	next.Contracts = slices.Clone(s.Contracts)
	next.Shipments = slices.Clone(s.Shipments)
	next.Lots = slices.Clone(s.Lots)
	next.Logs = slices.Clone(s.Logs)
	next.Events = slices.Clone(s.Events)
	return &next
}

// WarehouseUsed sums the grams held in all lots.
func (s *State) WarehouseUsed() int {
	used := 0
	for _, l := range s.Lots {
		used += l.Grams
	}
	return used
}

// StockOf sums the grams of one drug across lots.
func (s *State) StockOf(drug catalog.Drug) int {
	total := 0
	for _, l := range s.Lots {
		if l.Drug == drug {
			total += l.Grams
		}
	}
	return total
}

func (s *State) businessIndex(id string) int {
	return slices.IndexFunc(s.Businesses, func(b Business) bool { return b.ID == id })
}

func (s *State) warehouseIndex(id string) int {
	return slices.IndexFunc(s.Warehouses, func(w WarehouseUpgrade) bool { return w.ID == id })
}

func (s *State) contractIndex(id string) int {
	return slices.IndexFunc(s.Contracts, func(c ImportContract) bool { return c.ID == id })
}

// prepend inserts item at the front of list and trims it to limit, returning a
// fresh slice.
func prepend[T any](list []T, item T, limit int) []T {
	n := min(len(list)+1, limit)
	out := make([]T, 0, n)
	out = append(out, item)
	out = append(out, list[:n-1]...)
	return out
}
