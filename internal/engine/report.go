package engine

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/talgya/underworld/internal/business"
	"github.com/talgya/underworld/internal/player"
	"github.com/talgya/underworld/internal/territory"
)

// Status is a read-only view of the whole empire.
type Status struct {
	Time        string            `json:"time"`
	GameMinutes float64           `json:"game_minutes"`
	Account     player.Account    `json:"account"`
	Warehouse   WarehouseStatus   `json:"warehouse"`
	Shipments   int               `json:"shipments"`
	Waiting     int               `json:"waiting"`
	Dealers     int               `json:"dealers"`
	Bonuses     territory.Bonuses `json:"bonuses"`
	Stats       Stats             `json:"stats"`
}

// WarehouseStatus is capacity against current stock.
type WarehouseStatus struct {
	Capacity int `json:"capacity"`
	Used     int `json:"used"`
}

// Status summarises the current snapshots.
func (s *Simulation) Status() Status {
	biz := s.Business.Snapshot()
	minutes := s.GameMinutes()
	st := Status{
		Time:        SimTime(minutes),
		GameMinutes: minutes,
		Account:     s.Wallet.Account(),
		Warehouse:   WarehouseStatus{Capacity: biz.WarehouseCapacity, Used: biz.WarehouseUsed()},
		Shipments:   len(biz.Shipments),
		Dealers:     len(s.Crew.List()),
		Bonuses:     s.Territory.ActiveBonuses(),
		Stats:       s.Stats(),
	}
	for _, sh := range biz.Shipments {
		if sh.Status == business.StatusWaiting {
			st.Waiting++
		}
	}
	return st
}

// DailyReport logs the day's totals and starts a new accumulation period.
func (s *Simulation) DailyReport(day int64) Stats {
	s.mu.Lock()
	stats := s.stats
	s.stats = Stats{}
	minutes := s.gameMinutes
	s.mu.Unlock()

	biz := s.Business.Snapshot()
	terr := s.Territory.Snapshot()
	held := 0
	for _, t := range terr.Territories {
		if t.Control >= 100 {
			held++
		}
	}

	s.logger.Info("daily report",
		"day", day,
		"time", SimTime(minutes),
		"cash", money(s.Wallet.Cash()),
		"income", money(stats.Income),
		"passive_income", money(stats.PassiveIncome),
		"upkeep", money(stats.Upkeep),
		"sales", money(stats.Sales),
		"grams_sold", humanize.Comma(int64(stats.GramsSold)),
		"delivered", stats.Delivered,
		"events", stats.Events,
		"contests_won", stats.ContestsWon,
		"contests_lost", stats.ContestsLost,
		"stock", fmt.Sprintf("%s/%s g", humanize.Comma(int64(biz.WarehouseUsed())), humanize.Comma(int64(biz.WarehouseCapacity))),
		"territories_held", held,
	)
	return stats
}

func money(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 2)
}
