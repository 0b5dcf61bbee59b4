package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/underworld/internal/business"
	"github.com/talgya/underworld/internal/catalog"
	"github.com/talgya/underworld/internal/economy"
	"github.com/talgya/underworld/internal/entropy"
	"github.com/talgya/underworld/internal/player"
	"github.com/talgya/underworld/internal/roster"
	"github.com/talgya/underworld/internal/territory"
)

// Observer is told about every completed tick.
type Observer interface {
	ObserveTick(Report)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Report)

func (f ObserverFunc) ObserveTick(r Report) { f(r) }

// Report is everything one Advance produced.
type Report struct {
	GameMinutes float64              `json:"game_minutes"`
	Elapsed     float64              `json:"elapsed_minutes"`
	WallClock   time.Time            `json:"wall_clock"`
	Business    business.TickResult  `json:"business"`
	Territory   territory.TickResult `json:"territory"`
	Bonuses     territory.Bonuses    `json:"bonuses"`
	CashDelta   float64              `json:"cash_delta"`
	Shortfall   float64              `json:"shortfall,omitempty"`
	Cash        float64              `json:"cash"`
}

// Stats accumulates totals since the last daily report.
type Stats struct {
	Income        float64 `json:"income"`
	PassiveIncome float64 `json:"passive_income"`
	Upkeep        float64 `json:"upkeep"`
	Sales         float64 `json:"sales"`
	GramsSold     int     `json:"grams_sold"`
	Delivered     int     `json:"delivered"`
	Events        int     `json:"events"`
	ContestsWon   int     `json:"contests_won"`
	ContestsLost  int     `json:"contests_lost"`
}

// Simulation ties together both stores, the player's wallet and crew. All
// mutations go through it so they are serialized against ticks.
type Simulation struct {
	Business  *business.Store
	Territory *territory.Store
	Wallet    *player.Wallet
	Crew      *roster.Roster
	Demand    *economy.DemandField

	mu          sync.Mutex
	luck        float64
	gameMinutes float64
	stats       Stats
	observers   []Observer
	logger      *slog.Logger
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLuck sets the luck factor in [0,1] used for rolls.
func WithLuck(luck float64) Option {
	return func(s *Simulation) { s.luck = economy.Clamp(luck, 0, 1) }
}

// WithDemand attaches a street demand field to sale pricing.
func WithDemand(f *economy.DemandField) Option {
	return func(s *Simulation) { s.Demand = f }
}

// WithObserver registers a tick observer.
func WithObserver(o Observer) Option {
	return func(s *Simulation) { s.observers = append(s.observers, o) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// NewSimulation wires the components together.
func NewSimulation(biz *business.Store, terr *territory.Store, wallet *player.Wallet, crew *roster.Roster, opts ...Option) *Simulation {
	s := &Simulation{
		Business:  biz,
		Territory: terr,
		Wallet:    wallet,
		Crew:      crew,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewGame builds fresh stores for a new game from cat.
func NewGame(cat *catalog.Catalog, rng entropy.Source, wallet *player.Wallet, opts ...Option) *Simulation {
	return NewSimulation(business.New(cat, rng), territory.New(cat, rng), wallet, roster.New(), opts...)
}

// AddObserver registers an observer after construction.
func (s *Simulation) AddObserver(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// GameMinutes returns the game clock as of the last Advance.
func (s *Simulation) GameMinutes() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameMinutes
}

// SetGameMinutes moves the clock, e.g. after loading a save.
func (s *Simulation) SetGameMinutes(m float64) {
	s.mu.Lock()
	s.gameMinutes = max(0, m)
	s.mu.Unlock()
}

// Luck returns the luck factor.
func (s *Simulation) Luck() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.luck
}

// Advance runs one tick of elapsed game minutes ending at gameMinutes, with
// wall as the real time used for contest scheduling. Territory bonuses are
// read once, before either store ticks, so the whole tick sees one
// consistent set.
func (s *Simulation) Advance(elapsed, gameMinutes float64, wall time.Time) Report {
	s.mu.Lock()

	bonuses := s.Territory.ActiveBonuses()
	rep := Report{
		GameMinutes: gameMinutes,
		Elapsed:     elapsed,
		WallClock:   wall,
		Bonuses:     bonuses,
	}

	rep.Business = s.Business.Tick(business.TickInput{
		ElapsedMinutes: elapsed,
		GameMinutes:    gameMinutes,
		Luck:           s.luck,
		ImportSpeed:    bonuses.ImportSpeed(),
		IncomeBonus:    bonuses.Income(),
	})
	rep.Territory = s.Territory.Tick(territory.TickInput{
		ElapsedMinutes: elapsed,
		GameMinutes:    gameMinutes,
		WallClock:      wall,
		Dealers:        s.Crew.List(),
	})

	s.Wallet.Credit(rep.Business.ProfitDelta + rep.Territory.PassiveIncome)
	rep.Shortfall = s.Wallet.Debit(rep.Territory.UpkeepCost)
	rep.CashDelta = rep.Business.ProfitDelta + rep.Territory.PassiveIncome - rep.Territory.UpkeepCost + rep.Shortfall
	rep.Cash = s.Wallet.Cash()
	s.gameMinutes = gameMinutes

	s.stats.Income += rep.Business.Income
	s.stats.PassiveIncome += rep.Territory.PassiveIncome
	s.stats.Upkeep += rep.Territory.UpkeepCost
	s.stats.Delivered += len(rep.Business.Delivered)
	s.stats.Events += len(rep.Business.Events)
	for _, ev := range rep.Territory.ContestEvents {
		if ev.Result == territory.ContestWin {
			s.stats.ContestsWon++
		} else {
			s.stats.ContestsLost++
		}
	}

	observers := s.observers
	s.mu.Unlock()

	for _, o := range observers {
		o.ObserveTick(rep)
	}
	return rep
}

// Stats returns the totals accumulated since the last daily report.
func (s *Simulation) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
