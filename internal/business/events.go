package business

import (
	"fmt"
	"math"
	"slices"

	"github.com/talgya/underworld/internal/economy"
	"github.com/talgya/underworld/internal/entropy"
)

// Event tuning.
const (
	cargoBoostFactor   = 0.20
	qualityBoostPoints = 15.0
	shortcutMinutes    = 30.0
	raidPauseMinutes   = 240.0
	seizureRefund      = 0.50
	spoilageFraction   = 0.10
)

// Outcome is the result of an hourly event check.
type Outcome string

const (
	OutcomeNone    Outcome = "none"    // The roll landed outside both bands
	OutcomeFired   Outcome = "fired"   // An event was applied
	OutcomeSkipped Outcome = "skipped" // An event was rolled but had no target
)

// EventRoll describes what the hourly check did. Checked is false when the
// tick did not cross into a new game hour.
type EventRoll struct {
	Checked bool      `json:"checked"`
	Hour    int64     `json:"hour"`
	Outcome Outcome   `json:"outcome,omitempty"`
	Kind    EventKind `json:"kind,omitempty"`
	Event   *Event    `json:"event,omitempty"`
}

// PositiveChance is the probability of a favorable event in a given hour.
func PositiveChance(luck float64) float64 {
	return min(0.18, 0.10+economy.Clamp(luck, 0, 1)*0.12)
}

// NegativeChance is the probability of an unfavorable event in a given hour.
func NegativeChance(luck float64) float64 {
	return max(0.02, 0.05-economy.Clamp(luck, 0, 1)*0.04)
}

// pickKind rolls which event, if any, happens this hour.
func pickKind(rng entropy.Source, luck float64) (EventKind, bool) {
	pos, neg := PositiveChance(luck), NegativeChance(luck)
	r := rng.Float64()
	switch {
	case r < pos:
		sub := rng.Float64()
		switch {
		case sub < 1.0/3:
			return EventCargoBoost, true
		case sub < 2.0/3:
			return EventQualityBoost, true
		default:
			return EventShortcut, true
		}
	case r < pos+neg:
		sub := rng.Float64()
		switch {
		case sub < 0.40:
			return EventRaid, true
		case sub < 0.75:
			return EventSeizure, true
		default:
			return EventSpoilage, true
		}
	}
	return "", false
}

// rollEvent runs one hourly event check against next. It returns the roll and
// the cash paid out to the player.
func (s *Store) rollEvent(next *State, hour int64, now, luck float64) EventRoll {
	roll := EventRoll{Checked: true, Hour: hour, Outcome: OutcomeNone}
	kind, ok := pickKind(s.rng, luck)
	if !ok {
		return roll
	}
	roll.Kind = kind

	var ev Event
	switch kind {
	case EventCargoBoost:
		ok = s.cargoBoost(next, &ev)
	case EventQualityBoost:
		ok = s.qualityBoost(next, &ev)
	case EventShortcut:
		ok = s.shortcut(next, now, &ev)
	case EventRaid:
		ok = s.raid(next, now, &ev)
	case EventSeizure:
		ok = s.seizure(next, &ev)
	case EventSpoilage:
		ok = s.spoilage(next, &ev)
	}
	if !ok {
		roll.Outcome = OutcomeSkipped
		s.logger.Debug("random event skipped, no target", "kind", kind, "hour", hour)
		return roll
	}

	ev.ID = s.newID()
	ev.At = now
	ev.Kind = kind
	ev.Positive = kind.Positive()
	next.Events = prepend(next.Events, ev, MaxEvents)
	next.TotalEvents++
	next.TotalEventProfit += ev.Profit
	next.TotalEventLoss += ev.Loss
	s.appendLog(next, now, "%s", ev.Message)

	s.logger.Info("random event", "kind", kind, "target", ev.TargetID, "profit", ev.Profit, "loss", ev.Loss)
	roll.Outcome = OutcomeFired
	roll.Event = &ev
	return roll
}

func (s *Store) value(sh Shipment) float64 {
	return economy.EstimateLotValue(sh.TotalGrams, economy.PricePerGram(s.cat.BasePrice(sh.Drug), sh.Quality))
}

func (s *Store) cargoBoost(next *State, ev *Event) bool {
	if len(next.Shipments) == 0 {
		return false
	}
	i := entropy.Intn(s.rng, len(next.Shipments))
	sh := &next.Shipments[i]
	extra := max(1, int(math.Floor(float64(sh.TotalGrams)*cargoBoostFactor)))
	before := s.value(*sh)
	sh.TotalGrams += extra
	ev.TargetID = sh.ID
	ev.Profit = s.value(*sh) - before
	ev.Message = fmt.Sprintf("Your supplier slipped an extra %dg of %s into a shipment", extra, sh.Drug)
	return true
}

func (s *Store) qualityBoost(next *State, ev *Event) bool {
	if len(next.Shipments) == 0 {
		return false
	}
	i := entropy.Intn(s.rng, len(next.Shipments))
	sh := &next.Shipments[i]
	before := s.value(*sh)
	sh.Quality = min(economy.MaxQuality, sh.Quality+qualityBoostPoints)
	ev.TargetID = sh.ID
	ev.Profit = max(0, s.value(*sh)-before)
	ev.Message = fmt.Sprintf("A purer batch of %s was swapped in (q%.0f)", sh.Drug, sh.Quality)
	return true
}

func (s *Store) shortcut(next *State, now float64, ev *Event) bool {
	var enroute []int
	for i, sh := range next.Shipments {
		if sh.Status == StatusEnroute {
			enroute = append(enroute, i)
		}
	}
	if len(enroute) == 0 {
		return false
	}
	i := enroute[entropy.Intn(s.rng, len(enroute))]
	sh := next.Shipments[i]
	ev.TargetID = sh.ID
	ev.Message = fmt.Sprintf("Your courier found a shortcut: %s shipment is %.0f minutes closer", sh.Drug, shortcutMinutes)

	if !advance(&sh, shortcutMinutes) {
		next.Shipments[i] = sh
		return true
	}
	if _, lotted := s.settle(next, &sh, now); lotted {
		next.Shipments = slices.Delete(next.Shipments, i, i+1)
	} else {
		next.Shipments[i] = sh
	}
	return true
}

func (s *Store) raid(next *State, now float64, ev *Event) bool {
	var active []int
	for i, b := range next.Businesses {
		if b.Owned && !b.Paused(now) {
			active = append(active, i)
		}
	}
	if len(active) == 0 {
		return false
	}
	i := active[entropy.Intn(s.rng, len(active))]
	b := &next.Businesses[i]
	b.PausedUntil = now + raidPauseMinutes
	ev.TargetID = b.ID
	ev.Loss = math.Floor(b.ProfitPerHour * economy.IncomeMultiplier(b.Level) * raidPauseMinutes / 60)
	ev.Message = fmt.Sprintf("Police raided %s; it is shut for %.0f hours", b.Name, raidPauseMinutes/60)
	return true
}

func (s *Store) seizure(next *State, ev *Event) bool {
	if len(next.Shipments) == 0 {
		return false
	}
	i := entropy.Intn(s.rng, len(next.Shipments))
	sh := next.Shipments[i]
	value := s.value(sh)
	refund := math.Floor(value * seizureRefund)
	next.Shipments = slices.Delete(next.Shipments, i, i+1)

	ev.TargetID = sh.ID
	ev.Profit = refund
	ev.CashDelta = refund
	ev.Loss = value - refund
	ev.Message = fmt.Sprintf("Customs seized %dg of %s; insurance paid back $%.0f", sh.TotalGrams, sh.Drug, refund)
	return true
}

func (s *Store) spoilage(next *State, ev *Event) bool {
	if len(next.Lots) == 0 {
		return false
	}
	i := entropy.Intn(s.rng, len(next.Lots))
	lot := &next.Lots[i]
	have, clamped := economy.NonNegative(lot.Grams)
	if clamped {
		s.logger.Warn("negative lot clamped", "lot", lot.ID, "grams", lot.Grams)
	}
	lost := min(have, max(1, int(math.Floor(float64(have)*spoilageFraction))))
	ppg := economy.PricePerGram(s.cat.BasePrice(lot.Drug), lot.Quality)

	ev.TargetID = lot.ID
	ev.Loss = economy.EstimateLotValue(lost, ppg)
	ev.Message = fmt.Sprintf("Damp got into the warehouse: %dg of %s ruined", lost, lot.Drug)

	lot.Grams = have - lost
	if lot.Grams <= 0 {
		next.Lots = slices.Delete(next.Lots, i, i+1)
	}
	return true
}
