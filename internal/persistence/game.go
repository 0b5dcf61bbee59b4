package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/talgya/underworld/internal/engine"
)

// Capture builds a snapshot of the running game.
func Capture(sim *engine.Simulation, at time.Time) Snapshot {
	cp := sim.Checkpoint()
	return Snapshot{
		Version:     SnapshotVersion,
		SavedAt:     at,
		GameMinutes: cp.GameMinutes,
		Account:     cp.Account,
		Dealers:     cp.Dealers,
		Business:    cp.Business,
		Territory:   cp.Territory,
	}
}

// SaveGame performs a full save of the game.
func (db *DB) SaveGame(sim *engine.Simulation) error {
	snap := Capture(sim, time.Now())
	if err := db.SaveSnapshot(snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := db.SaveMeta("game_minutes", strconv.FormatFloat(snap.GameMinutes, 'f', -1, 64)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	slog.Info("game saved", "time", engine.SimTime(snap.GameMinutes), "cash", snap.Account.Cash)
	return nil
}

// LoadGame restores the newest save into sim. It reports false when there is
// nothing to load.
func (db *DB) LoadGame(sim *engine.Simulation) (bool, error) {
	raw, err := db.LatestSnapshot()
	if errors.Is(err, ErrNoSnapshot) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	snap, err := Decode(raw, sim.Business.Catalog())
	if err != nil {
		return false, err
	}
	sim.Resume(engine.Checkpoint{
		GameMinutes: snap.GameMinutes,
		Account:     snap.Account,
		Dealers:     snap.Dealers,
		Business:    snap.Business,
		Territory:   snap.Territory,
	})
	slog.Info("game loaded",
		"saved_at", snap.SavedAt,
		"time", engine.SimTime(snap.GameMinutes),
		"cash", snap.Account.Cash,
		"dealers", len(snap.Dealers),
	)
	return true, nil
}

// Records turns the notable parts of a tick into event rows.
func Records(rep engine.Report) []EventRecord {
	var out []EventRecord
	for _, ev := range rep.Business.Events {
		out = append(out, EventRecord{
			GameMinutes: ev.At,
			Category:    "business",
			Kind:        string(ev.Kind),
			Description: ev.Message,
			Amount:      ev.Profit - ev.Loss,
		})
	}
	for _, ev := range rep.Territory.ContestEvents {
		out = append(out, EventRecord{
			GameMinutes: rep.GameMinutes,
			Category:    "territory",
			Kind:        "contest_" + string(ev.Result),
			Description: fmt.Sprintf("%s contested: %.0f vs %.0f, control %.0f -> %.0f", ev.Name, ev.PlayerPower, ev.RivalPower, ev.ControlBefore, ev.ControlAfter),
			Amount:      ev.ControlChange(),
		})
	}
	return out
}

// ObserveTick stores the tick's notable events. Failures are logged; a
// missed event row never stops the game.
func (db *DB) ObserveTick(rep engine.Report) {
	if err := db.SaveEvents(Records(rep)); err != nil {
		slog.Error("failed to save events", "error", err)
	}
}
