package economy

import (
	"hash/fnv"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/underworld/internal/catalog"
)

// Street demand swings within [demandFloor, demandFloor+demandSwing].
const (
	demandFloor   = 0.85
	demandSwing   = 0.30
	hoursPerCycle = 36.0 // Noise period stretch; larger is slower drift
)

// DemandField is a smooth, per-drug street demand multiplier over game time.
// It is deterministic for a given seed.
type DemandField struct {
	noise opensimplex.Noise
}

// NewDemandField creates a demand field from a seed.
func NewDemandField(seed int64) *DemandField {
	return &DemandField{noise: opensimplex.NewNormalized(seed)}
}

// Multiplier returns the demand multiplier for drug at the given game minute.
func (f *DemandField) Multiplier(drug catalog.Drug, gameMinutes float64) float64 {
	if f == nil {
		return 1
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(drug))
	lane := float64(h.Sum32()%1024) * 3.7

	t := gameMinutes / 60 / hoursPerCycle
	n := f.noise.Eval2(lane, t)
	return demandFloor + demandSwing*Clamp(n, 0, 1)
}
