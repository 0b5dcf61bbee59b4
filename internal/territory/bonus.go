package territory

import (
	"github.com/talgya/underworld/internal/catalog"
)

// Tier steps control into the bonus scale: 0, 25, 50, 75 or 100.
func Tier(control float64) int {
	switch {
	case control >= 100:
		return 100
	case control >= 75:
		return 75
	case control >= 50:
		return 50
	case control >= 25:
		return 25
	}
	return 0
}

// ActiveBonus is a territory bonus scaled by the current control tier.
type ActiveBonus struct {
	TerritoryID string            `json:"territory_id"`
	Type        catalog.BonusType `json:"type"`
	Drug        catalog.Drug      `json:"drug,omitempty"`
	Tier        int               `json:"tier"`
	BaseValue   float64           `json:"base_value"`
	ScaledValue float64           `json:"scaled_value"`
}

// Bonuses is a consistent set of active bonuses taken from one snapshot.
type Bonuses []ActiveBonus

// ActiveBonuses lists every bonus of every territory with a non-zero tier.
func (s *State) ActiveBonuses() Bonuses {
	var out Bonuses
	for _, t := range s.Territories {
		tier := Tier(t.Control)
		if tier == 0 {
			continue
		}
		for _, b := range t.Bonuses {
			out = append(out, ActiveBonus{
				TerritoryID: t.ID,
				Type:        b.Type,
				Drug:        b.Drug,
				Tier:        tier,
				BaseValue:   b.Value,
				ScaledValue: b.Value * float64(tier) / 100,
			})
		}
	}
	return out
}

// ActiveBonuses reads the bonuses from the current snapshot.
func (s *Store) ActiveBonuses() Bonuses {
	return s.Snapshot().ActiveBonuses()
}

func (bs Bonuses) sum(typ catalog.BonusType, drug catalog.Drug) float64 {
	total := 0.0
	for _, b := range bs {
		if b.Type != typ {
			continue
		}
		if b.Drug != "" && b.Drug != drug {
			continue
		}
		total += b.ScaledValue
	}
	return total
}

// ImportSpeed is the transit multiplier for shipments (1 = no bonus).
func (bs Bonuses) ImportSpeed() float64 {
	return 1 + bs.sum(catalog.BonusImportSpeed, "")
}

// SalePrice is the fractional price premium for selling drug.
func (bs Bonuses) SalePrice(drug catalog.Drug) float64 {
	return bs.sum(catalog.BonusSalePrice, drug)
}

// Income is the fractional premium on business income.
func (bs Bonuses) Income() float64 {
	return bs.sum(catalog.BonusIncome, "")
}
