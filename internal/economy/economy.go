// Package economy provides the pure pricing, quality and quantity rolls shared
// by the business and territory engines.
package economy

import (
	"math"

	"github.com/talgya/underworld/internal/catalog"
	"github.com/talgya/underworld/internal/entropy"
)

// Quality bounds.
const (
	MaxQuality = 100.0

	gramLuckSpread   = 0.12 // Max fractional luck bonus on rolled grams
	qualityLuckNoise = 1.5  // Half-width of luck-scaled quality noise
)

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NonNegative floors v at zero and reports whether it had to.
func NonNegative(v int) (int, bool) {
	if v < 0 {
		return 0, true
	}
	return v, false
}

// RollQuality samples a product quality in the given range. Luck in [0,1]
// skews the result toward the top of the range and may push it past the
// nominal max, never below the nominal min.
func RollQuality(r catalog.QualityRange, luck float64, rng entropy.Source) float64 {
	luck = Clamp(luck, 0, 1)
	base := entropy.Between(rng, r.Min, r.Max)
	bonus := (r.Max - base) * luck * (0.5 + rng.Float64())
	noise := (rng.Float64()*2 - 1) * qualityLuckNoise * luck
	return Clamp(base+bonus+noise, r.Min, MaxQuality)
}

// RollGrams samples a shipment size in [min, max], scaled up by luck.
// The result is floored and at least 1.
func RollGrams(minGrams, maxGrams int, luck float64, rng entropy.Source) int {
	luck = Clamp(luck, 0, 1)
	base := min(math.Floor(entropy.Between(rng, float64(minGrams), float64(maxGrams)+1)), float64(maxGrams))
	scaled := base * (1 + luck*entropy.Between(rng, 0, gramLuckSpread))
	return max(1, int(math.Floor(scaled)))
}

// PricePerGram applies the linear quality premium: 0.5x base at quality 0,
// 2.0x base at quality 100.
func PricePerGram(basePrice, quality float64) float64 {
	q := Clamp(quality, 0, MaxQuality)
	return basePrice * (0.5 + q/100*1.5)
}

// EstimateLotValue is the floored street value of grams at pricePerGram.
func EstimateLotValue(grams int, pricePerGram float64) float64 {
	v := math.Floor(float64(grams) * pricePerGram)
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// UpgradeCost is the geometric cost of raising a business from level.
func UpgradeCost(baseCost float64, level int) float64 {
	if level < 1 {
		level = 1
	}
	return baseCost * math.Pow(1.5, float64(level-1))
}

// IncomeMultiplier scales a business's hourly profit by its level.
func IncomeMultiplier(level int) float64 {
	if level < 1 {
		level = 1
	}
	return 1 + 0.25*float64(level-1)
}
