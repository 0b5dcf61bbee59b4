package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/underworld/internal/catalog"
	"github.com/talgya/underworld/internal/entropy"
)

func TestRollQualityWithoutLuckStaysInRange(t *testing.T) {
	rng := entropy.NewSeeded(1)
	r := catalog.QualityRange{Min: 55, Max: 78}
	for i := 0; i < 500; i++ {
		q := RollQuality(r, 0, rng)
		assert.GreaterOrEqual(t, q, 55.0)
		assert.LessOrEqual(t, q, 78.0)
	}
}

func TestRollQualityLuckNeverBelowMinOrAbove100(t *testing.T) {
	rng := entropy.NewSeeded(2)
	r := catalog.QualityRange{Min: 80, Max: 98}
	for i := 0; i < 500; i++ {
		q := RollQuality(r, 1, rng)
		assert.GreaterOrEqual(t, q, 80.0)
		assert.LessOrEqual(t, q, 100.0)
	}
}

func TestRollQualityLuckSkewsUp(t *testing.T) {
	r := catalog.QualityRange{Min: 40, Max: 70}
	// base 55, bonus (70-55)*1*(0.5+0.5)=15, noise 0.
	q := RollQuality(r, 1, entropy.NewSequence(0.5, 0.5, 0.5))
	assert.InDelta(t, 70, q, 1e-9)
	q = RollQuality(r, 0, entropy.NewSequence(0.5, 0.5, 0.5))
	assert.InDelta(t, 55, q, 1e-9)
}

func TestRollGrams(t *testing.T) {
	rng := entropy.NewSeeded(3)
	for i := 0; i < 500; i++ {
		g := RollGrams(220, 520, 0, rng)
		assert.GreaterOrEqual(t, g, 220)
		assert.LessOrEqual(t, g, 520)
	}
	assert.Equal(t, 1, RollGrams(0, 0, 1, rng))
	// The top of the range is reachable without luck.
	assert.Equal(t, 520, RollGrams(220, 520, 0, entropy.NewSequence(0.9999)))
	assert.Equal(t, 220, RollGrams(220, 520, 0, entropy.NewSequence(0)))
	// 100 * (1 + 1*0.06) = 106
	assert.Equal(t, 106, RollGrams(100, 100, 1, entropy.NewSequence(0, 0.5)))
}

func TestPricePerGram(t *testing.T) {
	assert.InDelta(t, 30, PricePerGram(60, 0), 1e-9)
	assert.InDelta(t, 120, PricePerGram(60, 100), 1e-9)
	assert.InDelta(t, 75, PricePerGram(60, 50), 1e-9)
}

func TestEstimateLotValue(t *testing.T) {
	assert.Equal(t, 1234.0, EstimateLotValue(100, 12.349))
	assert.Equal(t, 0.0, EstimateLotValue(-5, 10))
}

func TestUpgradeCostIsGeometric(t *testing.T) {
	prev := 0.0
	for level := 1; level <= 6; level++ {
		c := UpgradeCost(1000, level)
		assert.Greater(t, c, prev)
		prev = c
	}
	assert.InDelta(t, 2250, UpgradeCost(1000, 3), 1e-9)
}

func TestDemandFieldBounded(t *testing.T) {
	f := NewDemandField(42)
	for m := 0.0; m < 10000; m += 137 {
		v := f.Multiplier(catalog.DrugCocaine, m)
		assert.GreaterOrEqual(t, v, demandFloor)
		assert.LessOrEqual(t, v, demandFloor+demandSwing)
	}
	var nilField *DemandField
	assert.Equal(t, 1.0, nilField.Multiplier(catalog.DrugMeth, 0))
}

func TestNonNegative(t *testing.T) {
	v, clamped := NonNegative(-3)
	assert.Equal(t, 0, v)
	assert.True(t, clamped)
	v, clamped = NonNegative(4)
	assert.Equal(t, 4, v)
	assert.False(t, clamped)
}
