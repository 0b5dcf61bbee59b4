package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/underworld/internal/territory"
)

func TestHireValidates(t *testing.T) {
	r := New()
	_, err := r.Hire("  ", territory.DealerStreet, 1)
	assert.Error(t, err)
	_, err = r.Hire("Vic", "courier", 1)
	assert.Error(t, err)
	_, err = r.Hire("Vic", territory.DealerStreet, MaxLevel+1)
	assert.Error(t, err)
	assert.Empty(t, r.List())
}

func TestHireTrainFire(t *testing.T) {
	r := New()
	d, err := r.Hire("Vic", territory.DealerStreet, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)

	got, ok := r.Get(d.ID)
	require.True(t, ok)
	assert.Equal(t, d, got)

	trained, err := r.Train(d.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, trained.Level)

	list := r.List()
	list[0].Level = 99
	got, _ = r.Get(d.ID)
	assert.Equal(t, 6, got.Level, "List returns a copy")

	require.NoError(t, r.Fire(d.ID))
	assert.ErrorIs(t, r.Fire(d.ID), ErrNotFound)
	_, err = r.Train(d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTrainStopsAtMaxLevel(t *testing.T) {
	r := New()
	d, err := r.Hire("Ace", territory.DealerBusiness, MaxLevel)
	require.NoError(t, err)
	_, err = r.Train(d.ID)
	assert.ErrorIs(t, err, ErrMaxLevel)
}

func TestRestore(t *testing.T) {
	r := New()
	r.Restore([]territory.Dealer{{ID: "d1", Name: "Vic", Level: 2, Type: territory.DealerStreet}})
	d, ok := r.Get("d1")
	require.True(t, ok)
	assert.Equal(t, 2, d.Level)
}
