package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func soloEquipment(state SoloState) *Equipment {
	s := state
	return &Equipment{ID: 5, Name: "Oscilloscope", Category: CategorySolo, State: &s}
}

func stockableEquipment(qty int) *Equipment {
	q := qty
	return &Equipment{ID: 3, Name: "Multimeter", Category: CategoryStockable, Quantity: &q}
}

func TestAdmissibleSolo(t *testing.T) {
	ok, err := soloEquipment(SoloAvailable).Admissible(1)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, state := range []SoloState{SoloInUse, SoloInRepair, SoloUnavailable} {
		ok, err := soloEquipment(state).Admissible(1)
		require.NoError(t, err)
		assert.False(t, ok, "state %s must not be admissible", state)
	}
}

func TestAdmissibleStockable(t *testing.T) {
	cases := []struct {
		name      string
		quantity  int
		requested int
		want      bool
	}{
		{"enough stock", 10, 2, true},
		{"exact stock", 2, 2, true},
		{"insufficient stock", 1, 2, false},
		{"zero stock", 0, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := stockableEquipment(tc.quantity).Admissible(tc.requested)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestAdmissibleRejectsBadInput(t *testing.T) {
	_, err := stockableEquipment(10).Admissible(0)
	assert.Error(t, err)

	_, err = stockableEquipment(10).Admissible(-1)
	assert.Error(t, err)

	// Category/field mismatch is a data error, not an admission decision.
	broken := &Equipment{ID: 9, Category: CategorySolo}
	_, err = broken.Admissible(1)
	assert.Error(t, err)

	unknown := &Equipment{ID: 10, Category: "consumable"}
	_, err = unknown.Admissible(1)
	assert.Error(t, err)
}

func TestIsValidSoloState(t *testing.T) {
	assert.True(t, IsValidSoloState(SoloAvailable))
	assert.True(t, IsValidSoloState(SoloInRepair))
	assert.False(t, IsValidSoloState("broken"))
}
