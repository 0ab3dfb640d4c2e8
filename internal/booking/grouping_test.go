package booking

import (
	"testing"

	"campus-reserve-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(resID, equipID int64, name string, qty int) models.ReservationRow {
	return models.ReservationRow{
		ID:            resID,
		UserID:        7,
		UserName:      "Ana Morales",
		EquipmentID:   equipID,
		EquipmentName: name,
		Category:      models.CategoryStockable,
		Quantity:      qty,
		DateStart:     "2025-01-10",
		DateEnd:       "2025-01-15",
		Status:        models.StatusPending,
	}
}

func TestGroupRowsSingleReservation(t *testing.T) {
	rows := []models.ReservationRow{
		row(12, 3, "Multimeter", 2),
		row(12, 5, "Oscilloscope", 1),
		row(12, 9, "Soldering iron", 4),
	}

	grouped := GroupRows(rows)
	require.Len(t, grouped, 1)
	assert.Equal(t, int64(12), grouped[0].ID)
	assert.Equal(t, int64(7), grouped[0].UserID)
	assert.Len(t, grouped[0].EquipmentItems, 3)
}

func TestGroupRowsOrderInsensitive(t *testing.T) {
	forward := []models.ReservationRow{
		row(12, 3, "Multimeter", 2),
		row(30, 5, "Oscilloscope", 1),
		row(12, 9, "Soldering iron", 4),
	}
	shuffled := []models.ReservationRow{
		forward[2], forward[0], forward[1],
	}

	a := GroupRows(forward)
	b := GroupRows(shuffled)
	require.Len(t, a, 2)
	require.Len(t, b, 2)

	byID := func(gs []models.GroupedReservation) map[int64][]models.ReservationItemView {
		m := make(map[int64][]models.ReservationItemView)
		for _, g := range gs {
			m[g.ID] = g.EquipmentItems
		}
		return m
	}
	assert.ElementsMatch(t, byID(a)[12], byID(b)[12])
	assert.ElementsMatch(t, byID(a)[30], byID(b)[30])
}

func TestGroupRowsEmpty(t *testing.T) {
	grouped := GroupRows(nil)
	assert.NotNil(t, grouped)
	assert.Empty(t, grouped)
}
