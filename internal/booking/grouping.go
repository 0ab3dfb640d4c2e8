package booking

import "campus-reserve-api/internal/models"

// GroupRows folds denormalized reservation-item rows into one object per
// reservation with a nested equipment_items array. Rows sharing a
// reservation id may arrive in any order and interleaved with other
// reservations; output reservations keep the order of first appearance
// and items keep row order within a reservation.
func GroupRows(rows []models.ReservationRow) []models.GroupedReservation {
	grouped := []models.GroupedReservation{}
	index := make(map[int64]int)

	for _, row := range rows {
		i, ok := index[row.ID]
		if !ok {
			i = len(grouped)
			index[row.ID] = i
			grouped = append(grouped, models.GroupedReservation{
				ID:             row.ID,
				UserID:         row.UserID,
				UserName:       row.UserName,
				DateStart:      row.DateStart,
				DateEnd:        row.DateEnd,
				Status:         row.Status,
				EquipmentItems: []models.ReservationItemView{},
			})
		}
		grouped[i].EquipmentItems = append(grouped[i].EquipmentItems, models.ReservationItemView{
			EquipmentID:   row.EquipmentID,
			EquipmentName: row.EquipmentName,
			Category:      row.Category,
			Quantity:      row.Quantity,
		})
	}
	return grouped
}
