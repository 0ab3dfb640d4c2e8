package notify

import (
	"testing"
	"time"

	"campus-reserve-api/internal/bus"
	"campus-reserve-api/internal/models"

	"github.com/stretchr/testify/assert"
)

func sampleEvent(kind bus.Kind, status models.ReservationStatus) bus.Event {
	ev := bus.NewEvent(kind)
	ev.ReservationID = 12
	ev.StudentID = 7
	ev.Status = status
	ev.DateStart = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	ev.DateEnd = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	ev.Items = []bus.EventItem{
		{EquipmentID: 3, EquipmentName: "Multimeter", Category: models.CategoryStockable, Quantity: 2},
		{EquipmentID: 5, EquipmentName: "Oscilloscope", Category: models.CategorySolo, Quantity: 1},
	}
	return ev
}

func TestItemSummary(t *testing.T) {
	ev := sampleEvent(bus.ReservationCreated, models.StatusPending)
	assert.Equal(t, "Multimeter x2, Oscilloscope x1", ItemSummary(ev.Items))
	assert.Equal(t, "", ItemSummary(nil))
}

func TestDateRange(t *testing.T) {
	ev := sampleEvent(bus.ReservationCreated, models.StatusPending)
	assert.Equal(t, "2025-01-10 to 2025-01-15", DateRange(ev))
}

func TestConfirmationEmail(t *testing.T) {
	ev := sampleEvent(bus.ReservationCreated, models.StatusPending)
	content := ConfirmationEmail("Ana Morales", ev)

	assert.Contains(t, content.Subject, "#12")
	assert.Contains(t, content.Text, "Ana Morales")
	assert.Contains(t, content.Text, "Multimeter x2")
	assert.Contains(t, content.Text, "2025-01-10 to 2025-01-15")
	assert.Contains(t, content.HTML, "<table")
	assert.Contains(t, content.HTML, "<td>Oscilloscope</td>")
	assert.Contains(t, content.Text, "pending review")
}

func TestStatusEmailApproved(t *testing.T) {
	ev := sampleEvent(bus.ReservationApproved, models.StatusApproved)
	content := StatusEmail("Ana Morales", ev)

	assert.Contains(t, content.Subject, "approved")
	assert.Contains(t, content.Text, "pick up the equipment")
	assert.Contains(t, content.HTML, "approved")
	assert.Contains(t, content.HTML, "<td>Multimeter</td>")
}

func TestStatusEmailRejected(t *testing.T) {
	ev := sampleEvent(bus.ReservationRejected, models.StatusRejected)
	content := StatusEmail("Ana Morales", ev)

	assert.Contains(t, content.Subject, "rejected")
	assert.Contains(t, content.Text, "submit a new request")
	assert.NotContains(t, content.Text, "pick up")
}
