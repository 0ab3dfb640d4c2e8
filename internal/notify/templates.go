package notify

import (
	"fmt"
	"strings"

	"campus-reserve-api/internal/bus"
	"campus-reserve-api/internal/models"
)

// EmailContent is a rendered email body pair plus subject.
type EmailContent struct {
	Subject string
	Text    string
	HTML    string
}

// ItemSummary renders an equipment+quantity list as "Multimeter x2,
// Oscilloscope x1".
func ItemSummary(items []bus.EventItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", it.EquipmentName, it.Quantity))
	}
	return strings.Join(parts, ", ")
}

// DateRange renders the reservation window as "2025-01-10 to 2025-01-15".
func DateRange(ev bus.Event) string {
	return ev.DateStart.Format(models.DateOnly) + " to " + ev.DateEnd.Format(models.DateOnly)
}

func itemTableHTML(items []bus.EventItem) string {
	var b strings.Builder
	b.WriteString(`<table border="1" cellpadding="6" cellspacing="0"><tr><th>Equipment</th><th>Quantity</th></tr>`)
	for _, it := range items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td></tr>", it.EquipmentName, it.Quantity)
	}
	b.WriteString("</table>")
	return b.String()
}

// ConfirmationEmail is sent to the student right after a reservation was
// created.
func ConfirmationEmail(recipientName string, ev bus.Event) EmailContent {
	subject := fmt.Sprintf("Reservation #%d received", ev.ReservationID)
	text := fmt.Sprintf(
		"Hello %s,\n\nWe received your reservation #%d for %s (%s).\n"+
			"It is pending review; you will be notified once a manager decides.\n",
		recipientName, ev.ReservationID, ItemSummary(ev.Items), DateRange(ev))
	html := fmt.Sprintf(
		"<p>Hello %s,</p><p>We received your reservation <strong>#%d</strong> for the period %s.</p>%s"+
			"<p>It is pending review; you will be notified once a manager decides.</p>",
		recipientName, ev.ReservationID, DateRange(ev), itemTableHTML(ev.Items))
	return EmailContent{Subject: subject, Text: text, HTML: html}
}

// StatusEmail is sent to the student and the acting manager after a
// status decision; content branches on approved versus rejected.
func StatusEmail(recipientName string, ev bus.Event) EmailContent {
	switch ev.Status {
	case models.StatusApproved:
		subject := fmt.Sprintf("Reservation #%d approved", ev.ReservationID)
		cta := "Please pick up the equipment at the technical desk on the start date."
		text := fmt.Sprintf(
			"Hello %s,\n\nReservation #%d (%s) was approved for %s.\n%s\n",
			recipientName, ev.ReservationID, ItemSummary(ev.Items), DateRange(ev), cta)
		html := fmt.Sprintf(
			"<p>Hello %s,</p><p>Reservation <strong>#%d</strong> was <strong>approved</strong> for %s.</p>%s<p>%s</p>",
			recipientName, ev.ReservationID, DateRange(ev), itemTableHTML(ev.Items), cta)
		return EmailContent{Subject: subject, Text: text, HTML: html}
	default:
		subject := fmt.Sprintf("Reservation #%d rejected", ev.ReservationID)
		cta := "You can submit a new request with different dates or equipment."
		text := fmt.Sprintf(
			"Hello %s,\n\nReservation #%d (%s) for %s was rejected.\n%s\n",
			recipientName, ev.ReservationID, ItemSummary(ev.Items), DateRange(ev), cta)
		html := fmt.Sprintf(
			"<p>Hello %s,</p><p>Reservation <strong>#%d</strong> for %s was <strong>rejected</strong>.</p>%s<p>%s</p>",
			recipientName, ev.ReservationID, DateRange(ev), itemTableHTML(ev.Items), cta)
		return EmailContent{Subject: subject, Text: text, HTML: html}
	}
}
