package notify

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"campus-reserve-api/internal/bus"
	"campus-reserve-api/internal/models"
)

// Dispatcher writes in-app notification records for reservation lifecycle
// events. Every insert is fire-and-forget: failures are logged and
// swallowed, and fan-out to a role is a sequence of individual inserts
// where partial delivery is acceptable.
type Dispatcher struct {
	DB *sql.DB
}

// NewDispatcher creates a dispatcher on the shared database handle.
func NewDispatcher(db *sql.DB) *Dispatcher {
	return &Dispatcher{DB: db}
}

// Notify inserts one notification for one user. Never returns an error.
func (d *Dispatcher) Notify(ctx context.Context, userID int64, message string) {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO notifications (user_id, message, status)
		VALUES ($1, $2, $3)`,
		userID, message, models.NotificationSent)
	if err != nil {
		log.Printf("notify user %d failed: %v", userID, err)
	}
}

// NotifyRole fans a message out to every active user holding the role,
// one insert per recipient.
func (d *Dispatcher) NotifyRole(ctx context.Context, role, message string) {
	ids, err := d.usersWithRole(ctx, role)
	if err != nil {
		log.Printf("notify role %s failed: %v", role, err)
		return
	}
	for _, id := range ids {
		d.Notify(ctx, id, message)
	}
}

// HandleEvent is the bus subscription entry point.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev bus.Event) error {
	switch ev.Kind {
	case bus.ReservationCreated:
		d.Notify(ctx, ev.StudentID, fmt.Sprintf(
			"Your reservation #%d (%s) was submitted and is awaiting approval.",
			ev.ReservationID, ItemSummary(ev.Items)))
		d.NotifyRole(ctx, models.RoleManager, fmt.Sprintf(
			"New reservation #%d awaiting review: %s, %s.",
			ev.ReservationID, ItemSummary(ev.Items), DateRange(ev)))
	case bus.ReservationApproved:
		d.Notify(ctx, ev.StudentID, fmt.Sprintf(
			"Your reservation #%d was approved. Pick up: %s.",
			ev.ReservationID, DateRange(ev)))
		if ev.ManagerID > 0 {
			d.Notify(ctx, ev.ManagerID, fmt.Sprintf(
				"You approved reservation #%d (%s).", ev.ReservationID, ItemSummary(ev.Items)))
		}
		d.NotifyRole(ctx, models.RoleTechnician, fmt.Sprintf(
			"Reservation #%d approved, prepare: %s for %s.",
			ev.ReservationID, ItemSummary(ev.Items), DateRange(ev)))
	case bus.ReservationRejected:
		d.Notify(ctx, ev.StudentID, fmt.Sprintf(
			"Your reservation #%d was rejected.", ev.ReservationID))
		if ev.ManagerID > 0 {
			d.Notify(ctx, ev.ManagerID, fmt.Sprintf(
				"You rejected reservation #%d.", ev.ReservationID))
		}
	case bus.ReservationDeleted:
		// Deletion issues no notifications.
	}
	return nil
}

func (d *Dispatcher) usersWithRole(ctx context.Context, role string) ([]int64, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id FROM users WHERE $1 = ANY(roles) AND is_active = true`, role)
	if err != nil {
		return nil, fmt.Errorf("select users with role %s: %w", role, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
