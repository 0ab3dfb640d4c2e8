package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-reserve-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Engine runs the reservation lifecycle transactions. Every operation is a
// single database transaction: either the whole batch of changes commits
// or none of it does. The engine never triggers notifications or emails
// itself; callers publish events after a successful return.
type Engine struct {
	Pool *pgxpool.Pool
}

// NewEngine creates an engine on top of a shared connection pool.
func NewEngine(pool *pgxpool.Pool) *Engine {
	return &Engine{Pool: pool}
}

// BatchItem is one equipment request inside a batch reservation.
type BatchItem struct {
	EquipmentID int64
	Quantity    int
}

// CreateBatchInput is the validated input of CreateBatch.
type CreateBatchInput struct {
	UserID    int64
	DateStart time.Time
	DateEnd   time.Time
	Items     []BatchItem
}

// ItemSnapshot captures one reservation item together with the equipment
// identity it was checked against, for responses and post-commit events.
type ItemSnapshot struct {
	EquipmentID   int64
	EquipmentName string
	Category      models.EquipmentCategory
	Quantity      int
}

// Result describes the reservation touched by an operation.
type Result struct {
	ReservationID int64
	StudentID     int64
	Status        models.ReservationStatus
	DateStart     time.Time
	DateEnd       time.Time
	Items         []ItemSnapshot
}

// Validate checks the structural preconditions of a batch creation.
func (in *CreateBatchInput) Validate() error {
	if in.UserID <= 0 {
		return invalidf("id_utilisateur is required")
	}
	if in.DateStart.IsZero() || in.DateEnd.IsZero() {
		return invalidf("date_debut and date_fin are required")
	}
	if !in.DateStart.Before(in.DateEnd) {
		return invalidf("date_debut must be before date_fin")
	}
	if len(in.Items) == 0 {
		return invalidf("items must not be empty")
	}
	seen := make(map[int64]bool, len(in.Items))
	for _, it := range in.Items {
		if it.EquipmentID <= 0 {
			return invalidf("item equipment id is required")
		}
		if it.Quantity < 1 {
			return invalidf("item quantity for equipment %d must be >= 1", it.EquipmentID)
		}
		if seen[it.EquipmentID] {
			return invalidf("equipment %d listed more than once", it.EquipmentID)
		}
		seen[it.EquipmentID] = true
	}
	return nil
}

// CreateBatch validates and persists a batch reservation as one atomic
// unit. Availability is checked for every item but no stock is taken:
// equipment only mutates at approval time. If any item is missing or
// inadmissible the whole transaction rolls back and nothing persists.
func (e *Engine) CreateBatch(ctx context.Context, in CreateBatchInput) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx, err := e.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %v", ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	var reservationID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO reservations (user_id, status, date_start, date_end)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		in.UserID, models.StatusPending, in.DateStart, in.DateEnd,
	).Scan(&reservationID)
	if err != nil {
		return nil, fmt.Errorf("insert reservation: %w", err)
	}

	items := make([]ItemSnapshot, 0, len(in.Items))
	for _, it := range in.Items {
		eq, err := fetchEquipment(ctx, tx, it.EquipmentID, false)
		if err != nil {
			return nil, err
		}
		ok, err := eq.Admissible(it.Quantity)
		if err != nil {
			return nil, fmt.Errorf("admission check: %w", err)
		}
		if !ok {
			return nil, conflictf("equipment %q (id %d) is not available for quantity %d", eq.Name, eq.ID, it.Quantity)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO reservation_items (reservation_id, equipment_id, quantity)
			VALUES ($1, $2, $3)`,
			reservationID, it.EquipmentID, it.Quantity,
		); err != nil {
			return nil, fmt.Errorf("insert reservation item: %w", err)
		}

		items = append(items, ItemSnapshot{
			EquipmentID:   eq.ID,
			EquipmentName: eq.Name,
			Category:      eq.Category,
			Quantity:      it.Quantity,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &Result{
		ReservationID: reservationID,
		StudentID:     in.UserID,
		Status:        models.StatusPending,
		DateStart:     in.DateStart,
		DateEnd:       in.DateEnd,
		Items:         items,
	}, nil
}

// UpdateStatus transitions a pending reservation to approved or rejected.
// The transition is guarded: only a reservation still in pending moves, so
// a second approval cannot decrement stock twice. On approval every
// equipment row is locked, re-checked for availability and then mutated
// (solo goes in_use, stockable stock is decremented). Rejection touches no
// equipment.
func (e *Engine) UpdateStatus(ctx context.Context, reservationID int64, newStatus models.ReservationStatus, managerID int64) (*Result, error) {
	if reservationID <= 0 {
		return nil, invalidf("reservation id is required")
	}
	if !models.IsTerminalTransition(newStatus) {
		return nil, invalidf("statut must be approved or rejected, got %q", newStatus)
	}

	tx, err := e.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %v", ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	res := &Result{ReservationID: reservationID, Status: newStatus}
	err = tx.QueryRow(ctx, `
		UPDATE reservations
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING user_id, date_start, date_end`,
		reservationID, newStatus, models.StatusPending,
	).Scan(&res.StudentID, &res.DateStart, &res.DateEnd)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, e.explainMissedTransition(ctx, tx, reservationID)
	}
	if err != nil {
		return nil, fmt.Errorf("update reservation status: %w", err)
	}

	items, err := fetchItemsLocked(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, notFoundf("reservation %d has no items", reservationID)
	}
	res.Items = items

	if newStatus == models.StatusApproved {
		for _, it := range items {
			eq, err := fetchEquipment(ctx, tx, it.EquipmentID, true)
			if err != nil {
				return nil, err
			}
			ok, err := eq.Admissible(it.Quantity)
			if err != nil {
				return nil, fmt.Errorf("admission check: %w", err)
			}
			if !ok {
				return nil, conflictf("equipment %q (id %d) is no longer available for quantity %d", eq.Name, eq.ID, it.Quantity)
			}
			if err := takeStock(ctx, tx, eq, it.Quantity); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

// Delete removes a reservation and, when it had been approved, reverses
// the inventory effects for every item: solo equipment goes back to
// available and stockable quantities are restored. Items are removed by
// the reservation_items cascade.
func (e *Engine) Delete(ctx context.Context, reservationID int64) (*Result, error) {
	if reservationID <= 0 {
		return nil, invalidf("reservation id is required")
	}

	tx, err := e.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %v", ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	res := &Result{ReservationID: reservationID}
	err = tx.QueryRow(ctx, `
		SELECT user_id, status, date_start, date_end
		FROM reservations WHERE id = $1
		FOR UPDATE`,
		reservationID,
	).Scan(&res.StudentID, &res.Status, &res.DateStart, &res.DateEnd)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFoundf("reservation %d", reservationID)
	}
	if err != nil {
		return nil, fmt.Errorf("select reservation: %w", err)
	}

	items, err := fetchItemsLocked(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	res.Items = items

	if res.Status == models.StatusApproved {
		for _, it := range items {
			if err := returnStock(ctx, tx, it); err != nil {
				return nil, err
			}
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, reservationID); err != nil {
		return nil, fmt.Errorf("delete reservation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

// explainMissedTransition distinguishes an unknown reservation from one
// that already left pending, after the guarded update matched nothing.
func (e *Engine) explainMissedTransition(ctx context.Context, tx pgx.Tx, reservationID int64) error {
	var current models.ReservationStatus
	err := tx.QueryRow(ctx, `SELECT status FROM reservations WHERE id = $1`, reservationID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFoundf("reservation %d", reservationID)
	}
	if err != nil {
		return fmt.Errorf("select reservation status: %w", err)
	}
	return conflictf("reservation %d is already %s", reservationID, current)
}

// fetchEquipment reads one equipment row, optionally locking it for the
// rest of the transaction.
func fetchEquipment(ctx context.Context, tx pgx.Tx, id int64, lock bool) (*models.Equipment, error) {
	q := `SELECT id, name, category, state, quantity FROM equipment WHERE id = $1`
	if lock {
		q += ` FOR UPDATE`
	}
	var eq models.Equipment
	err := tx.QueryRow(ctx, q, id).Scan(&eq.ID, &eq.Name, &eq.Category, &eq.State, &eq.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFoundf("equipment %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("select equipment %d: %w", id, err)
	}
	return &eq, nil
}

// fetchItemsLocked reads all items of a reservation and locks their
// equipment rows so concurrent transitions serialize on them.
func fetchItemsLocked(ctx context.Context, tx pgx.Tx, reservationID int64) ([]ItemSnapshot, error) {
	rows, err := tx.Query(ctx, `
		SELECT ri.equipment_id, e.name, e.category, ri.quantity
		FROM reservation_items ri
		JOIN equipment e ON e.id = ri.equipment_id
		WHERE ri.reservation_id = $1
		ORDER BY ri.equipment_id
		FOR UPDATE OF e`,
		reservationID)
	if err != nil {
		return nil, fmt.Errorf("select reservation items: %w", err)
	}
	defer rows.Close()

	var items []ItemSnapshot
	for rows.Next() {
		var it ItemSnapshot
		if err := rows.Scan(&it.EquipmentID, &it.EquipmentName, &it.Category, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan reservation item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read reservation items: %w", err)
	}
	return items, nil
}

// takeStock applies the approval-time mutation for one item.
func takeStock(ctx context.Context, tx pgx.Tx, eq *models.Equipment, quantity int) error {
	switch eq.Category {
	case models.CategorySolo:
		_, err := tx.Exec(ctx, `UPDATE equipment SET state = $2, updated_at = now() WHERE id = $1`,
			eq.ID, models.SoloInUse)
		if err != nil {
			return fmt.Errorf("mark equipment %d in use: %w", eq.ID, err)
		}
	case models.CategoryStockable:
		_, err := tx.Exec(ctx, `UPDATE equipment SET quantity = quantity - $2, updated_at = now() WHERE id = $1`,
			eq.ID, quantity)
		if err != nil {
			return fmt.Errorf("decrement equipment %d stock: %w", eq.ID, err)
		}
	default:
		return fmt.Errorf("unknown equipment category %q for equipment %d", eq.Category, eq.ID)
	}
	return nil
}

// returnStock reverses the approval-time mutation for one item.
func returnStock(ctx context.Context, tx pgx.Tx, it ItemSnapshot) error {
	switch it.Category {
	case models.CategorySolo:
		_, err := tx.Exec(ctx, `UPDATE equipment SET state = $2, updated_at = now() WHERE id = $1`,
			it.EquipmentID, models.SoloAvailable)
		if err != nil {
			return fmt.Errorf("release equipment %d: %w", it.EquipmentID, err)
		}
	case models.CategoryStockable:
		_, err := tx.Exec(ctx, `UPDATE equipment SET quantity = quantity + $2, updated_at = now() WHERE id = $1`,
			it.EquipmentID, it.Quantity)
		if err != nil {
			return fmt.Errorf("restore equipment %d stock: %w", it.EquipmentID, err)
		}
	default:
		return fmt.Errorf("unknown equipment category %q for equipment %d", it.Category, it.EquipmentID)
	}
	return nil
}
