package internal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"campus-reserve-api/internal/auth"
	"campus-reserve-api/internal/booking"
	"campus-reserve-api/internal/bus"
	"campus-reserve-api/internal/models"

	"github.com/go-chi/chi/v5"
)

// reservationRowsQuery is the denormalized join served by the v1
// endpoints: one row per reservation item, joined with equipment and the
// requesting user. Clients group rows sharing a reservation id; the v2
// endpoints do the grouping server-side over the same rows.
const reservationRowsQuery = `
	SELECT r.id, r.user_id,
	       COALESCE(NULLIF(TRIM(concat_ws(' ', u.first_name, u.last_name)), ''), u.email) AS user_name,
	       e.id, e.name, e.category, ri.quantity,
	       to_char(r.date_start, 'YYYY-MM-DD'), to_char(r.date_end, 'YYYY-MM-DD'),
	       r.status
	FROM reservations r
	JOIN reservation_items ri ON ri.reservation_id = r.id
	JOIN equipment e ON e.id = ri.equipment_id
	JOIN users u ON u.id = r.user_id`

func (s *Server) queryReservationRows(r *http.Request, where string, args ...interface{}) ([]models.ReservationRow, error) {
	q := reservationRowsQuery
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY r.id DESC, e.id ASC"
	if limit := strings.TrimSpace(r.URL.Query().Get("limit")); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			q += fmt.Sprintf(" LIMIT %d", n)
		}
	}

	rows, err := s.DB.QueryContext(r.Context(), q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ReservationRow{}
	for rows.Next() {
		var row models.ReservationRow
		if err := rows.Scan(
			&row.ID, &row.UserID, &row.UserName,
			&row.EquipmentID, &row.EquipmentName, &row.Category, &row.Quantity,
			&row.DateStart, &row.DateEnd, &row.Status,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GET /api/reservations?userId=&status=&limit=
func (s *Server) listReservations(w http.ResponseWriter, r *http.Request) {
	clauses := []string{}
	args := []interface{}{}
	arg := 1

	if v := strings.TrimSpace(r.URL.Query().Get("userId")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "userId must be an integer", 400)
			return
		}
		clauses = append(clauses, fmt.Sprintf("r.user_id = $%d", arg))
		args = append(args, id)
		arg++
	}
	if v := strings.TrimSpace(r.URL.Query().Get("status")); v != "" {
		clauses = append(clauses, fmt.Sprintf("r.status = $%d", arg))
		args = append(args, v)
		arg++
	}

	rows, err := s.queryReservationRows(r, strings.Join(clauses, " AND "), args...)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /api/reservations/pending
func (s *Server) listPendingReservations(w http.ResponseWriter, r *http.Request) {
	rows, err := s.queryReservationRows(r, "r.status = $1", models.StatusPending)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /api/reservations/{id}
func (s *Server) getReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid reservation id", 400)
		return
	}
	rows, err := s.queryReservationRows(r, "r.id = $1", id)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if len(rows) == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /api/v2/reservations and /api/v2/reservations/{id} serve the
// grouped representation; same filters as v1.
func (s *Server) listGroupedReservations(w http.ResponseWriter, r *http.Request) {
	clauses := []string{}
	args := []interface{}{}
	arg := 1

	if v := strings.TrimSpace(r.URL.Query().Get("userId")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "userId must be an integer", 400)
			return
		}
		clauses = append(clauses, fmt.Sprintf("r.user_id = $%d", arg))
		args = append(args, id)
		arg++
	}
	if v := strings.TrimSpace(r.URL.Query().Get("status")); v != "" {
		clauses = append(clauses, fmt.Sprintf("r.status = $%d", arg))
		args = append(args, v)
		arg++
	}

	rows, err := s.queryReservationRows(r, strings.Join(clauses, " AND "), args...)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, booking.GroupRows(rows))
}

func (s *Server) getGroupedReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid reservation id", 400)
		return
	}
	rows, err := s.queryReservationRows(r, "r.id = $1", id)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	grouped := booking.GroupRows(rows)
	if len(grouped) == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, grouped[0])
}

// POST /api/reservations accepts the historical single-item body and handles
// it as a batch of one.
func (s *Server) createReservation(w http.ResponseWriter, r *http.Request) {
	var in models.CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	s.runCreateBatch(w, r, in.DateStart, in.DateEnd, []models.BatchItemRequest{
		{EquipmentID: in.EquipmentID, Quantity: in.Quantity},
	})
}

// POST /api/reservations/batch
func (s *Server) createBatchReservation(w http.ResponseWriter, r *http.Request) {
	var in models.CreateBatchReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	s.runCreateBatch(w, r, in.DateStart, in.DateEnd, in.Items)
}

func (s *Server) runCreateBatch(w http.ResponseWriter, r *http.Request, dateStart, dateEnd string, items []models.BatchItemRequest) {
	// The authenticated user is the owner; the id_utilisateur body field
	// is part of the old contract and deliberately ignored.
	userID := auth.UserIDFromContext(r.Context())

	start, err := parseDate(dateStart)
	if err != nil {
		s.Metrics.ObserveReservation("create", "invalid")
		http.Error(w, "date_debut must be YYYY-MM-DD", 400)
		return
	}
	end, err := parseDate(dateEnd)
	if err != nil {
		s.Metrics.ObserveReservation("create", "invalid")
		http.Error(w, "date_fin must be YYYY-MM-DD", 400)
		return
	}

	input := booking.CreateBatchInput{
		UserID:    userID,
		DateStart: start,
		DateEnd:   end,
	}
	for _, it := range items {
		input.Items = append(input.Items, booking.BatchItem{
			EquipmentID: it.EquipmentID,
			Quantity:    it.Quantity,
		})
	}

	res, err := s.Engine.CreateBatch(r.Context(), input)
	if err != nil {
		s.Metrics.ObserveReservation("create", outcomeLabel(err))
		sendBookingError(w, err)
		return
	}

	s.Metrics.ObserveReservation("create", "ok")
	s.Bus.Publish(reservationEvent(bus.ReservationCreated, res, 0))
	writeMessage(w, http.StatusCreated, res.ReservationID, "reservation created, pending approval")
}

// PATCH /api/reservations/{id}
func (s *Server) updateReservationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid reservation id", 400)
		return
	}

	var in models.UpdateReservationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}

	managerID := auth.UserIDFromContext(r.Context())
	newStatus := models.ReservationStatus(in.Status)

	res, err := s.Engine.UpdateStatus(r.Context(), id, newStatus, managerID)
	if err != nil {
		s.Metrics.ObserveReservation("update_status", outcomeLabel(err))
		sendBookingError(w, err)
		return
	}

	s.Metrics.ObserveReservation("update_status", "ok")
	kind := bus.ReservationApproved
	if res.Status == models.StatusRejected {
		kind = bus.ReservationRejected
	}
	s.Bus.Publish(reservationEvent(kind, res, managerID))
	writeMessage(w, http.StatusOK, res.ReservationID, fmt.Sprintf("reservation %s", res.Status))
}

// DELETE /api/reservations/{id}
func (s *Server) deleteReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid reservation id", 400)
		return
	}

	// Students may only remove their own reservations; managers and
	// technicians may remove any.
	claims := auth.ClaimsFromContext(r.Context())
	if claims != nil && !claims.HasRole(models.RoleManager, models.RoleTechnician) {
		var owner int64
		err := s.DB.QueryRowContext(r.Context(), `SELECT user_id FROM reservations WHERE id = $1`, id).Scan(&owner)
		if err == sql.ErrNoRows {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if owner != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	res, err := s.Engine.Delete(r.Context(), id)
	if err != nil {
		s.Metrics.ObserveReservation("delete", outcomeLabel(err))
		sendBookingError(w, err)
		return
	}

	s.Metrics.ObserveReservation("delete", "ok")
	// Deletion emits an event but no notification or email handler
	// reacts to it.
	s.Bus.Publish(reservationEvent(bus.ReservationDeleted, res, auth.UserIDFromContext(r.Context())))
	writeMessage(w, http.StatusOK, 0, "reservation deleted")
}

func reservationEvent(kind bus.Kind, res *booking.Result, actorID int64) bus.Event {
	ev := bus.NewEvent(kind)
	ev.ReservationID = res.ReservationID
	ev.StudentID = res.StudentID
	ev.ManagerID = actorID
	ev.Status = res.Status
	ev.DateStart = res.DateStart
	ev.DateEnd = res.DateEnd
	for _, it := range res.Items {
		ev.Items = append(ev.Items, bus.EventItem{
			EquipmentID:   it.EquipmentID,
			EquipmentName: it.EquipmentName,
			Category:      it.Category,
			Quantity:      it.Quantity,
		})
	}
	return ev
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(models.DateOnly, strings.TrimSpace(s))
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, booking.ErrInvalidArgument):
		return "invalid"
	case errors.Is(err, booking.ErrNotFound):
		return "not_found"
	case errors.Is(err, booking.ErrConflict):
		return "conflict"
	case errors.Is(err, booking.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
