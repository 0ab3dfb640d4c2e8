package internal

import (
	"net/http"
	"strconv"

	"campus-reserve-api/internal/auth"
	"campus-reserve-api/internal/models"

	"github.com/go-chi/chi/v5"
)

// GET /api/notifications returns the caller's own notifications, newest first.
func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	rows, err := s.DB.QueryContext(r.Context(), `
		SELECT id, user_id, message, status, sent_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY sent_at DESC, id DESC`, userID)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Status, &n.SentAt); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// PATCH /api/notifications/{id}/read marks a notification read. Only the
// recipient may do so.
func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid notification id", 400)
		return
	}
	userID := auth.UserIDFromContext(r.Context())

	res, err := s.DB.ExecContext(r.Context(), `
		UPDATE notifications SET status = $1
		WHERE id = $2 AND user_id = $3`, models.NotificationRead, id, userID)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeMessage(w, http.StatusOK, id, "notification marked as read")
}
