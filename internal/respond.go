package internal

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"campus-reserve-api/internal/booking"
)

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// writeMessage writes the {id, message} shape used by the reservation
// endpoints.
func writeMessage(w http.ResponseWriter, status int, id int64, message string) {
	body := map[string]any{"message": message}
	if id > 0 {
		body["id"] = id
	}
	writeJSON(w, status, body)
}

// sendListResponse writes a paginated list with its total count.
func sendListResponse(w http.ResponseWriter, items []interface{}, total int, params listParams) {
	writeJSON(w, http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"total":  total,
			"limit":  params.limit,
			"offset": params.offset,
		},
	})
}

// sendBookingError maps the booking error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is an internal failure; its detail is
// logged, not leaked.
func sendBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, booking.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrUnavailable):
		http.Error(w, "service temporarily unavailable, retry later", http.StatusServiceUnavailable)
	default:
		log.Printf("reservation operation failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
