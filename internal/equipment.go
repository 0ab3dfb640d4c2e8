package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"campus-reserve-api/internal/models"

	"github.com/go-chi/chi/v5"
)

// LIST with basic filters & pagination
func (s *Server) listEquipment(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	clauses := []string{}
	args := []interface{}{}
	arg := 1

	// optional text search on name/description
	if params.q != "" {
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", arg, arg))
		args = append(args, "%"+params.q+"%")
		arg++
	}

	// optional category filter
	if cat := strings.TrimSpace(r.URL.Query().Get("category")); cat != "" {
		clauses = append(clauses, fmt.Sprintf("category = $%d", arg))
		args = append(args, cat)
		arg++
	}

	whereClause := ""
	if len(clauses) > 0 {
		whereClause = " WHERE " + strings.Join(clauses, " AND ")
	}

	// Build the main query with COUNT(*) OVER() to get total count
	sqlStr := fmt.Sprintf(`
		SELECT id, name, description, category, state, quantity, created_at, updated_at,
		       COUNT(*) OVER() as total_count
		FROM equipment%s`, whereClause)

	allowedSort := map[string]string{
		"id":         "id",
		"name":       "name",
		"category":   "category",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	sqlStr += buildOrderBy(params.sort, allowedSort)
	sqlStr += fmt.Sprintf(" LIMIT %d OFFSET %d", params.limit, params.offset)

	rows, err := s.DB.QueryContext(r.Context(), sqlStr, args...)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	items := []interface{}{}
	var totalCount int
	for rows.Next() {
		var eq models.Equipment
		var description sql.NullString
		if err := rows.Scan(
			&eq.ID, &eq.Name, &description, &eq.Category, &eq.State, &eq.Quantity,
			&eq.CreatedAt, &eq.UpdatedAt, &totalCount,
		); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if description.Valid {
			eq.Description = description.String
		}
		items = append(items, eq)
	}

	sendListResponse(w, items, totalCount, params)
}

func (s *Server) getEquipment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var eq models.Equipment
	var description sql.NullString
	err := s.DB.QueryRowContext(r.Context(), `
		SELECT id, name, description, category, state, quantity, created_at, updated_at
		FROM equipment WHERE id = $1`, id).Scan(
		&eq.ID, &eq.Name, &description, &eq.Category, &eq.State, &eq.Quantity,
		&eq.CreatedAt, &eq.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if description.Valid {
		eq.Description = description.String
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(eq)
}

func (s *Server) createEquipment(w http.ResponseWriter, r *http.Request) {
	var in models.CreateEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if in.Name == "" {
		http.Error(w, "name is required", 400)
		return
	}

	// The category decides which availability field must be present; the
	// pair is locked in by a database check constraint as well.
	switch in.Category {
	case models.CategorySolo:
		if in.Quantity != nil {
			http.Error(w, "solo equipment must not carry a quantity", 400)
			return
		}
		if in.State == nil {
			st := models.SoloAvailable
			in.State = &st
		}
		if !models.IsValidSoloState(*in.State) {
			http.Error(w, fmt.Sprintf("invalid state %q", *in.State), 400)
			return
		}
	case models.CategoryStockable:
		if in.State != nil {
			http.Error(w, "stockable equipment must not carry a state", 400)
			return
		}
		if in.Quantity == nil || *in.Quantity < 0 {
			http.Error(w, "stockable equipment requires a quantity >= 0", 400)
			return
		}
	default:
		http.Error(w, "category must be solo or stockable", 400)
		return
	}

	var out models.Equipment
	var description sql.NullString
	err := s.DB.QueryRowContext(r.Context(), `
		INSERT INTO equipment (name, description, category, state, quantity)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, name, description, category, state, quantity, created_at, updated_at
	`, in.Name, nullIfEmpty(in.Description), in.Category, in.State, in.Quantity).
		Scan(&out.ID, &out.Name, &description, &out.Category, &out.State, &out.Quantity, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if description.Valid {
		out.Description = description.String
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(out)
}

func (s *Server) updateEquipment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in models.UpdateEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}

	// The category never changes, so state and quantity updates are only
	// accepted against the matching category.
	var category models.EquipmentCategory
	err := s.DB.QueryRowContext(r.Context(), `SELECT category FROM equipment WHERE id = $1`, id).Scan(&category)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if in.State != nil && category != models.CategorySolo {
		http.Error(w, "state only applies to solo equipment", 400)
		return
	}
	if in.State != nil && !models.IsValidSoloState(*in.State) {
		http.Error(w, fmt.Sprintf("invalid state %q", *in.State), 400)
		return
	}
	if in.Quantity != nil && category != models.CategoryStockable {
		http.Error(w, "quantity only applies to stockable equipment", 400)
		return
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		http.Error(w, "quantity must be >= 0", 400)
		return
	}

	type set struct {
		sql string
		val interface{}
	}
	sets := make([]set, 0, 4)
	if in.Name != nil {
		sets = append(sets, set{"name = $%d", *in.Name})
	}
	if in.Description != nil {
		sets = append(sets, set{"description = $%d", *in.Description})
	}
	if in.State != nil {
		sets = append(sets, set{"state = $%d", *in.State})
	}
	if in.Quantity != nil {
		sets = append(sets, set{"quantity = $%d", *in.Quantity})
	}
	if len(sets) == 0 {
		http.Error(w, "no fields to update", 400)
		return
	}

	args := make([]interface{}, 0, len(sets)+1)
	sqlStr := "UPDATE equipment SET updated_at = now(), "
	for i, sset := range sets {
		if i > 0 {
			sqlStr += ", "
		}
		sqlStr += fmt.Sprintf(sset.sql, i+1)
		args = append(args, sset.val)
	}
	sqlStr += fmt.Sprintf(" WHERE id = $%d RETURNING id, name, description, category, state, quantity, created_at, updated_at", len(args)+1)
	args = append(args, id)

	var out models.Equipment
	var description sql.NullString
	if err := s.DB.QueryRowContext(r.Context(), sqlStr, args...).Scan(
		&out.ID, &out.Name, &description, &out.Category, &out.State, &out.Quantity,
		&out.CreatedAt, &out.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	if description.Valid {
		out.Description = description.String
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) deleteEquipment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := s.DB.ExecContext(r.Context(), `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			http.Error(w, "equipment is referenced by reservations", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
