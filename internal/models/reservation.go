package models

import "time"

// ReservationStatus is the lifecycle status of a reservation.
type ReservationStatus string

const (
	StatusPending  ReservationStatus = "pending"
	StatusApproved ReservationStatus = "approved"
	StatusRejected ReservationStatus = "rejected"
)

// IsTerminalTransition reports whether s is a status a manager may
// transition a pending reservation to.
func IsTerminalTransition(s ReservationStatus) bool {
	return s == StatusApproved || s == StatusRejected
}

// Reservation represents a reservation header row.
type Reservation struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"id_utilisateur"`
	Status    ReservationStatus `json:"statut"`
	DateStart time.Time         `json:"date_debut"`
	DateEnd   time.Time         `json:"date_fin"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ReservationRow is one denormalized reservation-item row as served by the
// v1 endpoints: reservation joined with one equipment item and the
// requesting user. Clients group rows sharing the same reservation id.
// The wire keys are the historical client contract and must not change.
type ReservationRow struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"id_utilisateur"`
	UserName      string            `json:"nom_utilisateur"`
	EquipmentID   int64             `json:"id_equipement"`
	EquipmentName string            `json:"nom_equipement"`
	Category      EquipmentCategory `json:"categorie"`
	Quantity      int               `json:"quantite"`
	DateStart     string            `json:"date_debut"`
	DateEnd       string            `json:"date_fin"`
	Status        ReservationStatus `json:"statut"`
}

// ReservationItemView is one equipment entry inside a grouped reservation.
type ReservationItemView struct {
	EquipmentID   int64             `json:"id_equipement"`
	EquipmentName string            `json:"nom_equipement"`
	Category      EquipmentCategory `json:"categorie"`
	Quantity      int               `json:"quantite"`
}

// GroupedReservation is the v2 representation: one object per reservation
// with its equipment items nested, grouping done server-side.
type GroupedReservation struct {
	ID             int64                 `json:"id"`
	UserID         int64                 `json:"id_utilisateur"`
	UserName       string                `json:"nom_utilisateur"`
	DateStart      string                `json:"date_debut"`
	DateEnd        string                `json:"date_fin"`
	Status         ReservationStatus     `json:"statut"`
	EquipmentItems []ReservationItemView `json:"equipment_items"`
}

// CreateReservationRequest is the v1 single-item creation body. The engine
// treats it as a batch of one. id_utilisateur is accepted for contract
// compatibility but the authenticated user id from the token is
// authoritative.
type CreateReservationRequest struct {
	UserID      int64  `json:"id_utilisateur"`
	EquipmentID int64  `json:"id_equipement"`
	DateStart   string `json:"date_debut"`
	DateEnd     string `json:"date_fin"`
	Quantity    int    `json:"quantite"`
	Status      string `json:"statut,omitempty"`
}

// BatchItemRequest is one equipment entry of a batch creation body.
type BatchItemRequest struct {
	EquipmentID int64 `json:"id_equipement"`
	Quantity    int   `json:"quantite"`
}

// CreateBatchReservationRequest is the batch creation body.
type CreateBatchReservationRequest struct {
	UserID    int64              `json:"id_utilisateur"`
	DateStart string             `json:"date_debut"`
	DateEnd   string             `json:"date_fin"`
	Items     []BatchItemRequest `json:"items"`
}

// UpdateReservationStatusRequest is the PATCH body. responsable_id is
// accepted for contract compatibility; the acting manager is taken from
// the token.
type UpdateReservationStatusRequest struct {
	Status    string `json:"statut"`
	ManagerID int64  `json:"responsable_id,omitempty"`
}

// DateOnly is the wire format for reservation dates.
const DateOnly = "2006-01-02"
