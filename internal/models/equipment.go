package models

import (
	"fmt"
	"time"
)

// EquipmentCategory selects which availability field is authoritative.
// Fixed at creation, immutable afterward.
type EquipmentCategory string

const (
	CategorySolo      EquipmentCategory = "solo"
	CategoryStockable EquipmentCategory = "stockable"
)

// SoloState is the availability state of a solo (single-unit) equipment.
type SoloState string

const (
	SoloAvailable   SoloState = "available"
	SoloInUse       SoloState = "in_use"
	SoloInRepair    SoloState = "in_repair"
	SoloUnavailable SoloState = "unavailable"
)

// ValidSoloStates lists the accepted states for solo equipment.
var ValidSoloStates = []SoloState{SoloAvailable, SoloInUse, SoloInRepair, SoloUnavailable}

// IsValidSoloState checks if a state value is one of the known solo states.
func IsValidSoloState(s SoloState) bool {
	for _, v := range ValidSoloStates {
		if s == v {
			return true
		}
	}
	return false
}

// Equipment represents one equipment record. Exactly one of State or
// Quantity is set, selected by Category: solo equipment carries a state,
// stockable equipment carries a quantity.
type Equipment struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Category    EquipmentCategory `json:"category"`
	State       *SoloState        `json:"state,omitempty"`
	Quantity    *int              `json:"quantity,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Admissible reports whether a reservation for the requested quantity can
// be admitted against this equipment's current availability:
// solo equipment is admitted only when available, stockable equipment only
// when enough units remain.
func (e *Equipment) Admissible(requested int) (bool, error) {
	if requested < 1 {
		return false, fmt.Errorf("requested quantity must be >= 1, got %d", requested)
	}
	switch e.Category {
	case CategorySolo:
		if e.State == nil {
			return false, fmt.Errorf("solo equipment %d has no state", e.ID)
		}
		return *e.State == SoloAvailable, nil
	case CategoryStockable:
		if e.Quantity == nil {
			return false, fmt.Errorf("stockable equipment %d has no quantity", e.ID)
		}
		return *e.Quantity > 0 && *e.Quantity >= requested, nil
	default:
		return false, fmt.Errorf("unknown equipment category %q", e.Category)
	}
}

// CreateEquipmentRequest is the request body for creating equipment.
type CreateEquipmentRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Category    EquipmentCategory `json:"category"`
	State       *SoloState        `json:"state,omitempty"`
	Quantity    *int              `json:"quantity,omitempty"`
}

// UpdateEquipmentRequest is the request body for updating equipment.
// Category is absent on purpose: it cannot change after creation.
type UpdateEquipmentRequest struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	State       *SoloState `json:"state,omitempty"`
	Quantity    *int       `json:"quantity,omitempty"`
}
