package booking

import (
	"context"
	"testing"
	"time"

	"campus-reserve-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() CreateBatchInput {
	return CreateBatchInput{
		UserID:    7,
		DateStart: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		DateEnd:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Items: []BatchItem{
			{EquipmentID: 3, Quantity: 2},
			{EquipmentID: 5, Quantity: 1},
		},
	}
}

func TestCreateBatchInputValidate(t *testing.T) {
	in := validInput()
	require.NoError(t, in.Validate())
}

func TestCreateBatchInputValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateBatchInput)
	}{
		{"missing user", func(in *CreateBatchInput) { in.UserID = 0 }},
		{"missing dates", func(in *CreateBatchInput) { in.DateStart = time.Time{} }},
		{"inverted dates", func(in *CreateBatchInput) { in.DateStart, in.DateEnd = in.DateEnd, in.DateStart }},
		{"equal dates", func(in *CreateBatchInput) { in.DateEnd = in.DateStart }},
		{"empty items", func(in *CreateBatchInput) { in.Items = nil }},
		{"zero equipment id", func(in *CreateBatchInput) { in.Items[0].EquipmentID = 0 }},
		{"zero quantity", func(in *CreateBatchInput) { in.Items[1].Quantity = 0 }},
		{"negative quantity", func(in *CreateBatchInput) { in.Items[0].Quantity = -3 }},
		{"duplicate equipment", func(in *CreateBatchInput) { in.Items[1].EquipmentID = in.Items[0].EquipmentID }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			err := in.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestUpdateStatusRejectsBadTransition(t *testing.T) {
	e := NewEngine(nil)

	// Neither pending (same-state / backwards) nor garbage are accepted;
	// input validation fails before any pool access.
	for _, status := range []models.ReservationStatus{models.StatusPending, "cancelled", ""} {
		_, err := e.UpdateStatus(context.Background(), 12, status, 2)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidArgument, "status %q", status)
	}

	_, err := e.UpdateStatus(context.Background(), 0, models.StatusApproved, 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDeleteRejectsBadID(t *testing.T) {
	e := NewEngine(nil)
	_, err := e.Delete(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestErrorTaxonomyWrapping(t *testing.T) {
	assert.ErrorIs(t, invalidf("x"), ErrInvalidArgument)
	assert.ErrorIs(t, notFoundf("equipment %d", 3), ErrNotFound)
	assert.ErrorIs(t, conflictf("equipment %q", "Multimeter"), ErrConflict)
	assert.Contains(t, conflictf("equipment %q out of stock", "Multimeter").Error(), "Multimeter")
}
