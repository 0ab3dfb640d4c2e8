package importer

import (
	"os"
	"path/filepath"
	"testing"

	"campus-reserve-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMappingConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: 1
sheets:
  Lab:
    category: stockable
    aliases:
      Quantity: ["Qty"]
    columns:
      Name: { field: name, type: TEXT }
      Quantity: { field: quantity, type: INT }
`), 0o644))

	cfg, err := loadMappingConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Version)

	sheet, ok := cfg.Sheets["Lab"]
	require.True(t, ok)
	assert.Equal(t, "stockable", sheet.Category)
	assert.Equal(t, "quantity", sheet.Columns["Quantity"].Field)
	assert.Equal(t, []string{"Qty"}, sheet.Aliases["Quantity"])
}

func TestLoadMappingConfigFallsBackToDefault(t *testing.T) {
	cfg, err := loadMappingConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Contains(t, cfg.Sheets, "Solo")
	assert.Contains(t, cfg.Sheets, "Stockable")
}

func TestLoadMappingConfigRejectsEmptySheets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	_, err := loadMappingConfig(path)
	assert.Error(t, err)
}

func TestBuildEquipmentRowStockable(t *testing.T) {
	config := SheetConfig{
		Category: "stockable",
		Columns: map[string]ColumnConfig{
			"Name":        {Field: "name", Type: "TEXT"},
			"Quantity":    {Field: "quantity", Type: "INT"},
			"Description": {Field: "description", Type: "TEXT?"},
		},
	}

	eq, err := buildEquipmentRow(map[string]string{
		"NAME":     "Multimeter Fluke 117",
		"QUANTITY": "12",
	}, config)
	require.NoError(t, err)

	assert.Equal(t, "Multimeter Fluke 117", eq.Name)
	assert.Equal(t, models.CategoryStockable, eq.Category)
	require.NotNil(t, eq.Quantity)
	assert.Equal(t, 12, *eq.Quantity)
	assert.Nil(t, eq.State)
	assert.Nil(t, eq.Description)
}

func TestBuildEquipmentRowSoloDefaultsState(t *testing.T) {
	config := SheetConfig{
		Category: "solo",
		Columns: map[string]ColumnConfig{
			"Name":  {Field: "name", Type: "TEXT"},
			"State": {Field: "state", Type: "TEXT?"},
		},
	}

	eq, err := buildEquipmentRow(map[string]string{"NAME": "Oscilloscope"}, config)
	require.NoError(t, err)
	require.NotNil(t, eq.State)
	assert.Equal(t, "available", *eq.State)
}

func TestBuildEquipmentRowErrors(t *testing.T) {
	soloCfg := SheetConfig{
		Category: "solo",
		Columns: map[string]ColumnConfig{
			"Name":     {Field: "name", Type: "TEXT"},
			"State":    {Field: "state", Type: "TEXT?"},
			"Quantity": {Field: "quantity", Type: "INT?"},
		},
	}
	stockCfg := SheetConfig{
		Category: "stockable",
		Columns: map[string]ColumnConfig{
			"Name":     {Field: "name", Type: "TEXT"},
			"Quantity": {Field: "quantity", Type: "INT"},
		},
	}

	tests := []struct {
		name   string
		config SheetConfig
		row    map[string]string
	}{
		{"missing required name", stockCfg, map[string]string{"QUANTITY": "3"}},
		{"bad quantity", stockCfg, map[string]string{"NAME": "x", "QUANTITY": "lots"}},
		{"solo with quantity", soloCfg, map[string]string{"NAME": "x", "QUANTITY": "2"}},
		{"solo with bad state", soloCfg, map[string]string{"NAME": "x", "STATE": "broken"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildEquipmentRow(tt.row, tt.config)
			assert.Error(t, err)
		})
	}
}

func TestValidateEquipmentRowRejectsNegativeQuantity(t *testing.T) {
	q := -1
	err := validateEquipmentRow(&equipmentRow{
		Name:     "Breadboard",
		Category: models.CategoryStockable,
		Quantity: &q,
	})
	assert.Error(t, err)
}
