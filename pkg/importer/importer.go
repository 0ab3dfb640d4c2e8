package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"campus-reserve-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tealeg/xlsx/v3"
	"gopkg.in/yaml.v3"
)

// ImportOptions defines the configuration for Excel import operations
type ImportOptions struct {
	MappingPath string // default "configs/mapping/equipment.yaml"
	DryRun      bool
	MaxErrors   int // default 50
}

// RowError represents an error that occurred during row processing
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetSummary contains the import statistics for a single sheet
type SheetSummary struct {
	Name     string     `json:"name"`
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Skipped  int        `json:"skipped"`
	Errors   int        `json:"errors"`
	Samples  []RowError `json:"error_samples,omitempty"`
}

// ImportSummary contains the overall import statistics
type ImportSummary struct {
	Inserted int            `json:"inserted"`
	Updated  int            `json:"updated"`
	Skipped  int            `json:"skipped"`
	Errors   int            `json:"errors"`
	Sheets   []SheetSummary `json:"sheets"`
	DryRun   bool           `json:"dry_run"`
}

// MappingConfig represents the YAML mapping configuration
type MappingConfig struct {
	Version int                    `yaml:"version"`
	Sheets  map[string]SheetConfig `yaml:"sheets"`
}

type SheetConfig struct {
	// Category applies to every row of the sheet when set; otherwise the
	// sheet must carry a category column.
	Category string                  `yaml:"category"`
	Aliases  map[string][]string     `yaml:"aliases"`
	Columns  map[string]ColumnConfig `yaml:"columns"`
}

type ColumnConfig struct {
	Field string `yaml:"field"`
	Type  string `yaml:"type"`
}

// equipmentRow is one parsed spreadsheet row ready for upsert.
type equipmentRow struct {
	Name        string
	Category    models.EquipmentCategory
	State       *string
	Quantity    *int
	Description *string
}

// ImportExcel processes an Excel workbook of equipment sheets and upserts
// rows into the equipment table, keyed by name.
func ImportExcel(ctx context.Context, db *pgxpool.Pool, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{
		DryRun: opts.DryRun,
		Sheets: []SheetSummary{},
	}

	if opts.MappingPath == "" {
		opts.MappingPath = "configs/mapping/equipment.yaml"
	}
	if opts.MaxErrors == 0 {
		opts.MaxErrors = 50
	}

	mapping, err := loadMappingConfig(opts.MappingPath)
	if err != nil {
		return summary, fmt.Errorf("failed to load mapping config: %w", err)
	}

	// xlsx needs an io.ReaderAt, so buffer the whole upload
	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("failed to read Excel file: %w", err)
	}

	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("failed to open Excel file: %w", err)
	}

	conn, err := db.Acquire(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	defer conn.Release()

	for _, sheet := range xlFile.Sheets {
		sheetConfig, exists := mapping.Sheets[sheet.Name]
		if !exists {
			continue // Skip sheets without mapping
		}

		sheetSummary := processSheet(ctx, conn, sheet, sheetConfig, opts)
		summary.Sheets = append(summary.Sheets, sheetSummary)

		summary.Inserted += sheetSummary.Inserted
		summary.Updated += sheetSummary.Updated
		summary.Skipped += sheetSummary.Skipped
		summary.Errors += sheetSummary.Errors

		if summary.Errors > opts.MaxErrors {
			return summary, fmt.Errorf("too many errors (%d), stopping import", summary.Errors)
		}
	}

	return summary, nil
}

func loadMappingConfig(path string) (*MappingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultMapping(), nil
		}
		return nil, err
	}

	var cfg MappingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Sheets) == 0 {
		return nil, fmt.Errorf("mapping %s defines no sheets", path)
	}
	return &cfg, nil
}

// defaultMapping covers the standard lab workbook layout: one sheet per
// category.
func defaultMapping() *MappingConfig {
	return &MappingConfig{
		Version: 1,
		Sheets: map[string]SheetConfig{
			"Solo": {
				Category: string(models.CategorySolo),
				Aliases: map[string][]string{
					"Name":  {"Equipment", "Equipment Name"},
					"State": {"Status", "Condition"},
				},
				Columns: map[string]ColumnConfig{
					"Name":        {Field: "name", Type: "TEXT"},
					"State":       {Field: "state", Type: "TEXT?"},
					"Description": {Field: "description", Type: "TEXT?"},
				},
			},
			"Stockable": {
				Category: string(models.CategoryStockable),
				Aliases: map[string][]string{
					"Name":     {"Equipment", "Equipment Name"},
					"Quantity": {"Qty", "Stock", "Count"},
				},
				Columns: map[string]ColumnConfig{
					"Name":        {Field: "name", Type: "TEXT"},
					"Quantity":    {Field: "quantity", Type: "INT"},
					"Description": {Field: "description", Type: "TEXT?"},
				},
			},
		},
	}
}

func processSheet(ctx context.Context, conn *pgxpool.Conn, sheet *xlsx.Sheet, config SheetConfig, opts ImportOptions) SheetSummary {
	summary := SheetSummary{Name: sheet.Name}

	headerRow, err := sheet.Row(0)
	if err != nil {
		summary.Errors++
		summary.Samples = append(summary.Samples, RowError{
			Sheet:   sheet.Name,
			Row:     1,
			Message: "Failed to read header row: " + err.Error(),
		})
		return summary
	}

	// header name (canonical, upper-cased) -> column index
	headerMap := resolveHeaders(headerRow, config.Aliases)

	rowIdx := 1
	for {
		row, err := sheet.Row(rowIdx)
		if err != nil {
			break // No more rows
		}

		rowData := make(map[string]string)
		for name, colIdx := range headerMap {
			cell := row.GetCell(colIdx)
			if cell == nil {
				continue
			}
			if v := strings.TrimSpace(cell.String()); v != "" {
				rowData[name] = v
			}
		}

		if len(rowData) == 0 {
			summary.Skipped++
			rowIdx++
			continue
		}

		eq, err := buildEquipmentRow(rowData, config)
		if err != nil {
			summary.Errors++
			summary.Samples = append(summary.Samples, RowError{
				Sheet:   sheet.Name,
				Row:     rowIdx + 1,
				Message: err.Error(),
			})
			rowIdx++
			continue
		}

		existingID, err := findExistingEquipment(ctx, conn, eq.Name)
		if err != nil {
			summary.Errors++
			summary.Samples = append(summary.Samples, RowError{
				Sheet:   sheet.Name,
				Row:     rowIdx + 1,
				Message: err.Error(),
			})
			rowIdx++
			continue
		}

		if existingID > 0 {
			if !opts.DryRun {
				if err := updateEquipment(ctx, conn, existingID, eq); err != nil {
					summary.Errors++
					summary.Samples = append(summary.Samples, RowError{
						Sheet:   sheet.Name,
						Row:     rowIdx + 1,
						Message: err.Error(),
					})
					rowIdx++
					continue
				}
			}
			summary.Updated++
		} else {
			if !opts.DryRun {
				if err := insertEquipment(ctx, conn, eq); err != nil {
					summary.Errors++
					summary.Samples = append(summary.Samples, RowError{
						Sheet:   sheet.Name,
						Row:     rowIdx + 1,
						Message: err.Error(),
					})
					rowIdx++
					continue
				}
			}
			summary.Inserted++
		}

		rowIdx++
	}

	return summary
}

// resolveHeaders walks the first row and maps each canonical column name
// from the config to the index it occupies, honoring aliases.
func resolveHeaders(headerRow *xlsx.Row, aliases map[string][]string) map[string]int {
	headers := map[string]int{}
	colIdx := 0
	for {
		cell := headerRow.GetCell(colIdx)
		if cell == nil {
			break
		}
		name := strings.TrimSpace(cell.String())
		if name == "" {
			colIdx++
			continue
		}
		canonical := strings.ToUpper(name)
		for field, aliasList := range aliases {
			for _, alias := range aliasList {
				if strings.EqualFold(alias, name) {
					canonical = strings.ToUpper(field)
				}
			}
		}
		headers[canonical] = colIdx
		colIdx++
	}
	return headers
}

func buildEquipmentRow(rowData map[string]string, config SheetConfig) (*equipmentRow, error) {
	eq := &equipmentRow{}

	for headerName, columnConfig := range config.Columns {
		value, exists := rowData[strings.ToUpper(headerName)]
		if !exists || value == "" {
			if strings.HasSuffix(columnConfig.Type, "?") {
				continue
			}
			return nil, fmt.Errorf("missing required column %s", headerName)
		}

		switch columnConfig.Field {
		case "name":
			eq.Name = value
		case "category":
			eq.Category = models.EquipmentCategory(strings.ToLower(value))
		case "state":
			state := strings.ToLower(value)
			eq.State = &state
		case "quantity":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid quantity %q", value)
			}
			eq.Quantity = &n
		case "description":
			v := value
			eq.Description = &v
		default:
			return nil, fmt.Errorf("unknown mapping field %s", columnConfig.Field)
		}
	}

	if config.Category != "" {
		eq.Category = models.EquipmentCategory(config.Category)
	}
	return eq, validateEquipmentRow(eq)
}

func validateEquipmentRow(eq *equipmentRow) error {
	if eq.Name == "" {
		return errors.New("equipment name is required")
	}
	switch eq.Category {
	case models.CategorySolo:
		if eq.Quantity != nil {
			return errors.New("solo equipment cannot carry a quantity")
		}
		if eq.State == nil {
			state := string(models.SoloAvailable)
			eq.State = &state
		}
		if !models.IsValidSoloState(models.SoloState(*eq.State)) {
			return fmt.Errorf("invalid state %q", *eq.State)
		}
	case models.CategoryStockable:
		if eq.State != nil {
			return errors.New("stockable equipment cannot carry a state")
		}
		if eq.Quantity == nil {
			return errors.New("stockable equipment requires a quantity")
		}
		if *eq.Quantity < 0 {
			return errors.New("quantity cannot be negative")
		}
	default:
		return fmt.Errorf("unknown category %q", eq.Category)
	}
	return nil
}

func findExistingEquipment(ctx context.Context, conn *pgxpool.Conn, name string) (int64, error) {
	var id int64
	err := conn.QueryRow(ctx, `SELECT id FROM equipment WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func insertEquipment(ctx context.Context, conn *pgxpool.Conn, eq *equipmentRow) error {
	_, err := conn.Exec(ctx, `
		INSERT INTO equipment (name, category, state, quantity, description)
		VALUES ($1, $2, $3, $4, $5)`,
		eq.Name, eq.Category, eq.State, eq.Quantity, eq.Description)
	return err
}

// updateEquipment refreshes state/quantity/description; the category of
// an existing row never changes from an import.
func updateEquipment(ctx context.Context, conn *pgxpool.Conn, id int64, eq *equipmentRow) error {
	var category models.EquipmentCategory
	if err := conn.QueryRow(ctx, `SELECT category FROM equipment WHERE id = $1`, id).Scan(&category); err != nil {
		return err
	}
	if category != eq.Category {
		return fmt.Errorf("equipment %q exists with category %s, sheet says %s", eq.Name, category, eq.Category)
	}

	_, err := conn.Exec(ctx, `
		UPDATE equipment
		SET state = COALESCE($2, state),
		    quantity = COALESCE($3, quantity),
		    description = COALESCE($4, description),
		    updated_at = now()
		WHERE id = $1`,
		id, eq.State, eq.Quantity, eq.Description)
	return err
}
