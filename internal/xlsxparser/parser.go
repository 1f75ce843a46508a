// =============================================================================
// Fleet Payment Summary - XLSX Reference Table Parser
// =============================================================================
//
// This module reads a contract reference table maintained as an Excel
// workbook. Operations staff keep the vehicle roster in a spreadsheet; this
// parser lets the tool consume it directly instead of a YAML copy.
//
// WORKBOOK STRUCTURE (Expected Columns):
//   One row per vehicle. Header names are matched case-insensitively, so the
//   columns may appear in any order.
//
//   | Contract   | Holder           | Vehicle     |
//   |------------|------------------|-------------|
//   | 449-2018B  | AB Transit Inc.  | 1201A BUS   |
//   | 449-2018B  | AB Transit Inc.  | 1202A BUS   |
//   | 754-2022   | Care Accessible… | C1CA SUV    |
//
//   The Holder column is optional. Row order is preserved; it decides which
//   contract wins for a duplicated vehicle under the last_wins policy.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// REFERENCE ROW STRUCTURE
// =============================================================================

// ReferenceRow is one vehicle entry of the reference workbook.
type ReferenceRow struct {
	// Contract is the contract identifier, e.g. "449-2018B".
	Contract string

	// Holder is the company operating the contract. May be empty.
	Holder string

	// Vehicle is the vehicle identifier as it appears in trip exports.
	Vehicle string

	// RowNumber is the 1-based worksheet row, for error reporting.
	RowNumber int
}

// =============================================================================
// COLUMN CONFIGURATION
// =============================================================================

// ReferenceColumns names the header cells the parser looks for.
type ReferenceColumns struct {
	// Sheet is the worksheet to read. Empty means the first sheet.
	Sheet string

	// ContractHeader is the header of the contract identifier column.
	// Default: "Contract"
	ContractHeader string

	// HolderHeader is the header of the optional holder column.
	// Default: "Holder"
	HolderHeader string

	// VehicleHeader is the header of the vehicle identifier column.
	// Default: "Vehicle"
	VehicleHeader string
}

// DefaultReferenceColumns returns the standard column headers.
func DefaultReferenceColumns() ReferenceColumns {
	return ReferenceColumns{
		ContractHeader: "Contract",
		HolderHeader:   "Holder",
		VehicleHeader:  "Vehicle",
	}
}

// ErrNoRows is returned when the worksheet has a header but no vehicles.
var ErrNoRows = errors.New("reference workbook has no vehicle rows")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the reference rows from a workbook using the default columns.
func Parse(path string) ([]ReferenceRow, error) {
	return ParseWithColumns(path, DefaultReferenceColumns())
}

// ParseWithColumns reads the reference rows from a workbook.
//
// PARAMETERS:
//   - path: The path to the .xlsx file.
//   - columns: The sheet and header names to use.
//
// RETURNS:
//   - The vehicle rows in worksheet order.
//   - An error if the file cannot be opened, a required header is missing,
//     or a row has a vehicle without a contract.
func ParseWithColumns(path string, columns ReferenceColumns) ([]ReferenceRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := columns.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	return parseRows(rows, columns)
}

// parseRows converts raw worksheet rows into reference rows.
func parseRows(rows [][]string, columns ReferenceColumns) ([]ReferenceRow, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	contractCol := findColumn(rows[0], columns.ContractHeader)
	vehicleCol := findColumn(rows[0], columns.VehicleHeader)
	holderCol := findColumn(rows[0], columns.HolderHeader)

	if contractCol < 0 {
		return nil, fmt.Errorf("header %q not found", columns.ContractHeader)
	}
	if vehicleCol < 0 {
		return nil, fmt.Errorf("header %q not found", columns.VehicleHeader)
	}

	var result []ReferenceRow
	for i, row := range rows[1:] {
		rowNumber := i + 2

		contract := cell(row, contractCol)
		vehicle := cell(row, vehicleCol)

		// Skip blank spacer rows.
		if contract == "" && vehicle == "" {
			continue
		}
		if contract == "" {
			return nil, fmt.Errorf("row %d: vehicle %q has no contract", rowNumber, vehicle)
		}
		if vehicle == "" {
			return nil, fmt.Errorf("row %d: contract %q has no vehicle", rowNumber, contract)
		}

		result = append(result, ReferenceRow{
			Contract:  contract,
			Holder:    cell(row, holderCol),
			Vehicle:   vehicle,
			RowNumber: rowNumber,
		})
	}

	if len(result) == 0 {
		return nil, ErrNoRows
	}

	return result, nil
}

// findColumn returns the index of header in the header row, or -1.
func findColumn(header []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// cell returns the trimmed value at index, or "" when out of range.
// Identifiers in the roster are typed by hand, so stray spaces are dropped.
func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
