// =============================================================================
// Fleet Payment Summary - XLSX Writer Module
// =============================================================================
//
// This module writes the payment summary as a single Excel workbook:
//   - Sheet "All Fleets" holds every row
//   - One sheet per fleet, in fleet order
//
// Cash cells are numeric, method counts are integers, and the header row is
// bold. Fleet names are made into valid sheet names: characters Excel
// forbids (: \ / ? * [ ]) become "_", names are cut to 31 characters and
// clashes (compared case-insensitively) get a " (n)" suffix.
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/fleet-payment-summary/internal/types"
	"github.com/ginjaninja78/fleet-payment-summary/pkg/utils"
)

const (
	// AllFleetsSheet is the name of the combined sheet.
	AllFleetsSheet = "All Fleets"

	maxSheetNameLength = 31
)

// WriteWorkbook writes summary to an .xlsx file at path.
//
// RETURNS:
//   - The sheet names in workbook order.
//   - An error if any sheet cannot be written or the file cannot be saved.
func WriteWorkbook(path string, summary *types.Summary) ([]string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", AllFleetsSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSheet(f, AllFleetsSheet, summary, headerStyle); err != nil {
		return nil, err
	}

	names := newSheetNamer(AllFleetsSheet)
	sheets := []string{AllFleetsSheet}
	for _, fleet := range summary.Fleets() {
		sheet := names.next(fleet)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("failed to add sheet for fleet %q: %w", fleet, err)
		}
		if err := writeSheet(f, sheet, summary.ForFleet(fleet), headerStyle); err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet)
	}

	f.SetActiveSheet(0)

	if err := utils.EnsureParentDirectory(path); err != nil {
		return nil, err
	}
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return sheets, nil
}

// writeSheet fills one sheet with the header and every summary row.
func writeSheet(f *excelize.File, sheet string, summary *types.Summary, headerStyle int) error {
	header := summary.Header()
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header on sheet %q: %w", sheet, err)
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("failed to style header on sheet %q: %w", sheet, err)
	}

	for i, row := range summary.Rows {
		values := make([]interface{}, 0, len(header))
		values = append(values, row.Key.Fleet, row.Key.Contract, row.Key.Driver, row.Cash.InexactFloat64())
		for _, m := range summary.Methods {
			values = append(values, row.Count(m))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d on sheet %q: %w", i+2, sheet, err)
		}
	}
	return nil
}

// =============================================================================
// SHEET NAMES
// =============================================================================

type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer(reserved ...string) *sheetNamer {
	n := &sheetNamer{used: make(map[string]bool)}
	for _, r := range reserved {
		n.used[strings.ToLower(r)] = true
	}
	return n
}

// next returns a valid, unused sheet name derived from fleet.
func (n *sheetNamer) next(fleet string) string {
	base := SheetName(fleet)
	name := base
	for i := 2; n.used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncate(base, maxSheetNameLength-len(suffix)) + suffix
	}
	n.used[strings.ToLower(name)] = true
	return name
}

// SheetName converts a fleet name into a valid Excel sheet name.
func SheetName(fleet string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, fleet)
	name = strings.Trim(name, "'")
	if strings.TrimSpace(name) == "" {
		name = "Fleet"
	}
	return truncate(name, maxSheetNameLength)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
