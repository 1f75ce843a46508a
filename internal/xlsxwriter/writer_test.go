package xlsxwriter

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/fleet-payment-summary/internal/types"
)

func TestSheetName(t *testing.T) {
	assert.Equal(t, "North Fleet", SheetName("North Fleet"))
	assert.Equal(t, "A_B_C_", SheetName("A/B?C*"))
	assert.Equal(t, "Fleet", SheetName("''"))
	assert.Len(t, []rune(SheetName("A very long fleet name that exceeds the limit")), 31)
}

func TestSheetNamerDeduplicates(t *testing.T) {
	n := newSheetNamer(AllFleetsSheet)
	assert.Equal(t, "all fleets (2)", n.next("all fleets"))
	assert.Equal(t, "A_B", n.next("A/B"))
	assert.Equal(t, "A_B (2)", n.next("A?B"))
	assert.Equal(t, "A_B (3)", n.next("A*B"))
}

func TestWriteWorkbook(t *testing.T) {
	summary := &types.Summary{
		Methods: []string{"app"},
		Rows: []types.DriverSummary{
			{
				Key:          types.DriverKey{Fleet: "East", Contract: "Contract 1", Driver: "Amy"},
				Cash:         decimal.RequireFromString("12.5"),
				MethodCounts: map[string]int{"app": 3},
			},
			{
				Key:  types.DriverKey{Fleet: "West/Central", Contract: "No Contract", Driver: "Bob"},
				Cash: decimal.RequireFromString("4"),
			},
		},
	}
	path := filepath.Join(t.TempDir(), "summary.xlsx")

	sheets, err := WriteWorkbook(path, summary)
	require.NoError(t, err)
	assert.Equal(t, []string{"All Fleets", "East", "West_Central"}, sheets)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, sheets, f.GetSheetList())

	rows, err := f.GetRows(AllFleetsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Fleet Name", "Contract", "Driver Name", "cash", "app"}, rows[0])
	assert.Equal(t, []string{"East", "Contract 1", "Amy", "12.5", "3"}, rows[1])
	assert.Equal(t, []string{"West/Central", "No Contract", "Bob", "4", "0"}, rows[2])

	west, err := f.GetRows("West_Central")
	require.NoError(t, err)
	require.Len(t, west, 2)
	assert.Equal(t, "Bob", west[1][2])
}
