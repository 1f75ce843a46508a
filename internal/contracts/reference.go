// =============================================================================
// Fleet Payment Summary - Contract Reference Table
// =============================================================================
//
// This module holds the contract reference table: which vehicles operate
// under which servicing contract. The table is an explicit value, loaded once
// per run and passed to BuildIndex; nothing here is process-wide state.
//
// SOURCES:
//   - The table compiled into the binary (contracts.yaml)
//   - A YAML file with the same structure
//   - An Excel workbook with Contract / Holder / Vehicle columns
//
// =============================================================================

package contracts

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/fleet-payment-summary/internal/xlsxparser"
	"gopkg.in/yaml.v3"
)

//go:embed contracts.yaml
var defaultTable []byte

// =============================================================================
// REFERENCE TABLE STRUCTURE
// =============================================================================

// Contract is one servicing agreement and the vehicles operated under it.
type Contract struct {
	// ID is the contract identifier, e.g. "449-2018B".
	ID string `yaml:"id"`

	// Holder is the company operating the contract.
	Holder string `yaml:"holder,omitempty"`

	// Vehicles lists the vehicle identifiers in roster order.
	Vehicles []string `yaml:"vehicles"`
}

// ReferenceTable is the ordered list of contracts.
type ReferenceTable struct {
	Contracts []Contract `yaml:"contracts"`
}

// VehicleCount returns the total number of vehicle entries, duplicates included.
func (t *ReferenceTable) VehicleCount() int {
	n := 0
	for _, c := range t.Contracts {
		n += len(c.Vehicles)
	}
	return n
}

// =============================================================================
// LOADING FUNCTIONS
// =============================================================================

// Default returns the reference table compiled into the binary.
func Default() (*ReferenceTable, error) {
	table, err := ParseYAML(defaultTable)
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in contracts: %w", err)
	}
	return table, nil
}

// Load returns the table at path, or the built-in table when path is empty.
//
// PARAMETERS:
//   - path: A .yaml/.yml or .xlsx file.
//
// RETURNS:
//   - The reference table.
//   - An error if the file cannot be read, parsed, or has an unknown extension.
func Load(path string) (*ReferenceTable, error) {
	if path == "" {
		return Default()
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read contracts file: %w", err)
		}
		table, err := ParseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return table, nil

	case ".xlsx":
		rows, err := xlsxparser.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return FromRows(rows), nil

	default:
		return nil, fmt.Errorf("unsupported contracts file type: %s", path)
	}
}

// ParseYAML decodes a reference table and checks that every contract has an
// identifier and every vehicle entry is non-empty.
func ParseYAML(data []byte) (*ReferenceTable, error) {
	var table ReferenceTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, err
	}

	for i, c := range table.Contracts {
		if strings.TrimSpace(c.ID) == "" {
			return nil, fmt.Errorf("contract #%d has no id", i+1)
		}
		for _, v := range c.Vehicles {
			if v == "" {
				return nil, fmt.Errorf("contract %s lists an empty vehicle identifier", c.ID)
			}
		}
	}

	return &table, nil
}

// FromRows builds a table from workbook rows. Contracts appear in order of
// first mention; each vehicle row is appended to its contract.
func FromRows(rows []xlsxparser.ReferenceRow) *ReferenceTable {
	table := &ReferenceTable{}
	index := make(map[string]int)

	for _, row := range rows {
		i, ok := index[row.Contract]
		if !ok {
			i = len(table.Contracts)
			index[row.Contract] = i
			table.Contracts = append(table.Contracts, Contract{ID: row.Contract})
		}
		if table.Contracts[i].Holder == "" {
			table.Contracts[i].Holder = row.Holder
		}
		table.Contracts[i].Vehicles = append(table.Contracts[i].Vehicles, row.Vehicle)
	}

	return table
}
