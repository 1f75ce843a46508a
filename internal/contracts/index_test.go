package contracts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/fleet-payment-summary/internal/config"
	"github.com/ginjaninja78/fleet-payment-summary/internal/xlsxparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableResolvesEveryVehicle(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	require.Len(t, table.Contracts, 12)

	idx, err := BuildIndex(table, config.PolicyReject)
	require.NoError(t, err)

	for _, c := range table.Contracts {
		for _, v := range c.Vehicles {
			assert.Equal(t, c.ID, idx.Lookup(v), "vehicle %s", v)
		}
	}
	assert.Equal(t, table.VehicleCount(), idx.Len())
}

func TestLookupMissReturnsNoContract(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	idx, err := BuildIndex(table, config.PolicyLastWins)
	require.NoError(t, err)

	assert.Equal(t, "449-2018B", idx.Lookup("1201A BUS"))
	assert.Equal(t, NoContract, idx.Lookup("1201a bus"))
	assert.Equal(t, NoContract, idx.Lookup("1201A BUS "))
	assert.Equal(t, NoContract, idx.Lookup(""))
	assert.False(t, idx.Contains("ZZZ"))
}

func duplicatedTable() *ReferenceTable {
	return &ReferenceTable{Contracts: []Contract{
		{ID: "A", Vehicles: []string{"V1", "V2"}},
		{ID: "B", Vehicles: []string{"V3", "V1"}},
	}}
}

func TestBuildIndexLastWins(t *testing.T) {
	idx, err := BuildIndex(duplicatedTable(), config.PolicyLastWins)
	require.NoError(t, err)

	assert.Equal(t, "B", idx.Lookup("V1"))
	assert.Equal(t, "A", idx.Lookup("V2"))
	assert.Equal(t, 3, idx.Len())
}

func TestBuildIndexReject(t *testing.T) {
	_, err := BuildIndex(duplicatedTable(), config.PolicyReject)
	require.Error(t, err)

	var dupErr *DuplicateVehicleError
	require.True(t, errors.As(err, &dupErr))
	require.Len(t, dupErr.Duplicates, 1)
	assert.Equal(t, "V1", dupErr.Duplicates[0].Vehicle)
	assert.Equal(t, []string{"A", "B"}, dupErr.Duplicates[0].Contracts)
	assert.Contains(t, err.Error(), `"V1"`)
}

func TestRepeatWithinContractIsNotDuplicate(t *testing.T) {
	table := &ReferenceTable{Contracts: []Contract{{ID: "A", Vehicles: []string{"V1", "V1"}}}}

	assert.Empty(t, FindDuplicates(table))
	_, err := BuildIndex(table, config.PolicyReject)
	assert.NoError(t, err)
}

func TestBuildIndexUnknownPolicy(t *testing.T) {
	_, err := BuildIndex(duplicatedTable(), "first_wins")
	assert.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contracts.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
contracts:
  - id: "X-1"
    holder: "Acme"
    vehicles: ["V1", "V2"]
`), 0o644))

	table, err := Load(path)
	require.NoError(t, err)
	require.Len(t, table.Contracts, 1)
	assert.Equal(t, "Acme", table.Contracts[0].Holder)
	assert.Equal(t, []string{"V1", "V2"}, table.Contracts[0].Vehicles)
}

func TestParseYAMLRejectsMissingID(t *testing.T) {
	_, err := ParseYAML([]byte("contracts:\n  - vehicles: [\"V1\"]\n"))
	assert.Error(t, err)
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	table, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "449-2018B", table.Contracts[0].ID)
	assert.Equal(t, "AB Transit Inc.", table.Contracts[0].Holder)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load("contracts.json")
	assert.Error(t, err)
}

func TestFromRowsGroupsByContract(t *testing.T) {
	table := FromRows([]xlsxparser.ReferenceRow{
		{Contract: "A", Holder: "Acme", Vehicle: "V1"},
		{Contract: "B", Vehicle: "V2"},
		{Contract: "A", Vehicle: "V3"},
	})

	require.Len(t, table.Contracts, 2)
	assert.Equal(t, Contract{ID: "A", Holder: "Acme", Vehicles: []string{"V1", "V3"}}, table.Contracts[0])
	assert.Equal(t, Contract{ID: "B", Vehicles: []string{"V2"}}, table.Contracts[1])
}
