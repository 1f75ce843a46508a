package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/fleet-payment-summary/internal/contracts"
)

const tripExport = "Vehicle Identifier,Trip Status,Fleet Name,Driver Name," +
	"Enter Cash Collected (Driver Use Only),Pay On Vehicle (Driver Use Only)," +
	"Rider ID Number,Rider Name\n" +
	"1201A BUS,completed,North Fleet,Ann,10,cash,R1,Rita\n" +
	"1201A BUS,completed,North Fleet,Ann,-,app,R2,Rob\n"

// resetFlags restores every flag to its default so runs don't leak into
// each other through the package-level command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	if !slices.Contains(args, "--config") {
		args = append(args, "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	}
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Fleet Payment Summary")
	assert.Contains(t, out, "Version:    "+Version)
}

func TestProcessWithoutFileIsNoop(t *testing.T) {
	out, err := execute(t, "process")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestProcessWritesSummary(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "trips.csv")
	require.NoError(t, os.WriteFile(input, []byte(tripExport), 0o644))
	summary := filepath.Join(dir, "all.csv")
	fleets := filepath.Join(dir, "fleets")

	out, err := execute(t, "process", input, "--summary-file", summary, "--output-dir", fleets)
	require.NoError(t, err)
	assert.Contains(t, out, "Drivers:          1")

	content, err := os.ReadFile(summary)
	require.NoError(t, err)
	assert.Equal(t, "Fleet Name,Contract,Driver Name,cash,app\n"+
		"North Fleet,449-2018B,Ann,10.0,1\n", string(content))
	assert.FileExists(t, filepath.Join(fleets, "North_Fleet_Drivers.csv"))
}

func TestProcessMetricsFileUsesConfiguredNamespace(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "trips.csv")
	require.NoError(t, os.WriteFile(input, []byte(tripExport), 0o644))
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
metrics:
  namespace: trips
  labels:
    depot: north
  duration_buckets: [1, 10]
`), 0o644))
	metricsPath := filepath.Join(dir, "fleetsum.prom")

	_, err := execute(t, "process", input,
		"--config", configPath,
		"--summary-file", filepath.Join(dir, "all.csv"),
		"--output-dir", filepath.Join(dir, "fleets"),
		"--metrics-file", metricsPath)
	require.NoError(t, err)

	content, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, `trips_drivers{depot="north"} 1`)
	assert.Contains(t, text, `trips_run_duration_seconds_bucket{depot="north",le="10"} 1`)
	assert.Contains(t, text, "go_build_info")
}

func TestProcessDryRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "trips.csv")
	require.NoError(t, os.WriteFile(input, []byte(tripExport), 0o644))
	summary := filepath.Join(dir, "all.csv")

	out, err := execute(t, "process", input, "--summary-file", summary,
		"--output-dir", filepath.Join(dir, "fleets"), "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run")
	assert.NoFileExists(t, summary)
}

func TestProcessRejectsUnknownPolicy(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "trips.csv")
	require.NoError(t, os.WriteFile(input, []byte(tripExport), 0o644))

	_, err := execute(t, "process", input, "--duplicate-policy", "first_wins")
	assert.Error(t, err)
}

func TestContractsList(t *testing.T) {
	out, err := execute(t, "contracts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "449-2018B")
	assert.Contains(t, out, "AB Transit Inc.")
}

func TestContractsCheck(t *testing.T) {
	out, err := execute(t, "contracts", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "No duplicate vehicles in 12 contract(s).")

	table := filepath.Join(t.TempDir(), "contracts.yaml")
	require.NoError(t, os.WriteFile(table, []byte(`contracts:
  - id: A
    vehicles: [V1, V2]
  - id: B
    vehicles: [V2]
`), 0o644))

	out, err = execute(t, "contracts", "check", "--contracts", table)
	var dup *contracts.DuplicateVehicleError
	require.True(t, errors.As(err, &dup))
	assert.Contains(t, out, "V2: A, B")
}
