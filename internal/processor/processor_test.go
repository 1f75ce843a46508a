package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/fleet-payment-summary/internal/config"
	"github.com/ginjaninja78/fleet-payment-summary/internal/contracts"
	"github.com/ginjaninja78/fleet-payment-summary/internal/validation"
	"github.com/ginjaninja78/fleet-payment-summary/pkg/logger"
	"github.com/ginjaninja78/fleet-payment-summary/pkg/utils"
)

const header = "Vehicle Identifier,Trip Status,Fleet Name,Driver Name," +
	"Enter Cash Collected (Driver Use Only),Pay On Vehicle (Driver Use Only)," +
	"Rider ID Number,Rider Name\n"

const trips = header +
	"1201A BUS,completed,North Fleet,Ann,10,\"cash,app\",R1,Rita\n" +
	"1201A BUS,completed,North Fleet,Ann,-,voucher,R2,Rob\n" +
	"ZZZ 1,completed,South Fleet,Bob,2.5,card,R3,Ray\n" +
	"ZZZ 1,cancelled,South Fleet,Bob,100,card,R4,Rex\n"

const expectedSummary = "Fleet Name,Contract,Driver Name,cash,app,card,voucher\n" +
	"North Fleet,449-2018B,Ann,10.0,1,0,1\n" +
	"South Fleet,No Contract,Bob,2.5,0,1,0\n"

type fixture struct {
	dir   string
	input string
	cfg   *config.MainConfig
}

func newFixture(t *testing.T, body string) fixture {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "trips.csv")
	require.NoError(t, os.WriteFile(input, []byte(body), 0o644))

	cfg := config.New()
	cfg.SummaryFile = filepath.Join(dir, "Detailed_Payment_Summary_All_Fleets.csv")
	cfg.OutputDir = filepath.Join(dir, "fleet_summary")
	return fixture{dir: dir, input: input, cfg: cfg}
}

func newProcessor(t *testing.T, cfg *config.MainConfig, opts ...Option) *Processor {
	t.Helper()
	table, err := contracts.Default()
	require.NoError(t, err)
	index, err := contracts.BuildIndex(table, cfg.DuplicateVehiclePolicy)
	require.NoError(t, err)
	return New(cfg, index, append([]Option{WithLogger(logger.Nop())}, opts...)...)
}

func TestRunWritesOutputs(t *testing.T) {
	f := newFixture(t, trips)
	f.cfg.XLSXFile = filepath.Join(f.dir, "summary.xlsx")
	f.cfg.MetricsFile = filepath.Join(f.dir, "metrics", "fleetsum.prom")
	f.cfg.SummaryLogDir = filepath.Join(f.dir, "logs")

	result := newProcessor(t, f.cfg).Run(context.Background(), f.input)
	require.NoError(t, result.Error)
	require.True(t, result.Success)
	assert.NotEmpty(t, result.RunID)

	assert.Equal(t, ProcessingStats{
		RowsRead:        4,
		CompletedTrips:  3,
		UnknownVehicles: 1,
		Drivers:         2,
		Fleets:          2,
		Methods:         3,
		ProcessingTime:  result.Stats.ProcessingTime,
	}, result.Stats)

	content, err := os.ReadFile(f.cfg.SummaryFile)
	require.NoError(t, err)
	assert.Equal(t, expectedSummary, string(content))

	require.Equal(t, []string{
		filepath.Join(f.cfg.OutputDir, "North_Fleet_Drivers.csv"),
		filepath.Join(f.cfg.OutputDir, "South_Fleet_Drivers.csv"),
	}, result.FleetFiles)

	south, err := os.ReadFile(result.FleetFiles[1])
	require.NoError(t, err)
	assert.Equal(t, "Fleet Name,Contract,Driver Name,cash,app,card,voucher\n"+
		"South Fleet,No Contract,Bob,2.5,0,1,0\n", string(south))

	assert.FileExists(t, f.cfg.XLSXFile)
	assert.Equal(t, f.cfg.XLSXFile, result.WorkbookFile)
	assert.Len(t, result.OutputFiles(), 4)

	metricsText, err := os.ReadFile(f.cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metricsText), "fleetsum_drivers 2")
	assert.Contains(t, string(metricsText), `fleetsum_runs_total{status="success"} 1`)

	require.NotEmpty(t, result.SummaryLog)
	logText, err := os.ReadFile(result.SummaryLog)
	require.NoError(t, err)
	assert.Contains(t, string(logText), result.RunID)
	assert.Contains(t, string(logText), "Status:            SUCCESS")
}

func TestRunIsRepeatable(t *testing.T) {
	f := newFixture(t, trips)
	p := newProcessor(t, f.cfg)

	snapshot := func(result Result) map[string][]byte {
		t.Helper()
		require.NoError(t, result.Error)
		files := make(map[string][]byte)
		for _, path := range result.OutputFiles() {
			content, err := os.ReadFile(path)
			require.NoError(t, err)
			files[path] = content
		}
		return files
	}

	first := p.Run(context.Background(), f.input)
	before := snapshot(first)
	second := p.Run(context.Background(), f.input)
	after := snapshot(second)

	require.Len(t, before, 3)
	assert.Equal(t, first.FleetFiles, second.FleetFiles)
	assert.Equal(t, before, after)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	f := newFixture(t, trips+"1202A BUS,completed,North Fleet,Ann,-5,app,R5,Rae\n")
	f.cfg.MetricsFile = filepath.Join(f.dir, "fleetsum.prom")
	f.cfg.SummaryLogDir = filepath.Join(f.dir, "logs")
	f.cfg.XLSXFile = filepath.Join(f.dir, "summary.xlsx")

	result := newProcessor(t, f.cfg, WithDryRun(true)).Run(context.Background(), f.input)
	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Len(t, result.FleetFiles, 2)
	assert.Empty(t, result.SummaryFile)
	assert.Empty(t, result.OutputFiles())
	require.NotNil(t, result.Summary)
	assert.Len(t, result.Summary.Rows, 2)

	assert.NoFileExists(t, f.cfg.SummaryFile)
	assert.NoDirExists(t, f.cfg.OutputDir)
	assert.NoFileExists(t, f.cfg.MetricsFile)
	assert.NoFileExists(t, f.cfg.XLSXFile)
	assert.NoDirExists(t, f.cfg.SummaryLogDir)
	assert.Len(t, result.Warnings, 1)
}

func TestRunMissingColumns(t *testing.T) {
	f := newFixture(t, "Vehicle Identifier,Trip Status\n1201A BUS,completed\n")

	result := newProcessor(t, f.cfg).Run(context.Background(), f.input)
	require.False(t, result.Success)

	var missing *validation.MissingColumnsError
	require.True(t, errors.As(result.Error, &missing))
	assert.Contains(t, missing.Columns, "Fleet Name")
	assert.NoFileExists(t, f.cfg.SummaryFile)
}

func TestRunRejectsBadCash(t *testing.T) {
	f := newFixture(t, header+"1201A BUS,completed,North Fleet,Ann,ten,app,R1,Rita\n")
	f.cfg.SummaryLogDir = filepath.Join(f.dir, "logs")

	result := newProcessor(t, f.cfg).Run(context.Background(), f.input)
	require.False(t, result.Success)

	var finding *validation.ValidationError
	require.True(t, errors.As(result.Error, &finding))
	assert.Equal(t, 2, finding.RowNumber)
	assert.NoFileExists(t, f.cfg.SummaryFile)

	logs, err := filepath.Glob(filepath.Join(f.cfg.SummaryLogDir, "validation_*.log"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	summaries, err := filepath.Glob(filepath.Join(f.cfg.SummaryLogDir, "processing_summary_*.txt"))
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	text, err := os.ReadFile(summaries[0])
	require.NoError(t, err)
	assert.Contains(t, string(text), "Status:            FAILED")
}

func TestRunWarnsWithoutFailing(t *testing.T) {
	f := newFixture(t, trips+
		"1202A BUS,completed,North Fleet,Ann,-3,app,R5,Rae\n"+
		"1202A BUS,completed,North Fleet,,4,app,R6,Roy\n")

	result := newProcessor(t, f.cfg).Run(context.Background(), f.input)
	require.NoError(t, result.Error)
	assert.Len(t, result.Warnings, 2)
	assert.Equal(t, 1, result.Stats.DroppedRows)
}

func TestRunFleetFileCollision(t *testing.T) {
	f := newFixture(t, header+
		"ZZZ 1,completed,North Fleet,Ann,1,app,R1,Rita\n"+
		"ZZZ 2,completed,North_Fleet,Bob,1,app,R2,Rob\n")

	result := newProcessor(t, f.cfg).Run(context.Background(), f.input)
	require.False(t, result.Success)

	var collision *utils.FileNameCollisionError
	require.True(t, errors.As(result.Error, &collision))
	assert.NoFileExists(t, f.cfg.SummaryFile)
	assert.NoDirExists(t, f.cfg.OutputDir)
}

func TestRunRejectsPathLikeFleetNames(t *testing.T) {
	f := newFixture(t, header+
		"ZZZ 1,completed,../escaped,Ann,1,app,R1,Rita\n"+
		"ZZZ 2,completed,Sub/Dir Fleet,Bob,1,app,R2,Rob\n")

	result := newProcessor(t, f.cfg).Run(context.Background(), f.input)
	require.False(t, result.Success)

	var unsafe *utils.UnsafeFileNameError
	require.True(t, errors.As(result.Error, &unsafe))
	assert.Equal(t, "../escaped", unsafe.Fleet)
	assert.NoFileExists(t, f.cfg.SummaryFile)
	assert.NoDirExists(t, f.cfg.OutputDir)
	assert.NoFileExists(t, filepath.Join(f.dir, "escaped_Drivers.csv"))
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t, trips)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := newProcessor(t, f.cfg).Run(ctx, f.input)
	require.False(t, result.Success)
	assert.ErrorIs(t, result.Error, context.Canceled)
	assert.NoFileExists(t, f.cfg.SummaryFile)
}

func TestRunMissingFile(t *testing.T) {
	f := newFixture(t, trips)

	result := newProcessor(t, f.cfg).Run(context.Background(), filepath.Join(f.dir, "absent.csv"))
	require.False(t, result.Success)
	assert.ErrorContains(t, result.Error, "failed to parse CSV")
}
