// =============================================================================
// Fleet Payment Summary - Processor Module
// =============================================================================
//
// This module contains the core processing logic. It orchestrates the whole
// pipeline for a single trip export, from CSV parsing to the output files.
//
// PROCESSING PIPELINE:
//   1. Parse the trip export CSV
//   2. Attach contracts and keep completed trips
//   3. Validate the remaining rows
//   4. Aggregate cash and payment-method counts per driver
//   5. Check output file names
//   6. Write the all-fleets summary and one file per fleet
//   7. Write the optional Excel workbook
//   8. Record metrics and the processing summary log
//
// Nothing is written until steps 1-5 have succeeded. The context is checked
// between steps; a cancelled run stops before the next step begins.
//
// =============================================================================

package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/fleet-payment-summary/internal/aggregate"
	"github.com/ginjaninja78/fleet-payment-summary/internal/config"
	"github.com/ginjaninja78/fleet-payment-summary/internal/contracts"
	"github.com/ginjaninja78/fleet-payment-summary/internal/csvparser"
	"github.com/ginjaninja78/fleet-payment-summary/internal/csvwriter"
	"github.com/ginjaninja78/fleet-payment-summary/internal/enrich"
	"github.com/ginjaninja78/fleet-payment-summary/internal/types"
	"github.com/ginjaninja78/fleet-payment-summary/internal/validation"
	"github.com/ginjaninja78/fleet-payment-summary/internal/xlsxwriter"
	"github.com/ginjaninja78/fleet-payment-summary/pkg/logger"
	"github.com/ginjaninja78/fleet-payment-summary/pkg/metrics"
	"github.com/ginjaninja78/fleet-payment-summary/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// RunID identifies the run in logs, metrics and the summary log.
	RunID string

	// FilePath is the path to the input file that was processed.
	FilePath string

	// SummaryFile is the all-fleets summary path. Empty on failure or in a
	// dry run.
	SummaryFile string

	// FleetFiles are the per-fleet paths, in fleet order. In a dry run these
	// are the paths that would have been written.
	FleetFiles []string

	// WorkbookFile is the Excel workbook path, when one was written.
	WorkbookFile string

	// SummaryLog is the processing summary path, when one was written.
	SummaryLog string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Warnings are the non-fatal validation findings.
	Warnings []*validation.ValidationError

	// Summary is the combined table. Nil if aggregation was not reached.
	Summary *types.Summary

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsRead is the number of data rows in the export.
	RowsRead int

	// CompletedTrips is the number of rows with trip status "completed".
	CompletedTrips int

	// UnknownVehicles is the number of completed trips labeled "No Contract".
	UnknownVehicles int

	// DroppedRows is the number of completed trips without a fleet or driver.
	DroppedRows int

	Drivers int
	Fleets  int
	Methods int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// PROCESSOR STRUCTURE
// =============================================================================

// Processor runs the pipeline against one contract index and configuration.
// It holds no per-run state and may be reused.
type Processor struct {
	cfg     *config.MainConfig
	index   *contracts.Index
	logger  logger.Logger
	metrics *metrics.Manager
	dryRun  bool
	now     func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger replaces the default named logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics sets the metrics manager runs are recorded in.
func WithMetrics(m *metrics.Manager) Option {
	return func(p *Processor) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithDryRun makes Run stop after aggregation without writing any file.
func WithDryRun(dryRun bool) Option {
	return func(p *Processor) {
		p.dryRun = dryRun
	}
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Processor.
//
// PARAMETERS:
//   - cfg: The validated application configuration.
//   - index: The contract index built from the reference table.
//   - opts: Optional logger, metrics manager and dry-run switch.
func New(cfg *config.MainConfig, index *contracts.Index, opts ...Option) *Processor {
	p := &Processor{
		cfg:    cfg,
		index:  index,
		logger: logger.Named("processor"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.NewManager()
	}
	return p
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for csvPath.
//
// RETURNS:
//   - A Result describing the outcome. Result.Error is set when Success is
//     false.
func (p *Processor) Run(ctx context.Context, csvPath string) (result Result) {
	startTime := p.now()
	result = Result{
		RunID:    uuid.NewString(),
		FilePath: csvPath,
	}
	log := p.logger.With(logger.String("run_id", result.RunID))

	defer func() {
		result.Stats.ProcessingTime = p.now().Sub(startTime)
		p.finish(ctx, log, startTime, &result)
	}()

	fail := func(err error) Result {
		result.Error = err
		log.Error(ctx, "processing failed", logger.String("file", csvPath), logger.Error(err))
		return result
	}

	log.Info(ctx, "processing file", logger.String("file", csvPath), logger.Bool("dry_run", p.dryRun))
	log.Debug(ctx, "contract index ready", logger.Int("vehicles", p.index.Len()))

	// =========================================================================
	// STEP 1: PARSE INPUT CSV
	// =========================================================================

	data, err := csvparser.Parse(csvPath, p.cfg.CSV)
	if err != nil {
		return fail(fmt.Errorf("failed to parse CSV: %w", err))
	}
	log.Debug(ctx, "parsed trip export", logger.Int("rows", data.RowCount()), logger.Int("columns", len(data.Headers)))

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 2: ENRICH AND FILTER
	// =========================================================================
	// Each row receives its contract ("No Contract" for unknown vehicles);
	// only trips with status exactly "completed" survive.

	trips, enrichStats, err := enrich.New(p.index).Enrich(data)
	result.Stats.RowsRead = enrichStats.RowsRead
	if err != nil {
		return fail(err)
	}
	result.Stats.CompletedTrips = enrichStats.CompletedTrips
	result.Stats.UnknownVehicles = enrichStats.UnknownVehicles
	log.Debug(ctx, "filtered completed trips",
		logger.Int("completed", enrichStats.CompletedTrips),
		logger.Int("no_contract", enrichStats.UnknownVehicles))

	if enrichStats.UnknownVehicles > 0 {
		unknown := csvparser.GetUniqueValues(csvparser.FilterRows(trips, func(row map[string]string) bool {
			return row[types.ColContract] == contracts.NoContract
		}), types.ColVehicle)
		log.Warn(ctx, "completed trips on vehicles without a contract",
			logger.Int("trips", enrichStats.UnknownVehicles),
			logger.Any("vehicles", unknown))
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 3: VALIDATE DATA
	// =========================================================================
	// Unparseable cash is fatal; negative cash and missing fleet or driver
	// names are warnings.

	validationResult := validation.ValidateTrips(trips)
	for _, finding := range validationResult.Errors {
		if finding.Severity == validation.SeverityWarning {
			result.Warnings = append(result.Warnings, finding)
			log.Warn(ctx, "validation warning", logger.String("detail", finding.Error()))
		}
	}

	if len(validationResult.Errors) > 0 && p.cfg.SummaryLogDir != "" && !p.dryRun {
		if err := p.writeValidationLog(validationResult, result.RunID); err != nil {
			log.Warn(ctx, "failed to write validation log", logger.Error(err))
		}
	}

	if !validationResult.IsValid {
		fatal := validationResult.Fatal()
		for _, finding := range fatal {
			log.Error(ctx, "validation error", logger.String("detail", finding.Error()))
		}
		return fail(fmt.Errorf("validation failed with %d error(s): %w", len(fatal), fatal[0]))
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 4: AGGREGATE
	// =========================================================================

	summary, aggStats, err := aggregate.Summarize(trips)
	if err != nil {
		return fail(fmt.Errorf("failed to aggregate: %w", err))
	}
	result.Summary = summary
	result.Stats.DroppedRows = aggStats.DroppedRows
	result.Stats.Drivers = aggStats.Drivers
	result.Stats.Fleets = aggStats.Fleets
	result.Stats.Methods = aggStats.Methods

	if aggStats.DroppedRows > 0 {
		log.Warn(ctx, "completed trips without fleet or driver left out of the summary",
			logger.Int("rows", aggStats.DroppedRows))
	}
	log.Debug(ctx, "aggregated payments",
		logger.Int("drivers", aggStats.Drivers),
		logger.Int("fleets", aggStats.Fleets),
		logger.Any("methods", summary.Methods))

	// =========================================================================
	// STEP 5: CHECK OUTPUT NAMES
	// =========================================================================
	// A fleet file-name collision must fail the run before any file exists.

	fleetFiles, err := csvwriter.PlanFleetFiles(p.cfg.OutputDir, summary)
	if err != nil {
		return fail(fmt.Errorf("failed to plan fleet files: %w", err))
	}

	if p.dryRun {
		result.FleetFiles = fleetFiles
		result.Success = true
		log.Info(ctx, "dry run complete; no files written",
			logger.Int("drivers", aggStats.Drivers),
			logger.Int("fleet_files", len(fleetFiles)))
		return result
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 6: WRITE CSV OUTPUT
	// =========================================================================

	if err := csvwriter.WriteSummary(p.cfg.SummaryFile, summary); err != nil {
		return fail(fmt.Errorf("failed to write summary: %w", err))
	}
	result.SummaryFile = p.cfg.SummaryFile
	log.Info(ctx, "wrote summary", logger.String("path", p.cfg.SummaryFile))

	written, err := csvwriter.WriteFleetFiles(p.cfg.OutputDir, summary)
	result.FleetFiles = written
	if err != nil {
		return fail(err)
	}
	log.Info(ctx, "wrote fleet files", logger.String("dir", p.cfg.OutputDir), logger.Int("files", len(written)))

	// =========================================================================
	// STEP 7: WRITE WORKBOOK
	// =========================================================================

	if p.cfg.XLSXFile != "" {
		sheets, err := xlsxwriter.WriteWorkbook(p.cfg.XLSXFile, summary)
		if err != nil {
			return fail(fmt.Errorf("failed to write workbook: %w", err))
		}
		result.WorkbookFile = p.cfg.XLSXFile
		log.Info(ctx, "wrote workbook", logger.String("path", p.cfg.XLSXFile), logger.Int("sheets", len(sheets)))
	}

	// =========================================================================
	// COMPLETE
	// =========================================================================

	result.Success = true
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// finish records metrics and writes the processing summary log. Failures
// here are logged and never change the run's outcome.
func (p *Processor) finish(ctx context.Context, log logger.Logger, startTime time.Time, result *Result) {
	if result.Success {
		p.metrics.RecordSuccess(metrics.RunStats{
			RowsRead:        result.Stats.RowsRead,
			CompletedTrips:  result.Stats.CompletedTrips,
			UnknownVehicles: result.Stats.UnknownVehicles,
			DroppedRows:     result.Stats.DroppedRows,
			Drivers:         result.Stats.Drivers,
			Fleets:          result.Stats.Fleets,
			Methods:         result.Stats.Methods,
			FilesWritten:    len(result.OutputFiles()),
			Duration:        result.Stats.ProcessingTime,
		}, p.now())
	} else {
		p.metrics.RecordFailure(result.Stats.ProcessingTime)
	}

	if p.dryRun {
		return
	}

	if p.cfg.MetricsFile != "" {
		if err := utils.EnsureParentDirectory(p.cfg.MetricsFile); err != nil {
			log.Warn(ctx, "failed to prepare metrics file", logger.Error(err))
		} else if err := p.metrics.WriteTextfile(p.cfg.MetricsFile); err != nil {
			log.Warn(ctx, "failed to write metrics file", logger.Error(err))
		}
	}

	if p.cfg.SummaryLogDir != "" {
		summaryPath, err := utils.WriteSummaryLog(p.processingSummary(startTime, result), p.cfg.SummaryLogDir)
		if err != nil {
			log.Warn(ctx, "failed to write summary log", logger.Error(err))
		} else {
			result.SummaryLog = summaryPath
		}
	}

	if result.Success {
		log.Info(ctx, "processing complete",
			logger.Int("rows_read", result.Stats.RowsRead),
			logger.Int("completed_trips", result.Stats.CompletedTrips),
			logger.Int("drivers", result.Stats.Drivers),
			logger.Duration("duration", result.Stats.ProcessingTime))
	}
}

func (p *Processor) processingSummary(startTime time.Time, result *Result) utils.ProcessingSummary {
	summary := utils.ProcessingSummary{
		RunID:          result.RunID,
		StartTime:      startTime,
		EndTime:        startTime.Add(result.Stats.ProcessingTime),
		InputFile:      result.FilePath,
		RowsRead:       result.Stats.RowsRead,
		CompletedTrips: result.Stats.CompletedTrips,
		UnknownVehicle: result.Stats.UnknownVehicles,
		DroppedRows:    result.Stats.DroppedRows,
		Drivers:        result.Stats.Drivers,
		Fleets:         result.Stats.Fleets,
		OutputFiles:    result.OutputFiles(),
	}
	if result.Summary != nil {
		summary.Methods = result.Summary.Methods
	}
	for _, w := range result.Warnings {
		summary.Warnings = append(summary.Warnings, w.Error())
	}
	if result.Error != nil {
		summary.ErrorMessage = result.Error.Error()
	}
	return summary
}

// writeValidationLog writes every validation finding next to the summary
// logs.
func (p *Processor) writeValidationLog(result *validation.ValidationResult, runID string) error {
	if err := utils.EnsureDirectory(p.cfg.SummaryLogDir); err != nil {
		return err
	}
	path := filepath.Join(p.cfg.SummaryLogDir, fmt.Sprintf("validation_%s.log", runID))
	return validation.WriteErrorLog(result.Errors, path)
}

// OutputFiles lists every file the run wrote.
func (r Result) OutputFiles() []string {
	var files []string
	if r.SummaryFile != "" {
		files = append(files, r.SummaryFile)
		files = append(files, r.FleetFiles...)
	}
	if r.WorkbookFile != "" {
		files = append(files, r.WorkbookFile)
	}
	return files
}
