// =============================================================================
// Fleet Payment Summary - Process Command
// =============================================================================
//
// This file defines the 'process' command, the main command of the tool. It
// summarizes one trip export.
//
// COMMAND USAGE:
//   fleetsum process [file.csv] [flags]
//
// FLAGS:
//   --output-dir        : Directory for the per-fleet files
//   --summary-file      : Path of the all-fleets summary
//   --contracts         : Contract reference table (.yaml or .xlsx)
//   --duplicate-policy  : last_wins or reject
//   --xlsx              : Also write an Excel workbook
//   --metrics-file      : Write run metrics in Prometheus text format
//   --dry-run           : Aggregate and report without writing files
//
// Flags override the configuration file and the environment. Without a file
// argument the command does nothing and exits successfully.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fleet-payment-summary/internal/config"
	"github.com/ginjaninja78/fleet-payment-summary/internal/processor"
	"github.com/ginjaninja78/fleet-payment-summary/pkg/logger"
	"github.com/ginjaninja78/fleet-payment-summary/pkg/metrics"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	outputDir       string
	summaryFile     string
	contractsFile   string
	duplicatePolicy string
	xlsxFile        string
	metricsFile     string

	// dryRun aggregates without writing output files.
	dryRun bool
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process [file.csv]",
	Short: "Summarize driver payments from a trip export",
	Long: `The process command reads a trip export, attributes each completed trip
to the contract of its vehicle, and writes per-driver cash totals and payment
method counts.

Nothing is written unless the whole file loads and validates. A fleet whose
file name would collide with another fleet's fails the run before any fleet
file is written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	flags := processCmd.Flags()
	flags.StringVar(&outputDir, "output-dir", "", "Directory for per-fleet files (default fleet_summary)")
	flags.StringVar(&summaryFile, "summary-file", "", "All-fleets summary path (default Detailed_Payment_Summary_All_Fleets.csv)")
	flags.StringVar(&contractsFile, "contracts", "", "Contract reference table, .yaml or .xlsx (default built-in)")
	flags.StringVar(&duplicatePolicy, "duplicate-policy", "", "Vehicles under two contracts: last_wins or reject")
	flags.StringVar(&xlsxFile, "xlsx", "", "Also write the summary as an Excel workbook")
	flags.StringVar(&metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format")
	flags.BoolVar(&dryRun, "dry-run", false, "Aggregate and report without writing files")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess applies flag overrides, builds the contract index and runs the
// processor under a context cancelled by Ctrl-C.
func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.Named("cli")

	if len(args) == 0 {
		log.Info(cmd.Context(), "no file selected; nothing to do")
		return nil
	}

	cfg := *appConfig
	applyProcessFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	index, err := buildIndex(&cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := processor.New(&cfg, index,
		processor.WithDryRun(dryRun),
		processor.WithMetrics(newMetricsManager(&cfg)),
	).Run(ctx, args[0])
	printResult(cmd.OutOrStdout(), result)

	if !result.Success {
		return result.Error
	}
	return nil
}

// applyProcessFlags copies the flags the user set onto cfg.
func applyProcessFlags(cmd *cobra.Command, cfg *config.MainConfig) {
	flags := cmd.Flags()
	overrides := []struct {
		flag   string
		value  string
		target *string
	}{
		{"output-dir", outputDir, &cfg.OutputDir},
		{"summary-file", summaryFile, &cfg.SummaryFile},
		{"contracts", contractsFile, &cfg.ContractsFile},
		{"duplicate-policy", duplicatePolicy, &cfg.DuplicateVehiclePolicy},
		{"xlsx", xlsxFile, &cfg.XLSXFile},
		{"metrics-file", metricsFile, &cfg.MetricsFile},
	}
	for _, o := range overrides {
		if flags.Changed(o.flag) {
			*o.target = o.value
		}
	}
}

// newMetricsManager builds the run metrics from the metrics settings, on a
// registry that also exports go_build_info.
func newMetricsManager(cfg *config.MainConfig) *metrics.Manager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewBuildInfoCollector())

	return metrics.NewManager(
		metrics.WithRegistry(registry),
		metrics.WithNamespace(cfg.Metrics.Namespace),
		metrics.WithConstLabels(cfg.Metrics.Labels),
		metrics.WithHistogramBuckets(cfg.Metrics.DurationBuckets),
	)
}

// printResult writes the run report in the style of the other commands.
func printResult(out io.Writer, result processor.Result) {
	fmt.Fprintln(out, "=== Fleet Payment Summary ===")
	fmt.Fprintf(out, "Input:            %s\n", filepath.Base(result.FilePath))
	fmt.Fprintf(out, "Run ID:           %s\n", result.RunID)

	if !result.Success {
		fmt.Fprintf(out, "  ✗ %v\n", result.Error)
		return
	}

	stats := result.Stats
	fmt.Fprintf(out, "Rows read:        %d\n", stats.RowsRead)
	fmt.Fprintf(out, "Completed trips:  %d\n", stats.CompletedTrips)
	fmt.Fprintf(out, "No Contract:      %d\n", stats.UnknownVehicles)
	fmt.Fprintf(out, "Drivers:          %d\n", stats.Drivers)
	fmt.Fprintf(out, "Fleets:           %d\n", stats.Fleets)
	fmt.Fprintf(out, "Warnings:         %d\n", len(result.Warnings))
	fmt.Fprintf(out, "Time elapsed:     %s\n", stats.ProcessingTime)

	if dryRun {
		fmt.Fprintln(out, "\nDry run; would write:")
		for _, f := range result.FleetFiles {
			fmt.Fprintf(out, "  %s\n", f)
		}
		return
	}

	fmt.Fprintln(out, "\nWrote:")
	for _, f := range result.OutputFiles() {
		fmt.Fprintf(out, "  ✓ %s\n", f)
	}
}
