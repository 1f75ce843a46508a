// =============================================================================
// Fleet Payment Summary - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (fleetsum)
//   ├── processCmd   (fleetsum process [file.csv])
//   ├── contractsCmd (fleetsum contracts list|check)
//   └── versionCmd   (fleetsum version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Initializes the logger on stderr
//   2. Loads config.yaml (or --config) layered with FLEETSUM_* variables
//   3. Sets the log level from the config, or debug with --verbose
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fleet-payment-summary/internal/config"
	"github.com/ginjaninja78/fleet-payment-summary/pkg/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig is the configuration loaded before each command runs.
var appConfig *config.MainConfig

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "fleetsum",
	Short: "Fleet Payment Summary - Per-driver payment totals from trip exports",
	Long: `fleetsum turns a ride-dispatch trip export into per-driver payment
summaries.

Each completed trip is attributed to the servicing contract of its vehicle
("No Contract" when the vehicle is unknown). Cash collected is totalled per
fleet, contract and driver, and every non-cash payment method is counted.

Outputs:
  - Detailed_Payment_Summary_All_Fleets.csv with every driver
  - fleet_summary/<Fleet_Name>_Drivers.csv for each fleet
  - optionally an Excel workbook, a metrics textfile and a run log

Example Usage:
  fleetsum process trips.csv                 # Summarize one export
  fleetsum process trips.csv --xlsx out.xlsx # Also write a workbook
  fleetsum contracts check                   # Look for duplicate vehicles`,

	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command and exits non-zero on failure. It is called
// by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file; a missing file is ignored",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// initConfig loads the configuration and sets up logging.
func initConfig(cmd *cobra.Command, args []string) error {
	logger.Init(cmd.ErrOrStderr())

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return fmt.Errorf("failed to set log level: %w", err)
	}

	appConfig = cfg
	return nil
}
