// =============================================================================
// Fleet Payment Summary - Contracts Command
// =============================================================================
//
// COMMAND USAGE:
//   fleetsum contracts list  [--contracts file]
//   fleetsum contracts check [--contracts file]
//
// 'list' prints the reference table. 'check' reports vehicles listed under
// more than one contract and exits non-zero when it finds any.
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fleet-payment-summary/internal/config"
	"github.com/ginjaninja78/fleet-payment-summary/internal/contracts"
)

// referenceFile overrides contracts_file for the contracts subcommands.
var referenceFile string

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "Inspect the contract reference table",
}

var contractsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contracts, holders and vehicle counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := contracts.Load(referencePath(cmd))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CONTRACT\tHOLDER\tVEHICLES")
		for _, c := range table.Contracts {
			fmt.Fprintf(w, "%s\t%s\t%d\n", c.ID, c.Holder, len(c.Vehicles))
		}
		fmt.Fprintf(w, "\t\t%d\n", table.VehicleCount())
		return w.Flush()
	},
}

var contractsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report vehicles listed under more than one contract",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := contracts.Load(referencePath(cmd))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		duplicates := contracts.FindDuplicates(table)
		if len(duplicates) == 0 {
			fmt.Fprintf(out, "No duplicate vehicles in %d contract(s).\n", len(table.Contracts))
			return nil
		}

		for _, d := range duplicates {
			fmt.Fprintf(out, "  ✗ %s: %s\n", d.Vehicle, strings.Join(d.Contracts, ", "))
		}
		return &contracts.DuplicateVehicleError{Duplicates: duplicates}
	},
}

func init() {
	contractsCmd.PersistentFlags().StringVar(&referenceFile, "contracts", "", "Contract reference table, .yaml or .xlsx (default from config)")
	contractsCmd.AddCommand(contractsListCmd, contractsCheckCmd)
	rootCmd.AddCommand(contractsCmd)
}

// referencePath returns --contracts when given, else the configured table.
func referencePath(cmd *cobra.Command) string {
	if cmd.Flags().Changed("contracts") {
		return referenceFile
	}
	return appConfig.ContractsFile
}

// buildIndex loads the configured reference table and indexes it under the
// configured duplicate policy.
func buildIndex(cfg *config.MainConfig) (*contracts.Index, error) {
	table, err := contracts.Load(cfg.ContractsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load contracts: %w", err)
	}
	index, err := contracts.BuildIndex(table, cfg.DuplicateVehiclePolicy)
	if err != nil {
		return nil, fmt.Errorf("failed to build contract index: %w", err)
	}
	return index, nil
}
