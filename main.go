// =============================================================================
// Fleet Payment Summary - Main Entry Point
// =============================================================================
//
// USAGE:
//   fleetsum process trips.csv  - Summarize a trip export
//   fleetsum contracts list     - Show the contract reference table
//   fleetsum contracts check    - Report vehicles listed under two contracts
//   fleetsum version            - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Loading, enrichment, aggregation and output writers
//   - pkg/       : Logging, metrics and file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/fleet-payment-summary/cmd"
)

func main() {
	cmd.Execute()
}
