// =============================================================================
// Fleet Payment Summary - Aggregation
// =============================================================================
//
// This package turns the enriched table of completed trips into the payment
// summary:
//
//   SumCash             (fleet, contract, driver) -> total cash
//   CountPaymentMethods (fleet, contract, driver) -> method -> occurrences
//   Combine             left join of the two, zero filled
//
// Both groupings see the same rows, so every key in the pivot also has a cash
// total and the join never loses a driver.
//
// =============================================================================

package aggregate

import (
	"fmt"

	"github.com/ginjaninja78/fleet-payment-summary/internal/csvparser"
	"github.com/ginjaninja78/fleet-payment-summary/internal/types"
)

// Stats counts what aggregation produced.
type Stats struct {
	// DroppedRows lacked a fleet or driver name.
	DroppedRows int

	Drivers int
	Fleets  int
	Methods int
}

// Summarize runs the cash and payment-method aggregations and combines them.
func Summarize(data *csvparser.CSVData) (*types.Summary, Stats, error) {
	totals, dropped, err := SumCash(data)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to sum cash: %w", err)
	}

	summary := Combine(totals, CountPaymentMethods(data))

	return summary, Stats{
		DroppedRows: dropped,
		Drivers:     len(summary.Rows),
		Fleets:      len(summary.Fleets()),
		Methods:     len(summary.Methods),
	}, nil
}
