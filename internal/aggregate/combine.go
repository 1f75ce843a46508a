package aggregate

import (
	"github.com/ginjaninja78/fleet-payment-summary/internal/types"
)

// Combine left-joins the cash totals with the method pivot. Every cash total
// yields one row, in cash-total order; drivers missing from the pivot read 0
// for every method.
func Combine(totals []CashTotal, pivot *PaymentPivot) *types.Summary {
	summary := &types.Summary{
		Methods: pivot.Methods,
		Rows:    make([]types.DriverSummary, 0, len(totals)),
	}

	for _, t := range totals {
		summary.Rows = append(summary.Rows, types.DriverSummary{
			Key:          t.Key,
			Cash:         t.Cash,
			MethodCounts: pivot.Counts[t.Key],
		})
	}

	return summary
}
