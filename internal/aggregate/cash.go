package aggregate

import (
	"fmt"
	"sort"

	"github.com/ginjaninja78/fleet-payment-summary/internal/csvparser"
	"github.com/ginjaninja78/fleet-payment-summary/internal/types"
	"github.com/shopspring/decimal"
)

// CashTotal is the summed cash of one driver key.
type CashTotal struct {
	Key  types.DriverKey
	Cash decimal.Decimal
}

// keyOf returns the summary key of a row, or false when the fleet or driver
// name is absent. Keyless rows belong to no group.
func keyOf(row map[string]string) (types.DriverKey, bool) {
	key := types.DriverKey{
		Fleet:    row[types.ColFleet],
		Contract: row[types.ColContract],
		Driver:   row[types.ColDriver],
	}
	if key.Fleet == "" || key.Driver == "" || key.Contract == "" {
		return key, false
	}
	return key, true
}

// SumCash groups the enriched table by (fleet, contract, driver) and sums the
// cash column, absent values counting as 0.
//
// RETURNS:
//   - One total per key, sorted by key.
//   - The number of rows skipped for lacking a key.
//   - An error naming the first row whose cash value is not a number.
func SumCash(data *csvparser.CSVData) ([]CashTotal, int, error) {
	sums := make(map[types.DriverKey]decimal.Decimal)
	dropped := 0

	for i, row := range data.Rows {
		amount, err := ParseCash(row[types.ColCash])
		if err != nil {
			return nil, 0, fmt.Errorf("row %d: %w", data.RowNumbers[i], err)
		}

		key, ok := keyOf(row)
		if !ok {
			dropped++
			continue
		}

		sums[key] = sums[key].Add(amount.OrZero())
	}

	totals := make([]CashTotal, 0, len(sums))
	for key, cash := range sums {
		totals = append(totals, CashTotal{Key: key, Cash: cash})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Key.Less(totals[j].Key) })

	return totals, dropped, nil
}
