// =============================================================================
// Fleet Payment Summary - Shared Types
// =============================================================================
//
// This package contains types shared by the aggregation step and the writers,
// kept apart to avoid import cycles. Types defined here are used by:
//   - aggregate
//   - csvwriter
//   - xlsxwriter
//   - processor
//
// =============================================================================

package types

import (
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// =============================================================================
// COLUMN NAMES
// =============================================================================

// Columns of the trip export. Names must match the export header exactly.
const (
	ColVehicle    = "Vehicle Identifier"
	ColTripStatus = "Trip Status"
	ColFleet      = "Fleet Name"
	ColDriver     = "Driver Name"
	ColCash       = "Enter Cash Collected (Driver Use Only)"
	ColPayment    = "Pay On Vehicle (Driver Use Only)"
	ColRiderID    = "Rider ID Number"
	ColRiderName  = "Rider Name"
)

// ColContract is the column appended by the enricher.
const ColContract = "Contract"

// ColCashTotal is the summed cash column of the summary.
const ColCashTotal = "cash"

// StatusCompleted is the only trip status included in summaries.
const StatusCompleted = "completed"

// RequiredColumns lists every export column the pipeline reads or drops.
var RequiredColumns = []string{
	ColVehicle,
	ColTripStatus,
	ColFleet,
	ColDriver,
	ColCash,
	ColPayment,
	ColRiderID,
	ColRiderName,
}

// =============================================================================
// SUMMARY TYPES
// =============================================================================

// DriverKey identifies one summary row.
type DriverKey struct {
	Fleet    string
	Contract string
	Driver   string
}

// Less orders keys by fleet, then contract, then driver.
func (k DriverKey) Less(other DriverKey) bool {
	if k.Fleet != other.Fleet {
		return k.Fleet < other.Fleet
	}
	if k.Contract != other.Contract {
		return k.Contract < other.Contract
	}
	return k.Driver < other.Driver
}

// DriverSummary is one row of the payment summary.
type DriverSummary struct {
	Key DriverKey

	// Cash is the total cash collected on the driver's completed trips.
	Cash decimal.Decimal

	// MethodCounts counts completed-trip occurrences per non-cash payment
	// method. Methods the driver never used are absent (read as 0).
	MethodCounts map[string]int
}

// Count returns the occurrences of method, 0 when never used.
func (d DriverSummary) Count(method string) int {
	return d.MethodCounts[method]
}

// Summary is the combined table written to disk.
type Summary struct {
	// Methods are the method columns, sorted.
	Methods []string

	// Rows are sorted by DriverKey.
	Rows []DriverSummary
}

// Header returns the output header row.
func (s *Summary) Header() []string {
	header := []string{ColFleet, ColContract, ColDriver, ColCashTotal}
	return append(header, s.Methods...)
}

// Record renders row i in header order.
func (s *Summary) Record(i int) []string {
	row := s.Rows[i]
	record := make([]string, 0, 4+len(s.Methods))
	record = append(record, row.Key.Fleet, row.Key.Contract, row.Key.Driver, FormatCash(row.Cash))
	for _, m := range s.Methods {
		record = append(record, strconv.Itoa(row.Count(m)))
	}
	return record
}

// Fleets returns the distinct fleet names, sorted.
func (s *Summary) Fleets() []string {
	fleets := lo.Uniq(lo.Map(s.Rows, func(r DriverSummary, _ int) string { return r.Key.Fleet }))
	sort.Strings(fleets)
	return fleets
}

// ForFleet returns the subset of rows for one fleet with the same method
// columns.
func (s *Summary) ForFleet(fleet string) *Summary {
	return &Summary{
		Methods: s.Methods,
		Rows:    lo.Filter(s.Rows, func(r DriverSummary, _ int) bool { return r.Key.Fleet == fleet }),
	}
}

// FormatCash renders an amount with at least one fractional digit:
// 10 -> "10.0", 12.5 -> "12.5".
func FormatCash(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
