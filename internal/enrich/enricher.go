// =============================================================================
// Fleet Payment Summary - Enricher / Filter
// =============================================================================
//
// This module prepares the loaded trip table for aggregation:
//
//   1. Look up each row's vehicle in the contract index and append the
//      result as a "Contract" column ("No Contract" on a miss)
//   2. Keep only rows whose trip status is exactly "completed"
//   3. Drop the rider identification columns
//
// Status matching is exact: "Completed" and " completed" are excluded.
//
// =============================================================================

package enrich

import (
	"fmt"

	"github.com/ginjaninja78/fleet-payment-summary/internal/contracts"
	"github.com/ginjaninja78/fleet-payment-summary/internal/csvparser"
	"github.com/ginjaninja78/fleet-payment-summary/internal/types"
	"github.com/ginjaninja78/fleet-payment-summary/internal/validation"
	"github.com/samber/lo"
)

// DroppedColumns are removed from the table after filtering.
var DroppedColumns = []string{types.ColRiderID, types.ColRiderName}

// =============================================================================
// ENRICHER
// =============================================================================

// Enricher appends contracts and filters to completed trips.
type Enricher struct {
	index *contracts.Index
}

// Stats counts what the enricher saw.
type Stats struct {
	// RowsRead is the number of input rows.
	RowsRead int

	// CompletedTrips is the number of rows kept.
	CompletedTrips int

	// UnknownVehicles is the number of kept rows labeled "No Contract".
	UnknownVehicles int
}

// New creates an Enricher backed by index.
func New(index *contracts.Index) *Enricher {
	return &Enricher{index: index}
}

// Enrich returns a new table of completed trips with the Contract column and
// without rider columns. The input table is not modified.
//
// RETURNS:
//   - The enriched table and its stats.
//   - A *validation.MissingColumnsError if any required column is absent.
func (e *Enricher) Enrich(data *csvparser.CSVData) (*csvparser.CSVData, Stats, error) {
	stats := Stats{RowsRead: data.RowCount()}

	if err := validation.RequireColumns(data, types.RequiredColumns); err != nil {
		return nil, stats, fmt.Errorf("failed to enrich %s: %w", data.SourceFile, err)
	}

	headers := lo.Without(data.Headers, DroppedColumns...)
	if !lo.Contains(headers, types.ColContract) {
		headers = append(headers, types.ColContract)
	}

	out := &csvparser.CSVData{
		Headers:    headers,
		SourceFile: data.SourceFile,
	}

	for i, row := range data.Rows {
		if row[types.ColTripStatus] != types.StatusCompleted {
			continue
		}

		enriched := make(map[string]string, len(headers))
		for k, v := range row {
			enriched[k] = v
		}
		for _, col := range DroppedColumns {
			delete(enriched, col)
		}

		vehicle := row[types.ColVehicle]
		if !e.index.Contains(vehicle) {
			stats.UnknownVehicles++
		}
		enriched[types.ColContract] = e.index.Lookup(vehicle)

		out.Rows = append(out.Rows, enriched)
		out.RowNumbers = append(out.RowNumbers, data.RowNumbers[i])
	}

	stats.CompletedTrips = out.RowCount()
	return out, stats, nil
}
