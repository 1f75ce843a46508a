// =============================================================================
// Fleet Payment Summary - CSV Writer Module
// =============================================================================
//
// This module writes the combined payment summary to disk:
//   - One all-fleets summary file
//   - One file per fleet, named after the fleet
//
// OUTPUT FORMAT:
//   Fleet Name,Contract,Driver Name,cash,<method 1>,<method 2>,...
//   North Fleet,Contract 1,Amy,12.5,2,0
//
//   Cash is written with at least one fractional digit, counts as integers.
//   Fields are quoted only when needed (delimiter, quote, line break or
//   leading space). There is no index column.
//
// Every document is rendered in memory before the file is created, so a
// render failure leaves nothing behind. Fleet file names are checked for
// collisions before the first fleet file is written.
//
// =============================================================================

package csvwriter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/fleet-payment-summary/internal/types"
	"github.com/ginjaninja78/fleet-payment-summary/pkg/utils"
)

// =============================================================================
// RENDERING
// =============================================================================

// Render returns the CSV document for summary.
func Render(summary *types.Summary) ([]byte, error) {
	var buffer bytes.Buffer
	w := csv.NewWriter(&buffer)

	if err := w.Write(summary.Header()); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i := range summary.Rows {
		if err := w.Write(summary.Record(i)); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buffer.Bytes(), nil
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// WriteSummary writes the all-fleets summary to path, creating its parent
// directory when needed.
func WriteSummary(path string, summary *types.Summary) error {
	if err := utils.EnsureParentDirectory(path); err != nil {
		return err
	}
	return writeFile(path, summary)
}

// writeFile renders summary and writes it to path. The parent directory
// must exist.
func writeFile(path string, summary *types.Summary) error {
	content, err := Render(summary)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteFleetFiles writes one file per fleet into dir.
//
// PARAMETERS:
//   - dir: The output directory; created if missing.
//   - summary: The combined summary. Each fleet file keeps all method
//     columns, including ones the fleet never used.
//
// RETURNS:
//   - The written paths, in fleet order.
//   - A *utils.UnsafeFileNameError when a fleet name would produce a path
//     rather than a file name, or a *utils.FileNameCollisionError when two
//     fleets map to one file name; nothing is written in either case.
func WriteFleetFiles(dir string, summary *types.Summary) ([]string, error) {
	fleets := summary.Fleets()
	if err := utils.CheckFleetFileNames(fleets); err != nil {
		return nil, fmt.Errorf("failed to write fleet files: %w", err)
	}
	if err := utils.EnsureDirectory(dir); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(fleets))
	for _, fleet := range fleets {
		path := filepath.Join(dir, utils.FleetFileName(fleet))
		if err := writeFile(path, summary.ForFleet(fleet)); err != nil {
			return paths, fmt.Errorf("failed to write fleet %q: %w", fleet, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// PlanFleetFiles returns the paths WriteFleetFiles would write, after the
// same collision check.
func PlanFleetFiles(dir string, summary *types.Summary) ([]string, error) {
	fleets := summary.Fleets()
	if err := utils.CheckFleetFileNames(fleets); err != nil {
		return nil, err
	}
	paths := make([]string, len(fleets))
	for i, fleet := range fleets {
		paths[i] = filepath.Join(dir, utils.FleetFileName(fleet))
	}
	return paths, nil
}
