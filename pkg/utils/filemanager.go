// =============================================================================
// Fleet Payment Summary - File Manager Utility
// =============================================================================
//
// This module provides file utilities for the writers and the processor:
//   - Directory creation
//   - Per-fleet output file naming and collision detection
//   - Processing summary logs
//
// FILE NAMING:
//   A fleet's file name is its name with every space replaced by an
//   underscore, suffixed "_Drivers.csv". The mapping is not injective
//   ("North East" and "North_East" both give "North_East_Drivers.csv"), so
//   callers check the whole fleet list with CheckFleetFileNames before
//   writing anything. Names that are not a single path element
//   ("../x", "a/b") are rejected there too.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// FleetFileSuffix ends every per-fleet file name.
const FleetFileSuffix = "_Drivers.csv"

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectory creates dir and its parents if they don't exist.
func EnsureDirectory(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// EnsureParentDirectory creates the directory holding path.
func EnsureParentDirectory(path string) error {
	return EnsureDirectory(filepath.Dir(path))
}

// =============================================================================
// FLEET FILE NAMES
// =============================================================================

// FleetFileName returns the per-fleet output file name. Only spaces are
// substituted; every other character is kept.
func FleetFileName(fleet string) string {
	return strings.ReplaceAll(fleet, " ", "_") + FleetFileSuffix
}

// FileNameCollisionError reports distinct fleets mapping to one file name.
type FileNameCollisionError struct {
	FileName string

	// Fleets are the colliding fleet names, sorted.
	Fleets []string
}

func (e *FileNameCollisionError) Error() string {
	return fmt.Sprintf("fleets %q would all be written to %s", e.Fleets, e.FileName)
}

// UnsafeFileNameError reports a fleet whose file name would leave the
// output directory or nest inside it.
type UnsafeFileNameError struct {
	Fleet    string
	FileName string
}

func (e *UnsafeFileNameError) Error() string {
	return fmt.Sprintf("fleet %q gives file name %q, which is not a plain file name", e.Fleet, e.FileName)
}

// IsPlainFileName reports whether name is a single path element: no
// separator of either platform, and not "." or "..".
func IsPlainFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}

// CheckFleetFileNames validates the per-fleet file names as a whole.
//
// RETURNS:
//   - A *UnsafeFileNameError for the first fleet (in sorted order) whose
//     file name is not a plain file name.
//   - A *FileNameCollisionError for the first file name (in sorted order)
//     shared by two or more distinct fleets.
//   - nil otherwise.
func CheckFleetFileNames(fleets []string) error {
	sorted := append([]string(nil), fleets...)
	sort.Strings(sorted)
	for _, fleet := range sorted {
		if name := FleetFileName(fleet); !IsPlainFileName(name) {
			return &UnsafeFileNameError{Fleet: fleet, FileName: name}
		}
	}

	byName := make(map[string][]string)
	for _, fleet := range fleets {
		name := FleetFileName(fleet)
		if !lo.Contains(byName[name], fleet) {
			byName[name] = append(byName[name], fleet)
		}
	}

	names := lo.Keys(byName)
	sort.Strings(names)

	for _, name := range names {
		if owners := byName[name]; len(owners) > 1 {
			sort.Strings(owners)
			return &FileNameCollisionError{FileName: name, Fleets: owners}
		}
	}
	return nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	RunID          string
	StartTime      time.Time
	EndTime        time.Time
	InputFile      string
	RowsRead       int
	CompletedTrips int
	UnknownVehicle int
	DroppedRows    int
	Drivers        int
	Fleets         int
	Methods        []string
	OutputFiles    []string
	Warnings       []string
	ErrorMessage   string
}

// WriteSummaryLog writes a processing summary to a text file in outputDir.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	if err := EnsureDirectory(outputDir); err != nil {
		return "", err
	}

	shortID := summary.RunID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	fileName := fmt.Sprintf("processing_summary_%s_%s.txt", summary.StartTime.Format("20060102_150405"), shortID)
	summaryPath := filepath.Join(outputDir, fileName)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	status := "SUCCESS"
	if summary.ErrorMessage != "" {
		status = "FAILED"
	}

	fmt.Fprintf(writer, "Fleet Payment Summary - Processing Summary\n")
	fmt.Fprintf(writer, "================================================================================\n")
	fmt.Fprintf(writer, "Run ID:            %s\n", summary.RunID)
	fmt.Fprintf(writer, "Status:            %s\n", status)
	fmt.Fprintf(writer, "Started:           %s\n", summary.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(writer, "Finished:          %s\n", summary.EndTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(writer, "Duration:          %s\n", summary.EndTime.Sub(summary.StartTime))
	fmt.Fprintf(writer, "Input file:        %s\n", summary.InputFile)
	fmt.Fprintf(writer, "Rows read:         %d\n", summary.RowsRead)
	fmt.Fprintf(writer, "Completed trips:   %d\n", summary.CompletedTrips)
	fmt.Fprintf(writer, "No Contract trips: %d\n", summary.UnknownVehicle)
	fmt.Fprintf(writer, "Rows without key:  %d\n", summary.DroppedRows)
	fmt.Fprintf(writer, "Drivers:           %d\n", summary.Drivers)
	fmt.Fprintf(writer, "Fleets:            %d\n", summary.Fleets)
	fmt.Fprintf(writer, "Payment methods:   %s\n", strings.Join(quoteAll(summary.Methods), ", "))

	if summary.ErrorMessage != "" {
		fmt.Fprintf(writer, "\nError:\n  %s\n", summary.ErrorMessage)
	}

	if len(summary.OutputFiles) > 0 {
		fmt.Fprintf(writer, "\nOutput files:\n")
		for _, f := range summary.OutputFiles {
			fmt.Fprintf(writer, "  %s\n", f)
		}
	}

	if len(summary.Warnings) > 0 {
		fmt.Fprintf(writer, "\nWarnings:\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(writer, "  %s\n", w)
		}
	}

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary log: %w", err)
	}

	return summaryPath, nil
}

func quoteAll(values []string) []string {
	return lo.Map(values, func(v string, _ int) string {
		return fmt.Sprintf("%q", v)
	})
}
