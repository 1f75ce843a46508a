// =============================================================================
// Fleet Payment Summary - Validation Engine
// =============================================================================
//
// This module checks an enriched trip table before any output is written:
//   - Required columns are present (fatal, reported all at once)
//   - Cash values parse under the cash conversion rule (fatal)
//   - Cash values are not negative (warning)
//   - Completed trips carry a fleet and driver name (warning; such rows have
//     no summary key and are left out of every group)
//
// ERROR HANDLING:
//   - Errors are collected, not returned on the first failure
//   - Each error includes the record number, column and value
//   - Warnings are logged; errors stop the run before files are written
//
// =============================================================================

package validation

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ginjaninja78/fleet-payment-summary/internal/aggregate"
	"github.com/ginjaninja78/fleet-payment-summary/internal/csvparser"
	"github.com/ginjaninja78/fleet-payment-summary/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityError (fatal) or SeverityWarning.
	Severity string

	// Field is the column that failed validation.
	Field string

	// Value is the offending cell value.
	Value string

	// Rule names the check, e.g. "numeric", "non_negative".
	Rule string

	// Message is a human-readable error message.
	Message string

	// RowNumber is the record number in the source CSV (header is 1).
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] Row %d, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.RowNumber,
		e.Field,
		e.Message,
		e.Value,
	)
}

// MissingColumnsError lists required columns absent from the export header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Columns, ", "))
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all findings, warnings included, in row order.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// RowsValidated is the number of rows checked.
	RowsValidated int
}

// Fatal returns only the findings with SeverityError.
func (r *ValidationResult) Fatal() []*ValidationError {
	var fatal []*ValidationError
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			fatal = append(fatal, e)
		}
	}
	return fatal
}

func (r *ValidationResult) add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
	} else {
		r.WarningCount++
	}
}

// =============================================================================
// VALIDATION FUNCTIONS
// =============================================================================

// RequireColumns returns a *MissingColumnsError naming every column of
// required that the table lacks, or nil.
func RequireColumns(data *csvparser.CSVData, required []string) error {
	if missing := data.MissingColumns(required); len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// ValidateTrips checks the rows of a filtered, enriched trip table.
//
// PARAMETERS:
//   - data: Completed trips, with the Contract column appended.
//
// RETURNS:
//   - A ValidationResult. IsValid is false if any cash value is unparseable.
func ValidateTrips(data *csvparser.CSVData) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	for i, row := range data.Rows {
		rowNumber := data.RowNumbers[i]
		result.RowsValidated++

		raw := row[types.ColCash]
		amount, err := aggregate.ParseCash(raw)
		if err != nil {
			result.add(&ValidationError{
				Severity:  SeverityError,
				Field:     types.ColCash,
				Value:     raw,
				Rule:      "numeric",
				Message:   "cash collected must be a number, '-' or empty",
				RowNumber: rowNumber,
			})
		} else if amount.Valid && amount.Value.IsNegative() {
			result.add(&ValidationError{
				Severity:  SeverityWarning,
				Field:     types.ColCash,
				Value:     raw,
				Rule:      "non_negative",
				Message:   "cash collected is negative",
				RowNumber: rowNumber,
			})
		}

		for _, col := range []string{types.ColFleet, types.ColDriver} {
			if row[col] == "" {
				result.add(&ValidationError{
					Severity:  SeverityWarning,
					Field:     col,
					Rule:      "required",
					Message:   "value is missing; trip is left out of the summary",
					RowNumber: rowNumber,
				})
			}
		}
	}

	return result
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// WriteErrorLog writes validation errors to a log file.
//
// PARAMETERS:
//   - errors: The validation errors to write.
//   - filePath: The path to the output file. Overwritten if it exists.
func WriteErrorLog(errors []*ValidationError, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Fleet Payment Summary - Validation Log\nGenerated: %s\n\n",
		time.Now().Format("2006-01-02 15:04:05"))
	writer.WriteString(FormatErrors(errors))

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush error log: %w", err)
	}
	return nil
}
