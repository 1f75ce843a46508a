// =============================================================================
// Fleet Payment Summary - CSV Parser Module
// =============================================================================
//
// This module loads the trip export into an in-memory table keyed by column
// name. It handles:
//   - Configurable single-character delimiters
//   - Quoted fields (commas and quotes inside fleet or driver names)
//   - Missing-value markers (NA, N/A, empty cells, ...) read as absent
//   - Blank lines
//
// VALUES ARE KEPT VERBATIM:
//   Cells are not trimmed. The payment-method column relies on this: the list
//   "cash, app" yields the tokens "cash" and " app", which are different
//   methods from "cash" and "app".
//
// ABSENT VALUES:
//   A cell equal to one of the configured NA markers is stored as "". Every
//   downstream step treats "" as absent.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/fleet-payment-summary/internal/config"
)

// byteOrderMark is stripped from the first header cell.
const byteOrderMark = "\ufeff"

var (
	// ErrEmptyFile is returned when the file has no header row.
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrNotCSV is returned when the file name does not end in .csv.
	ErrNotCSV = errors.New("not a .csv file")
)

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents the parsed CSV file.
type CSVData struct {
	// Headers contains the column headers in file order.
	Headers []string

	// Rows contains the data rows as maps of header -> value.
	Rows []map[string]string

	// RowNumbers holds, for each entry of Rows, its 1-based record number in
	// the file (the header is record 1). Kept in step with Rows by every
	// operation that filters rows.
	RowNumbers []int

	// SourceFile is the path to the source CSV file.
	SourceFile string
}

// RowCount returns the number of data rows.
func (d *CSVData) RowCount() int {
	return len(d.Rows)
}

// HasColumn reports whether header is one of the table's columns.
func (d *CSVData) HasColumn(header string) bool {
	for _, h := range d.Headers {
		if h == header {
			return true
		}
	}
	return false
}

// MissingColumns returns the entries of required that are not columns of the
// table, in the order given.
func (d *CSVData) MissingColumns(required []string) []string {
	var missing []string
	for _, r := range required {
		if !d.HasColumn(r) {
			missing = append(missing, r)
		}
	}
	return missing
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns the parsed data.
//
// PARAMETERS:
//   - filePath: The path to the CSV file. Must have a .csv extension.
//   - settings: Delimiter and NA markers.
//
// RETURNS:
//   - A pointer to the CSVData struct containing the parsed data.
//   - An error if the file cannot be read or parsed.
func Parse(filePath string, settings config.CSVSettings) (*CSVData, error) {
	if !strings.EqualFold(filepath.Ext(filePath), ".csv") {
		return nil, fmt.Errorf("%w: %s", ErrNotCSV, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := ParseReader(bufio.NewReader(file), settings)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath

	return data, nil
}

// ParseReader reads CSV content from r.
func ParseReader(r io.Reader, settings config.CSVSettings) (*CSVData, error) {
	csvReader := csv.NewReader(r)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) == 0 {
		return nil, ErrEmptyFile
	}

	headers := cleanHeaders(allRows[0])

	dataRows, rowNumbers, err := extractDataRows(allRows[1:], headers, naSet(settings.NAValues))
	if err != nil {
		return nil, fmt.Errorf("failed to extract data rows: %w", err)
	}

	return &CSVData{
		Headers:    headers,
		Rows:       dataRows,
		RowNumbers: rowNumbers,
	}, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	reader.Comma = settings.Comma()

	// Short rows are padded; long rows are rejected in extractDataRows with
	// the offending record number.
	reader.FieldsPerRecord = -1

	// Hand-edited exports sometimes carry stray quotes.
	reader.LazyQuotes = true

	reader.TrimLeadingSpace = false
}

// cleanHeaders normalizes header values.
//
// CLEANING OPERATIONS:
//   - Strip a UTF-8 byte order mark from the first header
//   - Name empty headers "Unnamed: <index>" (0-based)
//   - Suffix repeated headers with ".1", ".2", ...
//
// Headers are otherwise kept verbatim; column lookups are exact.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	seen := make(map[string]int, len(headers))

	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, byteOrderMark)
		}

		if header == "" {
			header = fmt.Sprintf("Unnamed: %d", i)
		}

		if n, ok := seen[header]; ok {
			base := header
			for {
				n++
				header = fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[header]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[header] = 0

		cleaned[i] = header
	}

	return cleaned
}

// extractDataRows converts data records to maps.
//
// RETURNS:
//   - One map per non-blank record, header -> value, NA markers replaced by "".
//   - The 1-based record number of each map.
//   - An error if a record has more fields than there are headers.
func extractDataRows(records [][]string, headers []string, na map[string]struct{}) ([]map[string]string, []int, error) {
	dataRows := make([]map[string]string, 0, len(records))
	rowNumbers := make([]int, 0, len(records))

	for i, record := range records {
		// Record 1 is the header.
		recordNumber := i + 2

		if isRowEmpty(record) {
			continue
		}

		if len(record) > len(headers) {
			return nil, nil, fmt.Errorf("record %d: expected %d fields, saw %d", recordNumber, len(headers), len(record))
		}

		row := make(map[string]string, len(headers))
		for col, header := range headers {
			value := ""
			if col < len(record) {
				value = record[col]
			}
			if _, isNA := na[value]; isNA {
				value = ""
			}
			row[header] = value
		}

		dataRows = append(dataRows, row)
		rowNumbers = append(rowNumbers, recordNumber)
	}

	return dataRows, rowNumbers, nil
}

// isRowEmpty checks if a record is a blank line.
func isRowEmpty(row []string) bool {
	return len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "")
}

func naSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// GetUniqueValues returns the distinct values of a column in first-seen order.
func GetUniqueValues(data *CSVData, header string) []string {
	seen := make(map[string]bool)
	var unique []string

	for _, row := range data.Rows {
		value := row[header]
		if !seen[value] {
			seen[value] = true
			unique = append(unique, value)
		}
	}

	return unique
}

// FilterRows returns a new table holding the rows for which keep returns true.
// Headers are shared with the source; row maps are not copied.
func FilterRows(data *CSVData, keep func(row map[string]string) bool) *CSVData {
	out := &CSVData{
		Headers:    data.Headers,
		SourceFile: data.SourceFile,
	}

	for i, row := range data.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
			out.RowNumbers = append(out.RowNumbers, data.RowNumbers[i])
		}
	}

	return out
}
