package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spam-detector/webui/internal/models"
)

// TextColumn is the mandatory column name, matched case-insensitively.
const TextColumn = "text"

// User-facing rejection messages.
const (
	MsgNotCSV            = "Please select a .csv file"
	MsgMissingTextColumn = "CSV must contain a 'text' column (or 'subject' + 'text')."
)

// Sentinel errors for rejected uploads. Use errors.Is against a *ParseError.
var (
	ErrNotCSV            = errors.New("file is not a csv")
	ErrMissingTextColumn = errors.New("csv has no text column")
	ErrTooManyRows       = errors.New("csv has too many rows")
	ErrMalformed         = errors.New("malformed csv")
)

// ParseError rejects an upload. Message is safe to show to the user.
type ParseError struct {
	Err     error
	Message string
}

func (e *ParseError) Error() string { return e.Message }

func (e *ParseError) Unwrap() error { return e.Err }

// Limits bound an upload and the text of each row.
type Limits struct {
	MaxRows       int
	MaxTextLength int
	PreviewRows   int
}

// DefaultLimits returns the standard upload bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxRows:       models.DefaultMaxRows,
		MaxTextLength: models.DefaultMaxTextLength,
		PreviewRows:   models.DefaultPreviewRows,
	}
}

// IsCSVName reports whether fileName carries a .csv extension, ignoring case.
func IsCSVName(fileName string) bool {
	return strings.EqualFold(filepath.Ext(fileName), ".csv")
}

// ParseCSV reads delimited text with a header row into ordered rows.
// Blank and whitespace-only lines are skipped. The upload is rejected when the
// name is not .csv, no header matches "text", or there are more than MaxRows rows.
func ParseCSV(fileName string, r io.Reader, limits Limits) (*models.ParsedCSV, error) {
	if !IsCSVName(fileName) {
		return nil, &ParseError{Err: ErrNotCSV, Message: MsgNotCSV}
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	parsed := &models.ParsedCSV{FileName: fileName, Rows: make([]models.Row, 0)}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{
				Err:     fmt.Errorf("%w: %v", ErrMalformed, err),
				Message: fmt.Sprintf("Failed to parse CSV: %v", err),
			}
		}
		if isBlankRecord(record) {
			continue
		}

		if parsed.Headers == nil {
			parsed.Headers = cleanHeaders(record)
			parsed.TextColumn = findTextColumn(parsed.Headers)
			if parsed.TextColumn == "" {
				return nil, missingTextColumn()
			}
			continue
		}

		if len(parsed.Rows) >= limits.MaxRows {
			return nil, &ParseError{
				Err:     ErrTooManyRows,
				Message: fmt.Sprintf("CSV cannot exceed %d rows.", limits.MaxRows),
			}
		}
		parsed.Rows = append(parsed.Rows, toRow(parsed.Headers, record))
	}

	if parsed.Headers == nil {
		return nil, missingTextColumn()
	}

	return parsed, nil
}

func missingTextColumn() *ParseError {
	return &ParseError{
		Err:     ErrMissingTextColumn,
		Message: MsgMissingTextColumn,
	}
}

// ValidateRow checks one row's text field. Empty text takes precedence over length.
func ValidateRow(row models.Row, textColumn string, maxLen int) models.ValidationOutcome {
	text := row[textColumn]
	if text == "" {
		return models.RowMissingText
	}
	if utf8.RuneCountInString(text) > maxLen {
		return models.RowTextTooLong(maxLen)
	}
	return models.RowValid
}

// CountReady counts valid rows over the whole parsed set.
func CountReady(parsed *models.ParsedCSV, maxLen int) int {
	ready := 0
	for _, row := range parsed.Rows {
		if ValidateRow(row, parsed.TextColumn, maxLen).Valid() {
			ready++
		}
	}
	return ready
}

// Preview returns up to n leading rows with their validation outcome.
func Preview(parsed *models.ParsedCSV, n, maxLen int) []models.PreviewRow {
	if n > len(parsed.Rows) {
		n = len(parsed.Rows)
	}
	preview := make([]models.PreviewRow, 0, n)
	for i, row := range parsed.Rows[:n] {
		preview = append(preview, models.PreviewRow{
			Number:  i + 1,
			Values:  row,
			Outcome: ValidateRow(row, parsed.TextColumn, maxLen),
		})
	}
	return preview
}

// Summarize builds the batch view state for an accepted upload. The preview is
// capped at PreviewRows while ReadyCount covers every parsed row.
func Summarize(fileID string, parsed *models.ParsedCSV, limits Limits) *models.UploadState {
	return &models.UploadState{
		FileID:      fileID,
		FileName:    parsed.FileName,
		Headers:     parsed.Headers,
		TextColumn:  parsed.TextColumn,
		PreviewRows: Preview(parsed, limits.PreviewRows, limits.MaxTextLength),
		TotalRows:   len(parsed.Rows),
		ReadyCount:  CountReady(parsed, limits.MaxTextLength),
		Results:     []models.PredictionResult{},
	}
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func cleanHeaders(record []string) []string {
	headers := make([]string, len(record))
	for i, h := range record {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		headers[i] = h
	}
	return headers
}

func findTextColumn(headers []string) string {
	for _, h := range headers {
		if strings.EqualFold(h, TextColumn) {
			return h
		}
	}
	return ""
}

func toRow(headers, record []string) models.Row {
	row := make(models.Row, len(headers))
	for i, h := range headers {
		if i >= len(record) {
			break
		}
		if _, dup := row[h]; dup {
			continue
		}
		row[h] = record[i]
	}
	return row
}
