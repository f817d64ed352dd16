package models

import "fmt"

// Row is one record from an uploaded CSV, keyed by column header.
// Columns missing from a short record are absent from the map.
type Row map[string]string

// ParsedCSV is the outcome of parsing an upload with a header row.
type ParsedCSV struct {
	FileName   string   `json:"fileName"`
	Headers    []string `json:"headers"`
	TextColumn string   `json:"textColumn"` // header that matched "text" case-insensitively
	Rows       []Row    `json:"rows"`
}

// Text returns the row's text field, empty if absent.
func (p *ParsedCSV) Text(r Row) string {
	return r[p.TextColumn]
}

// ValidationOutcome is empty for a valid row, otherwise the reason it is invalid.
type ValidationOutcome string

// Validation reasons reported per row.
const (
	RowValid       ValidationOutcome = ""
	RowMissingText ValidationOutcome = "Missing text"
)

// RowTextTooLong is the reason given when text is longer than max characters.
func RowTextTooLong(max int) ValidationOutcome {
	return ValidationOutcome(fmt.Sprintf("Text exceeds %d characters", max))
}

// Valid reports whether the row passed validation.
func (v ValidationOutcome) Valid() bool {
	return v == RowValid
}
