// Package export serializes batch prediction results for download.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spam-detector/webui/internal/models"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/xuri/excelize/v2"
)

// Header is the column row shared by every export format.
var Header = []string{"Row", "Text", "Label", "Probability", "Elapsed_ms", "Error"}

// Content types for the export formats.
const (
	ContentTypeCSV     = "text/csv;charset=utf-8"
	ContentTypeXLSX    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeMsgpack = "application/msgpack"
)

const sheetName = "Results"

// ResultsCSV renders one line per result under Header. Only the text column is
// quoted, as a JSON string literal; absent optional fields are empty. Lines are
// joined with "\n" and there is no trailing newline.
func ResultsCSV(results []models.PredictionResult) string {
	lines := make([]string, 0, len(results)+1)
	lines = append(lines, strings.Join(Header, ","))
	for _, r := range results {
		lines = append(lines, strings.Join([]string{
			strconv.Itoa(r.Row),
			quoteText(r.Text),
			optString(r.Label),
			optNumber(r.Probability),
			optNumber(r.ElapsedMs),
			optString(r.Error),
		}, ","))
	}
	return strings.Join(lines, "\n")
}

// ResultsXLSX renders the same columns as ResultsCSV into a single-sheet workbook.
func ResultsXLSX(results []models.PredictionResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			r.Row,
			r.Text,
			optString(r.Label),
			cellNumber(r.Probability),
			cellNumber(r.ElapsedMs),
			optString(r.Error),
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r.Row, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ResultsMsgpack encodes results as a MessagePack envelope {"results": [...]}.
func ResultsMsgpack(results []models.PredictionResult) ([]byte, error) {
	data, err := msgpack.Marshal(map[string]interface{}{
		"results": results,
		"total":   len(results),
	})
	if err != nil {
		return nil, fmt.Errorf("encode msgpack: %w", err)
	}
	return data, nil
}

// FileName is the download name for an export taken at now, e.g.
// results_2025-01-02T03-04-05-678Z.csv.
func FileName(now time.Time, ext string) string {
	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return fmt.Sprintf("results_%s.%s", stamp, strings.TrimPrefix(ext, "."))
}

func quoteText(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return rawLineSeparators(strings.TrimSuffix(buf.String(), "\n"))
}

// rawLineSeparators undoes encoding/json's \u2028 and \u2029 escapes so the
// separators appear as literal characters. Escape pairs are consumed whole,
// so an escaped backslash followed by "u2028" is left alone.
func rawLineSeparators(s string) string {
	if !strings.Contains(s, `\u202`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch {
		case strings.HasPrefix(s[i:], `\u2028`):
			b.WriteRune('\u2028')
			i += 5
		case strings.HasPrefix(s[i:], `\u2029`):
			b.WriteRune('\u2029')
			i += 5
		default:
			b.WriteString(s[i : i+2])
			i++
		}
	}
	return b.String()
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optNumber(f *float64) string {
	if f == nil {
		return ""
	}
	return FormatNumber(*f)
}

func cellNumber(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}

// FormatNumber prints f in its shortest form: 0.9, 12, 1e-7.
func FormatNumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
