package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spam-detector/webui/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/xuri/excelize/v2"
)

func strPtr(s string) *string   { return &s }
func numPtr(f float64) *float64 { return &f }

func TestResultsCSV_SingleRow(t *testing.T) {
	results := []models.PredictionResult{{
		Row:         1,
		Text:        "a,b",
		Label:       strPtr("spam"),
		Probability: numPtr(0.9),
		ElapsedMs:   numPtr(12),
	}}

	got := ResultsCSV(results)
	assert.Equal(t, "Row,Text,Label,Probability,Elapsed_ms,Error\n1,\"a,b\",spam,0.9,12,", got)
	assert.Len(t, strings.Split(got, "\n"), 2)
}

func TestResultsCSV_Variants(t *testing.T) {
	tests := []struct {
		name   string
		result models.PredictionResult
		want   string
	}{
		{
			name:   "all optional fields absent",
			result: models.PredictionResult{Row: 3, Text: "hello"},
			want:   `3,"hello",,,,`,
		},
		{
			name:   "error row",
			result: models.PredictionResult{Row: 2, Text: "x", Label: strPtr("error"), ElapsedMs: numPtr(1.25), Error: strPtr("Text exceeds 5000 characters")},
			want:   `2,"x",error,,1.25,Text exceeds 5000 characters`,
		},
		{
			name:   "embedded quote escaped as JSON",
			result: models.PredictionResult{Row: 4, Text: `say "hi"`, Label: strPtr("ham"), Probability: numPtr(0.1)},
			want:   `4,"say \"hi\"",ham,0.1,,`,
		},
		{
			name:   "html characters kept literal",
			result: models.PredictionResult{Row: 5, Text: "<b>&</b>"},
			want:   `5,"<b>&</b>",,,,`,
		},
		{
			name:   "line and paragraph separators kept literal",
			result: models.PredictionResult{Row: 6, Text: "a\u2028b\u2029c<&>"},
			want:   "6,\"a\u2028b\u2029c<&>\",,,,",
		},
		{
			name:   "escaped backslash before u2028 text",
			result: models.PredictionResult{Row: 7, Text: `x\u2028`},
			want:   `7,"x\\u2028",,,,`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := strings.Split(ResultsCSV([]models.PredictionResult{tt.result}), "\n")
			require.Len(t, lines, 2)
			assert.Equal(t, tt.want, lines[1])
		})
	}
}

func TestResultsCSV_Empty(t *testing.T) {
	assert.Equal(t, "Row,Text,Label,Probability,Elapsed_ms,Error", ResultsCSV(nil))
}

func TestFileName(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 678_000_000, time.UTC)
	assert.Equal(t, "results_2025-01-02T03-04-05-678Z.csv", FileName(now, "csv"))
	assert.Equal(t, "results_2025-01-02T03-04-05-678Z.xlsx", FileName(now, ".xlsx"))

	local := now.In(time.FixedZone("plus2", 2*60*60))
	assert.Equal(t, "results_2025-01-02T03-04-05-678Z.csv", FileName(local, "csv"))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0.9", FormatNumber(0.9))
	assert.Equal(t, "12", FormatNumber(12))
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "1e-07", FormatNumber(1e-7))
}

func TestResultsXLSX(t *testing.T) {
	results := []models.PredictionResult{
		{Row: 1, Text: "a,b", Label: strPtr("spam"), Probability: numPtr(0.9), ElapsedMs: numPtr(12)},
		{Row: 2, Text: "", Error: strPtr("Missing text")},
	}

	data, err := ResultsXLSX(results)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	require.GreaterOrEqual(t, len(rows[1]), 5)
	assert.Equal(t, []string{"1", "a,b", "spam", "0.9", "12"}, rows[1][:5])
	require.Len(t, rows[2], 6)
	assert.Equal(t, "Missing text", rows[2][5])
}

func TestResultsMsgpack(t *testing.T) {
	results := []models.PredictionResult{{Row: 7, Text: "hi", Label: strPtr("ham")}}

	data, err := ResultsMsgpack(results)
	require.NoError(t, err)

	var decoded struct {
		Results []models.PredictionResult `msgpack:"results"`
		Total   int                       `msgpack:"total"`
	}
	require.NoError(t, msgpack.Unmarshal(data, &decoded))
	assert.Equal(t, 1, decoded.Total)
	require.Len(t, decoded.Results, 1)
	assert.Equal(t, 7, decoded.Results[0].Row)
	assert.Equal(t, "ham", *decoded.Results[0].Label)
	assert.Nil(t, decoded.Results[0].Probability)
}
