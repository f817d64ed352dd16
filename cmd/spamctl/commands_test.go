package main

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spam-detector/webui/internal/client"
	"github.com/spam-detector/webui/internal/parser"
	"github.com/spam-detector/webui/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestHealthCommand(t *testing.T) {
	api := testutil.NewFakeAPI(t)

	out, err := execute(t, "health", "--api-url", api.URL())
	require.NoError(t, err)
	assert.Contains(t, out, `"model_loaded": true`)

	api.Respond(client.PathHealth, http.StatusServiceUnavailable, `{"detail":"warming up"}`)
	_, err = execute(t, "health", "--api-url", api.URL())
	assert.EqualError(t, err, "health check failed: warming up")
}

func TestVersionCommand(t *testing.T) {
	api := testutil.NewFakeAPI(t)

	out, err := execute(t, "version", "--api-url", api.URL())
	require.NoError(t, err)
	assert.Contains(t, out, `"version": "test"`)
}

func TestPredictCommand(t *testing.T) {
	api := testutil.NewFakeAPI(t)

	out, err := execute(t, "predict", "--api-url", api.URL(), "win", "now")
	require.NoError(t, err)
	assert.Contains(t, out, "spam")
	assert.Contains(t, out, "Probability 50.0% · 3 ms · ReqID: req-1")
	assert.Contains(t, out, `"input": "win now"`)

	sent := api.Requests(client.PathPredictSpam)
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"subject":null,"text":"win now"}`, string(sent[0].Body))
}

func TestPredictCommand_FileAndSubject(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	path := writeFile(t, "message.eml", "From: a@b.c\n\nhello")

	_, err := execute(t, "predict", "--api-url", api.URL(), "--file", path, "--subject", "Hi")
	require.NoError(t, err)

	sent := api.Requests(client.PathPredictSpam)
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"subject":"Hi","text":"From: a@b.c\n\nhello"}`, string(sent[0].Body))
}

func TestPredictCommand_Copy(t *testing.T) {
	api := testutil.NewFakeAPI(t)

	var copied string
	orig := copyToClipboard
	copyToClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { copyToClipboard = orig })

	out, err := execute(t, "predict", "--api-url", api.URL(), "--copy", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "Copied result JSON to clipboard.")
	assert.Contains(t, copied, `"request_id": "req-1"`)
	assert.Contains(t, out, copied)
}

func TestPredictCommand_Rejected(t *testing.T) {
	api := testutil.NewFakeAPI(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "empty", args: []string{"   "}, wantErr: "text must not be empty"},
		{name: "no args", args: nil, wantErr: "text must not be empty"},
		{name: "too long", args: []string{strings.Repeat("a", 5001)}, wantErr: "text exceeds 5000 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"predict", "--api-url", api.URL()}, tt.args...)
			_, err := execute(t, args...)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, api.Requests(client.PathPredictSpam))
}

func TestPredictCommand_APIError(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.Respond(client.PathPredictSpam, http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`)

	_, err := execute(t, "predict", "--api-url", api.URL(), "hello")
	assert.EqualError(t, err, `prediction failed: [{"msg":"field required"}]`)
}

func TestBatchCommand_DryRun(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	path := writeFile(t, "messages.csv", "subject,text\nhi,hello\nyo,\nhey,world\n")

	out, err := execute(t, "batch", "--api-url", api.URL(), "--dry-run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "messages.csv: Ready to Submit: 2 rows")
	assert.Contains(t, out, "3 parsed")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "Missing text")
	assert.Empty(t, api.Requests(client.PathPredictBatch))
}

func TestBatchCommand_SubmitAndExport(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	path := writeFile(t, "messages.csv", "text\nhello\n")
	outPath := filepath.Join(t.TempDir(), "results.csv")

	out, err := execute(t, "batch", "--api-url", api.URL(), "--out", outPath, path)
	require.NoError(t, err)
	assert.Contains(t, out, "Results (1)")
	assert.Contains(t, out, "Wrote 1 results to "+outPath)

	sent := api.Requests(client.PathPredictBatch)
	require.Len(t, sent, 1)
	assert.Contains(t, string(sent[0].Body), "text\nhello\n")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "Row,Text,Label,Probability,Elapsed_ms,Error\n1,\"hello\",ham,0.1,2,", string(data))
}

func TestBatchCommand_ExportXLSX(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	path := writeFile(t, "messages.csv", "text\nhello\n")
	outPath := filepath.Join(t.TempDir(), "results.xlsx")

	_, err := execute(t, "batch", "--api-url", api.URL(), "--out", outPath, path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(outPath)
	require.NoError(t, err)
	defer f.Close()
	value, err := f.GetCellValue("Results", "B2")
	require.NoError(t, err)
	assert.Equal(t, "hello", value)
}

func TestBatchCommand_Rejected(t *testing.T) {
	api := testutil.NewFakeAPI(t)

	tests := []struct {
		name    string
		file    string
		content string
		extra   []string
		wantErr string
	}{
		{name: "missing text column", file: "m.csv", content: "subject\nhi\n", wantErr: parser.MsgMissingTextColumn},
		{name: "not csv", file: "m.txt", content: "text\nhi\n", wantErr: parser.MsgNotCSV},
		{name: "nothing ready", file: "m.csv", content: "text,id\n,1\n", wantErr: errNothingReady.Error()},
		{name: "bad output format", file: "m.csv", content: "text\nhi\n", extra: []string{"--out", "r.json"}, wantErr: `unsupported output format ".json": use .csv or .xlsx`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			args := append([]string{"batch", "--api-url", api.URL()}, tt.extra...)
			_, err := execute(t, append(args, path)...)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, api.Requests(client.PathPredictBatch))
}

func TestBatchCommand_APIError(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.Respond(client.PathPredictBatch, http.StatusInternalServerError, "")
	path := writeFile(t, "messages.csv", "text\nhello\n")

	_, err := execute(t, "batch", "--api-url", api.URL(), path)
	assert.EqualError(t, err, "batch prediction failed: Request failed with status code 500")
}

func TestConfigFlag(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("REACT_APP_API_BASE_URL", "")
	api := testutil.NewFakeAPI(t)
	cfgPath := writeFile(t, "spamctl.yaml", "api:\n  base_url: "+api.URL()+"\n")

	out, err := execute(t, "health", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "model_loaded")
}
