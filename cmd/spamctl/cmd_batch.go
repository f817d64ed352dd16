package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/spam-detector/webui/internal/client"
	"github.com/spam-detector/webui/internal/export"
	"github.com/spam-detector/webui/internal/models"
	"github.com/spam-detector/webui/internal/parser"
)

// cellWidth truncates long text cells in terminal tables.
const cellWidth = 60

var errNothingReady = errors.New("no rows are ready to submit")

type batchOptions struct {
	out    string
	dryRun bool
}

func newBatchCmd(opts *globalOptions) *cobra.Command {
	bopts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch <file.csv>",
		Short: "Validate a CSV locally, submit it and export the results",
		Long: `Validate a CSV locally, submit it and export the results.

The file needs a "text" column. It is checked and previewed locally, then
sent unchanged to the batch endpoint.

Examples:
  spamctl batch messages.csv --dry-run
  spamctl batch messages.csv --out results.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, bopts, args[0])
		},
	}
	cmd.Flags().StringVarP(&bopts.out, "out", "o", "", "write results to a .csv or .xlsx file")
	cmd.Flags().BoolVar(&bopts.dryRun, "dry-run", false, "validate and preview only")
	return cmd
}

func runBatch(cmd *cobra.Command, opts *globalOptions, bopts *batchOptions, path string) error {
	if bopts.out != "" {
		if _, err := exportFormat(bopts.out); err != nil {
			return err
		}
	}

	cfg, err := opts.load()
	if err != nil {
		return err
	}
	limits := limitsFrom(cfg)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	parsed, err := parser.ParseCSV(name, f, limits)
	if err != nil {
		return err
	}

	state := parser.Summarize(name, parsed, limits)
	out := cmd.OutOrStdout()
	printPreview(out, state)

	if bopts.dryRun {
		return nil
	}
	if !state.CanSubmit(false) {
		return errNothingReady
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind %s: %w", path, err)
	}

	resp, err := newClient(cfg).PredictBatchFile(cmd.Context(), name, f)
	if err != nil {
		return fmt.Errorf("batch prediction failed: %s", client.ErrorMessage(err))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Results (%d)", len(resp.Results))))
	fmt.Fprintln(out, resultsTable(resp.Results))

	if bopts.out != "" {
		if err := writeResults(bopts.out, resp.Results); err != nil {
			return err
		}
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("Wrote %d results to %s", len(resp.Results), bopts.out)))
	}
	return nil
}

func printPreview(out io.Writer, state *models.UploadState) {
	summary := fmt.Sprintf("%s: Ready to Submit: %d rows", state.FileName, state.ReadyCount)
	fmt.Fprintln(out, titleStyle.Render(summary))

	detail := fmt.Sprintf("%d parsed", state.TotalRows)
	if state.TotalRows > len(state.PreviewRows) {
		detail += fmt.Sprintf(", showing first %d", len(state.PreviewRows))
	}
	fmt.Fprintln(out, mutedStyle.Render(detail))

	headers := append([]string{"#"}, state.Headers...)
	headers = append(headers, "Status")

	rows := make([][]string, 0, len(state.PreviewRows))
	for _, pr := range state.PreviewRows {
		row := []string{strconv.Itoa(pr.Number)}
		for _, h := range state.Headers {
			row = append(row, truncate(pr.Values[h]))
		}
		status := "ok"
		if !pr.Outcome.Valid() {
			status = string(pr.Outcome)
		}
		rows = append(rows, append(row, status))
	}

	t := newTable(headers, rows, func(row int) bool {
		return row >= 0 && row < len(state.PreviewRows) && !state.PreviewRows[row].Outcome.Valid()
	})
	fmt.Fprintln(out, t)
}

func resultsTable(results []models.PredictionResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			strconv.Itoa(r.Row),
			truncate(r.Text),
			deref(r.Label),
			number(r.Probability),
			number(r.ElapsedMs),
			deref(r.Error),
		})
	}
	return newTable(
		[]string{"Row#", "Text", "Label", "Probability", "Elapsed (ms)", "Error"},
		rows,
		func(row int) bool { return row >= 0 && row < len(results) && results[row].Error != nil },
	)
}

func newTable(headers []string, rows [][]string, invalid func(row int) bool) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case invalid(row):
				return badRowStyle
			default:
				return cellStyle
			}
		}).
		String()
}

func exportFormat(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".xlsx":
		return ext, nil
	default:
		return "", fmt.Errorf("unsupported output format %q: use .csv or .xlsx", ext)
	}
}

func writeResults(path string, results []models.PredictionResult) error {
	format, err := exportFormat(path)
	if err != nil {
		return err
	}

	var data []byte
	if format == ".xlsx" {
		data, err = export.ResultsXLSX(results)
		if err != nil {
			return err
		}
	} else {
		data = []byte(export.ResultsCSV(results))
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > cellWidth {
		return string(r[:cellWidth-1]) + "…"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func number(f *float64) string {
	if f == nil {
		return ""
	}
	return export.FormatNumber(*f)
}
