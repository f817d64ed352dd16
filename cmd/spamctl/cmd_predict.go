package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spam-detector/webui/internal/client"
	"github.com/spam-detector/webui/internal/export"
	"github.com/spam-detector/webui/internal/models"
)

type predictOptions struct {
	file    string
	subject string
	copy    bool
}

func newPredictCmd(opts *globalOptions) *cobra.Command {
	popts := &predictOptions{}

	cmd := &cobra.Command{
		Use:   "predict [text]",
		Short: "Classify one text as spam or ham",
		Long: `Classify one text as spam or ham.

The text is taken from the arguments, or from --file ("-" reads stdin).

Examples:
  spamctl predict "WIN a FREE cruise, reply now"
  spamctl predict --file message.eml --copy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, opts, popts, args)
		},
	}
	cmd.Flags().StringVarP(&popts.file, "file", "f", "", "read the text from a file")
	cmd.Flags().StringVar(&popts.subject, "subject", "", "optional subject line")
	cmd.Flags().BoolVar(&popts.copy, "copy", false, "copy the result JSON to the clipboard")
	return cmd
}

func runPredict(cmd *cobra.Command, opts *globalOptions, popts *predictOptions, args []string) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}

	text, err := readText(cmd, popts.file, args)
	if err != nil {
		return err
	}

	maxLen := cfg.Limits.MaxTextLength
	if !models.CanSubmitText(text, maxLen, false) {
		if strings.TrimSpace(text) == "" {
			return errors.New("text must not be empty")
		}
		return fmt.Errorf("text exceeds %d characters", maxLen)
	}

	var subject *string
	if strings.TrimSpace(popts.subject) != "" {
		subject = &popts.subject
	}

	pred, err := newClient(cfg).PredictSpam(cmd.Context(), subject, text)
	if err != nil {
		return fmt.Errorf("prediction failed: %s", client.ErrorMessage(err))
	}

	doc, err := pred.PrettyJSON()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, summaryLine(pred))
	fmt.Fprintln(out, doc)

	if popts.copy {
		if err := copyToClipboard(doc); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintln(out, mutedStyle.Render("Copied result JSON to clipboard."))
	}
	return nil
}

func readText(cmd *cobra.Command, file string, args []string) (string, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	default:
		return strings.Join(args, " "), nil
	}
}

func summaryLine(pred *models.Prediction) string {
	label := pred.Label
	if label == "" {
		label = "—"
	}

	probability := "—"
	if pred.Probability != nil {
		probability = models.FormatPercent(*pred.Probability)
	}
	elapsed := ""
	if pred.ElapsedMs != nil {
		elapsed = export.FormatNumber(*pred.ElapsedMs)
	}

	return fmt.Sprintf("%s  %s",
		labelStyle(pred.Label).Render(label),
		mutedStyle.Render(fmt.Sprintf("Probability %s · %s ms · ReqID: %s", probability, elapsed, pred.RequestID)))
}
