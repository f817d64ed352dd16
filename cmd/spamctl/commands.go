package main

import (
	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/spam-detector/webui/internal/client"
	"github.com/spam-detector/webui/internal/config"
	"github.com/spam-detector/webui/internal/parser"
)

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	apiURL     string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "spamctl",
		Short:         "Classify text and CSV files with the spam prediction API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "XML or YAML config file (defaults and environment otherwise)")
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "prediction API base URL, overrides the config")

	rootCmd.AddCommand(
		newHealthCmd(opts),
		newVersionCmd(opts),
		newPredictCmd(opts),
		newBatchCmd(opts),
	)
	return rootCmd
}

// load resolves the effective configuration for a command run.
func (o *globalOptions) load() (*config.AppConfig, error) {
	var cfg *config.AppConfig
	if o.configPath != "" {
		loaded, err := config.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.FromEnvironment()
	}

	if o.apiURL != "" {
		cfg.API.BaseURL = o.apiURL
	}
	return cfg, nil
}

func newClient(cfg *config.AppConfig) *client.Client {
	return client.New(cfg.API.BaseURL, cfg.APITimeout())
}

func limitsFrom(cfg *config.AppConfig) parser.Limits {
	return parser.Limits{
		MaxRows:       cfg.Limits.MaxRows,
		MaxTextLength: cfg.Limits.MaxTextLength,
		PreviewRows:   cfg.Limits.PreviewRows,
	}
}
