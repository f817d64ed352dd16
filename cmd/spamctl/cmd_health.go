package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spam-detector/webui/internal/client"
)

func newHealthCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show the prediction API's /health response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printRaw(cmd, opts, "health check failed", (*client.Client).Health)
		},
	}
}

func newVersionCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the prediction API's /version response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printRaw(cmd, opts, "version check failed", (*client.Client).Version)
		},
	}
}

func printRaw(cmd *cobra.Command, opts *globalOptions, failure string, call func(*client.Client, context.Context) (json.RawMessage, error)) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}

	body, err := call(newClient(cfg), cmd.Context())
	if err != nil {
		return fmt.Errorf("%s: %s", failure, client.ErrorMessage(err))
	}

	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		out.Reset()
		out.Write(body)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.String())
	return nil
}
