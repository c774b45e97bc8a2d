package main

import (
	"github.com/spf13/cobra"

	"bennypowers.dev/cajoler/internal/log"
	"bennypowers.dev/cajoler/lsp"
)

func lspCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Run the language server on stdio",
		Long: `Run the language server on stdio.

Open HTML, CSS and JavaScript documents are cajoled as they change and the
problems found are published as diagnostics. A ` + "`.cajoler.jsonc`" + ` file in the
workspace, or the client's "cajoler" settings, replace the configuration
given by flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd, inputDir(nil))
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("log-level") {
				// stdout carries the protocol; logs go to stderr
				cfg.LogLevel = "info"
			}

			server, err := lsp.NewServer(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := server.Close(); err != nil {
					log.Error("Failed to close server: %v", err)
				}
			}()
			return server.RunStdio()
		},
	}
}
