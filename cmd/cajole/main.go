// Command cajole rewrites gadget markup, stylesheets and scripts so they can
// run inside a container page, and serves the same checks to editors.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bennypowers.dev/cajoler/internal/log"
	"bennypowers.dev/cajoler/internal/version"
)

func main() {
	err := newRootCmd().Execute()
	if errors.Is(err, errProblems) {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "cajole",
		Short: "Cajole gadget HTML, CSS and JavaScript",
		Long: `Cajole rewrites untrusted gadget documents into a safe subset.

Commands:
  html      Cajole a gadget document
  css       Cajole a stylesheet
  js        Fold a script
  check     Report problems in any number of files
  lsp       Run the language server on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := log.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			log.SetOutput(cmd.ErrOrStderr())
			log.SetLevel(level)
			return nil
		},
	}

	opts.register(rootCmd)

	rootCmd.AddCommand(
		cajoleCmd("html", "Cajole a gadget document", &opts),
		cajoleCmd("css", "Cajole a stylesheet", &opts),
		cajoleCmd("js", "Fold constant expressions in a script", &opts),
		checkCmd(&opts),
		lspCmd(&opts),
		versionCmd(),
	)
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cajole %s\n", version.Get().Full())
		},
	}
}
