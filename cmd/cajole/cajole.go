package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bennypowers.dev/cajoler/internal/cajoler"
	"bennypowers.dev/cajoler/internal/config"
	"bennypowers.dev/cajoler/internal/message"
	"bennypowers.dev/cajoler/internal/parser"
	"bennypowers.dev/cajoler/internal/report"
)

const stdinName = "-"

// errProblems is returned when an input had errors. They have already been
// reported.
var errProblems = errors.New("cajoling reported errors")

func cajoleCmd(kind string, short string, opts *options) *cobra.Command {
	var modulePath string

	cmd := &cobra.Command{
		Use:   kind + " [file]",
		Short: short,
		Long: short + `.

The rewritten document is written to stdout and problems to stderr. The
module the container runs alongside the document is appended to HTML output
in a script element unless --module names a file for it.

Examples:
  cajole ` + kind + ` gadget.` + kind + `
  cat gadget.` + kind + ` | cajole ` + kind + ` -
  cajole ` + kind + ` --id-class g1 --base-uri https://example.com/ gadget.` + kind,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := stdinName
			if len(args) == 1 {
				name = args[0]
			}
			return runCajole(cmd, opts, parser.ParseKind(kind), name, modulePath)
		},
	}

	if kind != "js" {
		cmd.Flags().StringVarP(&modulePath, "module", "m", "", "write the module script to this file")
	}
	return cmd
}

func runCajole(cmd *cobra.Command, opts *options, kind parser.Kind, name, modulePath string) error {
	cfg, err := opts.resolve(cmd, inputDir([]string{name}))
	if err != nil {
		return err
	}
	src, err := readInput(cmd, name)
	if err != nil {
		return err
	}

	var res *cajoler.Result
	err = withCajoler(cmd, opts, cfg, func(c *cajoler.Cajoler) error {
		res = cajole(c, kind, src, displayName(name))
		return nil
	})
	if err != nil {
		return err
	}

	if err := writeResult(cmd.OutOrStdout(), kind, res, modulePath); err != nil {
		return err
	}
	return reportResults(cmd.ErrOrStderr(), []*cajoler.Result{res}, map[string]string{res.Source: src})
}

func checkCmd(opts *options) *cobra.Command {
	var kindName string

	cmd := &cobra.Command{
		Use:   "check file...",
		Short: "Report problems without writing output",
		Long: `Report problems in each file without writing output.

The kind of each file follows from its extension unless --kind is given.

Examples:
  cajole check gadget.html style.css app.js
  cajole check --kind html template.tpl`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			forced := parser.Unsupported
			if kindName != "" {
				forced = parser.ParseKind(kindName)
				if forced == parser.Unsupported {
					return fmt.Errorf("unknown kind %q: expected html, css or js", kindName)
				}
			}
			return runCheck(cmd, opts, forced, args)
		},
	}

	cmd.Flags().StringVarP(&kindName, "kind", "k", "", "treat every file as html, css or js")
	return cmd
}

func runCheck(cmd *cobra.Command, opts *options, forced parser.Kind, files []string) error {
	cfg, err := opts.resolve(cmd, inputDir(files))
	if err != nil {
		return err
	}

	results := make([]*cajoler.Result, 0, len(files))
	sources := make(map[string]string, len(files))
	err = withCajoler(cmd, opts, cfg, func(c *cajoler.Cajoler) error {
		for _, name := range files {
			kind := forced
			if kind == parser.Unsupported {
				kind = parser.KindForPath(name)
			}
			if kind == parser.Unsupported {
				return fmt.Errorf("%s: cannot tell whether this is html, css or js; use --kind", name)
			}
			src, err := readInput(cmd, name)
			if err != nil {
				return err
			}
			res := cajole(c, kind, src, displayName(name))
			results = append(results, res)
			sources[res.Source] = src
		}
		return nil
	})
	if err != nil {
		return err
	}
	return reportResults(cmd.ErrOrStderr(), results, sources)
}

func cajole(c *cajoler.Cajoler, kind parser.Kind, src, name string) *cajoler.Result {
	switch kind {
	case parser.HTML:
		return c.CajoleHTML(src, name)
	case parser.CSS:
		return c.CajoleCSS(src, name)
	default:
		return c.CajoleJS(src, name)
	}
}

// withCajoler builds a cajoler for cfg, runs fn and releases the parsers.
func withCajoler(cmd *cobra.Command, opts *options, cfg config.Config, fn func(*cajoler.Cajoler) error) error {
	defer parser.ClosePools()

	var cajolerOpts []cajoler.Option
	var stats *cacheStats
	if opts.stats {
		var err error
		stats, err = newCacheStats(cfg)
		if err != nil {
			return err
		}
		defer stats.Close()
		cajolerOpts = append(cajolerOpts, cajoler.WithQuasiBuilder(stats.builder))
	}

	c, err := cajoler.New(cfg, cajolerOpts...)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	if stats != nil {
		return stats.Write(cmd.Context(), cmd.ErrOrStderr())
	}
	return nil
}

func writeResult(w io.Writer, kind parser.Kind, res *cajoler.Result, modulePath string) error {
	script := res.Script()
	output := res.Output
	switch {
	case kind == parser.CSS && output == "":
		// The stylesheet only exists as code when the id class is dynamic
		output, script = script, ""
	case kind == parser.CSS && modulePath == "":
		// A static stylesheet is complete; its emitCss call is only for modules
		script = ""
	}
	if kind == parser.JS {
		script = ""
	}

	if modulePath != "" && script != "" {
		if err := os.WriteFile(modulePath, []byte(script), 0o644); err != nil { //nolint:gosec // G306: generated code is not secret
			return err
		}
		script = ""
	}

	if _, err := io.WriteString(w, output); err != nil {
		return err
	}
	if script != "" {
		if kind == parser.HTML {
			_, err := fmt.Fprintf(w, "<script type=\"text/javascript\">\n%s\n</script>\n", script)
			return err
		}
		_, err := fmt.Fprintf(w, "\n%s\n", script)
		return err
	}
	return nil
}

func reportResults(w io.Writer, results []*cajoler.Result, sources map[string]string) error {
	var all []message.Message
	failed := false
	for _, res := range results {
		all = append(all, res.Messages...)
		failed = failed || res.HasErrors()
	}
	if err := report.Format(w, all, sources); err != nil {
		return err
	}
	if len(all) > 0 {
		fmt.Fprintln(w, report.Summary(all))
	}
	if failed {
		return errProblems
	}
	return nil
}

func displayName(name string) string {
	if name == stdinName {
		return "<stdin>"
	}
	return name
}
