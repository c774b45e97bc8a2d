package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bennypowers.dev/cajoler/internal/config"
	"bennypowers.dev/cajoler/internal/log"
)

// options are the flags shared by every command. Flags that were set
// override the configuration file.
type options struct {
	configPath string
	idClass    string
	baseURI    string
	allow      []string
	rewrite    string
	lenient    bool
	logLevel   string
	stats      bool
}

func (o *options) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "configuration file (default: "+config.FileName+" found from the input)")
	flags.StringVar(&o.idClass, "id-class", "", "suffix for gadget identifiers (default: looked up at runtime)")
	flags.StringVar(&o.baseURI, "base-uri", "", "absolute URI relative references resolve against")
	flags.StringSliceVar(&o.allow, "allow", nil, "glob of URIs passed through unchanged (repeatable)")
	flags.StringVar(&o.rewrite, "rewrite", "", "proxy template for other URIs, with {url}, {effect} and {loader}")
	flags.BoolVar(&o.lenient, "lenient", false, "report removed stylesheet constructs as warnings")
	flags.StringVar(&o.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.BoolVar(&o.stats, "stats", false, "print pattern cache metrics to stderr")
}

// resolve loads the configuration for inputs in dir and applies the flags
// that were set on cmd.
func (o *options) resolve(cmd *cobra.Command, dir string) (config.Config, error) {
	cfg, err := o.load(dir)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("id-class") {
		cfg.IDClass = o.idClass
	}
	if flags.Changed("base-uri") {
		cfg.BaseURI = o.baseURI
	}
	if flags.Changed("allow") || flags.Changed("rewrite") {
		if cfg.URIPolicy == nil {
			cfg.URIPolicy = &config.URIPolicyConfig{}
		}
		if flags.Changed("allow") {
			cfg.URIPolicy.Allow = o.allow
		}
		if flags.Changed("rewrite") {
			cfg.URIPolicy.Rewrite = o.rewrite
		}
	}
	if flags.Changed("lenient") {
		cfg.Lenient = o.lenient
	}
	// The CLI keeps its own log level; the file only applies to the server.
	cfg.LogLevel = o.logLevel

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (o *options) load(dir string) (config.Config, error) {
	if o.configPath != "" {
		return config.Load(o.configPath)
	}
	cfg, path, err := config.Discover(dir)
	if err != nil {
		return config.Config{}, err
	}
	if path != "" {
		log.Debug("Using configuration %s", path)
	}
	return cfg, nil
}

// inputDir is the directory configuration is discovered from.
func inputDir(args []string) string {
	if len(args) == 0 || args[0] == stdinName {
		wd, err := os.Getwd()
		if err != nil {
			return "."
		}
		return wd
	}
	return filepath.Dir(args[0])
}

func readInput(cmd *cobra.Command, name string) (string, error) {
	if name == stdinName {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name) //nolint:gosec // G304: user-selected input file
	if err != nil {
		return "", err
	}
	return string(data), nil
}
