// Package config holds the cajoler settings shared by the CLI and the
// language server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"bennypowers.dev/cajoler/internal/log"
	"bennypowers.dev/cajoler/internal/message"
	"bennypowers.dev/cajoler/internal/uripolicy"
)

// FileName is the configuration file looked up in a workspace.
const FileName = ".cajoler.jsonc"

// DefaultPatternCacheSize bounds the compiled pattern cache.
const DefaultPatternCacheSize = 256

// URIPolicyConfig configures the static URI policy.
type URIPolicyConfig struct {
	// Allow lists doublestar globs of URIs passed through unchanged
	Allow []string `json:"allow,omitempty"`

	// Rewrite is a proxy template for other URIs. {url}, {effect} and
	// {loader} are substituted. Without it other URIs are rejected.
	Rewrite string `json:"rewrite,omitempty"`
}

// Config is the cajoler configuration
type Config struct {
	// IDClass is the suffix given to gadget identifiers. When empty it is
	// looked up at runtime.
	IDClass string `json:"idClass,omitempty"`

	// BaseURI resolves relative URIs in the gadget
	BaseURI string `json:"baseUri,omitempty"`

	// URIPolicy rewrites URIs while cajoling. When nil, URIs are rewritten
	// at runtime by the container.
	URIPolicy *URIPolicyConfig `json:"uriPolicy,omitempty"`

	// Lenient reports constructs removed from stylesheets as warnings
	Lenient bool `json:"lenient,omitempty"`

	// PatternCacheSize bounds the number of compiled code patterns kept
	PatternCacheSize int `json:"patternCacheSize,omitempty"`

	// LogLevel is one of debug, info, warn or error
	LogLevel string `json:"logLevel,omitempty"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		PatternCacheSize: DefaultPatternCacheSize,
		LogLevel:         "info",
	}
}

// Parse reads a configuration document over the defaults. Comments and
// trailing commas are allowed.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-selected config file
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover looks for FileName in dir and its parents and loads the first
// one found. Without one it returns the defaults.
func Discover(dir string) (Config, string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return Config{}, "", err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			return cfg, path, err
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), "", nil
		}
		dir = parent
	}
}

// Validate checks values that cannot be checked by decoding alone.
func (c Config) Validate() error {
	if _, err := c.Base(); err != nil {
		return fmt.Errorf("baseUri: %w", err)
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("uriPolicy: %w", err)
	}
	if c.PatternCacheSize < 0 {
		return fmt.Errorf("patternCacheSize must not be negative, got %d", c.PatternCacheSize)
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

// Base returns the parsed base URI, or nil.
func (c Config) Base() (*url.URL, error) {
	return uripolicy.ParseBase(c.BaseURI)
}

// Policy returns the configured URI policy, or nil when URIs are left to
// the container.
func (c Config) Policy() (uripolicy.Policy, error) {
	if c.URIPolicy == nil {
		return nil, nil
	}
	p, err := uripolicy.NewGlobPolicy(c.URIPolicy.Allow, c.URIPolicy.Rewrite)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// InvalidNodeLevel is the level stylesheet problems are reported at.
func (c Config) InvalidNodeLevel() message.Level {
	if c.Lenient {
		return message.Warning
	}
	return message.Error
}

// CacheSize returns the pattern cache capacity, applying the default.
func (c Config) CacheSize() int {
	if c.PatternCacheSize == 0 {
		return DefaultPatternCacheSize
	}
	return c.PatternCacheSize
}
