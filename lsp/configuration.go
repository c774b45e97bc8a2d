package lsp

import (
	"bennypowers.dev/cajoler/internal/cajoler"
	"bennypowers.dev/cajoler/internal/config"
	"bennypowers.dev/cajoler/internal/log"
)

// GetConfig returns the current server configuration
func (s *Server) GetConfig() config.Config {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.config
}

// SetConfig validates cfg and rebuilds the cajoler from it. On error the
// previous configuration stays in effect.
func (s *Server) SetConfig(cfg config.Config) error {
	c, err := cajoler.New(cfg, cajoler.WithQuasiBuilder(s.quasi))
	if err != nil {
		return err
	}
	if cfg.LogLevel != "" {
		// Validated by cajoler.New
		level, _ := log.ParseLevel(cfg.LogLevel)
		log.SetLevel(level)
	}

	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config = cfg
	s.cajoler = c
	return nil
}

// LoadWorkspaceConfig applies the configuration file found from the
// workspace root. Without a root or a file the current configuration is
// kept.
func (s *Server) LoadWorkspaceConfig() error {
	root := s.RootPath()
	if root == "" {
		return nil
	}
	cfg, path, err := config.Discover(root)
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	if err := s.SetConfig(cfg); err != nil {
		return err
	}
	log.Info("Loaded configuration from %s", path)
	return nil
}
