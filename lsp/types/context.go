package types

import (
	"bennypowers.dev/cajoler/internal/cajoler"
	"bennypowers.dev/cajoler/internal/config"
	"bennypowers.dev/cajoler/internal/documents"
	"github.com/tliron/glsp"
)

// ServerContext provides all dependencies needed for LSP handlers.
// Handlers only see this interface so they can be tested against a mock.
type ServerContext interface {
	// Document operations
	Document(uri string) *documents.Document
	DocumentManager() *documents.Manager
	AllDocuments() []*documents.Document

	// Cajoler built from the current configuration
	Cajoler() *cajoler.Cajoler

	// Workspace operations
	RootURI() string
	RootPath() string
	SetRootURI(uri string)
	SetRootPath(path string)

	// Configuration
	GetConfig() config.Config
	SetConfig(cfg config.Config) error

	// LoadWorkspaceConfig reads the configuration file found from the
	// workspace root, if any. Called by the Initialized handler.
	LoadWorkspaceConfig() error

	// LSP context (for publishing diagnostics, etc.)
	GLSPContext() *glsp.Context
	SetGLSPContext(ctx *glsp.Context)

	// Diagnostics
	UsePullDiagnostics() bool
	SetUsePullDiagnostics(use bool)
	ClientDiagnosticCapability() *bool
	PublishDiagnostics(context *glsp.Context, uri string) error
}
