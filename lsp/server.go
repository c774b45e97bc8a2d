package lsp

import (
	"fmt"
	"sync"

	"bennypowers.dev/cajoler/internal/cajoler"
	"bennypowers.dev/cajoler/internal/config"
	"bennypowers.dev/cajoler/internal/documents"
	"bennypowers.dev/cajoler/internal/log"
	"bennypowers.dev/cajoler/internal/parser"
	"bennypowers.dev/cajoler/internal/quasi"
	"bennypowers.dev/cajoler/internal/version"
	"bennypowers.dev/cajoler/lsp/methods/lifecycle"
	"bennypowers.dev/cajoler/lsp/methods/textDocument"
	"bennypowers.dev/cajoler/lsp/methods/textDocument/diagnostic"
	"bennypowers.dev/cajoler/lsp/methods/workspace"
	"bennypowers.dev/cajoler/lsp/types"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

// Verify that Server implements ServerContext interface
var _ types.ServerContext = (*Server)(nil)

// Server reports cajoling problems in open gadget documents
type Server struct {
	documents                  *documents.Manager
	quasi                      *quasi.Builder // Shared across configurations so compiled patterns survive reloads
	glspServer                 *server.Server
	context                    *glsp.Context
	rootURI                    string           // Workspace root URI
	rootPath                   string           // Workspace root path (file system)
	config                     config.Config    // Server configuration
	cajoler                    *cajoler.Cajoler // Built from config
	configMu                   sync.RWMutex     // Protects all of the above except documents and glspServer
	clientDiagnosticCapability *bool            // Client's diagnostic capability detected from raw initialize params (nil = not detected yet)
	usePullDiagnostics         bool             // Whether to use pull diagnostics (LSP 3.17) vs push (LSP 3.0)
}

// Option configures a Server.
type Option func(*Server)

// WithQuasiBuilder shares a pattern builder with the server.
func WithQuasiBuilder(b *quasi.Builder) Option {
	return func(s *Server) { s.quasi = b }
}

// NewServer creates a language server that starts from cfg. A configuration
// file in the workspace, or settings sent by the client, replace it later.
func NewServer(cfg config.Config, opts ...Option) (*Server, error) {
	s := &Server{documents: documents.NewManager()}
	for _, opt := range opts {
		opt(s)
	}
	if s.quasi == nil {
		s.quasi = quasi.NewBuilder(quasi.WithCache(quasi.NewCache(cfg.CacheSize())))
	}
	if err := s.SetConfig(cfg); err != nil {
		return nil, err
	}

	protocolHandler := protocol.Handler{
		Initialize:                      method(s, "initialize", lifecycle.Initialize),
		Initialized:                     notify(s, "initialized", lifecycle.Initialized),
		Shutdown:                        noParam(s, "shutdown", lifecycle.Shutdown),
		SetTrace:                        notify(s, "$/setTrace", lifecycle.SetTrace),
		WorkspaceDidChangeConfiguration: notify(s, "workspace/didChangeConfiguration", workspace.DidChangeConfiguration),
		TextDocumentDidOpen:             notify(s, "textDocument/didOpen", textDocument.DidOpen),
		TextDocumentDidChange:           notify(s, "textDocument/didChange", textDocument.DidChange),
		TextDocumentDidClose:            notify(s, "textDocument/didClose", textDocument.DidClose),
	}

	// WORKAROUND: protocol.Handler only knows LSP 3.16 methods, so
	// textDocument/diagnostic is intercepted by CustomHandler.
	customHandler := &CustomHandler{
		Handler: &protocolHandler,
		server:  s,
	}

	s.glspServer = server.NewServer(customHandler, lifecycle.ServerName, false)
	log.Info("%s %s", lifecycle.ServerName, version.GetVersion())

	return s, nil
}

// RunStdio starts the LSP server using stdio transport
func (s *Server) RunStdio() error {
	return s.glspServer.RunStdio()
}

// Close releases the pooled parsers. It is safe to call Close multiple
// times.
func (s *Server) Close() error {
	parser.ClosePools()
	return nil
}

// Document returns the document with the given URI
func (s *Server) Document(uri string) *documents.Document {
	return s.documents.Get(uri)
}

// DocumentManager returns the document manager
func (s *Server) DocumentManager() *documents.Manager {
	return s.documents
}

// AllDocuments returns all tracked documents
func (s *Server) AllDocuments() []*documents.Document {
	return s.documents.GetAll()
}

// Cajoler returns the cajoler for the current configuration
func (s *Server) Cajoler() *cajoler.Cajoler {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.cajoler
}

// Quasi returns the pattern builder shared by every configuration
func (s *Server) Quasi() *quasi.Builder {
	return s.quasi
}

// RootURI returns the workspace root URI
func (s *Server) RootURI() string {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.rootURI
}

// RootPath returns the workspace root path
func (s *Server) RootPath() string {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.rootPath
}

// SetRootURI sets the workspace root URI
func (s *Server) SetRootURI(uri string) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.rootURI = uri
}

// SetRootPath sets the workspace root path
func (s *Server) SetRootPath(path string) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.rootPath = path
}

// GLSPContext returns the GLSP context.
func (s *Server) GLSPContext() *glsp.Context {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.context
}

// SetGLSPContext sets the GLSP context.
func (s *Server) SetGLSPContext(ctx *glsp.Context) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.context = ctx
}

// ClientDiagnosticCapability returns the detected client diagnostic capability.
// Returns nil if capability detection has not yet occurred (e.g., before initialize).
func (s *Server) ClientDiagnosticCapability() *bool {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.clientDiagnosticCapability
}

// SetClientDiagnosticCapability records whether the raw initialize params
// declared pull diagnostics support.
func (s *Server) SetClientDiagnosticCapability(hasCapability bool) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.clientDiagnosticCapability = &hasCapability
}

// UsePullDiagnostics returns whether the client supports pull diagnostics (LSP 3.17)
// If true, the server does not push textDocument/publishDiagnostics and
// waits for textDocument/diagnostic requests instead.
func (s *Server) UsePullDiagnostics() bool {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.usePullDiagnostics
}

// SetUsePullDiagnostics sets whether to use pull diagnostics based on client capabilities
func (s *Server) SetUsePullDiagnostics(use bool) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.usePullDiagnostics = use
}

// PublishDiagnostics publishes diagnostics for a document
func (s *Server) PublishDiagnostics(context *glsp.Context, uri string) error {
	workingContext := context
	if workingContext == nil {
		workingContext = s.GLSPContext()
	}
	if workingContext == nil {
		return fmt.Errorf("cannot publish diagnostics: no client context available")
	}

	if s.UsePullDiagnostics() {
		return nil
	}

	diagnostics, err := diagnostic.GetDiagnostics(s, uri)
	if err != nil {
		return err
	}
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	log.Debug("Publishing %d diagnostics for: %s", len(diagnostics), uri)

	workingContext.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})

	return nil
}
