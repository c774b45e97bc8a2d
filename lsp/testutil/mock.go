// Package testutil provides a ServerContext for handler tests.
package testutil

import (
	"bennypowers.dev/cajoler/internal/cajoler"
	"bennypowers.dev/cajoler/internal/config"
	"bennypowers.dev/cajoler/internal/documents"
	"bennypowers.dev/cajoler/lsp/types"
	"github.com/tliron/glsp"
)

var _ types.ServerContext = (*MockServerContext)(nil)

// MockServerContext implements types.ServerContext for testing.
// Behavior can be replaced through the callback fields.
type MockServerContext struct {
	docs               *documents.Manager
	cajoler            *cajoler.Cajoler
	rootURI            string
	rootPath           string
	config             config.Config
	glspContext        *glsp.Context
	usePull            bool
	diagnosticDetected *bool

	// Optional callbacks for custom behavior in tests
	LoadWorkspaceConfigFunc func() error
	PublishDiagnosticsFunc  func(*glsp.Context, string) error

	// Tracking for tests that verify calls
	LoadWorkspaceConfigCalled bool
	PublishedURIs             []string
}

// NewMockServerContext creates a mock with the default configuration and
// the id class "g1".
func NewMockServerContext() *MockServerContext {
	cfg := config.Default()
	cfg.IDClass = "g1"
	m := &MockServerContext{docs: documents.NewManager()}
	if err := m.SetConfig(cfg); err != nil {
		panic(err)
	}
	return m
}

// Document returns the document with the given URI
func (m *MockServerContext) Document(uri string) *documents.Document {
	return m.docs.Get(uri)
}

// DocumentManager returns the document manager
func (m *MockServerContext) DocumentManager() *documents.Manager {
	return m.docs
}

// AllDocuments returns all tracked documents
func (m *MockServerContext) AllDocuments() []*documents.Document {
	return m.docs.GetAll()
}

// Cajoler returns the cajoler for the current configuration
func (m *MockServerContext) Cajoler() *cajoler.Cajoler {
	return m.cajoler
}

func (m *MockServerContext) RootURI() string         { return m.rootURI }
func (m *MockServerContext) RootPath() string        { return m.rootPath }
func (m *MockServerContext) SetRootURI(uri string)   { m.rootURI = uri }
func (m *MockServerContext) SetRootPath(path string) { m.rootPath = path }

// GetConfig returns the configuration
func (m *MockServerContext) GetConfig() config.Config {
	return m.config
}

// SetConfig rebuilds the cajoler like the real server does
func (m *MockServerContext) SetConfig(cfg config.Config) error {
	c, err := cajoler.New(cfg)
	if err != nil {
		return err
	}
	m.config, m.cajoler = cfg, c
	return nil
}

// LoadWorkspaceConfig records the call and runs LoadWorkspaceConfigFunc
func (m *MockServerContext) LoadWorkspaceConfig() error {
	m.LoadWorkspaceConfigCalled = true
	if m.LoadWorkspaceConfigFunc != nil {
		return m.LoadWorkspaceConfigFunc()
	}
	return nil
}

func (m *MockServerContext) GLSPContext() *glsp.Context        { return m.glspContext }
func (m *MockServerContext) SetGLSPContext(ctx *glsp.Context)  { m.glspContext = ctx }
func (m *MockServerContext) UsePullDiagnostics() bool          { return m.usePull }
func (m *MockServerContext) SetUsePullDiagnostics(use bool)    { m.usePull = use }
func (m *MockServerContext) ClientDiagnosticCapability() *bool { return m.diagnosticDetected }

// SetClientDiagnosticCapability simulates detection from raw initialize params
func (m *MockServerContext) SetClientDiagnosticCapability(has bool) {
	m.diagnosticDetected = &has
}

// PublishDiagnostics records the URI and runs PublishDiagnosticsFunc
func (m *MockServerContext) PublishDiagnostics(context *glsp.Context, uri string) error {
	m.PublishedURIs = append(m.PublishedURIs, uri)
	if m.PublishDiagnosticsFunc != nil {
		return m.PublishDiagnosticsFunc(context, uri)
	}
	return nil
}
