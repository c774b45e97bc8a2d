package types

import (
	"github.com/tliron/glsp"
)

// RequestContext is what every cajoler method handler receives: the
// server state it reads documents and the configured cajoler from, the
// connection it publishes diagnostics over, and the problems that should
// not fail the request.
type RequestContext struct {
	Server   ServerContext // open documents, cajoler and settings
	GLSP     *glsp.Context // used to publish diagnostics and log to the client
	warnings []error       // e.g. a diagnostics publish that failed
}

// NewRequestContext wraps one incoming call.
func NewRequestContext(server ServerContext, glsp *glsp.Context) *RequestContext {
	return &RequestContext{
		Server: server,
		GLSP:   glsp,
	}
}

// AddWarning records err without failing the request. The middleware
// sends each warning to the client as a window/logMessage once the
// handler returns. A nil err is ignored.
func (r *RequestContext) AddWarning(err error) {
	if err != nil {
		r.warnings = append(r.warnings, err)
	}
}

// Warnings returns the recorded warnings in order, or nil.
func (r *RequestContext) Warnings() []error {
	return r.warnings
}

func (r *RequestContext) HasWarnings() bool {
	return len(r.warnings) > 0
}
