package lsp

import (
	"fmt"
	"runtime/debug"

	"bennypowers.dev/cajoler/internal/log"
	"bennypowers.dev/cajoler/lsp/methods/workspace"
	"bennypowers.dev/cajoler/lsp/types"
	"github.com/tliron/glsp"
)

// recoverHandler turns a handler panic into an error so that one bad
// document cannot take the server down.
func recoverHandler(ctx *glsp.Context, methodName string, err *error) {
	if r := recover(); r != nil {
		log.Error("PANIC in %s: %v\nStack trace:\n%s", methodName, r, debug.Stack())
		workspace.LogError(ctx, "Internal error in %s: %v", methodName, r)
		*err = fmt.Errorf("internal error in %s", methodName)
	}
}

// finish logs the request's warnings and wraps its error.
func finish(req *types.RequestContext, methodName string, err error) error {
	for _, w := range req.Warnings() {
		workspace.LogWarning(req.GLSP, "%s: %v", methodName, w)
	}
	if err != nil {
		workspace.LogError(req.GLSP, "%s: %v", methodName, err)
		return fmt.Errorf("%s: %w", methodName, err)
	}
	log.Debug("%s completed", methodName)
	return nil
}

// method wraps an LSP handler that returns (result, error) with middleware.
// It returns the function type protocol.Handler fields expect.
func method[P, R any](
	s types.ServerContext,
	methodName string,
	handler func(*types.RequestContext, P) (R, error),
) func(*glsp.Context, P) (R, error) {
	return func(ctx *glsp.Context, params P) (result R, err error) {
		defer func() {
			if err != nil {
				var zero R
				result = zero
			}
		}()
		defer recoverHandler(ctx, methodName, &err)

		log.Debug("%s started", methodName)
		req := types.NewRequestContext(s, ctx)
		result, err = handler(req, params)
		return result, finish(req, methodName, err)
	}
}

// notify wraps an LSP notification handler that returns only error
func notify[P any](
	s types.ServerContext,
	methodName string,
	handler func(*types.RequestContext, P) error,
) func(*glsp.Context, P) error {
	return func(ctx *glsp.Context, params P) (err error) {
		defer recoverHandler(ctx, methodName, &err)

		log.Debug("%s started", methodName)
		req := types.NewRequestContext(s, ctx)
		return finish(req, methodName, handler(req, params))
	}
}

// noParam wraps an LSP handler that takes no params (like Shutdown)
func noParam(
	s types.ServerContext,
	methodName string,
	handler func(*types.RequestContext) error,
) func(*glsp.Context) error {
	return func(ctx *glsp.Context) (err error) {
		defer recoverHandler(ctx, methodName, &err)

		log.Debug("%s started", methodName)
		req := types.NewRequestContext(s, ctx)
		return finish(req, methodName, handler(req))
	}
}
