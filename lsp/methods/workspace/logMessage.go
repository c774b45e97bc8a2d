package workspace

import (
	"fmt"

	"bennypowers.dev/cajoler/internal/log"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// LogError logs an error message to stderr and to the client when there is
// one
func LogError(context *glsp.Context, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	log.Error("%s", message)
	notify(context, protocol.ServerWindowLogMessage, &protocol.LogMessageParams{
		Type:    protocol.MessageTypeError,
		Message: message,
	})
}

// LogWarning logs a warning message to stderr and to the client when there
// is one
func LogWarning(context *glsp.Context, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	log.Warn("%s", message)
	notify(context, protocol.ServerWindowLogMessage, &protocol.LogMessageParams{
		Type:    protocol.MessageTypeWarning,
		Message: message,
	})
}

// ShowMessage sends a message to be displayed to the user
func ShowMessage(context *glsp.Context, messageType protocol.MessageType, message string) {
	notify(context, protocol.ServerWindowShowMessage, &protocol.ShowMessageParams{
		Type:    messageType,
		Message: message,
	})
}

// notify sends without blocking the handler. Contexts without a connection,
// as in tests, are ignored.
func notify(context *glsp.Context, method string, params any) {
	if context == nil || context.Notify == nil {
		return
	}
	go context.Notify(method, params)
}
