// Package channel carries method calls between the declarative layer and the
// platform layer. Calls are framed with msgpack and delivered in order,
// exactly once, with no retry.
package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeblew999/plat-heatmap/internal/overlay"
)

// Heatmap method names.
const (
	MethodHeatmapsAdd    = "heatmaps#add"
	MethodHeatmapsUpdate = "heatmaps#update"
	MethodHeatmapsRemove = "heatmaps#remove"
)

// Error codes returned across the channel.
const (
	CodeMalformedMessage = "malformed_message"
	CodeNotImplemented   = "not_implemented"
	CodeInternal         = "internal"
)

// ErrNotImplemented indicates a method the handler does not know.
var ErrNotImplemented = errors.New("method not implemented")

// MethodCall is one request on the channel.
type MethodCall struct {
	Method    string `msgpack:"method"`
	Arguments any    `msgpack:"args"`
}

// Handler is the platform side of a channel.
type Handler interface {
	HandleMethodCall(ctx context.Context, call MethodCall) (any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, call MethodCall) (any, error)

// HandleMethodCall calls f.
func (f HandlerFunc) HandleMethodCall(ctx context.Context, call MethodCall) (any, error) {
	return f(ctx, call)
}

// Invoker is the declarative side of a channel.
type Invoker interface {
	InvokeMethod(ctx context.Context, method string, args any) (any, error)
}

// Error is a platform failure reported back to the caller.
type Error struct {
	Code    string `msgpack:"code"`
	Message string `msgpack:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is lets errors.Is match channel errors against the overlay sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case overlay.ErrMalformedMessage:
		return e.Code == CodeMalformedMessage
	case ErrNotImplemented:
		return e.Code == CodeNotImplemented
	}
	return false
}

// AsError converts a handler error into a channel error.
func AsError(err error) *Error {
	var ce *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, overlay.ErrMalformedMessage):
		return &Error{Code: CodeMalformedMessage, Message: err.Error()}
	case errors.Is(err, ErrNotImplemented):
		return &Error{Code: CodeNotImplemented, Message: err.Error()}
	}
	return &Error{Code: CodeInternal, Message: err.Error()}
}
