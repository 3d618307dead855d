package channel

import (
	"context"
	"sync"
)

// Loopback delivers calls to an in-process handler. Every call is framed
// and parsed as it would be on a real transport, and calls are handled one
// at a time in send order.
type Loopback struct {
	mu      sync.Mutex
	handler Handler
}

// NewLoopback connects an invoker directly to h.
func NewLoopback(h Handler) *Loopback {
	return &Loopback{handler: h}
}

// InvokeMethod sends one call and waits for its reply.
func (l *Loopback) InvokeMethod(ctx context.Context, method string, args any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req, err := MarshalCall(MethodCall{Method: method, Arguments: args})
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	reply := Serve(ctx, l.handler, req)
	l.mu.Unlock()

	env, err := UnmarshalEnvelope(reply)
	if err != nil {
		return nil, err
	}
	if env.Error != nil {
		return nil, env.Error
	}
	return env.Result, nil
}

// Serve handles one framed call and returns the framed reply. It is the
// platform end of every transport.
func Serve(ctx context.Context, h Handler, req []byte) []byte {
	var env Envelope
	call, err := UnmarshalCall(req)
	if err == nil {
		env.Result, err = h.HandleMethodCall(ctx, call)
	}
	env.Error = AsError(err)
	if env.Error != nil {
		env.Result = nil
	}

	b, err := MarshalEnvelope(env)
	if err != nil {
		b, _ = MarshalEnvelope(Envelope{Error: &Error{Code: CodeInternal, Message: err.Error()}})
	}
	return b
}
