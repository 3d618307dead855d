package channel

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/joeblew999/plat-heatmap/internal/codec"
	"github.com/joeblew999/plat-heatmap/internal/overlay"
)

// ContentType is the media type of encoded calls and envelopes.
const ContentType = "application/msgpack"

// Envelope is the reply to one call.
type Envelope struct {
	Result any    `msgpack:"result,omitempty"`
	Error  *Error `msgpack:"error,omitempty"`
}

// MarshalCall frames a call.
func MarshalCall(call MethodCall) ([]byte, error) {
	return msgpack.Marshal(call)
}

// UnmarshalCall parses a framed call. Parse failures are malformed messages.
func UnmarshalCall(b []byte) (MethodCall, error) {
	var call MethodCall
	if err := msgpack.Unmarshal(b, &call); err != nil {
		return MethodCall{}, fmt.Errorf("%w: %v", overlay.ErrMalformedMessage, err)
	}
	if call.Method == "" {
		return MethodCall{}, fmt.Errorf("%w: missing method", overlay.ErrMalformedMessage)
	}
	return call, nil
}

var _ msgpack.CustomDecoder = (*MethodCall)(nil)

// DecodeMsgpack reads a call. Heatmap add and update batches decode into
// ordered field lists so each structure keeps its wire key order; anything
// else, including batches of the wrong shape, decodes generically and is left
// for the handler to reject.
func (c *MethodCall) DecodeMsgpack(dec *msgpack.Decoder) error {
	var raw struct {
		Method string             `msgpack:"method"`
		Args   msgpack.RawMessage `msgpack:"args"`
	}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	c.Method, c.Arguments = raw.Method, nil
	if len(raw.Args) == 0 {
		return nil
	}

	switch raw.Method {
	case MethodHeatmapsAdd, MethodHeatmapsUpdate:
		if args, ok := decodeFieldBatch(raw.Args); ok {
			c.Arguments = args
			return nil
		}
	}
	return msgpack.Unmarshal(raw.Args, &c.Arguments)
}

func decodeFieldBatch(b []byte) ([]any, bool) {
	var list []codec.Fields
	if err := msgpack.Unmarshal(b, &list); err != nil || list == nil {
		return nil, false
	}
	out := make([]any, len(list))
	for i, f := range list {
		if f != nil {
			out[i] = f
		}
	}
	return out, true
}

// MarshalEnvelope frames a reply.
func MarshalEnvelope(env Envelope) ([]byte, error) {
	return msgpack.Marshal(env)
}

// UnmarshalEnvelope parses a framed reply.
func UnmarshalEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("decoding reply: %w", err)
	}
	return env, nil
}
