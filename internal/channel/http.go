package channel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// HTTPInvoker posts framed calls to a remote platform endpoint. Calls are
// sent one at a time so the remote side sees them in order.
type HTTPInvoker struct {
	URL    string
	Client *http.Client

	mu sync.Mutex
}

// NewHTTPInvoker creates an invoker for the channel endpoint at url.
func NewHTTPInvoker(url string) *HTTPInvoker {
	return &HTTPInvoker{URL: url, Client: http.DefaultClient}
}

// InvokeMethod posts one call and waits for its reply.
func (h *HTTPInvoker) InvokeMethod(ctx context.Context, method string, args any) (any, error) {
	body, err := MarshalCall(MethodCall{Method: method, Arguments: args})
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", ContentType)
	req.Header.Set("Accept", ContentType)

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting %s: %w", method, err)
	}
	defer resp.Body.Close()

	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading reply to %s: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %s", method, resp.Status)
	}

	env, err := UnmarshalEnvelope(reply)
	if err != nil {
		return nil, err
	}
	if env.Error != nil {
		return nil, env.Error
	}
	return env.Result, nil
}
