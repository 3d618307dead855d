package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-heatmap/internal/humastar"
	"github.com/joeblew999/plat-heatmap/internal/service"
)

type EventsInput struct {
	Map string `query:"map" doc:"Only stream events of this map session"`
}

// RegisterEvents registers the Datastar SSE stream of resource changes.
func (h *APIHandler) RegisterEvents(api huma.API) {
	huma.Get(api, "/api/v1/events", h.Events, huma.OperationTags("events"))
}

// Events streams resource changes until the client disconnects. Each event
// patches the lastEvent signal and fires a "<resource>-changed" DOM event.
func (h *APIHandler) Events(ctx context.Context, input *EventsInput) (*huma.StreamResponse, error) {
	return humastar.Stream(func(sse humastar.SSE) {
		ch := h.svc.Bus.Subscribe()
		defer h.svc.Bus.Unsubscribe(ch)

		if err := sse.Signals(map[string]any{"connected": true}); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				if input.Map != "" && ev.Map != input.Map && !(ev.Resource == service.ResourceMaps && ev.ID == input.Map) {
					continue
				}
				if err := sse.Signals(map[string]any{"lastEvent": ev}); err != nil {
					return
				}
				if err := sse.Dispatch(ev.Resource+"-changed", ev); err != nil {
					return
				}
			}
		}
	}), nil
}
