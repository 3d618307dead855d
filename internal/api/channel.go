package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-heatmap/internal/channel"
)

type ChannelInput struct {
	MapIDInput
	RawBody []byte `contentType:"application/msgpack" doc:"msgpack-framed method call"`
}

type ChannelOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// RegisterChannel registers the raw method channel of a map. Platform
// failures travel inside the reply envelope, so the status is 200 whenever
// the map exists.
func (h *APIHandler) RegisterChannel(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "post-map-channel",
		Method:      http.MethodPost,
		Path:        "/api/v1/maps/{id}/channel",
		Summary:     "Invoke a heatmap method",
		Description: "Accepts one msgpack method call (heatmaps#add, heatmaps#update, heatmaps#remove) and returns a msgpack reply envelope.",
		Tags:        []string{"channel"},
	}, h.PostChannel)
}

func (h *APIHandler) PostChannel(ctx context.Context, input *ChannelInput) (*ChannelOutput, error) {
	reply, err := h.svc.Maps.Channel(ctx, input.ID, input.RawBody)
	if err != nil {
		return nil, apiError(err)
	}
	return &ChannelOutput{ContentType: channel.ContentType, Body: reply}, nil
}
