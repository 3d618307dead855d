package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-heatmap/internal/humastar"
	"github.com/joeblew999/plat-heatmap/internal/mapview"
	"github.com/joeblew999/plat-heatmap/internal/overlay"
	"github.com/joeblew999/plat-heatmap/internal/platform"
	"github.com/joeblew999/plat-heatmap/internal/reconcile"
	"github.com/joeblew999/plat-heatmap/internal/service"
)

var heatmapActions = []humastar.ActionDef{
	{Rel: "style", Pattern: "/api/v1/maps/%s/heatmaps/%s/style", Method: http.MethodGet, Title: "Renderer style"},
	{Rel: "tiles", Pattern: "/api/v1/maps/%s/heatmaps/%s/tiles/{z}/{x}/{y}", Method: http.MethodGet, Title: "Tiles"},
}

// HeatmapOutput is one declared heatmap with its actions.
type HeatmapOutput struct {
	Body HeatmapResponse
}

type HeatmapResponse struct {
	service.HeatmapBody
	mapID string
}

func (b HeatmapResponse) Actions() []humastar.Action {
	return humastar.ActionsFor(heatmapActions, b.mapID, b.ID)
}

type SetHeatmapsInput struct {
	MapIDInput
	Body struct {
		Heatmaps []service.HeatmapBody `json:"heatmaps" doc:"The complete set of heatmaps the map should show"`
	}
}

type LoadHeatmapsInput struct {
	MapIDInput
	Body struct {
		IDs []string `json:"ids" minItems:"1" doc:"Library heatmap IDs to add to the map" example:"[\"incidents\"]"`
	}
}

type StyleBody struct {
	Layer platform.Style     `json:"layer" doc:"MapLibre layer definition, minus id and source"`
	Tiles string             `json:"tiles" doc:"Tile URL template"`
	Cache mapview.CacheStats `json:"cache" doc:"Tile cache counters"`
}

type TileInput struct {
	HeatmapIDInput
	Z int `path:"z" minimum:"0" maximum:"22" doc:"Zoom level"`
	X int `path:"x" minimum:"0" doc:"Tile column"`
	Y int `path:"y" minimum:"0" doc:"Tile row"`
}

type TileOutput struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

// RegisterHeatmaps registers the declarative heatmap routes of a map.
func (h *APIHandler) RegisterHeatmaps(api huma.API) {
	huma.Get(api, "/api/v1/maps/{id}/heatmaps", h.GetHeatmaps, huma.OperationTags("heatmaps"))
	huma.Put(api, "/api/v1/maps/{id}/heatmaps", h.PutHeatmaps, huma.OperationTags("heatmaps"))
	huma.Post(api, "/api/v1/maps/{id}/heatmaps/load", h.LoadHeatmaps, huma.OperationTags("heatmaps"))
	huma.Get(api, "/api/v1/maps/{id}/heatmaps/{heatmapId}", h.GetHeatmap, huma.OperationTags("heatmaps"))
	huma.Get(api, "/api/v1/maps/{id}/heatmaps/{heatmapId}/style", h.GetStyle, huma.OperationTags("heatmaps"))
	huma.Get(api, "/api/v1/maps/{id}/heatmaps/{heatmapId}/tiles/{z}/{x}/{y}", h.GetTile, huma.OperationTags("tiles"))
}

func (h *APIHandler) GetHeatmaps(ctx context.Context, input *MapIDInput) (*struct{ Body []service.HeatmapBody }, error) {
	hs, err := h.svc.Maps.Heatmaps(input.ID)
	if err != nil {
		return nil, apiError(err)
	}
	out := make([]service.HeatmapBody, len(hs))
	for i, hm := range hs {
		out[i] = service.NewHeatmapBody(hm)
	}
	return &struct{ Body []service.HeatmapBody }{Body: out}, nil
}

func (h *APIHandler) PutHeatmaps(ctx context.Context, input *SetHeatmapsInput) (*struct{ Body service.ChangesBody }, error) {
	next := make([]overlay.Heatmap, 0, len(input.Body.Heatmaps))
	for _, b := range input.Body.Heatmaps {
		hm, err := b.Heatmap()
		if err != nil {
			return nil, apiError(err)
		}
		next = append(next, hm)
	}
	changes, err := h.svc.Maps.SetHeatmaps(ctx, input.ID, next)
	if err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body service.ChangesBody }{Body: changesBody(changes)}, nil
}

func (h *APIHandler) LoadHeatmaps(ctx context.Context, input *LoadHeatmapsInput) (*struct{ Body service.ChangesBody }, error) {
	hs, err := h.svc.Library.Heatmaps(input.Body.IDs)
	if err != nil {
		return nil, apiError(err)
	}
	changes, err := h.svc.Maps.MergeHeatmaps(ctx, input.ID, hs)
	if err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body service.ChangesBody }{Body: changesBody(changes)}, nil
}

func (h *APIHandler) GetHeatmap(ctx context.Context, input *HeatmapIDInput) (*HeatmapOutput, error) {
	hm, err := h.svc.Maps.Heatmap(input.ID, input.HeatmapID)
	if err != nil {
		return nil, apiError(err)
	}
	return &HeatmapOutput{Body: HeatmapResponse{HeatmapBody: service.NewHeatmapBody(hm), mapID: input.ID}}, nil
}

func (h *APIHandler) GetStyle(ctx context.Context, input *HeatmapIDInput) (*struct{ Body StyleBody }, error) {
	style, stats, err := h.svc.Maps.Style(input.ID, input.HeatmapID)
	if err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body StyleBody }{Body: StyleBody{
		Layer: style,
		Tiles: fmt.Sprintf("/api/v1/maps/%s/heatmaps/%s/tiles/{z}/{x}/{y}", input.ID, input.HeatmapID),
		Cache: stats,
	}}, nil
}

func (h *APIHandler) GetTile(ctx context.Context, input *TileInput) (*TileOutput, error) {
	tile, err := h.svc.Maps.Tile(input.ID, input.HeatmapID, input.Z, input.X, input.Y)
	if err != nil {
		return nil, apiError(err)
	}
	return &TileOutput{
		ContentType:  platform.TileContentType(),
		CacheControl: "no-cache",
		Body:         tile,
	}, nil
}

func changesBody(c reconcile.Changes[overlay.Heatmap]) service.ChangesBody {
	body := service.ChangesBody{Added: []string{}, Changed: []string{}, Removed: []string{}}
	for _, hm := range c.Add {
		body.Added = append(body.Added, string(hm.OverlayID()))
	}
	for _, hm := range c.Change {
		body.Changed = append(body.Changed, string(hm.OverlayID()))
	}
	for _, id := range c.Remove {
		body.Removed = append(body.Removed, string(id))
	}
	return body
}
