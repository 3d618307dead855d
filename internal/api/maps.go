package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-heatmap/internal/humastar"
	"github.com/joeblew999/plat-heatmap/internal/service"
)

var mapActions = []humastar.ActionDef{
	{Rel: "heatmaps", Pattern: "/api/v1/maps/%s/heatmaps", Method: http.MethodPut, Title: "Declare heatmaps"},
	{Rel: "load", Pattern: "/api/v1/maps/%s/heatmaps/load", Method: http.MethodPost, Title: "Load library heatmaps"},
	{Rel: "channel", Pattern: "/api/v1/maps/%s/channel", Method: http.MethodPost, Title: "Method channel"},
	{Rel: "delete", Pattern: "/api/v1/maps/%s", Method: http.MethodDelete, Title: "Tear down map"},
}

// MapBody is a map session with its actions.
type MapBody struct {
	service.MapInfo
}

func (b MapBody) Actions() []humastar.Action {
	return humastar.ActionsFor(mapActions, b.ID)
}

type CreateMapInput struct {
	Body struct {
		Name string `json:"name,omitempty" maxLength:"100" doc:"Display name" example:"Sydney incidents"`
	}
}

// RegisterMaps registers map session routes.
func (h *APIHandler) RegisterMaps(api huma.API) {
	huma.Get(api, "/api/v1/maps", h.ListMaps, huma.OperationTags("maps"))
	huma.Register(api, huma.Operation{
		OperationID:   "create-map",
		Method:        http.MethodPost,
		Path:          "/api/v1/maps",
		Summary:       "Create map",
		Tags:          []string{"maps"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateMap)
	huma.Get(api, "/api/v1/maps/{id}", h.GetMap, huma.OperationTags("maps"))
	huma.Delete(api, "/api/v1/maps/{id}", h.DeleteMap, huma.OperationTags("maps"))
}

func (h *APIHandler) ListMaps(ctx context.Context, input *struct{}) (*struct{ Body []service.MapInfo }, error) {
	return &struct{ Body []service.MapInfo }{Body: h.svc.Maps.List()}, nil
}

func (h *APIHandler) CreateMap(ctx context.Context, input *CreateMapInput) (*struct{ Body MapBody }, error) {
	m := h.svc.Maps.Create(input.Body.Name)
	return &struct{ Body MapBody }{Body: MapBody{m}}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *MapIDInput) (*struct{ Body MapBody }, error) {
	m, err := h.svc.Maps.Get(input.ID)
	if err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body MapBody }{Body: MapBody{m}}, nil
}

func (h *APIHandler) DeleteMap(ctx context.Context, input *MapIDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Maps.Delete(input.ID); err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Map deleted"}}, nil
}
