package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-heatmap/internal/service"
)

type LibraryIDInput struct {
	HeatmapID string `path:"heatmapId" doc:"Library heatmap ID" example:"incidents"`
}

type CreatedHeatmapBody struct {
	ID      string              `json:"id" doc:"Heatmap ID"`
	Heatmap service.HeatmapBody `json:"heatmap" doc:"Stored definition"`
	Message string              `json:"message" doc:"Result message"`
}

// RegisterLibrary registers heatmap library CRUD routes.
func (h *APIHandler) RegisterLibrary(api huma.API) {
	huma.Get(api, "/api/v1/library/heatmaps", h.ListLibrary, huma.OperationTags("library"))
	huma.Register(api, huma.Operation{
		OperationID:   "create-library-heatmap",
		Method:        http.MethodPost,
		Path:          "/api/v1/library/heatmaps",
		Summary:       "Create library heatmap",
		Tags:          []string{"library"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateLibraryHeatmap)
	huma.Get(api, "/api/v1/library/heatmaps/{heatmapId}", h.GetLibraryHeatmap, huma.OperationTags("library"))
	huma.Put(api, "/api/v1/library/heatmaps/{heatmapId}", h.PutLibraryHeatmap, huma.OperationTags("library"))
	huma.Delete(api, "/api/v1/library/heatmaps/{heatmapId}", h.DeleteLibraryHeatmap, huma.OperationTags("library"))
}

func (h *APIHandler) ListLibrary(ctx context.Context, input *struct{}) (*struct{ Body []service.HeatmapBody }, error) {
	return &struct{ Body []service.HeatmapBody }{Body: h.svc.Library.List()}, nil
}

func (h *APIHandler) CreateLibraryHeatmap(ctx context.Context, input *struct{ Body service.HeatmapBody }) (*struct{ Body CreatedHeatmapBody }, error) {
	created, err := h.svc.Library.Create(input.Body)
	if err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body CreatedHeatmapBody }{Body: CreatedHeatmapBody{
		ID: created.ID, Heatmap: created, Message: "Heatmap created",
	}}, nil
}

func (h *APIHandler) GetLibraryHeatmap(ctx context.Context, input *LibraryIDInput) (*struct{ Body service.HeatmapBody }, error) {
	hm, ok := h.svc.Library.Get(input.HeatmapID)
	if !ok {
		return nil, huma.Error404NotFound("heatmap not found")
	}
	return &struct{ Body service.HeatmapBody }{Body: hm}, nil
}

func (h *APIHandler) PutLibraryHeatmap(ctx context.Context, input *struct {
	LibraryIDInput
	Body service.HeatmapBody
}) (*struct{ Body service.HeatmapBody }, error) {
	updated, err := h.svc.Library.Update(input.HeatmapID, input.Body)
	if err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body service.HeatmapBody }{Body: updated}, nil
}

func (h *APIHandler) DeleteLibraryHeatmap(ctx context.Context, input *LibraryIDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Library.Delete(input.HeatmapID); err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Heatmap deleted"}}, nil
}
