package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-heatmap/internal/service"
)

// TablesOutput is the response for listing tables.
type TablesOutput struct {
	Body struct {
		Tables []string `json:"tables" doc:"List of table names"`
	}
}

// PointsOutput is the response for a point query.
type PointsOutput struct {
	Body struct {
		Count  int                 `json:"count" doc:"Number of points returned"`
		Points []service.PointBody `json:"points" doc:"Weighted points, ready for a heatmap's data"`
	}
}

// RegisterPoints registers DuckDB point source routes.
func (h *APIHandler) RegisterPoints(api huma.API) {
	huma.Get(api, "/api/v1/tables", h.ListTables, huma.OperationTags("points"))
	huma.Post(api, "/api/v1/points/query", h.QueryPoints, huma.OperationTags("points"))
}

// ListTables returns all DuckDB tables.
func (h *APIHandler) ListTables(ctx context.Context, input *struct{}) (*TablesOutput, error) {
	tables, err := h.svc.Points.Tables(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	out := &TablesOutput{}
	out.Body.Tables = tables
	return out, nil
}

// QueryPoints reads weighted points from a DuckDB table.
func (h *APIHandler) QueryPoints(ctx context.Context, input *struct{ Body service.PointQuery }) (*PointsOutput, error) {
	points, err := h.svc.Points.Query(ctx, input.Body)
	if err != nil {
		return nil, apiError(err)
	}
	out := &PointsOutput{}
	out.Body.Points = make([]service.PointBody, len(points))
	for i, p := range points {
		w := p.Weight
		out.Body.Points[i] = service.PointBody{Lat: p.Lat, Lng: p.Lng, Intensity: &w}
	}
	out.Body.Count = len(points)
	return out, nil
}
