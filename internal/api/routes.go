// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-heatmap/internal/mapview"
	"github.com/joeblew999/plat-heatmap/internal/overlay"
	"github.com/joeblew999/plat-heatmap/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Maps    *service.MapService
	Library *service.LibraryService
	Points  *service.PointService
	Bus     *service.EventBus
}

// Types

type MapIDInput struct {
	ID string `path:"id" doc:"Map session ID" example:"0b7e1c9a-3f4d-4b8e-9c21-5f0a6d2e7b11"`
}

type HeatmapIDInput struct {
	MapIDInput
	HeatmapID string `path:"heatmapId" doc:"Heatmap ID" example:"incidents"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

// apiError maps service and domain errors onto HTTP problems.
func apiError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, mapview.ErrOverlayRemoved):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, service.ErrExists):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, mapview.ErrInvalidTile), errors.Is(err, overlay.ErrMalformedMessage):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, overlay.ErrInvariantViolation), errors.Is(err, service.ErrDuplicateID):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, service.ErrNoDatabase):
		return huma.Error503ServiceUnavailable(err.Error())
	}
	return huma.Error500InternalServerError("internal error", err)
}
