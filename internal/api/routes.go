// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-tiler/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Tiler   *service.TilerService
	TileSet *service.TileSetService
	Source  *service.SourceService
}

// Types

type NameInput struct {
	Name string `path:"name" doc:"Tile set name" example:"buildings"`
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

// RegisterRoutes registers all REST and SSE routes.
func RegisterRoutes(humaAPI huma.API, svc *Services, dataDir string) {
	huma.AutoRegister(humaAPI, NewAPIHandler(svc))
	NewInfoHandler(dataDir).RegisterRoutes(humaAPI)
	NewStreamHandler(svc).RegisterRoutes(humaAPI)
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterSources registers source listing routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("sources"))
}

// RegisterTileSets registers tile set listing and metadata routes.
func (h *APIHandler) RegisterTileSets(api huma.API) {
	huma.Get(api, "/api/v1/tilesets", h.GetTileSets, huma.OperationTags("tilesets"))
	huma.Get(api, "/api/v1/tilesets/{name}", h.GetTileJSON, huma.OperationTags("tilesets"))
}

// RegisterGenerate registers the synchronous tile generation route.
func (h *APIHandler) RegisterGenerate(api huma.API) {
	huma.Post(api, "/api/v1/generate", h.Generate, huma.OperationTags("generate"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*struct{ Body []service.SourceFile }, error) {
	if h.svc == nil || h.svc.Source == nil {
		return &struct{ Body []service.SourceFile }{Body: []service.SourceFile{}}, nil
	}
	sources, err := h.svc.Source.List()
	if err != nil {
		return &struct{ Body []service.SourceFile }{Body: []service.SourceFile{}}, nil
	}
	return &struct{ Body []service.SourceFile }{Body: sources}, nil
}

func (h *APIHandler) GetTileSets(ctx context.Context, input *struct{}) (*struct{ Body []service.TileSet }, error) {
	if h.svc == nil || h.svc.TileSet == nil {
		return &struct{ Body []service.TileSet }{Body: []service.TileSet{}}, nil
	}
	sets, err := h.svc.TileSet.List()
	if err != nil {
		return &struct{ Body []service.TileSet }{Body: []service.TileSet{}}, nil
	}
	return &struct{ Body []service.TileSet }{Body: sets}, nil
}

// GetTileJSON returns the TileJSON document written next to a z/x/y
// tile tree.
func (h *APIHandler) GetTileJSON(ctx context.Context, input *NameInput) (*struct{ Body service.TileJSON }, error) {
	if h.svc == nil || h.svc.TileSet == nil {
		return nil, huma.Error404NotFound("service not available")
	}
	data, err := os.ReadFile(filepath.Join(h.svc.TileSet.TilesDir(), input.Name, "metadata.json"))
	if err != nil {
		return nil, huma.Error404NotFound("tile set not found: " + input.Name)
	}
	var doc service.TileJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, huma.Error500InternalServerError("invalid tile set metadata", err)
	}
	return &struct{ Body service.TileJSON }{Body: doc}, nil
}

func (h *APIHandler) Generate(ctx context.Context, input *struct {
	Body service.GenerateOptions
}) (*struct{ Body service.GenerateResult }, error) {
	if h.svc == nil || h.svc.Tiler == nil {
		return nil, huma.Error503ServiceUnavailable("tiler service not available")
	}
	result, err := h.svc.Tiler.Generate(ctx, input.Body, nil)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &struct{ Body service.GenerateResult }{Body: *result}, nil
}
