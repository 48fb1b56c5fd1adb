package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/joeblew999/plat-tiler/internal/service"
)

// SSEContext wraps the Datastar SSE generator with helper methods.
type SSEContext struct {
	SSE *datastar.ServerSentEventGenerator
}

// NewSSEContext creates an SSE context from a Huma context.
func NewSSEContext(humaCtx huma.Context) *SSEContext {
	r, w := humago.Unwrap(humaCtx)
	return &SSEContext{
		SSE: datastar.NewSSE(w, r),
	}
}

// SendError sends an error signal to the client.
func (c *SSEContext) SendError(msg string) {
	c.SSE.MarshalAndPatchSignals(map[string]any{
		"error": msg,
	})
}

// SendSignals sends arbitrary signals to the client.
func (c *SSEContext) SendSignals(signals map[string]any) {
	c.SSE.MarshalAndPatchSignals(signals)
}

// StreamHandler holds the SSE streaming endpoints.
type StreamHandler struct {
	svc *Services
}

func NewStreamHandler(svc *Services) *StreamHandler {
	return &StreamHandler{svc: svc}
}

// RegisterRoutes registers SSE streaming routes with Huma.
func (h *StreamHandler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/v1/generate/stream", h.Generate, huma.OperationTags("generate"))
	huma.Get(api, "/api/v1/events", h.Events, huma.OperationTags("events"))
}

// Generate runs the tile pipeline and streams progress as Datastar
// signals. The request body carries Datastar signals via RawBody,
// parsed before streaming starts.
func (h *StreamHandler) Generate(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}

	// Datastar data-bind creates lowercase signal names.
	opts := service.GenerateOptions{
		SourceFile: signals.String("sourcefile"),
		OutputName: signals.String("outputname"),
		LayerName:  signals.String("layername"),
		MinZoom:    signals.Int("minzoom"),
		MaxZoom:    signals.Int("maxzoom"),
		PMTiles:    signals.Bool("pmtiles"),
	}

	if opts.SourceFile == "" {
		return nil, huma.Error400BadRequest("Source file is required")
	}
	if opts.OutputName == "" {
		return nil, huma.Error400BadRequest("Output name is required")
	}

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSEContext(humaCtx)

			if h.svc == nil || h.svc.Tiler == nil {
				sse.SendError("Tiler service not configured")
				return
			}

			result, err := h.svc.Tiler.Generate(ctx, opts, func(progress int, status string) {
				sse.SendSignals(map[string]any{
					"tileStatus":   status,
					"tileProgress": progress,
				})
			})
			if err != nil {
				sse.SendError(err.Error())
				return
			}

			sse.SendSignals(map[string]any{
				"tileStatus":   "Complete!",
				"tileProgress": 100,
				"tileCount":    result.TileCount,
				"success":      "Tiles generated: " + result.Output,
			})
		},
	}, nil
}

// Events streams tile set change events to the client via SSE.
func (h *StreamHandler) Events(ctx context.Context, input *struct{}) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSEContext(humaCtx)
			ch := service.DefaultBus.Subscribe()
			defer service.DefaultBus.Unsubscribe(ch)

			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-ch:
					sse.SSE.DispatchCustomEvent("resource-changed", map[string]any{
						"resource": ev.Resource,
						"action":   ev.Action,
						"id":       ev.ID,
					})
				}
			}
		},
	}, nil
}
