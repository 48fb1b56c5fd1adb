package api

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/joeblew999/plat-tiler/internal/service"
)

const tokyoPoint = `{
	"type": "FeatureCollection",
	"features": [{
		"type": "Feature",
		"geometry": {"type": "Point", "coordinates": [139.7671, 35.6812]},
		"properties": {"name": "Tokyo"}
	}]
}`

func newTestAPI(t *testing.T) (humatest.TestAPI, string) {
	t.Helper()
	dataDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dataDir, "sources"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "sources", "tokyo.geojson"), []byte(tokyoPoint), 0644); err != nil {
		t.Fatal(err)
	}

	_, api := humatest.New(t)
	svc := &Services{
		Tiler:   service.NewTilerService(dataDir),
		TileSet: service.NewTileSetService(dataDir),
		Source:  service.NewSourceService(dataDir),
	}
	huma.AutoRegister(api, NewAPIHandler(svc))
	NewInfoHandler(dataDir).RegisterRoutes(api)
	return api, dataDir
}

func TestGetHealth(t *testing.T) {
	api, _ := newTestAPI(t)
	resp := api.Get("/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestGetInfo(t *testing.T) {
	api, _ := newTestAPI(t)
	resp := api.Get("/api/v1/info")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestGetSources(t *testing.T) {
	api, _ := newTestAPI(t)
	resp := api.Get("/api/v1/sources")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestGenerateAndTileJSON(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Post("/api/v1/generate", map[string]any{
		"sourceFile": "tokyo.geojson",
		"outputName": "tokyo",
		"layerName":  "pois",
		"minZoom":    0,
		"maxZoom":    2,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body = %s", resp.Code, resp.Body.String())
	}

	resp = api.Get("/api/v1/tilesets")
	if resp.Code != http.StatusOK {
		t.Fatalf("tilesets status = %d", resp.Code)
	}

	resp = api.Get("/api/v1/tilesets/tokyo")
	if resp.Code != http.StatusOK {
		t.Fatalf("tilejson status = %d, body = %s", resp.Code, resp.Body.String())
	}

	resp = api.Get("/api/v1/tilesets/missing")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("missing tileset status = %d", resp.Code)
	}
}

func TestGenerateRejectsMissingSource(t *testing.T) {
	api, _ := newTestAPI(t)
	resp := api.Post("/api/v1/generate", map[string]any{
		"sourceFile": "nope.geojson",
		"outputName": "x",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestParseSignals(t *testing.T) {
	signals, err := ParseSignals([]byte(`{"sourcefile": "a.geojson", "minzoom": 3, "pmtiles": true}`))
	if err != nil {
		t.Fatal(err)
	}
	if signals.String("sourcefile") != "a.geojson" {
		t.Errorf("sourcefile = %q", signals.String("sourcefile"))
	}
	if signals.Int("minzoom") != 3 {
		t.Errorf("minzoom = %d", signals.Int("minzoom"))
	}
	if !signals.Bool("pmtiles") {
		t.Error("pmtiles lost")
	}
	if signals.Has("outputname") {
		t.Error("phantom signal")
	}
	if signals.String("minzoom") != "" {
		t.Error("type confusion on String accessor")
	}

	if _, err := ParseSignals([]byte("not json")); err == nil {
		t.Error("expected parse error")
	}
}
