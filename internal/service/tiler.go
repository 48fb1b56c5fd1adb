package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeblew999/plat-tiler/internal/pipeline"
	"github.com/joeblew999/plat-tiler/internal/pmtiles"
	"github.com/joeblew999/plat-tiler/internal/source"
)

// TilerService runs the in-process tile generation pipeline.
type TilerService struct {
	sourcesDir string
	tilesDir   string
}

// NewTilerService creates a new tiler service.
func NewTilerService(dataDir string) *TilerService {
	return &TilerService{
		sourcesDir: filepath.Join(dataDir, "sources"),
		tilesDir:   filepath.Join(dataDir, "tiles"),
	}
}

// ProgressFunc is called with progress updates during tile generation.
type ProgressFunc func(progress int, status string)

// Generate runs the pipeline over a source file and writes either a
// z/x/y tile tree plus a TileJSON document, or a single PMTiles
// archive.
func (s *TilerService) Generate(ctx context.Context, opts GenerateOptions, onProgress ProgressFunc) (*GenerateResult, error) {
	// Apply defaults
	if opts.LayerName == "" {
		opts.LayerName = "default"
	}
	if opts.MinZoom == 0 && opts.MaxZoom == 0 {
		opts.MaxZoom = 14
	}
	if opts.MinZoom > opts.MaxZoom {
		return nil, fmt.Errorf("invalid zoom range: %d > %d", opts.MinZoom, opts.MaxZoom)
	}

	if err := s.ValidateSourceFile(opts.SourceFile); err != nil {
		return nil, err
	}
	if err := validateOutputName(opts.OutputName); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.tilesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create tiles directory: %w", err)
	}

	if onProgress != nil {
		onProgress(10, "Loading source...")
	}
	data, err := source.Load(filepath.Join(s.sourcesDir, opts.SourceFile))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if onProgress != nil {
		onProgress(30, "Generating tiles...")
	}
	tiles, meta, err := pipeline.GenerateWithMetadata(data, uint8(opts.MinZoom), uint8(opts.MaxZoom), opts.LayerName)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if onProgress != nil {
		onProgress(70, fmt.Sprintf("Writing %d tiles...", len(tiles)))
	}
	output := opts.OutputName
	if opts.PMTiles {
		if !strings.HasSuffix(output, ".pmtiles") {
			output += ".pmtiles"
		}
		if err := pmtiles.WriteArchive(filepath.Join(s.tilesDir, output), tiles, meta); err != nil {
			return nil, err
		}
	} else {
		if err := s.writeTree(output, tiles, meta); err != nil {
			return nil, err
		}
	}

	if onProgress != nil {
		onProgress(100, "Tiles generated successfully!")
	}

	centerLon, centerLat := meta.Bounds.Center()
	result := &GenerateResult{
		Output:    output,
		TileCount: len(tiles),
		MinZoom:   int(meta.MinZoom),
		MaxZoom:   int(meta.MaxZoom),
		Bounds:    [4]float64{meta.Bounds.MinLon, meta.Bounds.MinLat, meta.Bounds.MaxLon, meta.Bounds.MaxLat},
		Center:    [2]float64{centerLon, centerLat},
	}
	DefaultBus.Publish(Event{Resource: "tilesets", Action: "created", ID: output})
	return result, nil
}

// writeTree writes tiles as {name}/{z}/{x}/{y}.pbf plus a TileJSON
// metadata document at {name}/metadata.json.
func (s *TilerService) writeTree(name string, tiles []pipeline.Tile, meta pipeline.Metadata) error {
	root := filepath.Join(s.tilesDir, name)
	for _, tile := range tiles {
		path := filepath.Join(root, filepath.FromSlash(tile.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create tile directory: %w", err)
		}
		if err := os.WriteFile(path, tile.Data, 0644); err != nil {
			return fmt.Errorf("failed to write tile %s: %w", tile.Path, err)
		}
	}

	centerLon, centerLat := meta.Bounds.Center()
	doc := TileJSON{
		TileJSON: "3.0.0",
		Name:     name,
		Format:   "pbf",
		Tiles:    []string{"{z}/{x}/{y}.pbf"},
		MinZoom:  int(meta.MinZoom),
		MaxZoom:  int(meta.MaxZoom),
		Bounds:   [4]float64{meta.Bounds.MinLon, meta.Bounds.MinLat, meta.Bounds.MaxLon, meta.Bounds.MaxLat},
		Center:   [3]float64{centerLon, centerLat, float64(meta.MinZoom)},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(root, "metadata.json"), data, 0644)
}

// SourcesDir returns the sources directory path.
func (s *TilerService) SourcesDir() string {
	return s.sourcesDir
}

// TilesDir returns the tiles directory path.
func (s *TilerService) TilesDir() string {
	return s.tilesDir
}

// ValidateSourceFile checks that a source file has a valid name and
// exists in the sources directory.
func (s *TilerService) ValidateSourceFile(filename string) error {
	if err := source.ValidateName(filename); err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(s.sourcesDir, filename)); os.IsNotExist(err) {
		return fmt.Errorf("source file not found: %s", filename)
	}
	return nil
}

func validateOutputName(name string) error {
	if name == "" {
		return fmt.Errorf("output name is required")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid output name")
	}
	return nil
}
