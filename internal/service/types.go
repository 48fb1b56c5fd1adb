// Package service contains business logic for the plat-tiler platform.
package service

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GenerateOptions contains options for tile generation.
type GenerateOptions struct {
	SourceFile string `json:"sourceFile" yaml:"sourceFile" required:"true" doc:"Source file name" example:"buildings.geojson"`
	OutputName string `json:"outputName" yaml:"outputName" required:"true" doc:"Output tile set name" example:"buildings"`
	LayerName  string `json:"layerName" yaml:"layerName" doc:"Layer name in tiles" default:"default"`
	MinZoom    int    `json:"minZoom" yaml:"minZoom" minimum:"0" maximum:"22" doc:"Minimum zoom level"`
	MaxZoom    int    `json:"maxZoom" yaml:"maxZoom" minimum:"0" maximum:"22" doc:"Maximum zoom level"`
	PMTiles    bool   `json:"pmtiles" yaml:"pmtiles" doc:"Write a single PMTiles archive instead of a z/x/y tree"`
}

// GenerateResult summarizes a completed tile generation run.
type GenerateResult struct {
	Output    string     `json:"output" doc:"Output path relative to the tiles directory"`
	TileCount int        `json:"tileCount" doc:"Number of tiles written"`
	MinZoom   int        `json:"minZoom" doc:"Minimum zoom level generated"`
	MaxZoom   int        `json:"maxZoom" doc:"Maximum zoom level generated"`
	Bounds    [4]float64 `json:"bounds" doc:"Data bounds as [minLon, minLat, maxLon, maxLat]"`
	Center    [2]float64 `json:"center" doc:"Bounds center as [lon, lat]"`
}

// SourceFile represents a source data file (GeoJSON or GeoParquet).
type SourceFile struct {
	Name     string `json:"name" doc:"File name" example:"buildings.geojson"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	FileType string `json:"fileType" doc:"File type: GeoJSON or GeoParquet" example:"GeoJSON"`
}

// TileSet represents a generated tile set, either a z/x/y directory
// tree or a single PMTiles archive.
type TileSet struct {
	Name    string `json:"name" doc:"Tile set name" example:"buildings"`
	Size    string `json:"size" doc:"Human-readable total size" example:"5.4 MB"`
	Archive bool   `json:"archive" doc:"True for a PMTiles archive, false for a z/x/y tree"`
}

// TileJSON is the metadata document written next to a z/x/y tile tree.
// https://github.com/mapbox/tilejson-spec
type TileJSON struct {
	TileJSON string     `json:"tilejson"`
	Name     string     `json:"name"`
	Format   string     `json:"format"`
	Tiles    []string   `json:"tiles"`
	MinZoom  int        `json:"minzoom"`
	MaxZoom  int        `json:"maxzoom"`
	Bounds   [4]float64 `json:"bounds"`
	Center   [3]float64 `json:"center"`
}

// BatchConfig is a YAML batch job file: a list of generation jobs run
// in order.
type BatchConfig struct {
	Jobs []GenerateOptions `yaml:"jobs"`
}

// LoadBatchConfig reads and validates a YAML batch job file.
func LoadBatchConfig(path string) (BatchConfig, error) {
	var cfg BatchConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading batch config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing batch config: %w", err)
	}
	if len(cfg.Jobs) == 0 {
		return cfg, fmt.Errorf("batch config has no jobs")
	}
	for i, job := range cfg.Jobs {
		if job.SourceFile == "" || job.OutputName == "" {
			return cfg, fmt.Errorf("job %d: sourceFile and outputName are required", i)
		}
	}
	return cfg, nil
}
