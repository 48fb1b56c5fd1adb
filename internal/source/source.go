// Package source loads input feature documents for the tile pipeline.
// GeoJSON files are passed through as-is; GeoParquet files are read via
// DuckDB and materialized as a GeoJSON feature collection.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fileTypes maps supported source extensions to display names.
var fileTypes = map[string]string{
	".geojson":    "GeoJSON",
	".json":       "GeoJSON",
	".parquet":    "GeoParquet",
	".geoparquet": "GeoParquet",
}

// Load reads a source file and returns GeoJSON bytes ready for the
// pipeline, converting from GeoParquet when needed.
func Load(path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading source: %w", err)
		}
		return data, nil
	case ".parquet", ".geoparquet":
		return FromGeoParquet(path)
	default:
		return nil, fmt.Errorf("unsupported source file type: %s", filepath.Ext(path))
	}
}

// Supported reports whether the file extension is a readable source type.
func Supported(name string) bool {
	_, ok := fileTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}

// TypeName returns the display name for a source file's type, or an
// empty string for unsupported files.
func TypeName(name string) string {
	return fileTypes[strings.ToLower(filepath.Ext(name))]
}

// ValidateName rejects path traversal and unsupported extensions for
// user-supplied source file names.
func ValidateName(name string) error {
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid filename")
	}
	if !Supported(name) {
		return fmt.Errorf("unsupported file type: %s", filepath.Ext(name))
	}
	return nil
}
