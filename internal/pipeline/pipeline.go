// Package pipeline drives the full GeoJSON-to-vector-tile conversion:
// parse, compute metadata, assign features per zoom level, and encode
// every populated tile. One call owns all its intermediate state; a call
// either completes or fails with no partial output.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/joeblew999/plat-tiler/internal/feature"
	"github.com/joeblew999/plat-tiler/internal/mvt"
	"github.com/joeblew999/plat-tiler/internal/tiler"
)

// Tile is one encoded output tile.
type Tile struct {
	Coord tiler.Coord
	Path  string // "{z}/{x}/{y}.pbf"
	Data  []byte
}

// Metadata summarizes one generated tile set; bounds and center cover
// the entire input feature set, independent of zoom.
type Metadata struct {
	MinZoom uint8
	MaxZoom uint8
	Layer   string
	Bounds  feature.Bounds
	Center  struct{ Lon, Lat float64 }
}

// Generate converts a GeoJSON document into encoded tiles for every zoom
// level in [minZoom, maxZoom], discarding metadata.
func Generate(geojson []byte, minZoom, maxZoom uint8, layerName string) ([]Tile, error) {
	tiles, _, err := GenerateWithMetadata(geojson, minZoom, maxZoom, layerName)
	return tiles, err
}

// GenerateWithMetadata converts a GeoJSON document into encoded tiles
// plus tile-set metadata. Output is deterministic: zoom ascending, then
// tile x ascending, then y ascending, with input feature order preserved
// within each tile.
func GenerateWithMetadata(geojson []byte, minZoom, maxZoom uint8, layerName string) ([]Tile, Metadata, error) {
	if minZoom > maxZoom {
		return nil, Metadata{}, fmt.Errorf("invalid zoom range %d-%d", minZoom, maxZoom)
	}

	features, err := feature.ParseGeoJSON(geojson)
	if err != nil {
		return nil, Metadata{}, err
	}

	bounds, err := feature.CollectionBounds(features)
	if err != nil {
		return nil, Metadata{}, err
	}

	meta := Metadata{
		MinZoom: minZoom,
		MaxZoom: maxZoom,
		Layer:   layerName,
		Bounds:  bounds,
	}
	meta.Center.Lon, meta.Center.Lat = bounds.Center()

	var out []Tile
	for zoom := minZoom; ; zoom++ {
		assignment := tiler.Assign(features, zoom)

		for _, coord := range sortedCoords(assignment) {
			data, err := mvt.Marshal(assignment[coord], layerName)
			if err != nil {
				return nil, Metadata{}, fmt.Errorf("encoding tile %s: %w", coord.Path(), err)
			}
			out = append(out, Tile{Coord: coord, Path: coord.Path(), Data: data})
		}

		if zoom == maxZoom {
			break
		}
	}
	return out, meta, nil
}

// sortedCoords orders a zoom level's tiles x ascending, then y
// ascending, for reproducible byte-for-byte output.
func sortedCoords(a tiler.Assignment) []tiler.Coord {
	coords := make([]tiler.Coord, 0, len(a))
	for c := range a {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		return coords[i].Y < coords[j].Y
	})
	return coords
}
