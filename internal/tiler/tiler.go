// Package tiler assigns geographic features to slippy-map tiles and
// reprojects their coordinates into tile-local integer space.
//
// Intersection is decided by bounding box only: a feature whose bbox
// spans a rectangle of tiles is placed verbatim in every tile of that
// rectangle, even where the actual geometry misses a tile. Downstream
// consumers depend on this over-inclusion, so it must not be replaced
// with real clipping.
package tiler

import (
	"fmt"
	"math"

	"github.com/joeblew999/plat-tiler/internal/feature"
	"github.com/joeblew999/plat-tiler/internal/projection"
)

// Extent is the nominal tile-local coordinate range.
const Extent = 4096

// Coord identifies one tile in the slippy-map scheme: origin top-left,
// x east, y south. Comparable, used as a map key.
type Coord struct {
	Z uint8
	X uint32
	Y uint32
}

// Path returns the tile's relative output path, "{z}/{x}/{y}.pbf".
func (c Coord) Path() string {
	return fmt.Sprintf("%d/%d/%d.pbf", c.Z, c.X, c.Y)
}

// Geometry is tile-local geometry: signed integers nominally in
// [0, Extent], legitimately outside that range where the source geometry
// straddles the tile edge. No clamping is performed.
type Geometry interface {
	isTileGeometry()
}

// Point is a single tile-local position.
type Point struct {
	X, Y int32
}

// Line is a tile-local vertex sequence.
type Line []Point

// Polygon is a tile-local exterior ring followed by its holes.
type Polygon [][]Point

func (Point) isTileGeometry()   {}
func (Line) isTileGeometry()    {}
func (Polygon) isTileGeometry() {}

// Feature is a feature reprojected into one tile. Properties are copied
// per tile since a source feature lands in many tiles.
type Feature struct {
	Geometry   Geometry
	Properties []feature.Property
}

// Assignment maps tile coordinates to the features intersecting them,
// for a single zoom level.
type Assignment map[Coord][]Feature

// Assign distributes features over the tiles their bounding boxes touch
// at the given zoom. Empty geometries contribute nothing; index clamping
// in the projection guarantees every finite coordinate finds a tile.
func Assign(features []feature.Feature, zoom uint8) Assignment {
	tiles := make(Assignment)
	for _, f := range features {
		switch g := f.Geometry.(type) {
		case feature.Point:
			assignPoint(tiles, g, f.Properties, zoom)
		case feature.Line:
			assignLine(tiles, g, f.Properties, zoom)
		case feature.Polygon:
			assignPolygon(tiles, g, f.Properties, zoom)
		}
	}
	return tiles
}

// assignPoint places a point in the single tile containing it.
func assignPoint(tiles Assignment, p feature.Point, props []feature.Property, zoom uint8) {
	tx, ty := projection.GeoToTile(p.Lon, p.Lat, zoom)
	c := Coord{Z: zoom, X: tx, Y: ty}
	tiles[c] = append(tiles[c], Feature{
		Geometry:   localPoint(p, tx, ty, zoom),
		Properties: copyProperties(props),
	})
}

func assignLine(tiles Assignment, line feature.Line, props []feature.Property, zoom uint8) {
	if len(line) == 0 {
		return
	}

	txMin, txMax, tyMin, tyMax := tileRange(line, zoom)
	for tx := txMin; tx <= txMax; tx++ {
		for ty := tyMin; ty <= tyMax; ty++ {
			local := make(Line, len(line))
			for i, p := range line {
				local[i] = localPoint(p, tx, ty, zoom)
			}
			c := Coord{Z: zoom, X: tx, Y: ty}
			tiles[c] = append(tiles[c], Feature{
				Geometry:   local,
				Properties: copyProperties(props),
			})
		}
	}
}

func assignPolygon(tiles Assignment, poly feature.Polygon, props []feature.Property, zoom uint8) {
	if len(poly) == 0 || len(poly[0]) == 0 {
		return
	}

	// Only the exterior ring drives the candidate rectangle; holes lie
	// inside it.
	txMin, txMax, tyMin, tyMax := tileRange(poly[0], zoom)
	for tx := txMin; tx <= txMax; tx++ {
		for ty := tyMin; ty <= tyMax; ty++ {
			local := make(Polygon, len(poly))
			for r, ring := range poly {
				local[r] = make([]Point, len(ring))
				for i, p := range ring {
					local[r][i] = localPoint(p, tx, ty, zoom)
				}
			}
			c := Coord{Z: zoom, X: tx, Y: ty}
			tiles[c] = append(tiles[c], Feature{
				Geometry:   local,
				Properties: copyProperties(props),
			})
		}
	}
}

// tileRange returns the inclusive tile rectangle covering the vertices'
// bounding box. Tile y grows southward, so the min-latitude corner gives
// the max tile y.
func tileRange(points []feature.Point, zoom uint8) (txMin, txMax, tyMin, tyMax uint32) {
	minLon, minLat := points[0].Lon, points[0].Lat
	maxLon, maxLat := minLon, minLat
	for _, p := range points[1:] {
		minLon = math.Min(minLon, p.Lon)
		minLat = math.Min(minLat, p.Lat)
		maxLon = math.Max(maxLon, p.Lon)
		maxLat = math.Max(maxLat, p.Lat)
	}

	txMin, tyMax = projection.GeoToTile(minLon, minLat, zoom)
	txMax, tyMin = projection.GeoToTile(maxLon, maxLat, zoom)
	return txMin, txMax, tyMin, tyMax
}

// localPoint reprojects a geographic point into the given tile's integer
// extent: geo → meters → pixel within tile → scaled to 0–4096.
func localPoint(p feature.Point, tx, ty uint32, zoom uint8) Point {
	mx, my := projection.GeoToMeters(p.Lon, p.Lat)
	px, py := projection.MetersToTilePixel(mx, my, tx, ty, zoom)
	return Point{
		X: int32(math.Round(px / projection.TileSize * Extent)),
		Y: int32(math.Round(py / projection.TileSize * Extent)),
	}
}

func copyProperties(props []feature.Property) []feature.Property {
	if props == nil {
		return nil
	}
	cp := make([]feature.Property, len(props))
	copy(cp, props)
	return cp
}
