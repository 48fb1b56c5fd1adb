// Package feature defines the in-memory feature model consumed by the
// tiling pipeline: a closed geometry sum type over lon/lat degree pairs
// plus an ordered list of scalar properties.
package feature

import (
	"errors"
	"math"
)

// ErrEmptyFeatureSet is returned when parsing yields no usable features.
var ErrEmptyFeatureSet = errors.New("no valid features found")

// Geometry is one of Point, Line, or Polygon. The set is closed: the
// tiler and encoder switch exhaustively over these three shapes.
type Geometry interface {
	isGeometry()
}

// Point is a single lon/lat position.
type Point struct {
	Lon, Lat float64
}

// Line is an ordered sequence of positions.
type Line []Point

// Polygon is an exterior ring followed by zero or more interior rings
// (holes). Rings are closed: first vertex equals last.
type Polygon [][]Point

func (Point) isGeometry()   {}
func (Line) isGeometry()    {}
func (Polygon) isGeometry() {}

// Property is a single key/value pair. Value is nil (JSON null), string,
// int64, float64, or bool; any other decoded shape is carried through and
// encoded as an empty MVT value.
type Property struct {
	Key   string
	Value any
}

// Feature pairs a geometry with its ordered property list. Features are
// immutable once parsed.
type Feature struct {
	Geometry   Geometry
	Properties []Property
}

// Bounds is a geographic bounding box.
type Bounds struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// Center returns the midpoint of the box.
func (b Bounds) Center() (lon, lat float64) {
	return (b.MinLon + b.MaxLon) / 2, (b.MinLat + b.MaxLat) / 2
}

// CollectionBounds computes the bounding box over every feature's
// geometry. For polygons only the exterior ring contributes; holes lie
// inside it by construction.
func CollectionBounds(features []Feature) (Bounds, error) {
	if len(features) == 0 {
		return Bounds{}, ErrEmptyFeatureSet
	}

	b := Bounds{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}
	for _, f := range features {
		switch g := f.Geometry.(type) {
		case Point:
			b.extend(g)
		case Line:
			for _, p := range g {
				b.extend(p)
			}
		case Polygon:
			if len(g) > 0 {
				for _, p := range g[0] {
					b.extend(p)
				}
			}
		}
	}
	return b, nil
}

func (b *Bounds) extend(p Point) {
	if p.Lon < b.MinLon {
		b.MinLon = p.Lon
	}
	if p.Lat < b.MinLat {
		b.MinLat = p.Lat
	}
	if p.Lon > b.MaxLon {
		b.MaxLon = p.Lon
	}
	if p.Lat > b.MaxLat {
		b.MaxLat = p.Lat
	}
}
