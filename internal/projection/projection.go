// Package projection converts between geographic degrees, spherical
// Web-Mercator meters, slippy-map tile indices, and pixel offsets
// within a 256-px tile.
//
// All functions are pure. Latitudes at or beyond ±90° make the Mercator
// formulas diverge; callers are expected to feed finite, in-domain
// coordinates.
package projection

import "math"

// EarthRadius is the WGS84 spherical Earth radius in meters.
const EarthRadius = 6378137.0

// TileSize is the nominal tile edge in pixels.
const TileSize = 256.0

// originShift is half the circumference of the projected plane, i.e. the
// meter coordinate of the antimeridian.
const originShift = math.Pi * EarthRadius

// GeoToMeters projects lon/lat degrees to Web-Mercator meters.
func GeoToMeters(lon, lat float64) (mx, my float64) {
	mx = lon * originShift / 180
	my = math.Log(math.Tan((90+lat)*math.Pi/360)) / (math.Pi / 180)
	my = my * originShift / 180
	return mx, my
}

// GeoToTile returns the slippy-map tile containing lon/lat at the given
// zoom, using the direct trigonometric formula. Indices are clamped into
// [0, 2^zoom-1] so any finite coordinate maps to a valid tile.
func GeoToTile(lon, lat float64, zoom uint8) (tx, ty uint32) {
	n := math.Exp2(float64(zoom))

	fx := math.Floor((lon + 180) / 360 * n)

	latRad := lat * math.Pi / 180
	fy := math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n)

	max := float64(TileCount(zoom) - 1)
	return uint32(clamp(fx, 0, max)), uint32(clamp(fy, 0, max))
}

// TileBounds returns the Web-Mercator meter bounding box of a tile.
func TileBounds(tx, ty uint32, zoom uint8) (minX, minY, maxX, maxY float64) {
	res := Resolution(zoom)
	minX = float64(tx)*TileSize*res - originShift
	maxY = originShift - float64(ty)*TileSize*res
	maxX = float64(tx+1)*TileSize*res - originShift
	minY = originShift - float64(ty+1)*TileSize*res
	return minX, minY, maxX, maxY
}

// MetersToTilePixel returns the pixel offset of a Web-Mercator point from
// the top-left corner of the given tile. Pixel y grows downward while
// meter y grows upward, so y is measured from the tile's top edge.
func MetersToTilePixel(mx, my float64, tx, ty uint32, zoom uint8) (px, py float64) {
	minX, _, _, maxY := TileBounds(tx, ty, zoom)
	res := Resolution(zoom)
	px = (mx - minX) / res
	py = (maxY - my) / res
	return px, py
}

// Resolution returns meters per pixel at the given zoom level.
func Resolution(zoom uint8) float64 {
	initial := 2 * math.Pi * EarthRadius / TileSize
	return initial / math.Exp2(float64(zoom))
}

// TileCount returns the number of tiles along one axis at a zoom level.
func TileCount(zoom uint8) uint32 {
	return 1 << zoom
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
