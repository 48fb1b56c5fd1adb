package projection

import (
	"math"
	"testing"
)

func TestGeoToMeters(t *testing.T) {
	// Tokyo
	mx, my := GeoToMeters(139.7671, 35.6812)
	if mx < 15_500_000 || mx > 15_600_000 {
		t.Errorf("mx = %f, want ~15.56M", mx)
	}
	if my < 4_200_000 || my > 4_300_000 {
		t.Errorf("my = %f, want ~4.26M", my)
	}

	// The origin projects to the origin.
	mx, my = GeoToMeters(0, 0)
	if math.Abs(mx) > 1e-9 || math.Abs(my) > 1e-9 {
		t.Errorf("origin projected to (%f, %f)", mx, my)
	}
}

func TestGeoToTile(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
		zoom     uint8
		tx, ty   uint32
	}{
		{"world is one tile at z0", 0, 0, 0, 0, 0},
		{"tokyo at z0", 139.7671, 35.6812, 0, 0, 0},
		{"far south-west at z0", -179.9, -85, 0, 0, 0},
		{"eastern hemisphere at z1", 90, 0, 1, 1, 0},
		{"southern hemisphere at z1", 0, -45, 1, 1, 1},
		{"tokyo at z5", 139.7671, 35.6812, 5, 28, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, ty := GeoToTile(tt.lon, tt.lat, tt.zoom)
			if tx != tt.tx || ty != tt.ty {
				t.Errorf("GeoToTile(%f, %f, %d) = (%d, %d), want (%d, %d)",
					tt.lon, tt.lat, tt.zoom, tx, ty, tt.tx, tt.ty)
			}
		})
	}
}

func TestGeoToTileClampsOutOfRange(t *testing.T) {
	// Longitude 180 would compute index 2^z; it must clamp to 2^z-1.
	tx, _ := GeoToTile(180, 0, 3)
	if tx != 7 {
		t.Errorf("tx = %d, want 7", tx)
	}
	tx, _ = GeoToTile(-180.0001, 0, 3)
	if tx != 0 {
		t.Errorf("tx = %d, want 0", tx)
	}
}

func TestTileCount(t *testing.T) {
	for z := uint8(0); z <= 20; z++ {
		want := uint32(math.Exp2(float64(z)))
		if got := TileCount(z); got != want {
			t.Errorf("TileCount(%d) = %d, want %d", z, got, want)
		}
	}
}

func TestTileBounds(t *testing.T) {
	// The single z0 tile spans the whole projected plane.
	minX, minY, maxX, maxY := TileBounds(0, 0, 0)
	shift := math.Pi * EarthRadius
	for _, c := range []struct {
		got, want float64
	}{
		{minX, -shift}, {minY, -shift}, {maxX, shift}, {maxY, shift},
	} {
		if math.Abs(c.got-c.want) > 1e-6 {
			t.Errorf("bound = %f, want %f", c.got, c.want)
		}
	}

	// Adjacent tiles share an edge.
	_, _, maxX0, _ := TileBounds(0, 0, 4)
	minX1, _, _, _ := TileBounds(1, 0, 4)
	if math.Abs(maxX0-minX1) > 1e-6 {
		t.Errorf("tile edge mismatch: %f vs %f", maxX0, minX1)
	}
}

func TestMetersToTilePixel(t *testing.T) {
	// A point projected into its own tile lands within [0, 256).
	lon, lat := 139.7671, 35.6812
	const zoom = 5
	tx, ty := GeoToTile(lon, lat, zoom)
	mx, my := GeoToMeters(lon, lat)
	px, py := MetersToTilePixel(mx, my, tx, ty, zoom)
	if px < 0 || px >= TileSize || py < 0 || py >= TileSize {
		t.Errorf("pixel (%f, %f) outside tile", px, py)
	}

	// The tile's own top-left corner is pixel (0, 0).
	minX, _, _, maxY := TileBounds(tx, ty, zoom)
	px, py = MetersToTilePixel(minX, maxY, tx, ty, zoom)
	if math.Abs(px) > 1e-6 || math.Abs(py) > 1e-6 {
		t.Errorf("corner pixel = (%f, %f), want (0, 0)", px, py)
	}
}

func TestResolutionHalvesPerZoom(t *testing.T) {
	for z := uint8(0); z < 20; z++ {
		r0, r1 := Resolution(z), Resolution(z+1)
		if math.Abs(r0/r1-2) > 1e-9 {
			t.Errorf("resolution ratio z%d/z%d = %f, want 2", z, z+1, r0/r1)
		}
	}
}
