// Package mvt encodes one tile's features into the Mapbox Vector Tile
// binary format: geometry command streams with zig-zag delta coordinates,
// deduplicated key/value dictionaries, and a single version-2 layer per
// tile. The protobuf message shape comes from paulmach/orb's generated
// vector_tile schema; byte framing is delegated to gogo/protobuf.
package mvt

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gogo/protobuf/proto"
	"github.com/paulmach/orb/encoding/mvt/vectortile"

	"github.com/joeblew999/plat-tiler/internal/tiler"
)

// ErrNoFeatures is returned when a tile with no features is encoded. The
// pipeline never requests an empty tile; hitting this is a caller bug.
var ErrNoFeatures = errors.New("mvt: no features to encode")

// MVT geometry commands.
const (
	cmdMoveTo    = 1
	cmdLineTo    = 2
	cmdClosePath = 7
)

// Marshal encodes the tile's feature sequence as a vector tile with a
// single layer. Feature order is preserved; each feature's ID is its
// 0-based position in the input.
func Marshal(features []tiler.Feature, layerName string) ([]byte, error) {
	if len(features) == 0 {
		return nil, ErrNoFeatures
	}

	dict := newDictionary()
	encoded := make([]*vectortile.Tile_Feature, 0, len(features))

	for i, f := range features {
		tags := make([]uint32, 0, 2*len(f.Properties))
		for _, p := range f.Properties {
			ki, vi := dict.add(p.Key, p.Value)
			tags = append(tags, ki, vi)
		}

		geomType, geometry := encodeGeometry(f.Geometry)

		encoded = append(encoded, &vectortile.Tile_Feature{
			Id:       proto.Uint64(uint64(i)),
			Tags:     tags,
			Type:     geomType.Enum(),
			Geometry: geometry,
		})
	}

	layer := &vectortile.Tile_Layer{
		Version:  proto.Uint32(2),
		Name:     proto.String(layerName),
		Features: encoded,
		Keys:     dict.keys,
		Values:   dict.values,
		Extent:   proto.Uint32(tiler.Extent),
	}

	data, err := proto.Marshal(&vectortile.Tile{
		Layers: []*vectortile.Tile_Layer{layer},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling vector tile: %w", err)
	}
	return data, nil
}

// encodeGeometry produces the MVT command/parameter stream for one
// tile-local geometry.
func encodeGeometry(g tiler.Geometry) (vectortile.Tile_GeomType, []uint32) {
	switch geom := g.(type) {
	case tiler.Point:
		return vectortile.Tile_POINT, []uint32{
			commandInteger(cmdMoveTo, 1),
			zigzag(geom.X),
			zigzag(geom.Y),
		}
	case tiler.Line:
		return vectortile.Tile_LINESTRING, encodeLine(geom)
	case tiler.Polygon:
		return vectortile.Tile_POLYGON, encodePolygon(geom)
	default:
		return vectortile.Tile_UNKNOWN, nil
	}
}

func encodeLine(line tiler.Line) []uint32 {
	if len(line) == 0 {
		return nil
	}

	cmds := make([]uint32, 0, 2*len(line)+2)
	cmds = append(cmds, commandInteger(cmdMoveTo, 1), zigzag(line[0].X), zigzag(line[0].Y))

	if len(line) > 1 {
		cmds = append(cmds, commandInteger(cmdLineTo, uint32(len(line)-1)))
		for i := 1; i < len(line); i++ {
			cmds = append(cmds,
				zigzag(line[i].X-line[i-1].X),
				zigzag(line[i].Y-line[i-1].Y))
		}
	}
	return cmds
}

func encodePolygon(poly tiler.Polygon) []uint32 {
	var cmds []uint32
	for _, ring := range poly {
		// A meaningful closed ring carries at least 4 vertices (first
		// repeated as last). Degenerate rings are dropped silently.
		if len(ring) < 4 {
			continue
		}

		// Drop the closing duplicate; ClosePath stands in for it.
		n := len(ring) - 1
		cmds = append(cmds, commandInteger(cmdMoveTo, 1), zigzag(ring[0].X), zigzag(ring[0].Y))
		if n > 1 {
			cmds = append(cmds, commandInteger(cmdLineTo, uint32(n-1)))
			for i := 1; i < n; i++ {
				cmds = append(cmds,
					zigzag(ring[i].X-ring[i-1].X),
					zigzag(ring[i].Y-ring[i-1].Y))
			}
		}
		cmds = append(cmds, commandInteger(cmdClosePath, 1))
	}
	return cmds
}

// commandInteger packs a geometry command with its repeat count.
func commandInteger(id, count uint32) uint32 {
	return (id & 0x7) | (count << 3)
}

// zigzag maps a signed 32-bit delta onto an unsigned varint-friendly
// integer.
func zigzag(n int32) uint32 {
	return uint32((n << 1) ^ (n >> 31))
}

// dictionary accumulates the per-tile key and value tables. Value
// identity is (type, canonical text): floats dedupe by their shortest
// round-trip decimal form, so equal numbers share an entry without
// relying on float hashing.
type dictionary struct {
	keys     []string
	values   []*vectortile.Tile_Value
	keyIdx   map[string]uint32
	valueIdx map[valueKey]uint32
}

type valueKey struct {
	kind byte
	text string
}

func newDictionary() *dictionary {
	return &dictionary{
		keyIdx:   make(map[string]uint32),
		valueIdx: make(map[valueKey]uint32),
	}
}

func (d *dictionary) add(key string, value any) (ki, vi uint32) {
	ki, ok := d.keyIdx[key]
	if !ok {
		ki = uint32(len(d.keys))
		d.keys = append(d.keys, key)
		d.keyIdx[key] = ki
	}

	vk := canonicalKey(value)
	vi, ok = d.valueIdx[vk]
	if !ok {
		vi = uint32(len(d.values))
		d.values = append(d.values, tileValue(value))
		d.valueIdx[vk] = vi
	}
	return ki, vi
}

func canonicalKey(value any) valueKey {
	switch v := value.(type) {
	case string:
		return valueKey{'s', v}
	case int64:
		return valueKey{'i', strconv.FormatInt(v, 10)}
	case float64:
		return valueKey{'d', strconv.FormatFloat(v, 'g', -1, 64)}
	case bool:
		return valueKey{'b', strconv.FormatBool(v)}
	default:
		// null and non-scalar shapes collapse onto the shared empty value.
		return valueKey{'n', ""}
	}
}

// tileValue maps a property value onto exactly one populated scalar
// field. Unsupported shapes become the all-empty placeholder rather than
// failing the tile.
func tileValue(value any) *vectortile.Tile_Value {
	switch v := value.(type) {
	case string:
		return &vectortile.Tile_Value{StringValue: proto.String(v)}
	case int64:
		return &vectortile.Tile_Value{IntValue: proto.Int64(v)}
	case float64:
		return &vectortile.Tile_Value{DoubleValue: proto.Float64(v)}
	case bool:
		return &vectortile.Tile_Value{BoolValue: proto.Bool(v)}
	default:
		return &vectortile.Tile_Value{}
	}
}
