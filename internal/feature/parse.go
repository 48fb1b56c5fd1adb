package feature

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrUnsupportedGeometry marks geometry types outside Point, LineString,
// and Polygon.
var ErrUnsupportedGeometry = errors.New("unsupported geometry type")

// envelope is the outer GeoJSON document shape. Features are kept raw so
// one malformed feature cannot fail the whole collection.
type envelope struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// ParseGeoJSON decodes a GeoJSON document into the pipeline's feature
// model. A FeatureCollection tolerates individually malformed features:
// each is dropped with a diagnostic, and only an entirely unusable
// collection is an error.
func ParseGeoJSON(data []byte) ([]Feature, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing geojson: %w", err)
	}

	switch env.Type {
	case "FeatureCollection":
		features := make([]Feature, 0, len(env.Features))
		for _, raw := range env.Features {
			f, err := parseFeature(raw)
			if err != nil {
				log.Printf("feature parse warning: %v", err)
				continue
			}
			features = append(features, f)
		}
		if len(features) == 0 {
			return nil, ErrEmptyFeatureSet
		}
		return features, nil
	case "Feature":
		f, err := parseFeature(data)
		if err != nil {
			return nil, err
		}
		return []Feature{f}, nil
	default:
		return nil, fmt.Errorf("unsupported geojson document type %q", env.Type)
	}
}

func parseFeature(raw json.RawMessage) (Feature, error) {
	gf, err := geojson.UnmarshalFeature(raw)
	if err != nil {
		return Feature{}, fmt.Errorf("parsing feature: %w", err)
	}
	if gf.Geometry == nil {
		return Feature{}, errors.New("feature has no geometry")
	}

	geom, err := convertGeometry(gf.Geometry)
	if err != nil {
		return Feature{}, err
	}

	// Re-decode the properties object directly: orb decodes numbers as
	// float64 and loses key order, while the encoder needs the int/double
	// distinction and a stable property order.
	var shell struct {
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(raw, &shell); err != nil {
		return Feature{}, fmt.Errorf("parsing feature properties: %w", err)
	}
	props, err := decodeProperties(shell.Properties)
	if err != nil {
		return Feature{}, err
	}

	return Feature{Geometry: geom, Properties: props}, nil
}

func convertGeometry(g orb.Geometry) (Geometry, error) {
	switch geom := g.(type) {
	case orb.Point:
		return Point{Lon: geom[0], Lat: geom[1]}, nil
	case orb.LineString:
		line := make(Line, len(geom))
		for i, p := range geom {
			line[i] = Point{Lon: p[0], Lat: p[1]}
		}
		return line, nil
	case orb.Polygon:
		if len(geom) == 0 {
			return nil, errors.New("empty polygon")
		}
		poly := make(Polygon, len(geom))
		for i, ring := range geom {
			poly[i] = make([]Point, len(ring))
			for j, p := range ring {
				poly[i][j] = Point{Lon: p[0], Lat: p[1]}
			}
		}
		return poly, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
	}
}

// decodeProperties walks the properties object token by token, keeping
// document order and decoding numbers as json.Number so integer-literal
// values stay integers.
func decodeProperties(raw json.RawMessage) ([]Property, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing properties: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("properties is not an object")
	}

	var props []Property
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing properties: %w", err)
		}
		key := keyTok.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("parsing property %q: %w", key, err)
		}
		props = append(props, Property{Key: key, Value: normalizeValue(v)})
	}
	return props, nil
}

// normalizeValue maps decoded JSON scalars onto the value model: string,
// int64, float64, bool, or nil. Non-scalar values pass through unchanged
// and encode as empty MVT values.
func normalizeValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
