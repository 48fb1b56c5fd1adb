package feature

import (
	"errors"
	"testing"
)

const tokyoPoint = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"geometry": {"type": "Point", "coordinates": [139.7671, 35.6812]},
			"properties": {"name": "Tokyo", "population": 13960000, "area_km2": 2194.07, "capital": true}
		}
	]
}`

func TestParsePointCollection(t *testing.T) {
	features, err := ParseGeoJSON([]byte(tokyoPoint))
	if err != nil {
		t.Fatal(err)
	}
	if len(features) != 1 {
		t.Fatalf("got %d features, want 1", len(features))
	}

	p, ok := features[0].Geometry.(Point)
	if !ok {
		t.Fatalf("geometry is %T, want Point", features[0].Geometry)
	}
	if p.Lon != 139.7671 || p.Lat != 35.6812 {
		t.Errorf("point = (%f, %f)", p.Lon, p.Lat)
	}

	props := features[0].Properties
	if len(props) != 4 {
		t.Fatalf("got %d properties, want 4", len(props))
	}
	// Document order is preserved and integer literals stay integers.
	if props[0].Key != "name" || props[0].Value != "Tokyo" {
		t.Errorf("props[0] = %+v", props[0])
	}
	if v, ok := props[1].Value.(int64); !ok || v != 13960000 {
		t.Errorf("population = %#v, want int64", props[1].Value)
	}
	if v, ok := props[2].Value.(float64); !ok || v != 2194.07 {
		t.Errorf("area_km2 = %#v, want float64", props[2].Value)
	}
	if v, ok := props[3].Value.(bool); !ok || !v {
		t.Errorf("capital = %#v, want true", props[3].Value)
	}
}

func TestParseSingleFeature(t *testing.T) {
	doc := `{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0,0],[1,1]]}, "properties": null}`
	features, err := ParseGeoJSON([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(features) != 1 {
		t.Fatalf("got %d features, want 1", len(features))
	}
	line, ok := features[0].Geometry.(Line)
	if !ok {
		t.Fatalf("geometry is %T, want Line", features[0].Geometry)
	}
	if len(line) != 2 {
		t.Errorf("got %d vertices, want 2", len(line))
	}
}

func TestParsePolygonWithHole(t *testing.T) {
	doc := `{
		"type": "FeatureCollection",
		"features": [{
			"type": "Feature",
			"geometry": {"type": "Polygon", "coordinates": [
				[[0,0],[10,0],[10,10],[0,10],[0,0]],
				[[2,2],[4,2],[4,4],[2,4],[2,2]]
			]},
			"properties": {}
		}]
	}`
	features, err := ParseGeoJSON([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	poly, ok := features[0].Geometry.(Polygon)
	if !ok {
		t.Fatalf("geometry is %T, want Polygon", features[0].Geometry)
	}
	if len(poly) != 2 {
		t.Fatalf("got %d rings, want 2", len(poly))
	}
	if len(poly[0]) != 5 || len(poly[1]) != 5 {
		t.Errorf("ring lengths = %d, %d, want 5, 5", len(poly[0]), len(poly[1]))
	}
}

func TestParseDropsMalformedFeature(t *testing.T) {
	doc := `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "geometry": {"type": "MultiPoint", "coordinates": [[0,0]]}, "properties": {}},
			{"type": "Feature", "geometry": {"type": "Point", "coordinates": [1, 2]}, "properties": {}}
		]
	}`
	features, err := ParseGeoJSON([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	// The MultiPoint is dropped with a warning; the Point survives.
	if len(features) != 1 {
		t.Fatalf("got %d features, want 1", len(features))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{{{`},
		{"unsupported document", `{"type": "GeometryCollection"}`},
		{"all features invalid", `{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {}}]}`},
		{"empty collection", `{"type": "FeatureCollection", "features": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseGeoJSON([]byte(tt.doc)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestCollectionBounds(t *testing.T) {
	features := []Feature{
		{Geometry: Point{Lon: 10, Lat: 20}},
		{Geometry: Line{{Lon: -5, Lat: 0}, {Lon: 3, Lat: 35}}},
		{Geometry: Polygon{
			{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 0, Lat: 0}},
			// Hole outside the exterior bbox must not widen the bounds.
			{{Lon: 90, Lat: 80}, {Lon: 91, Lat: 80}, {Lon: 91, Lat: 81}, {Lon: 90, Lat: 80}},
		}},
	}
	b, err := CollectionBounds(features)
	if err != nil {
		t.Fatal(err)
	}
	want := Bounds{MinLon: -5, MinLat: 0, MaxLon: 10, MaxLat: 35}
	if b != want {
		t.Errorf("bounds = %+v, want %+v", b, want)
	}

	lon, lat := b.Center()
	if lon != 2.5 || lat != 17.5 {
		t.Errorf("center = (%f, %f), want (2.5, 17.5)", lon, lat)
	}
}

func TestCollectionBoundsEmpty(t *testing.T) {
	if _, err := CollectionBounds(nil); !errors.Is(err, ErrEmptyFeatureSet) {
		t.Errorf("err = %v, want ErrEmptyFeatureSet", err)
	}
}
