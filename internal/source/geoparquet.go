package source

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
)

// geometryColumn is the primary geometry column name mandated by the
// GeoParquet specification.
const geometryColumn = "geometry"

// FromGeoParquet reads a GeoParquet file through DuckDB and returns it
// as a GeoJSON feature collection. Geometry is converted server-side
// with ST_AsGeoJSON; every other column becomes a feature property.
func FromGeoParquet(path string) ([]byte, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	defer db.Close()

	for _, ext := range []string{"spatial", "parquet"} {
		if _, err := db.Exec(fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			return nil, fmt.Errorf("loading duckdb extension %s: %w", ext, err)
		}
	}

	query := fmt.Sprintf(
		"SELECT ST_AsGeoJSON(%s) AS __geom, * EXCLUDE (%s) FROM read_parquet(?)",
		geometryColumn, geometryColumn)
	rows, err := db.Query(query, path)
	if err != nil {
		return nil, fmt.Errorf("reading geoparquet: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	type jsonFeature struct {
		Type       string          `json:"type"`
		Geometry   json.RawMessage `json:"geometry"`
		Properties map[string]any  `json:"properties"`
	}
	features := []jsonFeature{}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scanning geoparquet row: %w", err)
		}

		feat := jsonFeature{Type: "Feature", Properties: map[string]any{}}
		for i, col := range columns {
			if col == "__geom" {
				switch g := values[i].(type) {
				case string:
					feat.Geometry = json.RawMessage(g)
				case []byte:
					feat.Geometry = json.RawMessage(g)
				}
				continue
			}
			feat.Properties[col] = values[i]
		}
		if feat.Geometry == nil {
			continue
		}
		features = append(features, feat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return json.Marshal(map[string]any{
		"type":     "FeatureCollection",
		"features": features,
	})
}
