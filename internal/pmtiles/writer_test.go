package pmtiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joeblew999/plat-tiler/internal/pipeline"
)

func TestHeaderRoundTrip(t *testing.T) {
	in := HeaderV3{
		SpecVersion:         3,
		RootOffset:          127,
		RootLength:          42,
		MetadataOffset:      169,
		MetadataLength:      10,
		TileDataOffset:      179,
		TileDataLength:      1000,
		AddressedTilesCount: 3,
		TileEntriesCount:    3,
		TileContentsCount:   3,
		Clustered:           true,
		InternalCompression: Gzip,
		TileCompression:     Gzip,
		TileType:            Mvt,
		MinZoom:             0,
		MaxZoom:             5,
		MinLonE7:            toE7(139.7671),
		MinLatE7:            toE7(35.6812),
		MaxLonE7:            toE7(139.7671),
		MaxLatE7:            toE7(35.6812),
		CenterLonE7:         toE7(139.7671),
		CenterLatE7:         toE7(35.6812),
	}

	out, err := DeserializeHeader(SerializeHeader(in))
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestZxyToID(t *testing.T) {
	tests := []struct {
		z    uint8
		x, y uint32
		id   uint64
	}{
		{0, 0, 0, 0},
		{1, 0, 0, 1},
		{1, 1, 1, 3},
		{2, 0, 0, 5},
	}
	for _, tt := range tests {
		if got := ZxyToID(tt.z, tt.x, tt.y); got != tt.id {
			t.Errorf("ZxyToID(%d, %d, %d) = %d, want %d", tt.z, tt.x, tt.y, got, tt.id)
		}
	}
}

func TestWriteArchive(t *testing.T) {
	tiles, meta, err := pipeline.GenerateWithMetadata([]byte(`{
		"type": "FeatureCollection",
		"features": [{
			"type": "Feature",
			"geometry": {"type": "Point", "coordinates": [139.7671, 35.6812]},
			"properties": {"name": "Tokyo"}
		}]
	}`), 0, 3, "pois")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "pois.pmtiles")
	if err := WriteArchive(path, tiles, meta); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	header, err := DeserializeHeader(data)
	if err != nil {
		t.Fatal(err)
	}

	if header.TileEntriesCount != uint64(len(tiles)) {
		t.Errorf("entries = %d, want %d", header.TileEntriesCount, len(tiles))
	}
	if header.MinZoom != 0 || header.MaxZoom != 3 {
		t.Errorf("zoom range = %d-%d, want 0-3", header.MinZoom, header.MaxZoom)
	}
	if header.TileType != Mvt || !header.Clustered {
		t.Errorf("header = %+v", header)
	}
	if header.MinLonE7 != toE7(139.7671) || header.MaxLatE7 != toE7(35.6812) {
		t.Errorf("bounds E7 = %d..%d", header.MinLonE7, header.MaxLatE7)
	}
	if int(header.TileDataOffset)+int(header.TileDataLength) != len(data) {
		t.Errorf("file length %d does not match header layout", len(data))
	}
}

func TestWriteArchiveEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pmtiles")
	if err := WriteArchive(path, nil, pipeline.Metadata{}); err == nil {
		t.Error("expected error for empty tile set")
	}
}
