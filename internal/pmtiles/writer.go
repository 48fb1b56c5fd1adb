package pmtiles

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/joeblew999/plat-tiler/internal/pipeline"
)

// WriteArchive writes a generated tile set as a single clustered PMTiles
// v3 archive. Tile payloads are gzip-compressed; the header's zoom range
// and E7 bounds come from the pipeline metadata.
func WriteArchive(path string, tiles []pipeline.Tile, meta pipeline.Metadata) error {
	if len(tiles) == 0 {
		return errors.New("no tiles to write")
	}

	type entry struct {
		id   uint64
		data []byte
	}
	sorted := make([]entry, 0, len(tiles))
	for _, t := range tiles {
		data, err := gzipBytes(t.Data)
		if err != nil {
			return fmt.Errorf("compressing tile %s: %w", t.Path, err)
		}
		sorted = append(sorted, entry{
			id:   ZxyToID(t.Coord.Z, t.Coord.X, t.Coord.Y),
			data: data,
		})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].id < sorted[j].id })

	entries := make([]EntryV3, 0, len(sorted))
	var tileData bytes.Buffer
	offset := uint64(0)
	for _, e := range sorted {
		entries = append(entries, EntryV3{
			TileID:    e.id,
			Offset:    offset,
			Length:    uint32(len(e.data)),
			RunLength: 1,
		})
		tileData.Write(e.data)
		offset += uint64(len(e.data))
	}

	centerLon, centerLat := meta.Bounds.Center()
	metadataBytes, err := SerializeMetadata(map[string]any{
		"name":        meta.Layer,
		"format":      "pbf",
		"compression": "gzip",
		"minzoom":     meta.MinZoom,
		"maxzoom":     meta.MaxZoom,
		"bounds": fmt.Sprintf("%g,%g,%g,%g",
			meta.Bounds.MinLon, meta.Bounds.MinLat, meta.Bounds.MaxLon, meta.Bounds.MaxLat),
		"center": fmt.Sprintf("%g,%g,%d", centerLon, centerLat, meta.MinZoom),
	}, Gzip)
	if err != nil {
		return fmt.Errorf("serializing metadata: %w", err)
	}

	rootDirBytes := SerializeEntries(entries, Gzip)

	rootDirOffset := uint64(HeaderV3LenBytes)
	metadataOffset := rootDirOffset + uint64(len(rootDirBytes))
	tileDataOffset := metadataOffset + uint64(len(metadataBytes))

	header := HeaderV3{
		SpecVersion:         3,
		RootOffset:          rootDirOffset,
		RootLength:          uint64(len(rootDirBytes)),
		MetadataOffset:      metadataOffset,
		MetadataLength:      uint64(len(metadataBytes)),
		TileDataOffset:      tileDataOffset,
		TileDataLength:      uint64(tileData.Len()),
		AddressedTilesCount: uint64(len(entries)),
		TileEntriesCount:    uint64(len(entries)),
		TileContentsCount:   uint64(len(entries)),
		Clustered:           true,
		InternalCompression: Gzip,
		TileCompression:     Gzip,
		TileType:            Mvt,
		MinZoom:             meta.MinZoom,
		MaxZoom:             meta.MaxZoom,
		MinLonE7:            toE7(meta.Bounds.MinLon),
		MinLatE7:            toE7(meta.Bounds.MinLat),
		MaxLonE7:            toE7(meta.Bounds.MaxLon),
		MaxLatE7:            toE7(meta.Bounds.MaxLat),
		CenterZoom:          meta.MinZoom,
		CenterLonE7:         toE7(centerLon),
		CenterLatE7:         toE7(centerLat),
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, chunk := range [][]byte{SerializeHeader(header), rootDirBytes, metadataBytes, tileData.Bytes()} {
		if _, err := f.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

func toE7(deg float64) int32 {
	return int32(deg * 1e7)
}

func gzipBytes(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w, err := gzip.NewWriterLevel(&b, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
