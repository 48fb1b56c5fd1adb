package service

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TileSetService manages generated tile sets.
type TileSetService struct {
	tilesDir string
}

// NewTileSetService creates a new tile set service.
func NewTileSetService(dataDir string) *TileSetService {
	return &TileSetService{
		tilesDir: filepath.Join(dataDir, "tiles"),
	}
}

// List returns all generated tile sets: z/x/y directory trees and
// PMTiles archives.
func (s *TileSetService) List() ([]TileSet, error) {
	entries, err := os.ReadDir(s.tilesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TileSet{}, nil
		}
		return nil, err
	}

	sets := []TileSet{}
	for _, entry := range entries {
		if entry.IsDir() {
			size, err := dirSize(filepath.Join(s.tilesDir, entry.Name()))
			if err != nil {
				continue
			}
			sets = append(sets, TileSet{
				Name: entry.Name(),
				Size: formatSize(size),
			})
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".pmtiles") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		sets = append(sets, TileSet{
			Name:    entry.Name(),
			Size:    formatSize(info.Size()),
			Archive: true,
		})
	}

	return sets, nil
}

// TilesDir returns the path to the tiles directory.
func (s *TileSetService) TilesDir() string {
	return s.tilesDir
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
