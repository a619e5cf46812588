package experiment

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/linuxmatters/denoisebench/internal/audio"
)

// FindAudioFiles returns the decodable recordings directly inside dir,
// sorted by name. Subdirectories are not searched.
func FindAudioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !audio.IsSupported(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	slices.Sort(files)
	return files, nil
}
