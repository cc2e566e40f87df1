package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileProvider resolves references as file paths, the layout used by
// container orchestrators that mount one secret per file. Relative paths
// are resolved under Dir.
type FileProvider struct {
	Dir string
}

// NewFileProvider creates a FileProvider rooted at dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{Dir: dir}
}

// GetParametersBatch reads each referenced file. Trailing newlines are
// trimmed; missing files are omitted. Any other read error aborts the batch.
func (p *FileProvider) GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during secret file resolution: %w", err)
		}

		path := key
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.Dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading secret file %s: %w", path, err)
		}
		result[key] = strings.TrimRight(string(data), "\r\n")
	}
	return result, nil
}
