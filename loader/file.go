package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/giygas/pharmacie/entities"
	"github.com/giygas/pharmacie/interfaces"
)

var _ interfaces.Loader = (*FileLoader)(nil)

// FileLoader reads the catalogue from a local file
type FileLoader struct {
	path   string
	format Format
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: filepath.Clean(path), format: FormatFromName(path)}
}

func (l *FileLoader) Source() string {
	return "file:" + l.path
}

func (l *FileLoader) Load(ctx context.Context) ([]entities.Medicament, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.path, err)
	}

	meds, err := Decode(data, l.format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	return meds, nil
}
