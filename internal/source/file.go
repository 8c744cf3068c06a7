package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/napphq/napp/pkg/types"
)

// FileSource replays a recorded batch of normalized items from a JSON file.
// Used for offline development and for reproducing correlation runs against
// a captured API response.
type FileSource struct {
	path string
}

// NewFileSource creates a file replay source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name identifies the source in logs and metrics.
func (s *FileSource) Name() string { return "file" }

// LoadItems reads and decodes the recorded items.
func (s *FileSource) LoadItems(_ context.Context) ([]types.Item, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("file: failed to read %s: %w", s.path, err)
	}

	var items []types.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("file: failed to decode %s: %w", s.path, err)
	}

	for i := range items {
		if items[i].Kind == "" {
			items[i].Kind = types.KindArticle
		}
	}
	return MergeByNaturalKey(items), nil
}
