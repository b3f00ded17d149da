package seed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Adalene/glyph/pkg/types"
)

// LoadDataset reads an icon array from path. Files ending in .yaml or .yml
// are decoded as YAML, anything else as JSON.
func LoadDataset(path string) ([]types.Icon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read dataset: %w", err)
	}
	return ParseDataset(data, filepath.Ext(path))
}

// ParseDataset decodes an icon array. ext selects the format the same way
// LoadDataset does.
func ParseDataset(data []byte, ext string) ([]types.Icon, error) {
	var icons []types.Icon
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &icons); err != nil {
			return nil, fmt.Errorf("seed: parse YAML dataset: %w", err)
		}
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		if err := json.Unmarshal(data, &icons); err != nil {
			return nil, fmt.Errorf("seed: parse JSON dataset: %w", err)
		}
	}
	return icons, nil
}
