package extract

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SiteFile is the on-disk format for additional site strategies.
type SiteFile struct {
	Sites []Strategy `yaml:"sites" validate:"dive"`
}

// LoadStrategies reads extra site strategies from a YAML file.
func LoadStrategies(path string) ([]Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site file %s: %w", path, err)
	}
	return ParseStrategies(data)
}

// ParseStrategies decodes and validates a YAML site file.
func ParseStrategies(data []byte) ([]Strategy, error) {
	var f SiteFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse site file: %w", err)
	}
	if err := validator.New().Struct(f); err != nil {
		return nil, fmt.Errorf("invalid site file: %w", err)
	}
	return f.Sites, nil
}
