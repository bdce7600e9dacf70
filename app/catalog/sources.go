package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source describes one RSS or Atom feed that contributes records to a
// generated catalog. Name is derived from the file name.
type Source struct {
	Name     string         `yaml:"-"`
	URL      string         `yaml:"url"`
	Category string         `yaml:"category"`
	Language string         `yaml:"language"`
	Country  string         `yaml:"country"`
	Settings SourceSettings `yaml:"settings"`
	Filters  []SourceFilter `yaml:"filters"`
}

type SourceSettings struct {
	Enabled        bool `yaml:"enabled"`
	MaxItems       int  `yaml:"max_items"`
	Timeout        int  `yaml:"timeout"`         // seconds
	ExtractExcerpt bool `yaml:"extract_excerpt"` // fetch the article page when a feed item has no description
}

type SourceFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// LoadSources reads every *.yml file in dir. A missing directory yields no
// sources. Results are ordered by name.
func LoadSources(dir string) ([]*Source, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}

	sources := make([]*Source, 0, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		source, err := LoadSource(file, name)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Source loaded", "source", name, "enabled", source.Settings.Enabled, "category", source.Category)
		sources = append(sources, source)
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })

	return sources, nil
}

func LoadSource(path, name string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var source Source
	if err := yaml.Unmarshal(data, &source); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	source.Name = name

	if source.Settings.MaxItems == 0 {
		source.Settings.MaxItems = 20
	}
	if source.Settings.Timeout == 0 {
		source.Settings.Timeout = 30
	}

	if err := validateSource(&source); err != nil {
		return nil, fmt.Errorf("invalid source %s: %w", path, err)
	}

	return &source, nil
}

// EnabledSources filters out disabled sources.
func EnabledSources(sources []*Source) []*Source {
	enabled := make([]*Source, 0, len(sources))
	for _, s := range sources {
		if s.Settings.Enabled {
			enabled = append(enabled, s)
		}
	}
	return enabled
}

func validateSource(source *Source) error {
	requiredFields := map[string]string{
		"source name":     source.Name,
		"source URL":      source.URL,
		"source category": source.Category,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	nonNegativeFields := map[string]int{
		"max items": source.Settings.MaxItems,
		"timeout":   source.Settings.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	for i, filter := range source.Filters {
		if !filterFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
