package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/news-comb/app/news"
)

//go:embed default.yml
var defaultCatalog []byte

var ErrEmptyCatalog = errors.New("catalog has no records")

// Catalog is a fixed, versioned set of headlines used when live data is
// unavailable. It is read-only once loaded.
type Catalog struct {
	version    string
	records    []news.Record
	partitions map[string][]news.Record
	categories []string
}

// File is the on-disk catalog format.
type File struct {
	Version string       `yaml:"version"`
	Records []FileRecord `yaml:"records"`
}

// FileRecord carries either an absolute published_at or an age relative to
// the moment the catalog is loaded.
type FileRecord struct {
	news.Record `yaml:",inline"`
	Age         string `yaml:"age,omitempty"`
}

// Load reads a catalog file. Relative ages are resolved against now.
func Load(path string, now time.Time) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	c, err := Parse(data, now)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}

	slog.Debug("Catalog loaded", "path", path, "version", c.version, "records", len(c.records))

	return c, nil
}

// Default returns the catalog compiled into the binary.
func Default(now time.Time) (*Catalog, error) {
	return Parse(defaultCatalog, now)
}

func Parse(data []byte, now time.Time) (*Catalog, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return New(file, now)
}

// New validates file and builds the category partitions.
func New(file File, now time.Time) (*Catalog, error) {
	if len(file.Records) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		version:    file.Version,
		records:    make([]news.Record, 0, len(file.Records)),
		partitions: make(map[string][]news.Record),
	}

	seen := make(map[string]bool, len(file.Records))

	for i, fr := range file.Records {
		record, err := resolve(fr, now)
		if err != nil {
			return nil, fmt.Errorf("record at index %d: %w", i, err)
		}

		if seen[record.URL] {
			return nil, fmt.Errorf("record at index %d: duplicate url %s", i, record.URL)
		}
		seen[record.URL] = true

		key := news.FoldCategory(record.Category)
		if _, ok := c.partitions[key]; !ok {
			c.categories = append(c.categories, key)
		}
		c.partitions[key] = append(c.partitions[key], record)
		c.records = append(c.records, record)
	}

	return c, nil
}

func resolve(fr FileRecord, now time.Time) (news.Record, error) {
	record := fr.Record

	requiredFields := map[string]string{
		"title":    record.Title,
		"url":      record.URL,
		"category": record.Category,
	}
	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return news.Record{}, fmt.Errorf("%s is required", fieldName)
		}
	}

	if fr.Age != "" {
		age, err := time.ParseDuration(fr.Age)
		if err != nil {
			return news.Record{}, fmt.Errorf("invalid age %q: %w", fr.Age, err)
		}
		if age < 0 {
			return news.Record{}, fmt.Errorf("age must be non-negative")
		}
		record.PublishedAt = now.Add(-age).UTC().Truncate(time.Second)
	}

	if record.PublishedAt.IsZero() {
		record.PublishedAt = now.UTC().Truncate(time.Second)
	}

	return record, nil
}

func (c *Catalog) Version() string {
	return c.version
}

func (c *Catalog) Len() int {
	return len(c.records)
}

// Categories lists the partition names in first-seen order.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// All returns the full catalog in file order. The slice must not be modified.
func (c *Catalog) All() []news.Record {
	return c.records
}

// Partition returns the records of one category in file order.
func (c *Catalog) Partition(category string) ([]news.Record, bool) {
	records, ok := c.partitions[news.FoldCategory(category)]
	return records, ok
}

// Select returns the union of the included partitions minus the excluded
// ones, preserving file order. With no inclusions it starts from the full
// catalog. A selection that matches nothing falls back to the full catalog.
func (c *Catalog) Select(include, exclude []string) []news.Record {
	if len(include) == 0 && len(exclude) == 0 {
		return c.records
	}

	if len(include) == 1 && len(exclude) == 0 {
		if records, ok := c.Partition(include[0]); ok {
			return records
		}
		return c.records
	}

	included := make(map[string]bool, len(include))
	for _, name := range include {
		included[news.FoldCategory(name)] = true
	}
	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[news.FoldCategory(name)] = true
	}

	selected := make([]news.Record, 0, len(c.records))
	for _, record := range c.records {
		key := news.FoldCategory(record.Category)
		if excluded[key] {
			continue
		}
		if len(included) > 0 && !included[key] {
			continue
		}
		selected = append(selected, record)
	}

	if len(selected) == 0 {
		return c.records
	}

	return selected
}
