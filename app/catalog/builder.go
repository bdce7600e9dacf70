package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/news-comb/app/news"
)

const maxDocumentSize = 5 << 20

// Builder assembles a catalog file from live feeds. It is an offline tool;
// the service itself never calls it.
type Builder struct {
	httpClient *http.Client
	parser     *Parser
	filterer   *Filterer
	extractor  *ExcerptExtractor
	userAgent  string
}

type BuildOptions struct {
	Version string
	// Relative stores ages instead of timestamps so the catalog looks recent
	// whenever it is loaded.
	Relative bool
	Now      time.Time
}

func NewBuilder(httpClient *http.Client, userAgent string) *Builder {
	return &Builder{
		httpClient: httpClient,
		parser:     NewParser(),
		filterer:   NewFilterer(),
		extractor:  NewExcerptExtractor(),
		userAgent:  userAgent,
	}
}

// Build fetches every enabled source. A failing source is logged and skipped;
// the build fails only when no records are collected.
func (b *Builder) Build(ctx context.Context, sources []*Source, opts BuildOptions) (File, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Version == "" {
		opts.Version = opts.Now.UTC().Format("2006-01-02")
	}

	seen := make(map[string]bool)
	var records []news.Record

	for _, source := range EnabledSources(sources) {
		select {
		case <-ctx.Done():
			return File{}, ctx.Err()
		default:
		}

		collected, err := b.collect(ctx, source)
		if err != nil {
			slog.Warn("Source skipped", "source", source.Name, "error", err)
			continue
		}

		added := 0
		for _, record := range collected {
			if seen[record.URL] {
				continue
			}
			seen[record.URL] = true
			records = append(records, record)
			added++
		}

		slog.Info("Source collected", "source", source.Name, "category", source.Category, "records", added)
	}

	if len(records) == 0 {
		return File{}, ErrEmptyCatalog
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PublishedAt.After(records[j].PublishedAt)
	})

	file := File{Version: opts.Version, Records: make([]FileRecord, 0, len(records))}
	for _, record := range records {
		fr := FileRecord{Record: record}
		if opts.Relative && !record.PublishedAt.IsZero() {
			age := max(opts.Now.Sub(record.PublishedAt), 0)
			fr.Age = age.Truncate(time.Minute).String()
			fr.PublishedAt = time.Time{}
		}
		file.Records = append(file.Records, fr)
	}

	return file, nil
}

func (b *Builder) collect(ctx context.Context, source *Source) ([]news.Record, error) {
	timeout := time.Duration(source.Settings.Timeout) * time.Second

	data, _, err := b.fetch(ctx, source.URL, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	records, err := b.parser.Run(data, source)
	if err != nil {
		return nil, err
	}

	records = b.filterer.Run(records, source.Filters)

	if source.Settings.MaxItems > 0 && len(records) > source.Settings.MaxItems {
		records = records[:source.Settings.MaxItems]
	}

	if source.Settings.ExtractExcerpt {
		for i := range records {
			if records[i].Description != "" {
				continue
			}
			excerpt, err := b.excerpt(ctx, records[i].URL, timeout)
			if err != nil {
				slog.Debug("Excerpt extraction failed", "url", records[i].URL, "error", err)
				continue
			}
			records[i].Description = excerpt
		}
	}

	return records, nil
}

func (b *Builder) excerpt(ctx context.Context, pageURL string, timeout time.Duration) (string, error) {
	data, contentType, err := b.fetch(ctx, pageURL, timeout)
	if err != nil {
		return "", err
	}

	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return "", fmt.Errorf("content type is not HTML: %s", contentType)
	}

	return b.extractor.Run(data, pageURL)
}

func (b *Builder) fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	if b.userAgent != "" {
		req.Header.Set("User-Agent", b.userAgent)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// Encode renders file in the format Load reads.
func Encode(file File) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}

	return buf.Bytes(), nil
}

func WriteFile(path string, file File) error {
	data, err := Encode(file)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}

	return nil
}
