package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/news-comb/app/news"
)

const testRSS = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Tech Wire</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <language>en-us</language>
    <item>
      <title>Compiler release speeds up builds</title>
      <link>https://example.com/compiler</link>
      <description>&lt;p&gt;Builds are &lt;b&gt;faster&lt;/b&gt; now.&lt;/p&gt;</description>
      <pubDate>Sun, 20 Apr 2025 10:00:00 GMT</pubDate>
      <author>editor@example.com (Jane Doe)</author>
      <enclosure url="https://example.com/compiler.jpg" length="1234" type="image/jpeg"/>
    </item>
    <item>
      <title>Sponsored: buy our widget</title>
      <link>https://example.com/sponsored</link>
      <description>Advertisement</description>
      <pubDate>Sun, 20 Apr 2025 11:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Kernel patch lands upstream</title>
      <link>https://example.com/kernel</link>
      <pubDate>Sun, 20 Apr 2025 08:00:00 GMT</pubDate>
    </item>
    <item>
      <title></title>
      <link>https://example.com/untitled</link>
    </item>
  </channel>
</rss>`

func TestParser_Run(t *testing.T) {
	source := &Source{Name: "techwire", Category: "technology", Country: "us"}

	records, err := NewParser().Run([]byte(testRSS), source)
	require.NoError(t, err)
	require.Len(t, records, 3, "untitled items are skipped")

	first := records[0]
	assert.Equal(t, "Compiler release speeds up builds", first.Title)
	assert.Equal(t, "Builds are faster now.", first.Description)
	assert.Equal(t, "Tech Wire", first.Source)
	assert.Equal(t, "technology", first.Category)
	assert.Equal(t, "en", first.Language)
	assert.Equal(t, "us", first.Country)
	assert.Equal(t, "https://example.com/compiler.jpg", first.Image)
	assert.Equal(t, time.Date(2025, 4, 20, 10, 0, 0, 0, time.UTC), first.PublishedAt)
	assert.NotEmpty(t, first.Author)

	_, err = NewParser().Run([]byte("not a feed"), source)
	assert.Error(t, err)
}

func TestFilterer_Run(t *testing.T) {
	records := []news.Record{
		{Title: "Go 1.24 released", Source: "Dev Weekly"},
		{Title: "Sponsored: widgets", Source: "Dev Weekly"},
		{Title: "Rust 2.0 rumours", Source: "Gossip"},
	}

	kept := NewFilterer().Run(records, []SourceFilter{
		{Field: "title", Excludes: []string{"sponsored"}},
		{Field: "source", Includes: []string{"dev weekly"}},
	})

	require.Len(t, kept, 1)
	assert.Equal(t, "Go 1.24 released", kept[0].Title)

	assert.Len(t, NewFilterer().Run(records, nil), 3)
}

func TestLoadSources(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "techwire.yml"), []byte(`
url: "https://example.com/feed.xml"
category: technology
settings:
  enabled: true
filters:
  - field: title
    excludes: ["sponsored"]
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "archive.yml"), []byte(`
url: "https://example.com/archive.xml"
category: general
`), 0o644))

	sources, err := LoadSources(dir)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	assert.Equal(t, "archive", sources[0].Name)
	assert.Equal(t, "techwire", sources[1].Name)
	assert.Equal(t, 20, sources[1].Settings.MaxItems)
	assert.Equal(t, 30, sources[1].Settings.Timeout)

	enabled := EnabledSources(sources)
	require.Len(t, enabled, 1)
	assert.Equal(t, "techwire", enabled[0].Name)

	missing, err := LoadSources(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestLoadSource_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing url", `category: general`, "source URL is required"},
		{"missing category", `url: "https://example.com"`, "source category is required"},
		{"negative timeout", "url: \"https://example.com\"\ncategory: general\nsettings:\n  timeout: -1", "timeout must be non-negative"},
		{"bad filter field", "url: \"https://example.com\"\ncategory: general\nfilters:\n  - field: body\n    includes: [x]", "invalid filter field"},
		{"empty filter", "url: \"https://example.com\"\ncategory: general\nfilters:\n  - field: title", "at least one include or exclude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "source.yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))

			_, err := LoadSource(path, "source")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuilder_Build(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed.xml":
			w.Header().Set("Content-Type", "application/rss+xml")
			w.Write([]byte(testRSS))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	sources := []*Source{
		{
			Name:     "techwire",
			URL:      server.URL + "/feed.xml",
			Category: "technology",
			Settings: SourceSettings{Enabled: true, MaxItems: 10, Timeout: 5},
			Filters:  []SourceFilter{{Field: "title", Excludes: []string{"sponsored"}}},
		},
		{
			Name:     "broken",
			URL:      server.URL + "/missing.xml",
			Category: "general",
			Settings: SourceSettings{Enabled: true, MaxItems: 10, Timeout: 5},
		},
		{
			Name:     "disabled",
			URL:      server.URL + "/feed.xml",
			Category: "sports",
			Settings: SourceSettings{Enabled: false},
		},
	}

	now := time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC)
	builder := NewBuilder(server.Client(), "news-comb-test")

	file, err := builder.Build(context.Background(), sources, BuildOptions{Relative: true, Now: now})
	require.NoError(t, err)

	assert.Equal(t, "2025-04-20", file.Version)
	require.Len(t, file.Records, 2)
	assert.Equal(t, "Compiler release speeds up builds", file.Records[0].Title)
	assert.Equal(t, "2h0m0s", file.Records[0].Age)
	assert.True(t, file.Records[0].PublishedAt.IsZero())
	assert.Equal(t, "Kernel patch lands upstream", file.Records[1].Title)
	assert.Equal(t, "4h0m0s", file.Records[1].Age)

	path := filepath.Join(t.TempDir(), "catalog.yml")
	require.NoError(t, WriteFile(path, file))

	c, err := Load(path, now)
	require.NoError(t, err)
	tech, ok := c.Partition("technology")
	require.True(t, ok)
	require.Len(t, tech, 2)
	assert.Equal(t, now.Add(-2*time.Hour), tech[0].PublishedAt)
}

func TestBuilder_BuildNothingCollected(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	sources := []*Source{{
		Name:     "broken",
		URL:      server.URL,
		Category: "general",
		Settings: SourceSettings{Enabled: true, Timeout: 5},
	}}

	_, err := NewBuilder(server.Client(), "").Build(context.Background(), sources, BuildOptions{})
	assert.True(t, errors.Is(err, ErrEmptyCatalog))
}

func TestPlainTextAndTruncate(t *testing.T) {
	assert.Equal(t, "Hello world", PlainText("<p>Hello   <em>world</em></p>"))
	assert.Equal(t, "plain text", PlainText("  plain \n text "))
	assert.Equal(t, "", PlainText(""))

	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "the quick...", Truncate("the quick brown fox", 12))
}

func TestExcerptExtractor_Empty(t *testing.T) {
	_, err := NewExcerptExtractor().Run(nil, "https://example.com")
	assert.Error(t, err)
}
