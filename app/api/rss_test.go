package api

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/news-comb/app/news"
)

func TestGeneratorRun(t *testing.T) {
	generator := NewGenerator("https://news.example.com/", "1.2.3")

	published := time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC)
	envelope := news.Envelope{
		Pagination: news.Pagination{Limit: 2, Offset: 0, Count: 2, Total: 5},
		Data: []news.Record{
			{
				Title:       "Chips & <Circuits>",
				Description: "Low-power design",
				URL:         "https://example.com/chips",
				Source:      "Silicon Report",
				Image:       "https://example.com/chips.png",
				Category:    "technology",
				PublishedAt: published,
			},
			{
				Title: "Untitled desk",
				URL:   "https://example.com/desk",
			},
		},
	}
	params := news.Params{Categories: "technology,-sports"}.Normalize(10)

	rss := generator.Run(params, envelope, published.Add(time.Hour))

	if !strings.HasPrefix(rss, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("RSS should start with an XML declaration")
	}
	if !strings.Contains(rss, "<title>News Comb: Technology</title>") {
		t.Error("Channel title should name the included categories")
	}
	if !strings.Contains(rss, "<title>Chips &amp; &lt;Circuits&gt;</title>") {
		t.Error("Item title should be escaped")
	}
	if !strings.Contains(rss, `<guid isPermaLink="true">https://example.com/chips</guid>`) {
		t.Error("Item guid should be its URL")
	}
	if !strings.Contains(rss, "<author>Silicon Report</author>") {
		t.Error("Source should stand in for a missing author")
	}
	if !strings.Contains(rss, `type="image/png"`) {
		t.Error("Image enclosure should carry its MIME type")
	}
	if !strings.Contains(rss, "<description>No description available</description>") {
		t.Error("Missing descriptions should get a placeholder")
	}
	if !strings.Contains(rss, "<lastBuildDate>"+published.Format(time.RFC1123Z)+"</lastBuildDate>") {
		t.Error("lastBuildDate should come from the newest item")
	}
	if !strings.Contains(rss, `href="https://news.example.com/api/news/rss?categories=technology%2C-sports"`) {
		t.Errorf("Self link should carry the category filter, got:\n%s", rss)
	}
	if !strings.Contains(rss, "<generator>News-Comb/1.2.3</generator>") {
		t.Error("Generator should include the version")
	}

	var doc struct {
		Channel struct {
			Items []struct {
				Title string `xml:"title"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	if err := xml.Unmarshal([]byte(rss), &doc); err != nil {
		t.Fatalf("RSS should be well-formed XML: %v", err)
	}
	if len(doc.Channel.Items) != 2 {
		t.Errorf("Expected 2 items, got %d", len(doc.Channel.Items))
	}
}

func TestChannelTitle(t *testing.T) {
	tests := map[string]string{
		"":                  "News Comb: Top Headlines",
		"-sports":           "News Comb: Top Headlines",
		"business,science":  "News Comb: Business, Science",
		"entertainment, , ": "News Comb: Entertainment",
	}

	for input, want := range tests {
		if got := channelTitle(input); got != want {
			t.Errorf("channelTitle(%q) = %q, want %q", input, got, want)
		}
	}
}
