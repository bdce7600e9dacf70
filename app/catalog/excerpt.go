package catalog

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"codeberg.org/readeck/go-readability"
	"github.com/PuerkitoBio/goquery"
)

const maxDescriptionRunes = 400

// ExcerptExtractor derives a short description from an article page.
type ExcerptExtractor struct{}

func NewExcerptExtractor() *ExcerptExtractor {
	return &ExcerptExtractor{}
}

func (e *ExcerptExtractor) Run(data []byte, pageURL string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	var base *url.URL
	if pageURL != "" {
		parsed, err := url.Parse(pageURL)
		if err != nil {
			return "", fmt.Errorf("invalid page URL: %w", err)
		}
		base = parsed
	}

	article, err := readability.FromReader(bytes.NewReader(data), base)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	excerpt := PlainText(article.Excerpt)
	if excerpt == "" {
		return "", fmt.Errorf("no excerpt extracted from HTML data")
	}

	slog.Debug("Excerpt extracted", "url", pageURL, "title", article.Title, "length", len(excerpt))

	return Truncate(excerpt, maxDescriptionRunes), nil
}

// PlainText strips markup from an HTML fragment and collapses whitespace.
func PlainText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}

	text := fragment
	if strings.ContainsAny(fragment, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
		if err == nil {
			text = doc.Text()
		}
	}

	return strings.Join(strings.Fields(text), " ")
}

// Truncate shortens s to at most max runes, cutting at a word boundary when
// one is available.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}

	runes := []rune(s)
	cut := string(runes[:max])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}

	return strings.TrimRight(cut, " ,.;:") + "..."
}
