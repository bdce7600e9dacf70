package catalog

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/news-comb/app/news"
)

// Parser turns an RSS, Atom or JSON feed into catalog records.
type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte, source *Source) ([]news.Record, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	sourceName := cmp.Or(strings.TrimSpace(feed.Title), source.Name)
	language := cmp.Or(source.Language, languageCode(feed.Language))

	records := make([]news.Record, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || item.Link == "" || strings.TrimSpace(item.Title) == "" {
			continue
		}

		record := news.Record{
			Author:      extractAuthor(item),
			Title:       strings.TrimSpace(item.Title),
			Description: Truncate(PlainText(cmp.Or(item.Description, item.Content)), maxDescriptionRunes),
			URL:         item.Link,
			Source:      sourceName,
			Image:       extractImage(item),
			Category:    source.Category,
			Language:    language,
			Country:     source.Country,
		}

		if item.PublishedParsed != nil {
			record.PublishedAt = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			record.PublishedAt = item.UpdatedParsed.UTC()
		}

		records = append(records, record)
	}

	return records, nil
}

func extractAuthor(item *gofeed.Item) string {
	var names []string

	for _, author := range item.Authors {
		if author == nil {
			continue
		}
		if name := formatAuthor(author.Name, author.Email); name != "" {
			names = append(names, name)
		}
	}

	if len(names) == 0 && item.Author != nil {
		if name := formatAuthor(item.Author.Name, item.Author.Email); name != "" {
			names = append(names, name)
		}
	}

	return strings.Join(names, ", ")
}

func formatAuthor(name, email string) string {
	return cmp.Or(strings.TrimSpace(name), strings.TrimSpace(email))
}

func extractImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	for _, enclosure := range item.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}

	return ""
}

// languageCode reduces a feed language such as "en-us" to "en".
func languageCode(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}
