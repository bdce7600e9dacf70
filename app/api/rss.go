package api

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lysyi3m/news-comb/app/news"
)

// Generator renders a news envelope as an RSS 2.0 channel.
type Generator struct {
	baseURL string
	version string
}

func NewGenerator(baseURL, version string) *Generator {
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
		version: version,
	}
}

func (g *Generator) Run(params news.Params, envelope news.Envelope, now time.Time) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	title := channelTitle(params.Categories)
	g.writeElement(&buf, "title", title, 4)
	g.writeElement(&buf, "link", g.baseURL+"/", 4)
	g.writeElement(&buf, "description", fmt.Sprintf("%s, %d of %d headlines", title, envelope.Pagination.Count, envelope.Pagination.Total), 4)

	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(g.selfLink(params))))

	lastBuildDate := now
	if len(envelope.Data) > 0 {
		lastBuildDate = cmp.Or(envelope.Data[0].PublishedAt, now)
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("News-Comb/%s", g.version), 4)

	for _, record := range envelope.Data {
		g.writeItem(&buf, record)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String()
}

func (g *Generator) writeItem(buf *bytes.Buffer, record news.Record) {
	buf.WriteString("    <item>\n")

	if record.URL != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", isURL(record.URL)))
		xml.EscapeText(buf, []byte(record.URL))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", record.Title, 6)
	g.writeElement(buf, "link", record.URL, 6)
	g.writeElement(buf, "description", cmp.Or(record.Description, "No description available"), 6)

	if !record.PublishedAt.IsZero() {
		g.writeElement(buf, "pubDate", record.PublishedAt.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "author", cmp.Or(record.Author, record.Source), 6)
	g.writeElement(buf, "category", record.Category, 6)

	if record.Image != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(record.Image),
			imageType(record.Image)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) selfLink(params news.Params) string {
	query := url.Values{}
	if params.Categories != "" {
		query.Set("categories", params.Categories)
	}
	if params.Keywords != "" {
		query.Set("keywords", params.Keywords)
	}

	link := g.baseURL + "/api/news/rss"
	if encoded := query.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return link
}

// channelTitle turns "technology,-sports" into "News Comb: Technology".
func channelTitle(categories string) string {
	caser := cases.Title(language.English)

	var names []string
	for _, name := range strings.Split(categories, ",") {
		name = strings.TrimSpace(name)
		if name == "" || strings.HasPrefix(name, "-") {
			continue
		}
		names = append(names, caser.String(name))
	}

	if len(names) == 0 {
		return "News Comb: Top Headlines"
	}
	return "News Comb: " + strings.Join(names, ", ")
}

func imageType(link string) string {
	path := strings.ToLower(link)
	if u, err := url.Parse(link); err == nil {
		path = strings.ToLower(u.Path)
	}

	switch {
	case strings.HasSuffix(path, ".png"):
		return "image/png"
	case strings.HasSuffix(path, ".gif"):
		return "image/gif"
	case strings.HasSuffix(path, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
