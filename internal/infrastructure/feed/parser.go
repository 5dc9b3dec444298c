package feed

import (
	"bytes"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

// Parser turns RSS, Atom or JSON Feed documents into entries.
type Parser struct{}

var _ ports.FeedParser = Parser{}

// NewParser returns a stateless parser; gofeed parsers are not shared between goroutines.
func NewParser() Parser {
	return Parser{}
}

// Parse decodes data in document order. A nil item becomes a blank entry so the caller
// reports it as malformed.
func (Parser) Parse(data []byte) ([]domain.Entry, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	entries := make([]domain.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			entries = append(entries, domain.Entry{})
			continue
		}
		entries = append(entries, domain.Entry{
			Title:       strings.TrimSpace(item.Title),
			Link:        strings.TrimSpace(item.Link),
			Summary:     plainText(item.Description),
			Description: plainText(item.Content),
			PublishedAt: feedTime(item.PublishedParsed, item.Published),
			UpdatedAt:   feedTime(item.UpdatedParsed, item.Updated),
		})
	}
	return entries, nil
}

// feedTime prefers the gofeed-parsed value and falls back to a lenient parse of the raw string.
func feedTime(parsed *time.Time, raw string) *time.Time {
	if parsed != nil && !parsed.IsZero() {
		t := parsed.UTC()
		return &t
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// plainText strips markup and collapses whitespace.
func plainText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
