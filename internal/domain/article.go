package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultTitle replaces blank entry titles.
const DefaultTitle = "No title"

// FeedDescriptor is one configured feed. It is read-only after loading.
type FeedDescriptor struct {
	Name     string
	URL      string
	Enabled  bool
	Priority int
	// Timeout overrides the global fetch timeout when non-zero.
	Timeout time.Duration
}

// Entry is a single item as produced by the feed parser, before conversion.
type Entry struct {
	Title       string
	Link        string
	Summary     string
	Description string
	PublishedAt *time.Time
	UpdatedAt   *time.Time
}

// Validate reports entries that cannot become articles.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Title) == "" && strings.TrimSpace(e.Link) == "" &&
		strings.TrimSpace(e.Summary) == "" && strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("entry has no title, link or summary")
	}
	if e.Link != "" {
		if _, err := url.Parse(e.Link); err != nil {
			return fmt.Errorf("invalid link %q: %w", e.Link, err)
		}
	}
	return nil
}

// Article is one news item extracted from a feed. URL is its identity key.
type Article struct {
	Title       string
	URL         string
	Source      string
	PublishedAt *time.Time
	Summary     string
	Category    Category
	Clickbait   bool
	// FetchError annotates an article produced despite a partial feed problem.
	FetchError string
}

// NewArticle converts a parsed entry into an uncategorized article owned by feed.
func NewArticle(feed string, e Entry) *Article {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		title = DefaultTitle
	}

	summary := strings.TrimSpace(e.Summary)
	if summary == "" {
		summary = strings.TrimSpace(e.Description)
	}

	return &Article{
		Title:       title,
		URL:         strings.TrimSpace(e.Link),
		Source:      feed,
		PublishedAt: firstTime(e.PublishedAt, e.UpdatedAt),
		Summary:     summary,
		Category:    Uncategorized,
	}
}

func firstTime(candidates ...*time.Time) *time.Time {
	for _, t := range candidates {
		if t != nil && !t.IsZero() {
			v := *t
			return &v
		}
	}
	return nil
}

// ClassificationResult is the validated verdict for one article.
type ClassificationResult struct {
	Article    *Article
	Category   Category
	Clickbait  bool
	Confidence float64
	Reasoning  string
}
