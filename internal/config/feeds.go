package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

// FeedConfig is one entry of the feed list file. JSON lists decode as YAML flow sequences.
type FeedConfig struct {
	Name     string  `yaml:"name"`
	URL      string  `yaml:"url"`
	Enabled  *bool   `yaml:"enabled"`
	Timeout  float64 `yaml:"timeout"`
	Priority int     `yaml:"priority"`
}

// LoadFeeds reads and validates the feed list. Any malformed entry fails the whole load.
func LoadFeeds(path string) ([]domain.FeedDescriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read feeds %s: %w", domain.ErrConfig, path, err)
	}
	feeds, err := ParseFeeds(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return feeds, nil
}

// ParseFeeds decodes a JSON or YAML list of feeds, rejecting unknown fields.
func ParseFeeds(raw []byte) ([]domain.FeedDescriptor, error) {
	var entries []FeedConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode feeds: %w", domain.ErrConfig, err)
	}

	var problems []error
	seen := make(map[string]bool, len(entries))
	feeds := make([]domain.FeedDescriptor, 0, len(entries))
	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		switch {
		case name == "":
			problems = append(problems, fmt.Errorf("feed %d: name is required", i))
			continue
		case seen[name]:
			problems = append(problems, fmt.Errorf("feed %d: duplicate name %q", i, name))
			continue
		}
		seen[name] = true

		if err := validateFeedURL(e.URL); err != nil {
			problems = append(problems, fmt.Errorf("feed %q: %w", name, err))
			continue
		}
		if e.Timeout < 0 {
			problems = append(problems, fmt.Errorf("feed %q: timeout must not be negative", name))
			continue
		}

		enabled := true
		if e.Enabled != nil {
			enabled = *e.Enabled
		}
		feeds = append(feeds, domain.FeedDescriptor{
			Name:     name,
			URL:      strings.TrimSpace(e.URL),
			Enabled:  enabled,
			Priority: e.Priority,
			Timeout:  time.Duration(e.Timeout * float64(time.Second)),
		})
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfig, errors.Join(problems...))
	}
	return feeds, nil
}

func validateFeedURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

// LoadPromptTemplate reads the classification prompt. Blank files are rejected.
func LoadPromptTemplate(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read prompt template %s: %w", domain.ErrConfig, path, err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", fmt.Errorf("%w: prompt template %s is empty", domain.ErrConfig, path)
	}
	return string(raw), nil
}

// FileCatalog reads the feed list and prompt template from disk on every run.
type FileCatalog struct {
	FeedsPath  string
	PromptPath string
}

var _ ports.Catalog = FileCatalog{}

// NewFileCatalog builds a catalog from the configured paths.
func NewFileCatalog(cfg Config) FileCatalog {
	return FileCatalog{FeedsPath: cfg.Paths.FeedsConfig, PromptPath: cfg.Paths.PromptTemplate}
}

// LoadFeeds implements ports.Catalog.
func (c FileCatalog) LoadFeeds(ctx context.Context) ([]domain.FeedDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadFeeds(c.FeedsPath)
}

// LoadPromptTemplate implements ports.Catalog.
func (c FileCatalog) LoadPromptTemplate(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return LoadPromptTemplate(c.PromptPath)
}
