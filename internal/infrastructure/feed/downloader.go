package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

const (
	defaultUserAgent = "NewsCurator/1.0"
	maxFeedBytes     = 10 << 20
)

// Downloader fetches raw feed documents over HTTP. Redirects are followed by the client.
type Downloader struct {
	client    *http.Client
	userAgent string
}

var _ ports.FeedDownloader = (*Downloader)(nil)

// NewDownloader wires an HTTP client; timeouts come from the caller's context.
func NewDownloader(client *http.Client, userAgent string) *Downloader {
	if client == nil {
		client = &http.Client{}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Downloader{client: client, userAgent: userAgent}
}

// Download returns the response body of a successful GET.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrFetch, err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request feed: %w", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %s", domain.ErrFetch, url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrFetch, err)
	}
	return body, nil
}
