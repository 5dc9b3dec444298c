package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"NewsCurator/internal/domain"
)

// gauge counts concurrent entries and remembers the peak.
type gauge struct {
	current atomic.Int64
	peak    atomic.Int64
}

func (g *gauge) enter() {
	n := g.current.Add(1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (g *gauge) leave() { g.current.Add(-1) }

// fakeDownloader serves per-URL scripted responses and tracks in-flight calls.
type fakeDownloader struct {
	mu       sync.Mutex
	calls    map[string]int
	failures map[string]int // url -> number of leading failures; -1 fails forever
	hang     map[string]bool
	delay    time.Duration
	inflight gauge
}

func newFakeDownloader() *fakeDownloader {
	return &fakeDownloader{calls: map[string]int{}, failures: map[string]int{}, hang: map[string]bool{}}
}

func (d *fakeDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	d.inflight.enter()
	defer d.inflight.leave()

	d.mu.Lock()
	d.calls[url]++
	attempt := d.calls[url]
	failures := d.failures[url]
	hang := d.hang[url]
	d.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if failures < 0 || attempt <= failures {
		return nil, fmt.Errorf("%w: simulated failure for %s", domain.ErrFetch, url)
	}
	return []byte(url), nil
}

func (d *fakeDownloader) callCount(url string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[url]
}

// fakeParser maps the downloaded body (the URL) to scripted entries.
type fakeParser struct {
	entries map[string][]domain.Entry
}

func (p *fakeParser) Parse(data []byte) ([]domain.Entry, error) {
	entries, ok := p.entries[string(data)]
	if !ok {
		return nil, errors.New("not a feed")
	}
	return entries, nil
}

// recordingTimer fires immediately and remembers every requested wait.
type recordingTimer struct {
	log *waitLog
	c   chan time.Time
}

type waitLog struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (l *waitLog) newTimer() backoff.Timer {
	return &recordingTimer{log: l}
}

func (l *waitLog) all() []time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]time.Duration(nil), l.waits...)
}

func (t *recordingTimer) Start(d time.Duration) {
	t.log.mu.Lock()
	t.log.waits = append(t.log.waits, d)
	t.log.mu.Unlock()
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *recordingTimer) Stop() {}

func (t *recordingTimer) C() <-chan time.Time { return t.c }

// fakeModel answers prompts with a scripted reply chosen by the prompt text.
type fakeModel struct {
	reply    func(prompt string) (string, error)
	delay    time.Duration
	inflight gauge
	calls    atomic.Int64
}

func (m *fakeModel) Complete(ctx context.Context, prompt string) (string, error) {
	m.inflight.enter()
	defer m.inflight.leave()
	m.calls.Add(1)

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.reply(prompt)
}

func verdictJSON(category domain.Category, clickbait bool) string {
	return fmt.Sprintf(`{"category": %q, "is_clickbait": %t, "confidence": 0.9, "reasoning": "test"}`, category.String(), clickbait)
}

func entriesFor(prefix string, n int) []domain.Entry {
	entries := make([]domain.Entry, n)
	for i := range entries {
		entries[i] = domain.Entry{
			Title:   fmt.Sprintf("%s story %d", prefix, i),
			Link:    fmt.Sprintf("https://%s.example.com/%d", prefix, i),
			Summary: "summary",
		}
	}
	return entries
}

func feed(name string, priority int) domain.FeedDescriptor {
	return domain.FeedDescriptor{
		Name:     name,
		URL:      "https://" + name + ".example.com/rss",
		Enabled:  true,
		Priority: priority,
	}
}
