package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/metrics"
	"NewsCurator/internal/ports"
)

// FetchOptions bounds the fetch stage.
type FetchOptions struct {
	Timeout       time.Duration
	MaxConcurrent int
	RetryAttempts int
	RetryDelay    time.Duration
}

// FetchDeps wires the fetch stage collaborators.
type FetchDeps struct {
	Downloader ports.FeedDownloader
	Parser     ports.FeedParser
	Options    FetchOptions
	Logger     *slog.Logger
	Metrics    *metrics.Recorder
}

// FetchStage retrieves enabled feeds through a bounded worker pool with per-feed retries.
type FetchStage struct {
	downloader ports.FeedDownloader
	parser     ports.FeedParser
	opts       FetchOptions
	logger     *slog.Logger
	metrics    *metrics.Recorder

	// newTimer builds the timer for backoff waits; nil means real timers.
	newTimer func() backoff.Timer
}

type feedOutcome struct {
	articles []*domain.Article
	err      error
}

// NewFetchStage applies defaults for unset options.
func NewFetchStage(deps FetchDeps) *FetchStage {
	opts := deps.Options
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.RetryAttempts < 1 {
		opts.RetryAttempts = 1
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FetchStage{
		downloader: deps.Downloader,
		parser:     deps.Parser,
		opts:       opts,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// FetchAll fetches every enabled feed, highest priority first. The articles are grouped per
// feed in dispatch order; each exhausted feed contributes one error string instead.
func (s *FetchStage) FetchAll(ctx context.Context, feeds []domain.FeedDescriptor) ([]*domain.Article, []string) {
	active := activeFeeds(feeds)
	s.logger.Info("fetching feeds", "feeds", len(active), "concurrency", s.opts.MaxConcurrent)

	outcomes := make([]feedOutcome, len(active))

	var g errgroup.Group
	g.SetLimit(s.opts.MaxConcurrent)
	for i, feed := range active {
		g.Go(func() error {
			articles, err := s.fetchFeed(ctx, feed)
			outcomes[i] = feedOutcome{articles: articles, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var (
		articles []*domain.Article
		errs     []string
	)
	for i, feed := range active {
		out := outcomes[i]
		if out.err != nil {
			msg := fmt.Sprintf("Feed '%s' failed: %v", feed.Name, out.err)
			s.logger.Error("feed failed", "feed", feed.Name, "url", feed.URL, "error", out.err)
			s.metrics.FeedFailed()
			errs = append(errs, msg)
			continue
		}
		s.logger.Info("feed fetched", "feed", feed.Name, "articles", len(out.articles))
		articles = append(articles, out.articles...)
	}

	s.metrics.ArticlesFetched(len(articles))
	s.logger.Info("fetch complete",
		"articles", len(articles),
		"feeds_ok", len(active)-len(errs),
		"feeds_total", len(active))

	return articles, errs
}

// activeFeeds keeps enabled feeds ordered by descending priority, stable for ties.
func activeFeeds(feeds []domain.FeedDescriptor) []domain.FeedDescriptor {
	active := make([]domain.FeedDescriptor, 0, len(feeds))
	for _, f := range feeds {
		if f.Enabled {
			active = append(active, f)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority > active[j].Priority
	})
	return active
}

func (s *FetchStage) fetchFeed(ctx context.Context, feed domain.FeedDescriptor) ([]*domain.Article, error) {
	var (
		articles []*domain.Article
		attempts int
	)

	operation := func() error {
		attempts++
		result, err := s.fetchOnce(ctx, feed)
		if err != nil {
			s.metrics.FetchAttempt(metrics.OutcomeFailure)
			return err
		}
		s.metrics.FetchAttempt(metrics.OutcomeSuccess)
		articles = result
		return nil
	}

	notify := func(err error, wait time.Duration) {
		s.logger.Warn("feed fetch attempt failed, retrying",
			"feed", feed.Name, "attempt", attempts, "wait", wait, "error", err)
	}

	var timer backoff.Timer
	if s.newTimer != nil {
		timer = s.newTimer()
	}
	if err := backoff.RetryNotifyWithTimer(operation, s.retryPolicy(ctx), notify, timer); err != nil {
		return nil, fmt.Errorf("failed after %d attempts: %w", attempts, err)
	}
	return articles, nil
}

// retryPolicy waits RetryDelay * 2^i before retry i+1, without jitter.
func (s *FetchStage) retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.RetryDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = s.opts.RetryDelay << s.opts.RetryAttempts
	b.MaxElapsedTime = 0
	if b.InitialInterval <= 0 {
		b.InitialInterval = time.Nanosecond
		b.MaxInterval = time.Nanosecond
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.opts.RetryAttempts-1)), ctx)
}

func (s *FetchStage) fetchOnce(ctx context.Context, feed domain.FeedDescriptor) ([]*domain.Article, error) {
	timeout := s.opts.Timeout
	if feed.Timeout > 0 {
		timeout = feed.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	raw, err := s.downloader.Download(ctx, feed.URL)
	if err != nil {
		return nil, err
	}

	entries, err := s.parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	articles := make([]*domain.Article, 0, len(entries))
	for i, entry := range entries {
		if err := entry.Validate(); err != nil {
			s.logger.Warn("skipping malformed entry", "feed", feed.Name, "index", i, "error", err)
			continue
		}
		articles = append(articles, domain.NewArticle(feed.Name, entry))
	}
	return articles, nil
}
