// Package metrics keeps per-process counters for pipeline runs and exports them in the
// Prometheus text format, suitable for the node exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"NewsCurator/internal/domain"
)

const namespace = "nus"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder owns a private registry. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	fetchAttempts   *prometheus.CounterVec
	feedsFailed     prometheus.Counter
	articlesFetched prometheus.Counter
	classifications *prometheus.CounterVec

	lastRunTimestamp   prometheus.Gauge
	lastRunDuration    prometheus.Gauge
	lastRunSuccessRate prometheus.Gauge
	lastRunArticles    *prometheus.GaugeVec
}

// New registers all collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetch_attempts_total",
			Help:      "Feed fetch attempts by outcome.",
		}, []string{"outcome"}),
		feedsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feeds_failed_total",
			Help:      "Feeds that exhausted all fetch attempts.",
		}),
		articlesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_fetched_total",
			Help:      "Articles extracted from feeds.",
		}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Classification calls by outcome.",
		}, []string{"outcome"}),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Generation time of the last digest.",
		}),
		lastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall-clock duration of the last run.",
		}),
		lastRunSuccessRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success_rate",
			Help:      "Success rate reported by the last digest.",
		}),
		lastRunArticles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_articles",
			Help:      "Articles per category in the last digest.",
		}, []string{"category"}),
	}

	r.registry.MustRegister(
		r.fetchAttempts,
		r.feedsFailed,
		r.articlesFetched,
		r.classifications,
		r.lastRunTimestamp,
		r.lastRunDuration,
		r.lastRunSuccessRate,
		r.lastRunArticles,
	)
	return r
}

// Registry exposes the underlying registry for tests and exporters.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) FetchAttempt(outcome string) {
	if r == nil {
		return
	}
	r.fetchAttempts.WithLabelValues(outcome).Inc()
}

func (r *Recorder) FeedFailed() {
	if r == nil {
		return
	}
	r.feedsFailed.Inc()
}

func (r *Recorder) ArticlesFetched(n int) {
	if r == nil {
		return
	}
	r.articlesFetched.Add(float64(n))
}

func (r *Recorder) Classification(outcome string) {
	if r == nil {
		return
	}
	r.classifications.WithLabelValues(outcome).Inc()
}

// RunCompleted snapshots the digest into the last-run gauges.
func (r *Recorder) RunCompleted(d domain.Digest, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.lastRunTimestamp.Set(float64(d.GeneratedAt.Unix()))
	r.lastRunDuration.Set(elapsed.Seconds())
	r.lastRunSuccessRate.Set(d.SuccessRate())
	for _, c := range domain.Categories() {
		r.lastRunArticles.WithLabelValues(c.Slug()).Set(float64(len(d.ArticlesByCategory[c])))
	}
}

// WriteTextfile atomically writes every collected metric to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
