package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsCurator/internal/domain"
)

func TestRecorderCounters(t *testing.T) {
	r := New()

	r.FetchAttempt(OutcomeFailure)
	r.FetchAttempt(OutcomeFailure)
	r.FetchAttempt(OutcomeSuccess)
	r.FeedFailed()
	r.ArticlesFetched(12)
	r.Classification(OutcomeSuccess)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetchAttempts.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchAttempts.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.feedsFailed))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.articlesFetched))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.classifications.WithLabelValues(OutcomeSuccess)))
}

func TestRecorderRunCompletedAndTextfile(t *testing.T) {
	r := New()
	grouped := domain.EmptyGrouping()
	grouped[domain.MustKnow] = []*domain.Article{{Title: "a"}, {Title: "b"}}
	d := domain.NewDigest(time.Unix(1700000000, 0), grouped, 4, nil)

	r.RunCompleted(d, 3*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.lastRunArticles.WithLabelValues("must-know")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.lastRunArticles.WithLabelValues("fun-stuff")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.lastRunDuration))

	path := filepath.Join(t.TempDir(), "nus.prom")
	require.NoError(t, r.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "nus_last_run_articles")
	assert.Contains(t, string(raw), "nus_last_run_success_rate 1")
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.FetchAttempt(OutcomeSuccess)
		r.FeedFailed()
		r.ArticlesFetched(3)
		r.Classification(OutcomeFailure)
		r.RunCompleted(domain.Digest{}, time.Second)
	})
	assert.NoError(t, r.WriteTextfile("/nonexistent/path"))
	assert.Nil(t, r.Registry())
}
