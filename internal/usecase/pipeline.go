package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/metrics"
	"NewsCurator/internal/ports"
)

// State names a step of a pipeline run.
type State string

const (
	StateIdle          State = "idle"
	StateLoadingConfig State = "loading_config"
	StateFetching      State = "fetching"
	StateDeduplicating State = "deduplicating"
	StateClassifying   State = "classifying"
	StateFiltering     State = "filtering"
	StateAggregating   State = "aggregating"
	StateRendering     State = "rendering"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// PipelineOptions carries the feature flags of a run.
type PipelineOptions struct {
	FilterClickbait bool
	Deduplicate     bool
	MetricsTextfile string
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Catalog    ports.Catalog
	Fetcher    *FetchStage
	Classifier *ClassifyStage
	Renderer   ports.Renderer
	History    ports.RunRecorder
	Notifier   ports.Notifier
	Metrics    *metrics.Recorder
	Options    PipelineOptions
	Logger     *slog.Logger
	Clock      func() time.Time
	NewRunID   func() string
}

// Pipeline sequences fetch, dedupe, classify, filter, aggregate and render.
type Pipeline struct {
	catalog    ports.Catalog
	fetcher    *FetchStage
	classifier *ClassifyStage
	renderer   ports.Renderer
	history    ports.RunRecorder
	notifier   ports.Notifier
	metrics    *metrics.Recorder
	opts       PipelineOptions
	logger     *slog.Logger
	clock      func() time.Time
	newRunID   func() string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		catalog:    deps.Catalog,
		fetcher:    deps.Fetcher,
		classifier: deps.Classifier,
		renderer:   deps.Renderer,
		history:    deps.History,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		opts:       deps.Options,
		logger:     deps.Logger,
		clock:      deps.Clock,
		newRunID:   deps.NewRunID,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.newRunID == nil {
		p.newRunID = func() string { return uuid.NewString() }
	}
	return p
}

// run tracks the state of a single invocation.
type run struct {
	id     string
	state  State
	logger *slog.Logger
}

func (r *run) enter(s State) {
	r.state = s
	r.logger.Debug("pipeline state", "state", s)
}

func (r *run) fail(err error) error {
	failedIn := r.state
	r.enter(StateFailed)
	r.logger.Error("pipeline failed", "state", failedIn, "error", err)
	return fmt.Errorf("%s: %w", failedIn, err)
}

// Run executes one complete, independent run and returns the rendered digest.
func (p *Pipeline) Run(ctx context.Context) (domain.Digest, error) {
	r := &run{id: p.newRunID(), state: StateIdle}
	r.logger = p.logger.With("run_id", r.id)

	start := p.clock()
	r.logger.Info("starting news curation pipeline")

	r.enter(StateLoadingConfig)
	feeds, err := p.catalog.LoadFeeds(ctx)
	if err != nil {
		return domain.Digest{}, r.fail(asKind(err, domain.ErrConfig))
	}
	template, err := p.catalog.LoadPromptTemplate(ctx)
	if err != nil {
		return domain.Digest{}, r.fail(asKind(err, domain.ErrConfig))
	}
	if strings.TrimSpace(template) == "" {
		return domain.Digest{}, r.fail(ErrPromptTemplateUnset)
	}

	r.enter(StateFetching)
	articles, fetchErrs := p.fetcher.FetchAll(ctx, feeds)

	duplicates := 0
	if p.opts.Deduplicate {
		r.enter(StateDeduplicating)
		articles, duplicates = Dedupe(articles)
		r.logger.Info("deduplicated articles", "kept", len(articles), "duplicates", duplicates)
	}

	r.enter(StateClassifying)
	results, err := p.classifier.ClassifyAll(ctx, PromptTemplate(template), articles)
	if err != nil {
		return domain.Digest{}, r.fail(asKind(err, domain.ErrConfig))
	}

	r.enter(StateFiltering)
	if p.opts.FilterClickbait {
		r.logger.Info("filtering clickbait", "dropped", countClickbait(results))
	}

	r.enter(StateAggregating)
	grouped := Aggregate(results, p.opts.FilterClickbait)

	digest := domain.NewDigest(start, grouped, len(articles), fetchErrs)
	digest.DuplicatesDropped = duplicates

	r.enter(StateRendering)
	output, err := p.renderer.Render(ctx, digest)
	if err != nil {
		return domain.Digest{}, r.fail(asKind(err, domain.ErrRender))
	}

	elapsed := p.clock().Sub(start)
	p.afterRender(ctx, r, digest, output, elapsed)

	r.enter(StateDone)
	r.logger.Info("pipeline complete",
		"elapsed", elapsed.Round(time.Millisecond),
		"output", output,
		"articles", digest.ArticleCount(),
		"filtered", digest.TotalFiltered,
		"errors", len(digest.Errors))
	return digest, nil
}

// afterRender runs the optional side channels. Their failures never fail the run.
func (p *Pipeline) afterRender(ctx context.Context, r *run, digest domain.Digest, output string, elapsed time.Duration) {
	p.metrics.RunCompleted(digest, elapsed)
	if err := p.metrics.WriteTextfile(p.opts.MetricsTextfile); err != nil {
		r.logger.Warn("metrics export failed", "error", err)
	}

	if p.history != nil {
		if err := p.history.RecordRun(ctx, domain.NewRunRecord(r.id, digest, output, elapsed)); err != nil {
			r.logger.Warn("run history not recorded", "error", err)
		}
	}

	if p.notifier != nil {
		if err := p.notifier.PublishDigest(ctx, buildRunSummary(digest, output)); err != nil {
			r.logger.Warn("notification failed", "error", err)
		}
	}
}

func countClickbait(results []domain.ClassificationResult) int {
	n := 0
	for _, r := range results {
		if r.Clickbait {
			n++
		}
	}
	return n
}

func asKind(err, kind error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

func buildRunSummary(d domain.Digest, output string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "News digest %s\n", d.GeneratedAt.Format("2006-01-02 15:04"))
	for _, c := range domain.Categories() {
		if n := len(d.ArticlesByCategory[c]); n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", c, n)
		}
	}
	fmt.Fprintf(&b, "Articles: %d of %d fetched, success rate %.1f%%\n",
		d.ArticleCount(), d.TotalFetched, d.SuccessRate()*100)
	if len(d.Errors) > 0 {
		fmt.Fprintf(&b, "Feed errors: %d\n", len(d.Errors))
	}
	b.WriteString(output)
	return b.String()
}
