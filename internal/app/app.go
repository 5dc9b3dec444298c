package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"NewsCurator/internal/config"
	"NewsCurator/internal/domain"
	"NewsCurator/internal/infrastructure/feed"
	"NewsCurator/internal/infrastructure/llm"
	"NewsCurator/internal/infrastructure/render"
	"NewsCurator/internal/infrastructure/scheduler"
	"NewsCurator/internal/infrastructure/storage"
	"NewsCurator/internal/infrastructure/telegram"
	"NewsCurator/internal/logging"
	"NewsCurator/internal/metrics"
	"NewsCurator/internal/ports"
	"NewsCurator/internal/usecase"
)

const stopTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	history  *storage.SQLiteHistory
}

// New validates the configuration and builds every adapter. Nothing touches the network here.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	recorder := metrics.New()

	fetcher := usecase.NewFetchStage(usecase.FetchDeps{
		Downloader: feed.NewDownloader(&http.Client{}, cfg.Fetch.UserAgent),
		Parser:     feed.NewParser(),
		Options: usecase.FetchOptions{
			Timeout:       cfg.Fetch.Timeout,
			MaxConcurrent: cfg.Fetch.MaxConcurrent,
			RetryAttempts: cfg.Fetch.RetryAttempts,
			RetryDelay:    cfg.Fetch.RetryDelay,
		},
		Logger:  baseLogger.With("component", "fetcher"),
		Metrics: recorder,
	})

	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	classifier := usecase.NewClassifyStage(usecase.ClassifyDeps{
		Client: client,
		Options: usecase.ClassifyOptions{
			MaxConcurrent:     cfg.Classification.MaxConcurrent,
			RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		},
		Logger:  baseLogger.With("component", "classifier"),
		Metrics: recorder,
	})

	renderer, err := render.NewHTMLRenderer(render.Options{
		OutputPath:     cfg.OutputPath(),
		MaxPerCategory: cfg.Output.MaxArticlesPerCategory,
		TemplateDir:    cfg.Paths.TemplateDir,
	})
	if err != nil {
		return nil, err
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	// Optional side channels stay nil interfaces when disabled.
	var history ports.RunRecorder
	if cfg.Storage.HistoryPath != "" {
		h, err := storage.OpenSQLiteHistory(ctx, cfg.Storage.HistoryPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfig, err)
		}
		a.history = h
		history = h
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		tg := cfg.Notifications.Telegram
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID, tg.APIBase)
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Catalog:    config.NewFileCatalog(cfg),
		Fetcher:    fetcher,
		Classifier: classifier,
		Renderer:   renderer,
		History:    history,
		Notifier:   notifier,
		Metrics:    recorder,
		Options: usecase.PipelineOptions{
			FilterClickbait: cfg.Features.FilterClickbait,
			Deduplicate:     cfg.Features.DeduplicateArticles,
			MetricsTextfile: cfg.Metrics.Textfile,
		},
		Logger: baseLogger.With("component", "pipeline"),
	})
	return a, nil
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) (domain.Digest, error) {
	return a.pipeline.Run(ctx)
}

// Watch repeats independent runs on the configured interval until ctx is cancelled.
func (a *Application) Watch(ctx context.Context) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval)
	s := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := s.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("watching feeds", "interval", a.cfg.Scheduler.Interval)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return s.Stop(stopCtx)
}

// Close releases the run ledger.
func (a *Application) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

// InputSummary describes the per-run inputs without running anything.
type InputSummary struct {
	Feeds         int
	EnabledFeeds  int
	TemplateBytes int
	OutputPath    string
	Provider      string
	Model         string
}

// ValidateInputs checks settings, the feed list and the prompt template.
func ValidateInputs(ctx context.Context, cfg config.Config) (InputSummary, error) {
	var problems []error
	if err := cfg.Validate(); err != nil {
		problems = append(problems, err)
	}

	catalog := config.NewFileCatalog(cfg)
	feeds, err := catalog.LoadFeeds(ctx)
	if err != nil {
		problems = append(problems, err)
	}
	tmpl, err := catalog.LoadPromptTemplate(ctx)
	if err != nil {
		problems = append(problems, err)
	}

	summary := InputSummary{
		Feeds:         len(feeds),
		TemplateBytes: len(tmpl),
		OutputPath:    cfg.OutputPath(),
		Provider:      cfg.LLM.Provider,
		Model:         cfg.LLM.Model,
	}
	for _, f := range feeds {
		if f.Enabled {
			summary.EnabledFeeds++
		}
	}
	return summary, errors.Join(problems...)
}

// RecentRuns reads the run ledger.
func RecentRuns(ctx context.Context, cfg config.Config, limit int) ([]domain.RunRecord, error) {
	if cfg.Storage.HistoryPath == "" {
		return nil, fmt.Errorf("%w: storage.historyPath is not set", domain.ErrConfig)
	}
	h, err := storage.OpenSQLiteHistory(ctx, cfg.Storage.HistoryPath)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return h.RecentRuns(ctx, limit)
}
