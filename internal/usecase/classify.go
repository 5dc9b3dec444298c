package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/metrics"
	"NewsCurator/internal/ports"
)

const missingSummary = "No summary available"

// ErrPromptTemplateUnset is returned when classification starts without a template.
var ErrPromptTemplateUnset = fmt.Errorf("%w: prompt template not set", domain.ErrConfig)

// PromptTemplate holds {title}, {summary} and {source} placeholders. Doubled braces
// render as literal braces.
type PromptTemplate string

// Render substitutes the article fields into the template.
func (t PromptTemplate) Render(a *domain.Article) string {
	summary := a.Summary
	if strings.TrimSpace(summary) == "" {
		summary = missingSummary
	}
	r := strings.NewReplacer(
		"{{", "{",
		"}}", "}",
		"{title}", a.Title,
		"{summary}", summary,
		"{source}", a.Source,
	)
	return r.Replace(string(t))
}

// ClassifyOptions bounds calls to the model service.
type ClassifyOptions struct {
	MaxConcurrent int
	// RequestsPerSecond paces call starts when positive.
	RequestsPerSecond float64
}

// ClassifyDeps wires the classification stage.
type ClassifyDeps struct {
	Client  ports.CompletionClient
	Options ClassifyOptions
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// ClassifyStage asks the model for one verdict per article through a bounded pool.
type ClassifyStage struct {
	client  ports.CompletionClient
	opts    ClassifyOptions
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *metrics.Recorder
}

type classifyOutcome struct {
	article *domain.Article
	result  domain.ClassificationResult
	err     error
}

// NewClassifyStage applies defaults for unset options.
func NewClassifyStage(deps ClassifyDeps) *ClassifyStage {
	opts := deps.Options
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &ClassifyStage{
		client:  deps.Client,
		opts:    opts,
		logger:  logger,
		metrics: deps.Metrics,
	}
	if opts.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return s
}

// ClassifyAll returns results in completion order. Failed articles are logged and left out;
// the only error is a missing template.
func (s *ClassifyStage) ClassifyAll(ctx context.Context, tmpl PromptTemplate, articles []*domain.Article) ([]domain.ClassificationResult, error) {
	if strings.TrimSpace(string(tmpl)) == "" {
		return nil, ErrPromptTemplateUnset
	}

	s.logger.Info("classifying articles", "articles", len(articles), "concurrency", s.opts.MaxConcurrent)

	outcomes := make(chan classifyOutcome)
	go func() {
		var g errgroup.Group
		g.SetLimit(s.opts.MaxConcurrent)
		for _, article := range articles {
			g.Go(func() error {
				result, err := s.classify(ctx, tmpl, article)
				outcomes <- classifyOutcome{article: article, result: result, err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(outcomes)
	}()

	results := make([]domain.ClassificationResult, 0, len(articles))
	for out := range outcomes {
		if out.err != nil {
			s.metrics.Classification(metrics.OutcomeFailure)
			s.logger.Error("classification failed", "title", out.article.Title, "error", out.err)
			continue
		}
		s.metrics.Classification(metrics.OutcomeSuccess)
		results = append(results, out.result)
	}

	s.logger.Info("classification complete",
		"succeeded", len(results),
		"failed", len(articles)-len(results),
		"total", len(articles))
	return results, nil
}

func (s *ClassifyStage) classify(ctx context.Context, tmpl PromptTemplate, article *domain.Article) (domain.ClassificationResult, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return domain.ClassificationResult{}, fmt.Errorf("%w: rate limit: %w", domain.ErrClassification, err)
		}
	}

	reply, err := s.client.Complete(ctx, tmpl.Render(article))
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("%w: model call: %w", domain.ErrClassification, err)
	}

	verdict, err := ParseVerdict(reply)
	if err != nil {
		return domain.ClassificationResult{}, err
	}
	verdict.Article = article
	return verdict, nil
}

type modelReply struct {
	Category    *string  `json:"category"`
	IsClickbait *bool    `json:"is_clickbait"`
	Confidence  *float64 `json:"confidence"`
	Reasoning   *string  `json:"reasoning"`
}

// ParseVerdict validates a model reply. A surrounding markdown code fence is tolerated;
// anything else that is not the expected JSON object is rejected.
func ParseVerdict(reply string) (domain.ClassificationResult, error) {
	var parsed modelReply
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &parsed); err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("%w: invalid response format: %w", domain.ErrClassification, err)
	}

	var problems []error
	if parsed.Category == nil {
		problems = append(problems, errors.New("missing category"))
	}
	if parsed.IsClickbait == nil {
		problems = append(problems, errors.New("missing is_clickbait"))
	}
	if parsed.Confidence == nil {
		problems = append(problems, errors.New("missing confidence"))
	} else if *parsed.Confidence < 0 || *parsed.Confidence > 1 {
		problems = append(problems, fmt.Errorf("confidence %v outside [0,1]", *parsed.Confidence))
	}
	if len(problems) > 0 {
		return domain.ClassificationResult{}, fmt.Errorf("%w: invalid response format: %w", domain.ErrClassification, errors.Join(problems...))
	}

	category, err := domain.ParseCategory(*parsed.Category)
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("%w: %w", domain.ErrClassification, err)
	}

	result := domain.ClassificationResult{
		Category:   category,
		Clickbait:  *parsed.IsClickbait,
		Confidence: *parsed.Confidence,
	}
	if parsed.Reasoning != nil {
		result.Reasoning = *parsed.Reasoning
	}
	return result, nil
}

func stripCodeFence(reply string) string {
	text := strings.TrimSpace(reply)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
