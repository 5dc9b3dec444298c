package ports

import (
	"context"
	"time"

	"NewsCurator/internal/domain"
)

// Catalog loads the per-run inputs: the feed list and the prompt template.
type Catalog interface {
	LoadFeeds(ctx context.Context) ([]domain.FeedDescriptor, error)
	LoadPromptTemplate(ctx context.Context) (string, error)
}

// FeedDownloader retrieves raw feed bytes over HTTP.
type FeedDownloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// FeedParser turns raw feed bytes into ordered entries.
type FeedParser interface {
	Parse(data []byte) ([]domain.Entry, error)
}

// CompletionClient sends a single prompt to a language model and returns its text reply.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Renderer produces the digest document and returns where it was written.
type Renderer interface {
	Render(ctx context.Context, digest domain.Digest) (string, error)
}

// RunRecorder persists run summaries (never articles).
type RunRecorder interface {
	RecordRun(ctx context.Context, run domain.RunRecord) error
	RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// Notifier publishes a short run summary to an outbound channel.
type Notifier interface {
	PublishDigest(ctx context.Context, message string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
