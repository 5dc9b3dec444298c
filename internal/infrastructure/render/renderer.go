package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

const (
	templateName    = "digest.html"
	timestampLayout = "January 02, 2006 at 03:04 PM"
	publishedLayout = "Jan 02, 15:04"
	summaryLimit    = 320
)

//go:embed templates/digest.html
var templatesFS embed.FS

// Options configures the HTML renderer.
type Options struct {
	OutputPath     string
	MaxPerCategory int
	// TemplateDir overrides the embedded template with <dir>/digest.html.
	TemplateDir string
}

// HTMLRenderer writes the digest as a single static HTML document.
type HTMLRenderer struct {
	tmpl *template.Template
	opts Options
}

var _ ports.Renderer = (*HTMLRenderer)(nil)

// NewHTMLRenderer parses the template once; a broken template fails here, not mid-run.
func NewHTMLRenderer(opts Options) (*HTMLRenderer, error) {
	base := template.New(templateName).Funcs(template.FuncMap{"truncate": truncate})

	var (
		tmpl *template.Template
		err  error
	)
	if opts.TemplateDir != "" {
		tmpl, err = base.ParseFiles(filepath.Join(opts.TemplateDir, templateName))
	} else {
		tmpl, err = base.ParseFS(templatesFS, "templates/"+templateName)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse template: %w", domain.ErrRender, err)
	}
	return &HTMLRenderer{tmpl: tmpl, opts: opts}, nil
}

type articleView struct {
	Title     string
	URL       string
	Source    string
	Published string
	Summary   string
	Clickbait bool
}

type sectionView struct {
	Name     string
	Slug     string
	Total    int
	Articles []articleView
	Omitted  int
}

type pageView struct {
	GeneratedAt       string
	SuccessRate       string
	TotalFetched      int
	TotalFiltered     int
	DuplicatesDropped int
	ArticleCount      int
	Sections          []sectionView
	Errors            []string
}

// Render writes the document atomically and returns its path.
func (r *HTMLRenderer) Render(ctx context.Context, d domain.Digest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRender, err)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, r.view(d)); err != nil {
		return "", fmt.Errorf("%w: execute template: %w", domain.ErrRender, err)
	}

	if dir := filepath.Dir(r.opts.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("%w: create output dir: %w", domain.ErrRender, err)
		}
	}
	if err := atomic.WriteFile(r.opts.OutputPath, &buf); err != nil {
		return "", fmt.Errorf("%w: write %s: %w", domain.ErrRender, r.opts.OutputPath, err)
	}
	return r.opts.OutputPath, nil
}

func (r *HTMLRenderer) view(d domain.Digest) pageView {
	page := pageView{
		GeneratedAt:       d.GeneratedAt.Format(timestampLayout),
		SuccessRate:       fmt.Sprintf("%.1f%%", d.SuccessRate()*100),
		TotalFetched:      d.TotalFetched,
		TotalFiltered:     d.TotalFiltered,
		DuplicatesDropped: d.DuplicatesDropped,
		ArticleCount:      d.ArticleCount(),
		Errors:            d.Errors,
	}

	for _, c := range domain.Categories() {
		articles := d.ArticlesByCategory[c]
		section := sectionView{Name: c.String(), Slug: c.Slug(), Total: len(articles)}

		shown := articles
		if r.opts.MaxPerCategory > 0 && len(shown) > r.opts.MaxPerCategory {
			shown = shown[:r.opts.MaxPerCategory]
			section.Omitted = len(articles) - len(shown)
		}
		for _, a := range shown {
			view := articleView{
				Title:     a.Title,
				URL:       a.URL,
				Source:    a.Source,
				Summary:   a.Summary,
				Clickbait: a.Clickbait,
			}
			if a.PublishedAt != nil {
				view.Published = a.PublishedAt.Format(publishedLayout)
			}
			section.Articles = append(section.Articles, view)
		}
		page.Sections = append(page.Sections, section)
	}
	return page
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= summaryLimit {
		return s
	}
	return string(runes[:summaryLimit]) + "…"
}
