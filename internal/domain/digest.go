package domain

import "time"

// Digest is the final report of one run. It is not modified after rendering starts.
type Digest struct {
	GeneratedAt        time.Time
	ArticlesByCategory map[Category][]*Article
	TotalFetched       int
	TotalFiltered      int
	DuplicatesDropped  int
	Errors             []string
}

// NewDigest builds a digest and derives TotalFiltered from the grouped articles.
func NewDigest(generatedAt time.Time, grouped map[Category][]*Article, fetched int, errs []string) Digest {
	if grouped == nil {
		grouped = EmptyGrouping()
	}
	d := Digest{
		GeneratedAt:        generatedAt,
		ArticlesByCategory: grouped,
		TotalFetched:       fetched,
		Errors:             errs,
	}
	d.TotalFiltered = fetched - d.ArticleCount()
	return d
}

// EmptyGrouping returns a grouping with every category present.
func EmptyGrouping() map[Category][]*Article {
	grouped := make(map[Category][]*Article, len(categoryLabels))
	for _, c := range Categories() {
		grouped[c] = []*Article{}
	}
	return grouped
}

// ArticleCount sums articles across all categories.
func (d Digest) ArticleCount() int {
	total := 0
	for _, articles := range d.ArticlesByCategory {
		total += len(articles)
	}
	return total
}

// SuccessRate is (fetched - errors) / fetched, or 0 for an empty run.
func (d Digest) SuccessRate() float64 {
	if d.TotalFetched == 0 {
		return 0
	}
	return float64(d.TotalFetched-len(d.Errors)) / float64(d.TotalFetched)
}

// RunRecord is the summary row kept in the run ledger.
type RunRecord struct {
	RunID             string
	GeneratedAt       time.Time
	TotalFetched      int
	TotalFiltered     int
	DuplicatesDropped int
	ArticleCount      int
	ErrorCount        int
	SuccessRate       float64
	OutputPath        string
	Elapsed           time.Duration
}

// NewRunRecord summarises a rendered digest.
func NewRunRecord(runID string, d Digest, output string, elapsed time.Duration) RunRecord {
	return RunRecord{
		RunID:             runID,
		GeneratedAt:       d.GeneratedAt,
		TotalFetched:      d.TotalFetched,
		TotalFiltered:     d.TotalFiltered,
		DuplicatesDropped: d.DuplicatesDropped,
		ArticleCount:      d.ArticleCount(),
		ErrorCount:        len(d.Errors),
		SuccessRate:       d.SuccessRate(),
		OutputPath:        output,
		Elapsed:           elapsed,
	}
}
