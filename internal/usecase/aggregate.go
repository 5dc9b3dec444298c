package usecase

import "NewsCurator/internal/domain"

// Aggregate groups classified articles by category in result order. When filterClickbait is
// set, clickbait results are dropped first. Every category is present in the output.
// The verdict is written onto each retained article.
func Aggregate(results []domain.ClassificationResult, filterClickbait bool) map[domain.Category][]*domain.Article {
	grouped := domain.EmptyGrouping()
	for _, r := range results {
		if filterClickbait && r.Clickbait {
			continue
		}
		r.Article.Category = r.Category
		r.Article.Clickbait = r.Clickbait
		grouped[r.Category] = append(grouped[r.Category], r.Article)
	}
	return grouped
}
