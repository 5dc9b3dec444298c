package usecase

import "NewsCurator/internal/domain"

// Dedupe keeps the first article for each URL, in input order, and reports how many
// later duplicates were dropped. Linkless articles share the empty key.
func Dedupe(articles []*domain.Article) ([]*domain.Article, int) {
	seen := make(map[string]struct{}, len(articles))
	unique := make([]*domain.Article, 0, len(articles))
	for _, a := range articles {
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		unique = append(unique, a)
	}
	return unique, len(articles) - len(unique)
}
