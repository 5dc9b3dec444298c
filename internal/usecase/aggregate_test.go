package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsCurator/internal/domain"
)

func TestAggregate_EmptyInputHasEveryCategory(t *testing.T) {
	for _, filter := range []bool{true, false} {
		grouped := Aggregate(nil, filter)

		require.Len(t, grouped, len(domain.Categories()))
		for _, c := range domain.Categories() {
			list, ok := grouped[c]
			assert.True(t, ok, "missing %s", c)
			assert.Empty(t, list)
		}
	}
}

func TestAggregate_ClickbaitFilter(t *testing.T) {
	results := func() []domain.ClassificationResult {
		arts := articlesWithURLs("u0", "u1", "u2")
		return []domain.ClassificationResult{
			{Article: arts[0], Category: domain.MustKnow},
			{Article: arts[1], Category: domain.FunStuff, Clickbait: true},
			{Article: arts[2], Category: domain.MustKnow},
		}
	}

	count := func(g map[domain.Category][]*domain.Article) int {
		n := 0
		for _, list := range g {
			n += len(list)
		}
		return n
	}

	filtered := Aggregate(results(), true)
	assert.Equal(t, 2, count(filtered))
	assert.Empty(t, filtered[domain.FunStuff])

	unfiltered := Aggregate(results(), false)
	assert.Equal(t, 3, count(unfiltered))
	assert.Len(t, unfiltered[domain.FunStuff], 1)
}

func TestAggregate_AssignsVerdictAndKeepsResultOrder(t *testing.T) {
	arts := articlesWithURLs("u0", "u1", "u2")
	results := []domain.ClassificationResult{
		{Article: arts[2], Category: domain.TechAndTools},
		{Article: arts[0], Category: domain.TechAndTools},
		{Article: arts[1], Category: domain.SportsContext, Clickbait: true},
	}

	grouped := Aggregate(results, false)

	assert.Equal(t, []*domain.Article{arts[2], arts[0]}, grouped[domain.TechAndTools])
	assert.Equal(t, domain.TechAndTools, arts[0].Category)
	assert.Equal(t, domain.SportsContext, arts[1].Category)
	assert.True(t, arts[1].Clickbait)

	// Each article appears under exactly one category.
	seen := map[*domain.Article]int{}
	for _, list := range grouped {
		for _, a := range list {
			seen[a]++
		}
	}
	for _, a := range arts {
		assert.Equal(t, 1, seen[a])
	}
}
