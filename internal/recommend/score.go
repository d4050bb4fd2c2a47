// Package recommend picks recipes for a user from their ingredient preferences.
package recommend

import (
	"sort"
	"strings"

	"recipebox/internal/recipe"
)

// Limit is the number of recommendations returned.
const Limit = 5

// DislikePenalty is the weight of one disliked ingredient against one liked ingredient.
const DislikePenalty = 5

// Score counts liked terms found in the ingredient text minus DislikePenalty per disliked term.
// Matching is case-insensitive and blank terms are ignored.
func Score(ingredients string, liked, disliked []string) int {
	text := strings.ToLower(ingredients)
	return hits(text, liked) - DislikePenalty*hits(text, disliked)
}

func hits(text string, terms []string) int {
	n := 0
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(text, term) {
			n++
		}
	}
	return n
}

// Rank returns up to limit recipe names with a positive score, best first.
// Recipes with equal scores keep catalogue order.
func Rank(recipes []recipe.Recipe, liked, disliked []string, limit int) []string {
	type scored struct {
		name  string
		score int
	}
	var candidates []scored
	for _, r := range recipes {
		if s := Score(r.Ingredients, liked, disliked); s > 0 {
			candidates = append(candidates, scored{name: r.Name, score: s})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	names := []string{}
	for i := 0; i < len(candidates) && i < limit; i++ {
		names = append(names, candidates[i].name)
	}
	return names
}
