// Package classifier maps free transaction text to a category name by
// keyword scoring: every keyword found as a substring contributes its own
// length, so longer, more specific matches dominate.
package classifier

import (
	"strings"

	"github.com/dompetdev/dompetbot/internal/model"
)

// Fallback is returned when no keyword matches.
const Fallback = "Other"

// Classify scores text against the categories of the given transaction
// kind. Income-tagged categories only match Income transactions; every
// category matches Expense (and Transfer, which is classified as Expense).
// The first category with the strictly highest score wins; zero score
// falls back to "Other".
func Classify(categories []model.Category, text, kind string) string {
	lower := strings.ToLower(text)

	best := Fallback
	bestScore := 0
	for _, c := range categories {
		if c.Type != kind && kind != model.TypeExpense {
			continue
		}
		score := 0
		for _, kw := range c.KeywordList() {
			if strings.Contains(lower, kw) {
				score += len(kw)
			}
		}
		if score > bestScore {
			best = c.Name
			bestScore = score
		}
	}
	return best
}
