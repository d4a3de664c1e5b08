package ranking

import "github.com/sahilm/fuzzy"

// Skim is a subsequence matcher: every query character must appear in the
// candidate in order. Consecutive runs and word starts score higher.
type Skim struct{}

func (Skim) Name() string { return "skim" }

func (Skim) Score(query, candidate string) (int, bool) {
	if query == "" {
		return 0, true
	}
	matches := fuzzy.Find(query, []string{candidate})
	if len(matches) == 0 {
		return 0, false
	}
	return matches[0].Score, true
}
