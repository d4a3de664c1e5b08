package ranking

import (
	"sort"
	"strings"

	"github.com/thoth/thoth/internal/models"
)

// Scored is a ranked item.
type Scored struct {
	Item  models.Runnable
	Score int
}

// Rank scores every item on its name (or file name when the name is empty),
// drops non-matches and returns the best first. limit <= 0 keeps all.
func Rank(query string, items []models.Runnable, m Matcher, limit int) []Scored {
	scored := make([]Scored, 0, len(items))
	for _, it := range items {
		text := it.Name
		if text == "" {
			text = it.FileName
		}
		if text == "" {
			continue
		}
		if s, ok := m.Score(query, text); ok {
			scored = append(scored, Scored{Item: it, Score: s})
		}
	}

	Sort(scored)
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// Sort orders by score descending, then name case-insensitively, then exec.
func Sort(scored []Scored) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		an, bn := strings.ToLower(a.Item.Name), strings.ToLower(b.Item.Name)
		if an != bn {
			return an < bn
		}
		return a.Item.Exec < b.Item.Exec
	})
}

// Items unwraps the ranked items.
func Items(scored []Scored) []models.Runnable {
	out := make([]models.Runnable, len(scored))
	for i, s := range scored {
		out[i] = s.Item
	}
	return out
}
