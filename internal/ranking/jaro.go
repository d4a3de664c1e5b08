package ranking

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// JaroThreshold is the minimum similarity for a non-substring match.
const JaroThreshold = 0.7

// Jaro scores by Jaro-Winkler similarity.
type Jaro struct {
	metric *metrics.JaroWinkler
}

// NewJaro returns a case-insensitive Jaro-Winkler matcher.
func NewJaro() Jaro {
	m := metrics.NewJaroWinkler()
	m.CaseSensitive = false
	return Jaro{metric: m}
}

func (Jaro) Name() string { return "jaro" }

func (j Jaro) Score(query, candidate string) (int, bool) {
	if j.metric == nil {
		j = NewJaro()
	}
	sim := strutil.Similarity(query, candidate, j.metric)
	if sim < JaroThreshold && !strings.Contains(strings.ToLower(candidate), strings.ToLower(query)) {
		return 0, false
	}
	return int(sim * 1000), true
}
