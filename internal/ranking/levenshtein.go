package ranking

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const substringBonus = 500

// Levenshtein matches on case-insensitive edit distance, tolerating roughly
// one typo per three query characters.
type Levenshtein struct{}

func (Levenshtein) Name() string { return "levenshtein" }

func (Levenshtein) Score(query, candidate string) (int, bool) {
	q := strings.ToLower(query)
	c := strings.ToLower(candidate)

	if i := strings.Index(c, q); i >= 0 {
		// earlier and tighter substring hits rank first, but never below a
		// distance hit
		penalty := utf8.RuneCountInString(c[:i]) + utf8.RuneCountInString(c) - utf8.RuneCountInString(q)
		if penalty >= substringBonus {
			penalty = substringBonus - 1
		}
		return 1000 + substringBonus - penalty, true
	}

	// compare against the candidate prefix of query length so long names
	// are not punished for trailing words
	prefix := c
	if r := []rune(c); len(r) > len([]rune(q)) {
		prefix = string(r[:len([]rune(q))])
	}
	dist := levenshtein.ComputeDistance(q, prefix)

	allowed := len([]rune(q)) / 3
	if allowed < 1 {
		allowed = 1
	}
	if dist > allowed {
		return 0, false
	}
	return 1000 - dist, true
}
