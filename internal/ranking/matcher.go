// Package ranking scores launchable items against a query.
package ranking

import (
	"errors"
	"fmt"
)

// ErrUnknownMatcher is returned by New for an unregistered matcher name.
var ErrUnknownMatcher = errors.New("unknown matcher")

// Matcher scores a candidate string against a query. Higher scores rank
// first; ok is false when the candidate does not match at all.
type Matcher interface {
	Name() string
	Score(query, candidate string) (score int, ok bool)
}

// New returns the matcher called name.
func New(name string) (Matcher, error) {
	switch name {
	case "", "skim":
		return Skim{}, nil
	case "levenshtein":
		return Levenshtein{}, nil
	case "jaro":
		return NewJaro(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMatcher, name)
	}
}
