// Package search answers launcher queries.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/thoth/thoth/internal/config"
	"github.com/thoth/thoth/internal/discovery"
	"github.com/thoth/thoth/internal/models"
	"github.com/thoth/thoth/internal/ranking"
)

// maxBoostLaunches caps how many launches count towards the history boost.
const maxBoostLaunches = 20

// historyWindow is how far back launches are counted for boosting.
const historyWindow = 30 * 24 * time.Hour

// Catalog supplies candidates, usually an *index.Index.
type Catalog interface {
	Entries() []models.Runnable
	Ready() bool
}

// History reports launch counts keyed by path.
type History interface {
	LaunchCounts(since time.Time) (map[string]int64, error)
}

// IconResolver maps icon names to files.
type IconResolver interface {
	Resolve(icon string) string
}

type Service struct {
	config  config.SearchConfig
	matcher ranking.Matcher
	catalog Catalog
	finder  discovery.Finder
	history History
	icons   IconResolver
}

// Option configures optional collaborators.
type Option func(*Service)

// WithCatalog serves candidates from an in-memory catalog once it is ready.
func WithCatalog(c Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

// WithHistory enables the history boost source.
func WithHistory(h History) Option {
	return func(s *Service) { s.history = h }
}

// WithIcons resolves icon names to paths on results.
func WithIcons(r IconResolver) Option {
	return func(s *Service) { s.icons = r }
}

// NewService builds a search service. finder is used whenever no ready catalog is attached.
func NewService(cfg *config.Config, finder discovery.Finder, opts ...Option) (*Service, error) {
	m, err := ranking.New(cfg.Search.Matcher)
	if err != nil {
		return nil, err
	}
	s := &Service{
		config:  cfg.Search,
		matcher: m,
		finder:  finder,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search returns at most Limit items for query, best first. Queries
// shorter than MinQueryLength after trimming yield an empty list.
func (s *Service) Search(ctx context.Context, query string) ([]models.Runnable, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < s.config.MinQueryLength {
		return []models.Runnable{}, nil
	}

	candidates, err := s.candidates(ctx)
	if err != nil {
		return nil, err
	}

	var scored []ranking.Scored
	if s.config.HistoryBoost && s.history != nil {
		scored = ranking.Rank(query, candidates, s.matcher, 0)
		s.boost(scored)
		ranking.Sort(scored)
		if s.config.Limit > 0 && len(scored) > s.config.Limit {
			scored = scored[:s.config.Limit]
		}
	} else {
		scored = ranking.Rank(query, candidates, s.matcher, s.config.Limit)
	}

	results := ranking.Items(scored)
	if s.config.ResolveIcons && s.icons != nil {
		for i := range results {
			if p := s.icons.Resolve(results[i].Icon); p != "" {
				results[i].Icon = p
			}
		}
	}
	return results, nil
}

// All returns the whole catalog.
func (s *Service) All(ctx context.Context) ([]models.Runnable, error) {
	return s.candidates(ctx)
}

func (s *Service) Matcher() string {
	return s.matcher.Name()
}

func (s *Service) candidates(ctx context.Context) ([]models.Runnable, error) {
	if s.catalog != nil && s.catalog.Ready() {
		return s.catalog.Entries(), nil
	}
	if s.finder == nil {
		return nil, fmt.Errorf("no application source configured")
	}
	apps, err := s.finder.Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan applications: %w", err)
	}
	return apps, nil
}

func (s *Service) boost(scored []ranking.Scored) {
	counts, err := s.history.LaunchCounts(time.Now().Add(-historyWindow))
	if err != nil {
		log.Warn("History boost skipped", "err", err)
		return
	}
	for i := range scored {
		n := counts[scored[i].Item.Exec]
		if n > maxBoostLaunches {
			n = maxBoostLaunches
		}
		scored[i].Score += int(n) * s.config.HistoryWeight
	}
}
