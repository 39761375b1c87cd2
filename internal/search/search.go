package search

import (
	"context"
	"strings"
	"unicode/utf8"

	"catalog-engine/internal/model"
	"catalog-engine/internal/textnorm"

	"github.com/rs/zerolog"
)

// MinQueryLength is the shortest trimmed query that is searched at all.
const MinQueryLength = 2

// IndexProvider supplies the current search index.
type IndexProvider interface {
	Index(ctx context.Context) ([]model.SearchIndexItem, error)
}

// Searcher runs free-text product searches over the search index.
type Searcher struct {
	index   IndexProvider
	matcher *Matcher
	logger  zerolog.Logger
}

// NewSearcher creates a searcher backed by index.
func NewSearcher(index IndexProvider, matcher *Matcher, logger zerolog.Logger) *Searcher {
	if matcher == nil {
		matcher = NewMatcher(DefaultMatcherConfig())
	}
	return &Searcher{
		index:   index,
		matcher: matcher,
		logger:  logger.With().Str("component", "searcher").Logger(),
	}
}

// Search returns the best matches for query and the number of matches that
// survived filtering. Only the first opts.Limit matches are returned; there
// is no offset. Queries shorter than MinQueryLength return no results.
func (s *Searcher) Search(ctx context.Context, query string, opts model.SearchOptions) ([]model.SearchIndexItem, int, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return []model.SearchIndexItem{}, 0, nil
	}
	opts = opts.Normalize()

	items, err := s.index.Index(ctx)
	if err != nil {
		return nil, 0, err
	}

	results := s.matcher.Match(query, items)

	// A second pass with the diacritic-free query lets "pho" and "phở" find
	// each other.
	if normalized := textnorm.Normalize(query); normalized != strings.ToLower(query) {
		results = MergeResults(results, s.matcher.Match(normalized, items))
	}

	filtered := make([]model.SearchIndexItem, 0, len(results))
	for _, r := range results {
		if opts.ShopID != nil && r.Item.ShopID != *opts.ShopID {
			continue
		}
		if opts.CategoryID != nil && r.Item.CategoryID != *opts.CategoryID {
			continue
		}
		if !model.InPriceRange(r.Item.Price, opts.MinPrice, opts.MaxPrice) {
			continue
		}
		if !r.Item.IsAvailable {
			continue
		}
		filtered = append(filtered, r.Item)
	}

	total := len(filtered)
	if len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}

	s.logger.Debug().
		Str("query", query).
		Int("matches", len(results)).
		Int("total", total).
		Msg("search completed")

	return filtered, total, nil
}
