package search

import (
	"math"
	"sort"
	"strings"

	"catalog-engine/internal/model"
)

const (
	// DefaultThreshold is the largest per-field distance that still counts as a match.
	DefaultThreshold = 0.4

	// DefaultMinMatchCharLength is the shortest text fragment that can match.
	DefaultMinMatchCharLength = 2

	// Exact matches are clamped to epsilon so that field weights still order them.
	epsilon = 1e-6
)

// Field is a searchable attribute of an index item.
type Field struct {
	Name   string
	Weight float64
	Value  func(item *model.SearchIndexItem) string
}

// DefaultFields returns the fields searched by the catalogue and their weights.
func DefaultFields() []Field {
	return []Field{
		{Name: "name", Weight: 0.4, Value: func(i *model.SearchIndexItem) string { return i.Name }},
		{Name: "nameNormalized", Weight: 0.4, Value: func(i *model.SearchIndexItem) string { return i.NameNormalized }},
		{Name: "description", Weight: 0.1, Value: func(i *model.SearchIndexItem) string { return i.Description }},
		{Name: "categoryName", Weight: 0.1, Value: func(i *model.SearchIndexItem) string { return i.CategoryName }},
	}
}

// MatcherConfig holds the tuning knobs of the approximate matcher.
type MatcherConfig struct {
	Fields             []Field
	Threshold          float64
	MinMatchCharLength int
}

// DefaultMatcherConfig returns the configuration used for product search.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		Fields:             DefaultFields(),
		Threshold:          DefaultThreshold,
		MinMatchCharLength: DefaultMinMatchCharLength,
	}
}

// Result is a matched item and its score. Lower scores are better.
type Result struct {
	Item  model.SearchIndexItem
	Score float64
}

// Matcher scores index items against a query using a weighted, typo
// tolerant comparison over several fields.
type Matcher struct {
	cfg MatcherConfig
}

// NewMatcher creates a matcher. Zero values in cfg fall back to the defaults.
func NewMatcher(cfg MatcherConfig) *Matcher {
	if len(cfg.Fields) == 0 {
		cfg.Fields = DefaultFields()
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.MinMatchCharLength <= 0 {
		cfg.MinMatchCharLength = DefaultMinMatchCharLength
	}
	return &Matcher{cfg: cfg}
}

// Match returns the items matching query, best first. Items with no field
// inside the threshold are left out.
func (m *Matcher) Match(query string, items []model.SearchIndexItem) []Result {
	pattern := []rune(strings.ToLower(query))
	if len(pattern) < m.cfg.MinMatchCharLength {
		return nil
	}

	results := make([]Result, 0)
	for i := range items {
		score, ok := m.score(pattern, &items[i])
		if !ok {
			continue
		}
		results = append(results, Result{Item: items[i], Score: score})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score < results[b].Score
	})

	return results
}

// score returns the lowest weighted distance over the fields that pass the
// threshold.
func (m *Matcher) score(pattern []rune, item *model.SearchIndexItem) (float64, bool) {
	best := math.Inf(1)
	matched := false

	for _, field := range m.cfg.Fields {
		d := m.distance(pattern, field.Value(item))
		if d > m.cfg.Threshold {
			continue
		}

		weighted := math.Pow(math.Max(d, epsilon), field.Weight)
		if weighted < best {
			best = weighted
		}
		matched = true
	}

	return best, matched
}

// Distance returns the normalised approximate-match distance between query
// and the best matching fragment of text: 0 for an exact occurrence, 1 for
// no usable match.
func (m *Matcher) Distance(query, text string) float64 {
	return m.distance([]rune(strings.ToLower(query)), text)
}

// distance finds the substring of text with the fewest edits against
// pattern (Sellers' algorithm). The match may begin anywhere in text.
// Fragments shorter than MinMatchCharLength are ignored.
func (m *Matcher) distance(pattern []rune, text string) float64 {
	plen := len(pattern)
	if plen < m.cfg.MinMatchCharLength || text == "" {
		return 1
	}
	t := []rune(strings.ToLower(text))

	// col[i] is the edit count aligning pattern[:i] to a substring ending at
	// the current text position; start[i] is where that substring begins.
	col := make([]int, plen+1)
	start := make([]int, plen+1)
	next := make([]int, plen+1)
	nextStart := make([]int, plen+1)
	for i := range col {
		col[i] = i
	}

	bestErrors := plen + 1
	for j := 1; j <= len(t); j++ {
		next[0] = 0
		nextStart[0] = j

		for i := 1; i <= plen; i++ {
			cost := 1
			if pattern[i-1] == t[j-1] {
				cost = 0
			}

			v, s := col[i-1]+cost, start[i-1]
			if del := next[i-1] + 1; del < v {
				v, s = del, nextStart[i-1]
			}
			if ins := col[i] + 1; ins < v {
				v, s = ins, start[i]
			}
			next[i], nextStart[i] = v, s
		}

		if next[plen] < bestErrors && j-nextStart[plen] >= m.cfg.MinMatchCharLength {
			bestErrors = next[plen]
		}

		col, next = next, col
		start, nextStart = nextStart, start
	}

	if bestErrors > plen {
		return 1
	}
	return float64(bestErrors) / float64(plen)
}

// MergeResults unions two result sets by item ID keeping the lower score.
// On equal scores the entry from primary wins. The output is sorted by
// score, best first.
func MergeResults(primary, secondary []Result) []Result {
	merged := make([]Result, 0, len(primary)+len(secondary))
	position := make(map[string]int, len(primary)+len(secondary))

	for _, r := range primary {
		if idx, ok := position[r.Item.ID]; ok {
			if r.Score < merged[idx].Score {
				merged[idx] = r
			}
			continue
		}
		position[r.Item.ID] = len(merged)
		merged = append(merged, r)
	}

	for _, r := range secondary {
		if idx, ok := position[r.Item.ID]; ok {
			if r.Score < merged[idx].Score {
				merged[idx] = r
			}
			continue
		}
		position[r.Item.ID] = len(merged)
		merged = append(merged, r)
	}

	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Score < merged[b].Score
	})

	return merged
}
