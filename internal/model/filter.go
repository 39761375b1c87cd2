package model

import (
	"math"
	"strings"
)

// SortOrder selects the ordering of menu and feed results.
type SortOrder string

const (
	SortNewest  SortOrder = "NEWEST"
	SortPopular SortOrder = "POPULAR"
	SortRating  SortOrder = "RATING"
	SortPrice   SortOrder = "PRICE"
)

// Pagination defaults shared by every listing endpoint.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// ParseSortOrder converts a user supplied sort name. An empty string selects
// SortNewest.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToUpper(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, nil
	case SortPopular:
		return SortPopular, nil
	case SortRating:
		return SortRating, nil
	case SortPrice:
		return SortPrice, nil
	default:
		return "", ErrInvalidSort
	}
}

// QueryFilter describes a menu or feed query.
type QueryFilter struct {
	ShopID      *string
	CategoryID  *string
	IsAvailable *bool
	Q           string
	MinPrice    *float64
	MaxPrice    *float64
	Sort        SortOrder
	Page        int
	Limit       int
}

// Normalize returns a copy of f with paging clamped to the supported range
// and the sort order defaulted.
func (f QueryFilter) Normalize() QueryFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Sort == "" {
		f.Sort = SortNewest
	}
	f.Q = strings.TrimSpace(f.Q)
	return f
}

// Offset returns the index of the first item on the requested page. Pages
// too far out to address saturate at math.MaxInt.
func (f QueryFilter) Offset() int {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}

// SearchOptions narrows a free-text search.
type SearchOptions struct {
	ShopID     *string
	CategoryID *string
	MinPrice   *float64
	MaxPrice   *float64
	Limit      int
}

// Normalize returns a copy of o with the limit clamped.
func (o SearchOptions) Normalize() SearchOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	return o
}

// InPriceRange reports whether price lies inside the optional bounds.
func InPriceRange(price float64, min, max *float64) bool {
	if min != nil && price < *min {
		return false
	}
	if max != nil && price > *max {
		return false
	}
	return true
}
