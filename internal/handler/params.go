package handler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"catalog-engine/internal/model"
)

// paramError reports a malformed query parameter.
type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid %s parameter: %q", e.name, e.value)
}

// parseQueryFilter reads the menu and feed filters from the query string.
func parseQueryFilter(q url.Values) (model.QueryFilter, error) {
	var (
		f   model.QueryFilter
		err error
	)

	f.ShopID = optionalString(q, "shopId")
	f.CategoryID = optionalString(q, "categoryId")
	f.Q = strings.TrimSpace(q.Get("q"))

	if f.IsAvailable, err = optionalBool(q, "isAvailable"); err != nil {
		return f, err
	}
	if f.MinPrice, err = optionalFloat(q, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = optionalFloat(q, "maxPrice"); err != nil {
		return f, err
	}
	if f.Page, err = intParam(q, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = intParam(q, "limit"); err != nil {
		return f, err
	}
	if f.Sort, err = model.ParseSortOrder(q.Get("sort")); err != nil {
		return f, err
	}

	return f, nil
}

// parseSearchOptions reads the free-text search options from the query string.
func parseSearchOptions(q url.Values, defaultLimit int) (model.SearchOptions, error) {
	var (
		o   model.SearchOptions
		err error
	)

	o.ShopID = optionalString(q, "shopId")
	o.CategoryID = optionalString(q, "categoryId")

	if o.MinPrice, err = optionalFloat(q, "minPrice"); err != nil {
		return o, err
	}
	if o.MaxPrice, err = optionalFloat(q, "maxPrice"); err != nil {
		return o, err
	}
	if o.Limit, err = intParam(q, "limit"); err != nil {
		return o, err
	}
	if o.Limit == 0 {
		o.Limit = defaultLimit
	}

	return o, nil
}

func optionalString(q url.Values, name string) *string {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil
	}
	return &v
}

func optionalBool(q url.Values, name string) (*bool, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, &paramError{name: name, value: v}
	}
	return &b, nil
}

func optionalFloat(q url.Values, name string) (*float64, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return nil, &paramError{name: name, value: v}
	}
	return &f, nil
}

// intParam returns 0 when the parameter is absent.
func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &paramError{name: name, value: v}
	}
	return n, nil
}
