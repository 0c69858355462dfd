package common

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// PageParams represents pagination and search parameters of a list request
type PageParams struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Search string `json:"search,omitempty"`
}

// DefaultPageParams returns default pagination parameters
func DefaultPageParams() PageParams {
	return PageParams{
		Page:  DefaultPage,
		Limit: DefaultLimit,
	}
}

// ExtractPageParams extracts page, limit and search from the query string.
// Absent values fall back to defaults; present but malformed values are an error.
func ExtractPageParams(r *http.Request) (PageParams, error) {
	params := DefaultPageParams()
	query := r.URL.Query()

	if page := query.Get("page"); page != "" {
		p, err := strconv.Atoi(page)
		if err != nil || p < 1 {
			return params, fmt.Errorf("page must be a positive integer")
		}
		params.Page = p
	}

	if limit := query.Get("limit"); limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil || l < 1 {
			return params, fmt.Errorf("limit must be a positive integer")
		}
		if l > MaxLimit {
			l = MaxLimit
		}
		params.Limit = l
	}

	if params.Page-1 > math.MaxInt/params.Limit {
		return params, fmt.Errorf("page is out of range")
	}

	params.Search = strings.TrimSpace(query.Get("search"))

	return params, nil
}

// Offset calculates the number of records to skip
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// CalculateTotalPages calculates total number of pages
func CalculateTotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := total / pageSize
	if total%pageSize > 0 {
		pages++
	}
	return pages
}
