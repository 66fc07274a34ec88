package models

import (
	"fmt"
	"strings"
)

// SearchQuery is a search request against the retrieval store.
type SearchQuery struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// Normalize trims the query and applies the default and maximum k.
// Returns ErrInvalidArgument if the query is empty or k is negative.
func (q *SearchQuery) Normalize(defaultK, maxK int) error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrInvalidArgument)
	}
	if q.K < 0 {
		return fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, q.K)
	}
	if q.K == 0 {
		q.K = defaultK
	}
	if maxK > 0 && q.K > maxK {
		q.K = maxK
	}
	return nil
}
