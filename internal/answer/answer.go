// Package answer turns a ranked passage list into a single answer text: the top
// passage plus any further passages relevant enough to serve as additional context.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/kura/internal/models"
)

// Default answer policy.
const (
	DefaultK             = 3
	DefaultThreshold     = 0.5
	DefaultMaxAdditional = 2
)

// Searcher is the query side of the retrieval store.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]*models.ScoredPassage, error)
}

// Policy controls how many passages are fetched and which become additional context.
type Policy struct {
	K             int
	Threshold     float64
	MaxAdditional int
}

// DefaultPolicy returns k=3, threshold 0.5 and at most two additional passages.
func DefaultPolicy() Policy {
	return Policy{K: DefaultK, Threshold: DefaultThreshold, MaxAdditional: DefaultMaxAdditional}
}

// Additional is a context passage; Ordinal is its rank among the non-top results (1-based).
type Additional struct {
	Ordinal int `json:"ordinal"`
	*models.ScoredPassage
}

// Answer is the composed result of a lookup.
type Answer struct {
	Query      string                `json:"query"`
	Found      bool                  `json:"found"`
	Top        *models.ScoredPassage `json:"top,omitempty"`
	Additional []Additional          `json:"additional,omitempty"`
}

// Compose picks results[0] as the answer body and adds results ranked 2..1+maxAdditional
// whose score is strictly above threshold.
func Compose(query string, results []*models.ScoredPassage, threshold float64, maxAdditional int) *Answer {
	a := &Answer{Query: query}
	if len(results) == 0 {
		return a
	}
	a.Found = true
	a.Top = results[0]
	rest := results[1:]
	if len(rest) > maxAdditional {
		rest = rest[:maxAdditional]
	}
	for i, r := range rest {
		if r.Score > threshold {
			a.Additional = append(a.Additional, Additional{Ordinal: i + 1, ScoredPassage: r})
		}
	}
	return a
}

// Lookup searches and composes the answer under policy p.
func Lookup(ctx context.Context, s Searcher, query string, p Policy) (*Answer, error) {
	results, err := s.Search(ctx, query, p.K)
	if err != nil {
		return nil, err
	}
	return Compose(query, results, p.Threshold, p.MaxAdditional), nil
}

// Format renders the answer as Markdown text.
func Format(a *Answer) string {
	if a == nil || !a.Found {
		return "No relevant information found for this query. Try rephrasing the question."
	}
	parts := []string{a.Top.Text}
	for _, extra := range a.Additional {
		parts = append(parts, fmt.Sprintf("**Additional Context %d:**\n%s", extra.Ordinal, extra.Text))
	}
	var b strings.Builder
	b.WriteString("**Relevant information:**\n\n")
	b.WriteString(strings.Join(parts, "\n\n"))
	fmt.Fprintf(&b, "\n\n*(Source: %s)*", a.Top.SourceID)
	return b.String()
}
