// Package cli formats search results and answers for the kura command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kura/internal/answer"
	"github.com/hyperjump/kura/internal/models"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per hit.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const snippetLen = 200

// ParseOutputFormat validates a --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown output format %q (want text, compact or json)", models.ErrInvalidArgument, s)
	}
}

// WriteResults writes search results to w in the given format.
func WriteResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			fmt.Fprintf(w, "%d\t%.4f\t%s#%d\t%s\n", r.Rank, r.Score, r.SourceID, r.ChunkIndex,
				Truncate(oneLine(r.Text), 80))
		}
		return nil
	default:
		fmt.Fprintf(w, "\nFound %d results in %dms\n\n", response.Total, response.QueryTime)
		for _, r := range response.Results {
			fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
			fmt.Fprintf(w, "Rank: %d | Score: %.4f | Distance: %.4f\n", r.Rank, r.Score, r.Distance)
			fmt.Fprintf(w, "Source: %s (chunk %d/%d)\n", r.SourceID, r.ChunkIndex+1, r.ChunkCount)
			fmt.Fprintf(w, "\n%s\n\n", Truncate(r.Text, snippetLen))
		}
		return nil
	}
}

// WriteAnswer writes a composed answer to w. Text and compact formats print the answer text.
func WriteAnswer(w io.Writer, a *answer.Answer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, struct {
			*answer.Answer
			Text string `json:"text"`
		}{a, answer.Format(a)})
	}
	_, err := fmt.Fprintln(w, answer.Format(a))
	return err
}

// WriteBuildReport writes a build summary.
func WriteBuildReport(w io.Writer, report *models.BuildReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "Indexed %d passages from %d documents (dimension %d) in %s\n",
		report.Passages, report.Documents, report.Dimension, report.Duration.Round(1e6))
	for _, s := range report.Skipped {
		fmt.Fprintf(w, "  skipped %s: %s\n", s.SourceID, s.Reason)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate truncates s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
