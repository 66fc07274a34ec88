// Package models defines core data structures for passages, queries, and search results.
package models

import "time"

// Passage is one retrievable chunk of a source document plus its position metadata.
// Invariant: 0 <= ChunkIndex < ChunkCount.
type Passage struct {
	Text       string `json:"text"`
	SourceID   string `json:"source_id"`
	ChunkIndex int    `json:"chunk_index"`
	ChunkCount int    `json:"chunk_count"`
}

// Valid reports whether the passage satisfies its invariants.
func (p Passage) Valid() bool {
	return p.Text != "" && p.ChunkIndex >= 0 && p.ChunkIndex < p.ChunkCount
}

// Document is a source file read from the document directory.
type Document struct {
	SourceID string
	Path     string
	Content  string
}

// SkippedFile records a document that could not be used during a build.
type SkippedFile struct {
	SourceID string `json:"source_id"`
	Reason   string `json:"reason"`
}

// BuildReport summarizes a build from a document directory.
type BuildReport struct {
	Documents int           `json:"documents"`
	Passages  int           `json:"passages"`
	Dimension int           `json:"dimension"`
	Skipped   []SkippedFile `json:"skipped,omitempty"`
	Duration  time.Duration `json:"duration"`
}
