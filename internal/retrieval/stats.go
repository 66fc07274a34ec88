package retrieval

import "time"

// Stats is a snapshot of the store state.
type Stats struct {
	Ready          bool      `json:"ready"`
	Origin         Origin    `json:"origin,omitempty"`
	Passages       int       `json:"passages"`
	Sources        int       `json:"sources"`
	Dimension      int       `json:"dimension"`
	BuildID        string    `json:"build_id,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitzero"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
}

// Stats returns the current state of the store.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Ready:          s.index != nil,
		Origin:         s.origin,
		Passages:       len(s.passages),
		BuildID:        s.buildID,
		UpdatedAt:      s.updatedAt,
		EmbeddingModel: s.model,
	}
	if s.index != nil {
		st.Dimension = s.index.Dimension()
	}
	sources := make(map[string]struct{})
	for _, p := range s.passages {
		sources[p.SourceID] = struct{}{}
	}
	st.Sources = len(sources)
	return st
}
