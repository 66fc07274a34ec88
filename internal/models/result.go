package models

// ScoredPassage is a ranked search hit.
type ScoredPassage struct {
	Passage
	Position int     `json:"-"`
	Distance float64 `json:"distance"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query     string           `json:"query"`
	Results   []*ScoredPassage `json:"results"`
	Total     int              `json:"total"`
	QueryTime int64            `json:"query_time_ms"`
}
