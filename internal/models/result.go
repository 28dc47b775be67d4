package models

// Breakdown holds the weighted resonance sub-scores, each in [0,1].
type Breakdown struct {
	OrientationAlignment float64 `json:"orientation_alignment"`
	FrequencyMatching    float64 `json:"frequency_matching"`
	PhaseCoherence       float64 `json:"phase_coherence"`
	EnergyCompatibility  float64 `json:"energy_compatibility"`
	InterferencePattern  float64 `json:"interference_pattern"`
}

// Result is a single search hit.
type Result struct {
	ID        string     `json:"id"`
	Resonance float64    `json:"resonance"`
	Rank      int        `json:"rank"`
	Breakdown *Breakdown `json:"breakdown,omitempty"`
	// Pattern is filled in by the knowledge engine; the search index only returns ids.
	Pattern *WavePattern `json:"pattern,omitempty"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*Result    `json:"results"`
	Total     int          `json:"total"`
	Scanned   int          `json:"scanned"`
	QueryTime int64        `json:"query_time_us"`
	Query     *WavePattern `json:"query"`
}

// AbsorbResponse reports an absorption and the resulting pattern.
type AbsorbResponse struct {
	Pattern        *WavePattern `json:"pattern"`
	EnergyBefore   float64      `json:"energy_before"`
	DepthBefore    int          `json:"expansion_depth_before"`
	SourcesApplied int          `json:"sources_applied"`
}
