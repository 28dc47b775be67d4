package models

import "fmt"

// InsertRequest carries an embedding to convert and store. Text is embedded
// with the engine's text embedder when Embedding is empty.
type InsertRequest struct {
	ID        string    `json:"id,omitempty"`
	Embedding []float64 `json:"embedding,omitempty"`
	Text      string    `json:"text,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
}

// SearchRequest is a ranked resonance query.
type SearchRequest struct {
	Embedding []float64 `json:"embedding,omitempty"`
	Text      string    `json:"text,omitempty"`
	TopK      int       `json:"top_k,omitempty"`
	// MinResonance drops results below it. Nil means the configured default;
	// an explicit 0 keeps every result.
	MinResonance *float64 `json:"min_resonance,omitempty"`
	// MetadataQuery, when set, restricts candidates to patterns whose metadata
	// matches the query text.
	MetadataQuery string   `json:"metadata_query,omitempty"`
	ExcludeIDs    []string `json:"exclude_ids,omitempty"`
	// Explain adds the per-term resonance breakdown to every result.
	Explain bool `json:"explain,omitempty"`
}

// ApplyDefaults fills an unset TopK with defaultTopK and caps it at maxTopK.
// A negative TopK is left alone so the search rejects it.
func (q *SearchRequest) ApplyDefaults(defaultTopK, maxTopK int) {
	if q.TopK == 0 {
		q.TopK = defaultTopK
	}
	if maxTopK > 0 && q.TopK > maxTopK {
		q.TopK = maxTopK
	}
}

// AbsorbRequest asks target to absorb sources, in order, with the given strength.
type AbsorbRequest struct {
	TargetID  string   `json:"target_id"`
	SourceIDs []string `json:"source_ids"`
	Strength  float64  `json:"absorption_strength,omitempty"`
}

// Validate checks the request shape. Existence of the ids, including an empty
// target, is checked by the engine and reported as ErrNotFound.
func (r *AbsorbRequest) Validate() error {
	if len(r.SourceIDs) == 0 {
		return fmt.Errorf("%w: source_ids must not be empty", ErrInvalidArgument)
	}
	return nil
}
