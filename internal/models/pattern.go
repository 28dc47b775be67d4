// Package models defines the core data structures: wave patterns, metadata,
// search/absorb requests and results, and the engine's error taxonomy.
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/hyperjump/wavekb/internal/quaternion"
)

// WavePattern is the stored unit of knowledge: an oriented wave derived from an
// embedding, plus the history of the patterns it has absorbed.
type WavePattern struct {
	ID             string                `json:"id"`
	Orientation    quaternion.Quaternion `json:"-"`
	Energy         float64               `json:"energy"`
	Frequency      float64               `json:"frequency"`
	Phase          float64               `json:"phase"`
	ExpansionDepth int                   `json:"expansion_depth"`
	// AbsorbedIDs is an audit trail in absorption order. Entries may repeat and may
	// name patterns that no longer exist.
	AbsorbedIDs []string  `json:"absorbed_ids"`
	Metadata    Metadata  `json:"metadata"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type wavePatternJSON struct {
	ID             string    `json:"id"`
	Orientation    []float64 `json:"orientation"`
	Energy         float64   `json:"energy"`
	Frequency      float64   `json:"frequency"`
	Phase          float64   `json:"phase"`
	ExpansionDepth int       `json:"expansion_depth"`
	AbsorbedIDs    []string  `json:"absorbed_ids"`
	Metadata       Metadata  `json:"metadata"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MarshalJSON encodes the orientation as [w,x,y,z].
func (p WavePattern) MarshalJSON() ([]byte, error) {
	absorbed := p.AbsorbedIDs
	if absorbed == nil {
		absorbed = []string{}
	}
	meta := p.Metadata
	if meta == nil {
		meta = Metadata{}
	}
	return json.Marshal(wavePatternJSON{
		ID:             p.ID,
		Orientation:    p.Orientation.Slice(),
		Energy:         p.Energy,
		Frequency:      p.Frequency,
		Phase:          p.Phase,
		ExpansionDepth: p.ExpansionDepth,
		AbsorbedIDs:    absorbed,
		Metadata:       meta,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	})
}

// UnmarshalJSON decodes the [w,x,y,z] orientation form.
func (p *WavePattern) UnmarshalJSON(data []byte) error {
	var raw wavePatternJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q, ok := quaternion.FromSlice(raw.Orientation)
	if !ok {
		return fmt.Errorf("%w: orientation must have 4 components, got %d", ErrInvalidArgument, len(raw.Orientation))
	}
	*p = WavePattern{
		ID:             raw.ID,
		Orientation:    q,
		Energy:         raw.Energy,
		Frequency:      raw.Frequency,
		Phase:          raw.Phase,
		ExpansionDepth: raw.ExpansionDepth,
		AbsorbedIDs:    raw.AbsorbedIDs,
		Metadata:       raw.Metadata,
		CreatedAt:      raw.CreatedAt,
		UpdatedAt:      raw.UpdatedAt,
	}
	if p.AbsorbedIDs == nil {
		p.AbsorbedIDs = []string{}
	}
	return nil
}

// Clone returns a deep copy of p.
func (p *WavePattern) Clone() *WavePattern {
	if p == nil {
		return nil
	}
	c := *p
	c.AbsorbedIDs = append(make([]string, 0, len(p.AbsorbedIDs)), p.AbsorbedIDs...)
	c.Metadata = p.Metadata.Clone()
	return &c
}

// Validate checks the pattern invariants. It never corrects the pattern.
func (p *WavePattern) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil pattern", ErrInvalidArgument)
	}
	if p.ID == "" {
		return fmt.Errorf("%w: pattern id is empty", ErrInvalidArgument)
	}
	if !p.Orientation.IsFinite() || !p.Orientation.IsUnit() {
		return fmt.Errorf("%w: pattern %s orientation is not a unit quaternion (norm %g)",
			ErrInvalidArgument, p.ID, p.Orientation.Norm())
	}
	if math.IsNaN(p.Energy) || math.IsInf(p.Energy, 0) || p.Energy < 0 {
		return fmt.Errorf("%w: pattern %s energy %g must be finite and >= 0", ErrInvalidArgument, p.ID, p.Energy)
	}
	if math.IsNaN(p.Frequency) || p.Frequency < 0 || p.Frequency > 1 {
		return fmt.Errorf("%w: pattern %s frequency %g outside [0,1]", ErrInvalidArgument, p.ID, p.Frequency)
	}
	if math.IsNaN(p.Phase) || p.Phase < -math.Pi || p.Phase > math.Pi {
		return fmt.Errorf("%w: pattern %s phase %g outside [-π,π]", ErrInvalidArgument, p.ID, p.Phase)
	}
	if p.ExpansionDepth < 0 {
		return fmt.Errorf("%w: pattern %s expansion depth %d is negative", ErrInvalidArgument, p.ID, p.ExpansionDepth)
	}
	for _, id := range p.AbsorbedIDs {
		if id == p.ID {
			return fmt.Errorf("%w: pattern %s lists itself in absorbed ids", ErrInvalidArgument, p.ID)
		}
	}
	return p.Metadata.Validate()
}
