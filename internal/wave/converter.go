// Package wave converts embedding vectors into wave patterns.
package wave

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"

	"github.com/hyperjump/wavekb/internal/models"
	"github.com/hyperjump/wavekb/internal/quaternion"
	"github.com/hyperjump/wavekb/pkg/utils"
)

// epsilon keeps ratios finite for zero-valued inputs.
const epsilon = 1e-10

// Converter turns embeddings into WavePatterns. It is stateless and deterministic;
// the zero value is ready to use and safe for concurrent use.
type Converter struct{}

// NewConverter returns a Converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Convert builds a WavePattern from embedding. The returned pattern has no id;
// callers assign one before inserting it. Metadata is copied.
//
// Orientation axes: w is a bounded energy proxy, x the affective polarity
// (positive vs negative mass), y the share of spectral log-magnitude in the upper
// half of the spectrum, z the symmetry of the value distribution.
func (c *Converter) Convert(embedding []float64, metadata models.Metadata) (*models.WavePattern, error) {
	if err := validateEmbedding(embedding); err != nil {
		return nil, err
	}
	if err := metadata.Validate(); err != nil {
		return nil, err
	}

	p := &models.WavePattern{
		Orientation: quaternion.Identity,
		AbsorbedIDs: []string{},
		Metadata:    metadata.Clone(),
	}
	if p.Metadata == nil {
		p.Metadata = models.Metadata{}
	}

	energy := utils.L2Norm(embedding)
	if math.IsInf(energy, 0) {
		return nil, fmt.Errorf("%w: norm overflows float64", models.ErrInvalidEmbedding)
	}
	p.Energy = energy
	if energy == 0 {
		return p, nil
	}

	coeffs := spectrum(embedding)
	for i, c := range coeffs {
		if cmplx.IsInf(c) || cmplx.IsNaN(c) {
			return nil, fmt.Errorf("%w: spectrum bin %d overflows float64", models.ErrInvalidEmbedding, i)
		}
	}
	dominant := dominantBin(coeffs)

	// Polarity and skew are scale-invariant; computing them on the max-abs scaled
	// vector keeps their sums and moments finite for very large components.
	unit := scaleToUnit(embedding)
	x := polarity(unit)
	y := spectralComplexity(coeffs)
	z := utils.Clamp(1-2*distributionalSkew(unit), -1, 1)
	w := 1 - math.Exp(-energy)

	p.Orientation = quaternion.New(w, x, y, z).Normalize()
	p.Frequency = utils.Clamp01(float64(dominant) / float64(len(embedding)))
	p.Phase = quaternion.WrapPhase(cmplx.Phase(coeffs[dominant]))
	return p, nil
}

// ConvertWithID converts embedding and assigns id to the result.
func (c *Converter) ConvertWithID(id string, embedding []float64, metadata models.Metadata) (*models.WavePattern, error) {
	p, err := c.Convert(embedding, metadata)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return p, nil
}

// ConvertFloat32 widens a float32 embedding and converts it.
func (c *Converter) ConvertFloat32(embedding []float32, metadata models.Metadata) (*models.WavePattern, error) {
	wide := make([]float64, len(embedding))
	for i, v := range embedding {
		wide[i] = float64(v)
	}
	return c.Convert(wide, metadata)
}

func validateEmbedding(embedding []float64) error {
	if len(embedding) == 0 {
		return fmt.Errorf("%w: embedding is empty", models.ErrInvalidEmbedding)
	}
	for i, v := range embedding {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: component %d is %v", models.ErrInvalidEmbedding, i, v)
		}
	}
	return nil
}

// scaleToUnit returns embedding divided by its largest absolute component.
func scaleToUnit(embedding []float64) []float64 {
	var peak float64
	for _, v := range embedding {
		peak = math.Max(peak, math.Abs(v))
	}
	out := make([]float64, len(embedding))
	if peak == 0 {
		return out
	}
	floats.ScaleTo(out, 1/peak, embedding)
	return out
}

// polarity is (Σpositive − Σ|negative|) / (Σ|v| + ε), clamped to [-1,1].
func polarity(embedding []float64) float64 {
	var pos, neg float64
	for _, v := range embedding {
		if v > 0 {
			pos += v
		} else {
			neg -= v
		}
	}
	return utils.Clamp((pos-neg)/(pos+neg+epsilon), -1, 1)
}
