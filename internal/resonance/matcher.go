// Package resonance scores how strongly two wave patterns resonate.
package resonance

import (
	"math"

	"github.com/hyperjump/wavekb/internal/models"
	"github.com/hyperjump/wavekb/internal/quaternion"
	"github.com/hyperjump/wavekb/pkg/utils"
)

// Sub-score weights. They sum to 1.
const (
	WeightOrientation  = 0.50
	WeightFrequency    = 0.15
	WeightPhase        = 0.15
	WeightEnergy       = 0.10
	WeightInterference = 0.10
)

const epsilon = 1e-10

// Matcher computes resonance scores. It is stateless; the zero value is ready to use.
type Matcher struct{}

// NewMatcher returns a Matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Score returns the resonance of a and b in [0,1]. Score(p, p) is exactly 1 and
// Score(a, b) == Score(b, a).
func (m *Matcher) Score(a, b *models.WavePattern) float64 {
	if sameWave(a, b) {
		return 1
	}
	return Combine(m.Breakdown(a, b))
}

// Breakdown returns the five unweighted sub-scores.
func (m *Matcher) Breakdown(a, b *models.WavePattern) models.Breakdown {
	if sameWave(a, b) {
		return models.Breakdown{
			OrientationAlignment: 1,
			FrequencyMatching:    1,
			PhaseCoherence:       1,
			EnergyCompatibility:  1,
			InterferencePattern:  1,
		}
	}
	return models.Breakdown{
		OrientationAlignment: OrientationAlignment(a.Orientation, b.Orientation),
		FrequencyMatching:    FrequencyMatching(a.Frequency, b.Frequency),
		PhaseCoherence:       PhaseCoherence(a.Phase, b.Phase),
		EnergyCompatibility:  EnergyCompatibility(a.Energy, b.Energy),
		InterferencePattern:  Interference(a.Orientation, b.Orientation),
	}
}

// Combine applies the fixed weights and clamps to [0,1].
func Combine(b models.Breakdown) float64 {
	total := WeightOrientation*b.OrientationAlignment +
		WeightFrequency*b.FrequencyMatching +
		WeightPhase*b.PhaseCoherence +
		WeightEnergy*b.EnergyCompatibility +
		WeightInterference*b.InterferencePattern
	return utils.Clamp01(total)
}

func sameWave(a, b *models.WavePattern) bool {
	return a.Orientation == b.Orientation &&
		a.Frequency == b.Frequency &&
		a.Phase == b.Phase &&
		a.Energy == b.Energy
}

// OrientationAlignment is (dot(a,b)+1)/2.
func OrientationAlignment(a, b quaternion.Quaternion) float64 {
	dot := utils.Clamp(quaternion.Dot(a, b), -1, 1)
	return (dot + 1) / 2
}

// FrequencyMatching is 1 − min(1, |fa − fb|). Frequencies are compared linearly;
// 0 and 1 are maximally apart.
func FrequencyMatching(fa, fb float64) float64 {
	return 1 - math.Min(1, math.Abs(fa-fb))
}

// PhaseCoherence is (cos(pa − pb)+1)/2.
func PhaseCoherence(pa, pb float64) float64 {
	return utils.Clamp01((math.Cos(pa-pb) + 1) / 2)
}

// EnergyCompatibility is 1 − |ea − eb| / (ea + eb + ε), and 1 when both are zero.
func EnergyCompatibility(ea, eb float64) float64 {
	if ea == 0 && eb == 0 {
		return 1
	}
	return utils.Clamp01(1 - math.Abs(ea-eb)/(ea+eb+epsilon))
}

// Interference is 1 − ‖vec(a ⊗ b)‖, the share of the Hamilton product left in
// its scalar part. Unlike the dot product it depends on how the two rotation
// axes relate, not only on the angle between the quaternions. Swapping the
// arguments flips the sign of the cross-product part of vec(a ⊗ b), which is
// orthogonal to the rest of the vector, so the magnitude is symmetric.
func Interference(a, b quaternion.Quaternion) float64 {
	rel := quaternion.Mul(a, b)
	return utils.Clamp01(1 - rel.VectorNorm())
}
