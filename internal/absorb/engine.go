// Package absorb merges wave patterns into one another through quaternion
// composition.
package absorb

import (
	"fmt"
	"math"

	"github.com/hyperjump/wavekb/internal/models"
	"github.com/hyperjump/wavekb/internal/quaternion"
	"github.com/hyperjump/wavekb/internal/store"
	"github.com/hyperjump/wavekb/pkg/utils"
)

// Report summarizes one Absorb call.
type Report struct {
	Pattern        *models.WavePattern
	EnergyBefore   float64
	DepthBefore    int
	SourcesApplied int
}

// Engine performs absorptions. It is stateless; all state lives in the store.
type Engine struct{}

// NewEngine returns an absorption Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Absorb blends each source into target, in order, with the given strength, and
// writes the result back to s. The whole read-modify-write runs under the store's
// exclusive lock, so no other mutation can interleave. It is deliberately not
// idempotent: repeating a call blends further and bumps the counters again.
func (e *Engine) Absorb(s *store.Store, targetID string, sourceIDs []string, strength float64) (*models.WavePattern, error) {
	r, err := e.AbsorbWithReport(s, targetID, sourceIDs, strength)
	if err != nil {
		return nil, err
	}
	return r.Pattern, nil
}

// AbsorbWithReport is Absorb plus before/after figures.
func (e *Engine) AbsorbWithReport(s *store.Store, targetID string, sourceIDs []string, strength float64) (*Report, error) {
	if err := validate(targetID, sourceIDs, strength); err != nil {
		return nil, err
	}
	var report *Report
	err := s.Modify(func(tx *store.Tx) error {
		target, err := tx.Get(targetID)
		if err != nil {
			return err
		}
		sources := make([]*models.WavePattern, len(sourceIDs))
		for i, id := range sourceIDs {
			src, err := tx.Get(id)
			if err != nil {
				return err
			}
			sources[i] = src
		}

		report = &Report{EnergyBefore: target.Energy, DepthBefore: target.ExpansionDepth}
		for _, src := range sources {
			Blend(target, src, strength)
			report.SourcesApplied++
		}
		if err := tx.Put(target); err != nil {
			return err
		}
		updated, err := tx.Get(targetID)
		if err != nil {
			return err
		}
		report.Pattern = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Blend applies one absorption step of source into target in place.
func Blend(target, source *models.WavePattern, s float64) {
	interference := quaternion.Mul(target.Orientation, source.Orientation)
	blended := quaternion.Slerp(target.Orientation, interference, s).Normalize()

	target.Energy += source.Energy * s
	target.Frequency = utils.Clamp01(target.Frequency*(1-s) + source.Frequency*s)
	target.Phase = quaternion.CircularInterpolate(target.Phase, source.Phase, s)
	target.ExpansionDepth++
	target.AbsorbedIDs = append(target.AbsorbedIDs, source.ID)
	target.Orientation = blended
}

func validate(targetID string, sourceIDs []string, strength float64) error {
	if len(sourceIDs) == 0 {
		return fmt.Errorf("%w: at least one source id is required", models.ErrInvalidArgument)
	}
	if math.IsNaN(strength) || strength <= 0 || strength > 1 {
		return fmt.Errorf("%w: absorption strength must be in (0,1], got %g", models.ErrInvalidArgument, strength)
	}
	for _, id := range sourceIDs {
		if id == targetID {
			return fmt.Errorf("%w: %s", models.ErrSelfAbsorption, targetID)
		}
	}
	return nil
}
