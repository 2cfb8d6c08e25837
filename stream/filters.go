package stream

import (
	"fmt"
	"math"

	"github.com/sonoscale/sonoscale/pitch"
)

// Filter decides which annotations reach the listeners. Apply returns the
// annotations released by this input, in time order: usually the input
// itself or nothing, but a buffering filter may release several at once.
// Stateful filters mutate only their own rolling state; Reset clears that
// state without touching configuration.
type Filter interface {
	Apply(a Annotation) []Annotation
	Reset()
}

// ConfidenceFilter drops annotations whose probability is below a
// threshold.
type ConfidenceFilter struct {
	min float64
}

// NewConfidenceFilter creates a confidence filter. The threshold must lie
// in [0, 1].
func NewConfidenceFilter(min float64) (*ConfidenceFilter, error) {
	if min < 0 || min > 1 {
		return nil, fmt.Errorf("confidence threshold %v outside [0, 1]", min)
	}
	return &ConfidenceFilter{min: min}, nil
}

func (f *ConfidenceFilter) Apply(a Annotation) []Annotation {
	if a.Probability < f.min {
		return nil
	}
	return []Annotation{a}
}

func (f *ConfidenceFilter) Reset() {}

// SteadyStateFilter retains only annotations belonging to a run whose
// pitch stays within a cents tolerance of the run's reference pitch for at
// least a minimum duration. The reference resets whenever the deviation
// exceeds the tolerance, so a run is a contiguous stretch of near-constant
// pitch. Members arriving before the run has lasted long enough are held
// back; the moment the run qualifies they are released together, and every
// further member passes straight through. A run that breaks before
// qualifying is discarded whole.
type SteadyStateFilter struct {
	centsTolerance float64
	minDuration    float64

	active         bool
	qualified      bool
	referenceCents float64
	runStart       float64
	pending        []Annotation
}

// NewSteadyStateFilter creates a steady-state filter. Tolerance is in
// cents, duration in seconds; neither may be negative.
func NewSteadyStateFilter(centsTolerance, minDuration float64) (*SteadyStateFilter, error) {
	if centsTolerance < 0 {
		return nil, fmt.Errorf("negative cents tolerance %v", centsTolerance)
	}
	if minDuration < 0 {
		return nil, fmt.Errorf("negative minimum duration %v", minDuration)
	}
	return &SteadyStateFilter{
		centsTolerance: centsTolerance,
		minDuration:    minDuration,
	}, nil
}

func (f *SteadyStateFilter) Apply(a Annotation) []Annotation {
	cents := pitch.AbsoluteCents(a.Frequency)
	if !f.active || math.Abs(cents-f.referenceCents) > f.centsTolerance {
		// New run: this annotation becomes the reference, and whatever a
		// previous unqualified run had buffered is gone with that run.
		f.active = true
		f.qualified = f.minDuration == 0
		f.referenceCents = cents
		f.runStart = a.Time
		f.pending = nil
		if f.qualified {
			return []Annotation{a}
		}
		f.pending = append(f.pending, a)
		return nil
	}

	if f.qualified {
		return []Annotation{a}
	}
	if a.Time-f.runStart >= f.minDuration {
		f.qualified = true
		released := append(f.pending, a)
		f.pending = nil
		return released
	}
	f.pending = append(f.pending, a)
	return nil
}

// Reset clears the run state; the next annotation starts a fresh run.
func (f *SteadyStateFilter) Reset() {
	f.active = false
	f.qualified = false
	f.pending = nil
}

// ScaleFilter retains annotations whose pitch class lies within a cents
// tolerance of the nearest degree of a scale.
type ScaleFilter struct {
	scale     []float64
	tolerance float64
}

// NewScaleFilter creates a scale-quantization filter. The scale is an
// ordered set of pitch classes in cents, each in [0, 1200); the tolerance
// may not be negative.
func NewScaleFilter(scale []float64, tolerance float64) (*ScaleFilter, error) {
	if len(scale) == 0 {
		return nil, fmt.Errorf("empty scale")
	}
	if tolerance < 0 {
		return nil, fmt.Errorf("negative cents tolerance %v", tolerance)
	}
	for _, degree := range scale {
		if degree < 0 || degree >= 1200 {
			return nil, fmt.Errorf("scale degree %v outside [0, 1200)", degree)
		}
	}
	owned := make([]float64, len(scale))
	copy(owned, scale)
	return &ScaleFilter{scale: owned, tolerance: tolerance}, nil
}

func (f *ScaleFilter) Apply(a Annotation) []Annotation {
	pc := pitch.PitchClassCents(a.Frequency)
	for _, degree := range f.scale {
		// Circular pitch-class distance within the octave.
		d := math.Abs(pc - degree)
		if d > 600 {
			d = 1200 - d
		}
		if d <= f.tolerance {
			return []Annotation{a}
		}
	}
	return nil
}

func (f *ScaleFilter) Reset() {}
