// Package histogram accumulates accepted pitch annotations into a binned
// distribution over absolute cents or pitch classes, and extracts ranked
// scale-candidate peaks from it.
package histogram

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/sonoscale/sonoscale/pitch"
	"github.com/sonoscale/sonoscale/stream"
)

// Kind selects what a histogram bins.
type Kind int

const (
	// Frequency bins absolute cents over a configurable range.
	Frequency Kind = iota
	// PitchClass folds everything onto one octave, [0, 1200) cents.
	PitchClass
)

// Params configures a histogram.
type Params struct {
	Kind        Kind    `json:"kind"`
	CentsPerBin float64 `json:"cents_per_bin"`
	Start       float64 `json:"start"` // absolute cents, Frequency kind only
	Stop        float64 `json:"stop"`  // absolute cents, Frequency kind only

	// Weighted adds the annotation's probability per annotation instead
	// of 1.
	Weighted bool `json:"weighted"`
}

// DefaultParams covers 0..9600 absolute cents (eight octaves up from C-1)
// at 6 cents per bin, unweighted.
func DefaultParams() Params {
	return Params{
		Kind:        Frequency,
		CentsPerBin: 6,
		Start:       0,
		Stop:        9600,
	}
}

// Histogram is a mutable binned distribution. Bin boundaries are fixed for
// its lifetime; Accumulate and Clear are safe for concurrent use.
type Histogram struct {
	params Params
	start  float64

	mu   sync.Mutex
	bins []float64
}

// New creates a histogram. The resolution must be positive and, for the
// Frequency kind, the range non-empty; the PitchClass kind always spans
// one octave regardless of Start/Stop.
func New(params Params) (*Histogram, error) {
	if params.CentsPerBin <= 0 {
		return nil, fmt.Errorf("cents per bin must be positive, got %v", params.CentsPerBin)
	}
	start, stop := params.Start, params.Stop
	if params.Kind == PitchClass {
		start, stop = 0, 1200
	}
	if stop <= start {
		return nil, fmt.Errorf("empty cents range [%v, %v)", start, stop)
	}

	span := stop - start
	binCount := int(span / params.CentsPerBin)
	if float64(binCount)*params.CentsPerBin < span {
		binCount++
	}

	return &Histogram{
		params: params,
		start:  start,
		bins:   make([]float64, binCount),
	}, nil
}

// Accumulate adds the annotation's mass to the bin its frequency falls in.
// Sentinel and non-positive frequencies are never binned; frequencies
// outside the configured range are ignored.
func (h *Histogram) Accumulate(a stream.Annotation) {
	if a.Frequency <= 0 {
		return
	}

	cents := pitch.AbsoluteCents(a.Frequency)
	if h.params.Kind == PitchClass {
		cents = pitch.PitchClassCents(a.Frequency)
	}

	idx := int((cents - h.start) / h.params.CentsPerBin)
	if idx < 0 || idx >= len(h.bins) {
		return
	}

	mass := 1.0
	if h.params.Weighted {
		mass = a.Probability
	}

	h.mu.Lock()
	h.bins[idx] += mass
	h.mu.Unlock()
}

// HandleAnnotation lets the histogram subscribe directly to an annotation
// stream.
func (h *Histogram) HandleAnnotation(a stream.Annotation) {
	h.Accumulate(a)
}

// Clear resets every bin to zero.
func (h *Histogram) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.bins {
		h.bins[i] = 0
	}
}

// Snapshot returns an immutable copy of the current bin masses for peak
// detection or export.
func (h *Histogram) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	bins := make([]float64, len(h.bins))
	copy(bins, h.bins)
	return Snapshot{
		Kind:        h.params.Kind,
		CentsPerBin: h.params.CentsPerBin,
		Start:       h.start,
		Bins:        bins,
	}
}

// Snapshot is a read-only view of a histogram at one point in time. It is
// invalidated, not updated, by later accumulation.
type Snapshot struct {
	Kind        Kind
	CentsPerBin float64
	Start       float64
	Bins        []float64
}

// BinCenter returns the representative cents value of bin i.
func (s Snapshot) BinCenter(i int) float64 {
	return s.Start + (float64(i)+0.5)*s.CentsPerBin
}

// TotalMass is the sum of all bin masses.
func (s Snapshot) TotalMass() float64 {
	return floats.Sum(s.Bins)
}

// MaxMass is the largest bin mass, or 0 for an empty snapshot.
func (s Snapshot) MaxMass() float64 {
	if len(s.Bins) == 0 {
		return 0
	}
	return floats.Max(s.Bins)
}
