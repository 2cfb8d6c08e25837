package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonoscale/sonoscale/pitch"
)

// releasedTimes feeds the annotations through the filter in order and
// collects the timestamps it releases.
func releasedTimes(f Filter, annotations []Annotation) []float64 {
	var times []float64
	for _, a := range annotations {
		for _, released := range f.Apply(a) {
			times = append(times, released.Time)
		}
	}
	return times
}

func TestConfidenceFilter(t *testing.T) {
	f, err := NewConfidenceFilter(0.5)
	require.NoError(t, err)

	assert.Len(t, f.Apply(Annotation{Frequency: 440, Probability: 0.9}), 1)
	assert.Len(t, f.Apply(Annotation{Frequency: 440, Probability: 0.5}), 1)
	assert.Empty(t, f.Apply(Annotation{Frequency: 440, Probability: 0.49}))
}

func TestConfidenceFilterRejectsBadThreshold(t *testing.T) {
	_, err := NewConfidenceFilter(-0.1)
	assert.Error(t, err)

	_, err = NewConfidenceFilter(1.1)
	assert.Error(t, err)
}

func TestSteadyStateFilterReleasesWholeRun(t *testing.T) {
	f, err := NewSteadyStateFilter(10, 0.05)
	require.NoError(t, err)

	// A steady 440 Hz run sampled every 10 ms: nothing comes out until the
	// run spans 50 ms, then the held-back members are released together and
	// every later member passes straight through.
	run := make([]Annotation, 10)
	for i := range run {
		run[i] = Annotation{Time: float64(i) * 0.01, Frequency: 440}
	}

	assert.Empty(t, releasedTimes(f, run[:5]))

	flushed := f.Apply(run[5])
	require.Len(t, flushed, 6)
	assert.Equal(t, 0.00, flushed[0].Time)
	assert.Equal(t, 0.05, flushed[5].Time)

	assert.Equal(t, []float64{0.06, 0.07, 0.08, 0.09}, releasedTimes(f, run[6:]))
}

func TestSteadyStateFilterDiscardsBrokenRun(t *testing.T) {
	f, err := NewSteadyStateFilter(10, 0.05)
	require.NoError(t, err)

	assert.Empty(t, f.Apply(Annotation{Time: 0.00, Frequency: 440}))
	// ~77 cents off: a new run starts at 460 Hz and the buffered 440 Hz
	// member is gone with its run.
	assert.Empty(t, f.Apply(Annotation{Time: 0.05, Frequency: 460}))
	assert.Empty(t, f.Apply(Annotation{Time: 0.06, Frequency: 460}))

	flushed := f.Apply(Annotation{Time: 0.10, Frequency: 460})
	require.Len(t, flushed, 3)
	assert.Equal(t, []float64{0.05, 0.06, 0.10},
		[]float64{flushed[0].Time, flushed[1].Time, flushed[2].Time})
	for _, a := range flushed {
		assert.Equal(t, 460.0, a.Frequency)
	}
}

func TestSteadyStateFilterZeroDurationPassesImmediately(t *testing.T) {
	f, err := NewSteadyStateFilter(10, 0)
	require.NoError(t, err)

	assert.Len(t, f.Apply(Annotation{Time: 0.00, Frequency: 440}), 1)
	assert.Len(t, f.Apply(Annotation{Time: 0.01, Frequency: 440}), 1)
}

func TestSteadyStateFilterReset(t *testing.T) {
	f, err := NewSteadyStateFilter(10, 0.05)
	require.NoError(t, err)

	assert.Empty(t, f.Apply(Annotation{Time: 0.00, Frequency: 440}))
	assert.Len(t, f.Apply(Annotation{Time: 0.05, Frequency: 440}), 2)

	f.Reset()
	// Same pitch, but the run starts over and buffers again.
	assert.Empty(t, f.Apply(Annotation{Time: 0.06, Frequency: 440}))
	assert.Len(t, f.Apply(Annotation{Time: 0.11, Frequency: 440}), 2)
}

func TestSteadyStateFilterRejectsNegativeConfig(t *testing.T) {
	_, err := NewSteadyStateFilter(-1, 0.05)
	assert.Error(t, err)

	_, err = NewSteadyStateFilter(10, -0.05)
	assert.Error(t, err)
}

func TestScaleFilterQuantization(t *testing.T) {
	major := []float64{0, 200, 400, 500, 700, 900, 1100}
	f, err := NewScaleFilter(major, 20)
	require.NoError(t, err)

	// A4 = pitch class 900 cents, right on a degree.
	assert.Len(t, f.Apply(Annotation{Frequency: 440}), 1)
	// A quarter tone above A4 is ~50 cents from the nearest degree.
	assert.Empty(t, f.Apply(Annotation{Frequency: 452.89}))
}

func TestScaleFilterWrapsAroundOctave(t *testing.T) {
	f, err := NewScaleFilter([]float64{0}, 10)
	require.NoError(t, err)

	// 5 cents below C: pitch class 1195, circularly 5 cents from degree 0.
	justBelowC := pitch.CentsToHertz(1195)
	assert.Len(t, f.Apply(Annotation{Frequency: justBelowC}), 1)
}

func TestScaleFilterRejectsBadConfig(t *testing.T) {
	_, err := NewScaleFilter(nil, 10)
	assert.Error(t, err)

	_, err = NewScaleFilter([]float64{0, 700}, -1)
	assert.Error(t, err)

	_, err = NewScaleFilter([]float64{0, 1200}, 10)
	assert.Error(t, err)
}
