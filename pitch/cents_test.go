package pitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbsoluteCents(t *testing.T) {
	// A4 sits at exactly 6900 absolute cents.
	assert.InDelta(t, 6900.0, AbsoluteCents(440), 1e-9)
	// One octave up adds 1200 cents.
	assert.InDelta(t, 8100.0, AbsoluteCents(880), 1e-9)
}

func TestPitchClassCentsFoldsOctaves(t *testing.T) {
	assert.InDelta(t, PitchClassCents(220), PitchClassCents(440), 1e-9)
	assert.InDelta(t, 900.0, PitchClassCents(440), 1e-9)
}

func TestCentsToHertzRoundTrip(t *testing.T) {
	for _, hz := range []float64{82.41, 220, 440, 987.77} {
		assert.InDelta(t, hz, CentsToHertz(AbsoluteCents(hz)), 1e-9)
	}
}
