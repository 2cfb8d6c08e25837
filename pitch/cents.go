package pitch

import "math"

// ReferenceHertz is the frequency of 0 absolute cents (C-1, about an octave
// below the lowest piano key). With this reference A4 = 440 Hz sits at
// exactly 6900 absolute cents.
const ReferenceHertz = 8.17579891564371

// AbsoluteCents converts a frequency in Hz to absolute cents, a logarithmic
// pitch unit with 1200 cents per octave.
func AbsoluteCents(hertz float64) float64 {
	return 1200 * math.Log2(hertz/ReferenceHertz)
}

// PitchClassCents folds a frequency onto a single octave and returns its
// pitch class in [0, 1200) cents.
func PitchClassCents(hertz float64) float64 {
	cents := math.Mod(AbsoluteCents(hertz), 1200)
	if cents < 0 {
		cents += 1200
	}
	return cents
}

// CentsToHertz converts absolute cents back to a frequency in Hz.
func CentsToHertz(cents float64) float64 {
	return ReferenceHertz * math.Pow(2, cents/1200)
}
