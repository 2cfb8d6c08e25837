package pitch

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// SquaredDifference estimates pitch with the normalized squared-difference
// method: an autocorrelation-derived similarity curve over candidate lags,
// Tartini-style peak picking and parabolic refinement.
type SquaredDifference struct {
	params Params

	// nsdf holds a normalized squared-difference value for each lag (tau).
	nsdf []float64

	// Scratch for peak picking and candidate selection, reused per call.
	maxPositions       []int
	periodEstimates    []float64
	amplitudeEstimates []float64
}

// NewSquaredDifference creates a squared-difference estimator.
func NewSquaredDifference(params Params) *SquaredDifference {
	return &SquaredDifference{
		params: params,
		nsdf:   make([]float64, params.BufferSize),
	}
}

// Estimate returns the fundamental frequency of the buffer in Hz, or None.
func (sd *SquaredDifference) Estimate(buffer []float64) float64 {
	if len(sd.nsdf) != len(buffer) {
		sd.nsdf = make([]float64, len(buffer))
	}
	sd.periodEstimates = sd.periodEstimates[:0]
	sd.amplitudeEstimates = sd.amplitudeEstimates[:0]

	if sd.params.UseFFT {
		sd.normalizedSquareDifferenceFFT(buffer)
	} else {
		sd.normalizedSquareDifference(buffer)
	}
	sd.pickPeaks()

	highestAmplitude := math.Inf(-1)
	for _, tau := range sd.maxPositions {
		// Peaks below the small cutoff are not worth refining.
		if sd.nsdf[tau] > sd.params.SmallCutoff {
			period, amplitude := parabolic(sd.nsdf, tau)
			sd.periodEstimates = append(sd.periodEstimates, period)
			sd.amplitudeEstimates = append(sd.amplitudeEstimates, amplitude)
			highestAmplitude = math.Max(highestAmplitude, amplitude)
		}
	}

	if len(sd.periodEstimates) == 0 {
		return None
	}

	// The cutoff is relative to the highest surviving candidate. The first
	// candidate at or above it wins, favoring the shortest period rather
	// than the globally largest peak.
	cutoff := sd.params.RelativeCutoff * highestAmplitude
	period := sd.periodEstimates[0]
	for i, amplitude := range sd.amplitudeEstimates {
		if amplitude >= cutoff {
			period = sd.periodEstimates[i]
			break
		}
	}

	return sd.params.SampleRate / period
}

// normalizedSquareDifference computes
//
//	nsdf[tau] = 2·Σ x[i]·x[i+tau] / Σ (x[i]² + x[i+tau]²)
//
// over the valid indices for each lag. This is the O(W²) direct form.
// A lag whose energy term is zero carries no similarity evidence and is
// set to 0 so it can never be picked as a peak.
func (sd *SquaredDifference) normalizedSquareDifference(buffer []float64) {
	n := len(buffer)
	for tau := 0; tau < n; tau++ {
		var acf, m float64
		for i := 0; i < n-tau; i++ {
			acf += buffer[i] * buffer[i+tau]
			m += buffer[i]*buffer[i] + buffer[i+tau]*buffer[i+tau]
		}
		if m == 0 {
			sd.nsdf[tau] = 0
			continue
		}
		sd.nsdf[tau] = 2 * acf / m
	}
}

// normalizedSquareDifferenceFFT produces the same curve in O(W log W): the
// autocorrelation term comes from the power spectrum of the zero-padded
// buffer, the energy term from prefix sums of squared samples.
func (sd *SquaredDifference) normalizedSquareDifferenceFFT(buffer []float64) {
	n := len(buffer)

	padded := make([]float64, 2*n)
	copy(padded, buffer)
	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		spectrum[i] = c * cmplx.Conj(c)
	}
	acf := fft.IFFT(spectrum)

	prefix := make([]float64, n+1)
	for i, v := range buffer {
		prefix[i+1] = prefix[i] + v*v
	}
	total := prefix[n]

	for tau := 0; tau < n; tau++ {
		// Σ (x[i]² + x[i+tau]²) over i in [0, n-tau)
		m := prefix[n-tau] + total - prefix[tau]
		if m == 0 {
			sd.nsdf[tau] = 0
			continue
		}
		sd.nsdf[tau] = 2 * real(acf[tau]) / m
	}
}

// pickPeaks finds the highest local maximum between each pair of positive
// zero crossings of the nsdf curve, ignoring the initial descent from the
// lag-0 maximum, and including a dangling maximum after the last crossing
// if the curve never returns negative. Ported from the Tartini peak picker
// (general/mytransforms.cpp).
func (sd *SquaredDifference) pickPeaks() {
	sd.maxPositions = sd.maxPositions[:0]
	nsdf := sd.nsdf

	pos := 0
	curMaxPos := 0

	// Walk down from the lag-0 maximum to the first negative-going zero
	// crossing, then past everything below zero.
	for pos < (len(nsdf)-1)/3 && nsdf[pos] > 0 {
		pos++
	}
	for pos < len(nsdf)-1 && nsdf[pos] <= 0 {
		pos++
	}
	if pos == 0 {
		pos = 1
	}

	for pos < len(nsdf)-1 {
		if nsdf[pos] > nsdf[pos-1] && nsdf[pos] >= nsdf[pos+1] {
			if curMaxPos == 0 {
				curMaxPos = pos
			} else if nsdf[pos] > nsdf[curMaxPos] {
				curMaxPos = pos
			}
		}
		pos++
		if pos < len(nsdf)-1 && nsdf[pos] <= 0 {
			// Negative zero crossing: close off the current segment.
			if curMaxPos > 0 {
				sd.maxPositions = append(sd.maxPositions, curMaxPos)
				curMaxPos = 0
			}
			for pos < len(nsdf)-1 && nsdf[pos] <= 0 {
				pos++
			}
		}
	}
	if curMaxPos > 0 {
		sd.maxPositions = append(sd.maxPositions, curMaxPos)
	}
}
