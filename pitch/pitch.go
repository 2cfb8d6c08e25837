// Package pitch implements pure fundamental-frequency estimators that map
// one buffer of audio samples to one pitch estimate in Hz.
//
// Three estimators are provided:
//   - SquaredDifference: the normalized squared-difference method with
//     Tartini-style peak picking (McLeod, Wyvill: "A smarter way to find pitch")
//   - CumulativeDifference: cumulative mean normalized difference tracking
//     (de Cheveigné, Kawahara: "YIN, a fundamental frequency estimator")
//   - Meta: runs both and only accepts mutually corroborated results
//
// All estimators are pure with respect to their input: they keep scratch
// buffers between calls but no state that influences the next estimate.
package pitch

// None is the sentinel returned when no reliable pitch is present in a
// buffer. It is distinguishable from every valid frequency.
const None = -1.0

// Estimator maps one sample buffer to a pitch estimate in Hz, or None.
type Estimator interface {
	Estimate(buffer []float64) float64
}

// ProbabilisticEstimator additionally reports the confidence of its most
// recent non-sentinel estimate, in [0, 1].
type ProbabilisticEstimator interface {
	Estimator
	Probability() float64
}

// Params contains the tunable parameters shared by the estimators.
type Params struct {
	SampleRate float64 `json:"sample_rate"` // Hz
	BufferSize int     `json:"buffer_size"` // samples per analysis window
	Overlap    int     `json:"overlap"`     // samples shared by consecutive windows

	// Squared-difference parameters. RelativeCutoff picks the first peak
	// whose amplitude reaches this fraction of the highest candidate peak;
	// SmallCutoff discards peaks too small to matter before that decision.
	RelativeCutoff float64 `json:"relative_cutoff"`
	SmallCutoff    float64 `json:"small_cutoff"`

	// UseFFT computes the squared-difference autocorrelation with an FFT
	// instead of the O(W²) direct loop. Both produce the same curve within
	// floating tolerance.
	UseFFT bool `json:"use_fft"`

	// Threshold is the absolute threshold of the cumulative-difference
	// estimator.
	Threshold float64 `json:"threshold"`

	// MetaTolerance is the relative disagreement the meta estimator accepts
	// between its two delegates, measured against the squared-difference
	// estimate.
	MetaTolerance float64 `json:"meta_tolerance"`
}

// DefaultParams returns estimator parameters matching the defaults of the
// Tartini user interface and the YIN paper.
func DefaultParams(sampleRate float64) Params {
	return Params{
		SampleRate:     sampleRate,
		BufferSize:     1024,
		Overlap:        512,
		RelativeCutoff: 0.93,
		SmallCutoff:    0.5,
		Threshold:      0.15,
		MetaTolerance:  1.0 / 150.0,
	}
}
