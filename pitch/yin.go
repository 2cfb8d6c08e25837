package pitch

// CumulativeDifference estimates pitch with cumulative-mean-normalized
// difference tracking: a squared difference function over lags, normalized
// so that early lags are not favored, searched for the first sufficiently
// deep local minimum.
type CumulativeDifference struct {
	params Params

	// cmndf holds the cumulative mean normalized difference per lag.
	cmndf []float64

	// probability of the most recent non-sentinel estimate.
	probability float64
}

// NewCumulativeDifference creates a cumulative-difference estimator.
func NewCumulativeDifference(params Params) *CumulativeDifference {
	return &CumulativeDifference{
		params: params,
		cmndf:  make([]float64, params.BufferSize/2),
	}
}

// Estimate returns the fundamental frequency of the buffer in Hz, or None.
// Lags up to half the buffer length are searched.
func (cd *CumulativeDifference) Estimate(buffer []float64) float64 {
	cd.probability = 0
	half := len(buffer) / 2
	if half == 0 {
		return None
	}
	if len(cd.cmndf) != half {
		cd.cmndf = make([]float64, half)
	}

	cd.difference(buffer)
	cd.cumulativeMeanNormalize()

	tau := cd.absoluteThreshold()
	if tau < 0 {
		return None
	}

	period := float64(tau)
	if tau+1 < half {
		// The vertex formula refines minima of the normalized curve the
		// same way it refines nsdf maxima.
		period, _ = parabolic(cd.cmndf, tau)
	}

	return cd.params.SampleRate / period
}

// Probability reports 1 minus the normalized difference at the chosen lag:
// how periodic the buffer looked at the detected period.
func (cd *CumulativeDifference) Probability() float64 {
	return cd.probability
}

// difference computes the raw squared difference function
// d[tau] = Σ (x[i] - x[i+tau])² over i in [0, W/2).
func (cd *CumulativeDifference) difference(buffer []float64) {
	half := len(buffer) / 2
	for tau := 0; tau < half; tau++ {
		var sum float64
		for i := 0; i < half; i++ {
			delta := buffer[i] - buffer[i+tau]
			sum += delta * delta
		}
		cd.cmndf[tau] = sum
	}
}

// cumulativeMeanNormalize rewrites the difference function in place as
// d'[tau] = d[tau] / ((1/tau)·Σ d[1..tau]), with d'[0] = 1. A zero running
// sum (silence) normalizes to 1 so no lag can cross the threshold.
func (cd *CumulativeDifference) cumulativeMeanNormalize() {
	cd.cmndf[0] = 1
	var runningSum float64
	for tau := 1; tau < len(cd.cmndf); tau++ {
		runningSum += cd.cmndf[tau]
		if runningSum == 0 {
			cd.cmndf[tau] = 1
			continue
		}
		cd.cmndf[tau] = cd.cmndf[tau] * float64(tau) / runningSum
	}
}

// absoluteThreshold returns the first lag where the normalized curve drops
// below the threshold, descended to the bottom of its local minimum, or -1
// when no lag qualifies.
func (cd *CumulativeDifference) absoluteThreshold() int {
	for tau := 2; tau < len(cd.cmndf); tau++ {
		if cd.cmndf[tau] < cd.params.Threshold {
			for tau+1 < len(cd.cmndf) && cd.cmndf[tau+1] < cd.cmndf[tau] {
				tau++
			}
			cd.probability = 1 - cd.cmndf[tau]
			return tau
		}
	}
	return -1
}
