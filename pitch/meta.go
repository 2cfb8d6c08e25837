package pitch

import (
	"math"
	"sync"
)

// Meta runs the squared-difference and cumulative-difference estimators on
// the same buffer and only reports a pitch when both agree within a small
// relative tolerance. Disagreement, like either delegate returning None,
// yields None.
type Meta struct {
	params Params
	sq     Estimator
	cum    ProbabilisticEstimator
}

// NewMeta creates a meta estimator over fresh delegate estimators.
func NewMeta(params Params) *Meta {
	return &Meta{
		params: params,
		sq:     NewSquaredDifference(params),
		cum:    NewCumulativeDifference(params),
	}
}

// Estimate runs both delegates, concurrently since they share no state,
// and combines the results. The tolerance is measured against the
// squared-difference estimate; on agreement the arithmetic mean of the two
// is returned.
func (m *Meta) Estimate(buffer []float64) float64 {
	var cumPitch float64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cumPitch = m.cum.Estimate(buffer)
	}()
	sqPitch := m.sq.Estimate(buffer)
	wg.Wait()

	if sqPitch == None || cumPitch == None {
		return None
	}
	if math.Abs(cumPitch-sqPitch) <= sqPitch*m.params.MetaTolerance {
		return (cumPitch + sqPitch) / 2
	}
	return None
}

// Probability reports the cumulative-difference delegate's confidence for
// the buffer it last accepted.
func (m *Meta) Probability() float64 {
	return m.cum.Probability()
}
