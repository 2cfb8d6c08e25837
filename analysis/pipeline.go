// Package analysis wires the per-buffer pitch pipeline together: frame in,
// both estimators, meta decision, annotation stream, histogram, and an
// optional real-time paced sink sharing the buffer cadence.
package analysis

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/sonoscale/sonoscale/histogram"
	"github.com/sonoscale/sonoscale/logging"
	"github.com/sonoscale/sonoscale/pitch"
	"github.com/sonoscale/sonoscale/sampled"
	"github.com/sonoscale/sonoscale/stream"
)

// Method selects which estimator drives the pipeline.
type Method int

const (
	// MethodMeta cross-validates the two pure estimators and only accepts
	// corroborated results.
	MethodMeta Method = iota
	MethodSquaredDifference
	MethodCumulativeDifference
)

func (m Method) String() string {
	switch m {
	case MethodMeta:
		return "meta"
	case MethodSquaredDifference:
		return "squared-difference"
	case MethodCumulativeDifference:
		return "cumulative-difference"
	default:
		return "unknown"
	}
}

// Params configures a pipeline.
type Params struct {
	SampleRate float64          `json:"sample_rate"`
	BufferSize int              `json:"buffer_size"`
	Overlap    int              `json:"overlap"`
	Method     Method           `json:"method"`
	Estimator  pitch.Params     `json:"estimator"`
	Histogram  histogram.Params `json:"histogram"`
}

// DefaultParams returns a meta-estimator pipeline at the standard window
// and overlap sizes.
func DefaultParams(sampleRate float64) Params {
	estimator := pitch.DefaultParams(sampleRate)
	return Params{
		SampleRate: sampleRate,
		BufferSize: estimator.BufferSize,
		Overlap:    estimator.Overlap,
		Method:     MethodMeta,
		Estimator:  estimator,
		Histogram:  histogram.DefaultParams(),
	}
}

// Validate rejects parameter sets the pipeline cannot run with.
func (p Params) Validate() error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %v", p.SampleRate)
	}
	if p.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", p.BufferSize)
	}
	if p.Overlap < 0 || p.Overlap >= p.BufferSize {
		return fmt.Errorf("overlap %d outside [0, %d)", p.Overlap, p.BufferSize)
	}
	return nil
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithSink chains a real-time paced sink after analysis. Its blocking
// write paces every Process call to playback speed.
func WithSink(sink *sampled.PacedSink) Option {
	return func(p *Pipeline) {
		p.sink = sink
	}
}

// WithFilters installs the annotation filter chain, applied in the order
// given.
func WithFilters(filters ...stream.Filter) Option {
	return func(p *Pipeline) {
		p.annotations.SetFilters(filters...)
	}
}

// Pipeline processes overlapping sample buffers in delivery order. Process
// calls must come from a single goroutine; the stream and histogram behind
// it tolerate additional concurrent publishers.
type Pipeline struct {
	params      Params
	estimator   pitch.Estimator
	annotations *stream.AnnotationStream
	hist        *histogram.Histogram
	sink        *sampled.PacedSink
	logger      logging.Logger

	samplesProcessed int64

	mu       sync.Mutex
	accepted []float64 // accepted estimates in Hz, for summary stats
}

// New creates a pipeline. The histogram subscribes to the annotation
// stream behind the configured filters, so it only accumulates annotations
// the filters let through.
func New(params Params, opts ...Option) (*Pipeline, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var estimator pitch.Estimator
	switch params.Method {
	case MethodMeta:
		estimator = pitch.NewMeta(params.Estimator)
	case MethodSquaredDifference:
		estimator = pitch.NewSquaredDifference(params.Estimator)
	case MethodCumulativeDifference:
		estimator = pitch.NewCumulativeDifference(params.Estimator)
	default:
		return nil, fmt.Errorf("unknown estimation method %d", params.Method)
	}

	hist, err := histogram.New(params.Histogram)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		params:      params,
		estimator:   estimator,
		annotations: stream.NewAnnotationStream(),
		hist:        hist,
		logger: logging.WithFields(logging.Fields{
			"component": "analysis",
			"method":    params.Method.String(),
		}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.annotations.Subscribe(hist)

	p.logger.Info("pipeline ready", logging.Fields{
		"sample_rate": params.SampleRate,
		"buffer_size": params.BufferSize,
		"overlap":     params.Overlap,
	})

	return p, nil
}

// ProcessFull handles the first buffer of a session. The paired byte
// buffer is forwarded whole to the sink when one is configured.
func (p *Pipeline) ProcessFull(floatBuffer []float64, byteBuffer []byte) error {
	p.analyze(floatBuffer)
	p.samplesProcessed += int64(len(floatBuffer))
	if p.sink != nil {
		return p.sink.WriteFull(byteBuffer)
	}
	return nil
}

// ProcessOverlapping handles every subsequent buffer; only the
// non-overlapping tail advances the session clock and reaches the sink.
func (p *Pipeline) ProcessOverlapping(floatBuffer []float64, byteBuffer []byte) error {
	p.analyze(floatBuffer)
	p.samplesProcessed += int64(len(floatBuffer) - p.params.Overlap)
	if p.sink != nil {
		return p.sink.WriteOverlapping(byteBuffer)
	}
	return nil
}

// analyze runs the estimator on one buffer and publishes an annotation
// when a pitch is accepted. The timestamp is the buffer's start position
// on the session clock.
func (p *Pipeline) analyze(buffer []float64) {
	estimate := p.estimator.Estimate(buffer)
	if estimate == pitch.None {
		return
	}

	probability := 1.0
	if pe, ok := p.estimator.(pitch.ProbabilisticEstimator); ok {
		probability = math.Max(0, math.Min(1, pe.Probability()))
	}

	p.mu.Lock()
	p.accepted = append(p.accepted, estimate)
	p.mu.Unlock()

	p.annotations.Publish(stream.Annotation{
		Time:        float64(p.samplesProcessed) / p.params.SampleRate,
		Frequency:   estimate,
		Source:      p.params.Method.String(),
		Probability: probability,
	})
}

// Stream exposes the annotation stream for subscribing listeners or
// reconfiguring filters at runtime.
func (p *Pipeline) Stream() *stream.AnnotationStream {
	return p.annotations
}

// Histogram exposes the accumulating histogram.
func (p *Pipeline) Histogram() *histogram.Histogram {
	return p.hist
}

// Peaks detects scale-candidate peaks on a snapshot of the current
// histogram.
func (p *Pipeline) Peaks(windowSize int, threshold float64) []histogram.Peak {
	return histogram.DetectPeaks(p.hist.Snapshot(), windowSize, threshold)
}

// PitchStats summarizes the estimates accepted so far.
func (p *Pipeline) PitchStats() map[string]float64 {
	p.mu.Lock()
	accepted := append([]float64(nil), p.accepted...)
	p.mu.Unlock()

	result := make(map[string]float64)
	if len(accepted) == 0 {
		return result
	}
	result["accepted"] = float64(len(accepted))
	result["mean_hz"] = stat.Mean(accepted, nil)
	if len(accepted) > 1 {
		result["stddev_hz"] = stat.StdDev(accepted, nil)
	}
	return result
}

// Finish closes the sink, draining pending audio. Safe to call when no
// sink is configured.
func (p *Pipeline) Finish() error {
	if p.sink == nil {
		return nil
	}
	return p.sink.Close()
}
