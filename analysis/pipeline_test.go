package analysis

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonoscale/sonoscale/pitch"
	"github.com/sonoscale/sonoscale/sampled"
	"github.com/sonoscale/sonoscale/stream"
)

type recorder struct {
	mu  sync.Mutex
	got []stream.Annotation
}

func (r *recorder) HandleAnnotation(a stream.Annotation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, a)
}

func (r *recorder) annotations() []stream.Annotation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]stream.Annotation(nil), r.got...)
}

// feedSine drives the pipeline with overlapping windows of a sine wave,
// the way a frame source would deliver them.
func feedSine(t *testing.T, p *Pipeline, params Params, freq float64, buffers int) {
	t.Helper()

	step := params.BufferSize - params.Overlap
	total := params.BufferSize + step*(buffers-1)
	signal := make([]float64, total)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * freq * float64(i) / params.SampleRate)
	}
	byteBuffer := make([]byte, params.BufferSize*2)

	require.NoError(t, p.ProcessFull(signal[:params.BufferSize], byteBuffer))
	for i := 1; i < buffers; i++ {
		start := i * step
		window := signal[start : start+params.BufferSize]
		require.NoError(t, p.ProcessOverlapping(window, byteBuffer))
	}
}

func TestPipelineAnnotatesSine(t *testing.T) {
	params := DefaultParams(44100)
	p, err := New(params)
	require.NoError(t, err)

	r := &recorder{}
	p.Stream().Subscribe(r)

	feedSine(t, p, params, 440, 20)

	got := r.annotations()
	require.NotEmpty(t, got)
	last := -1.0
	for _, a := range got {
		assert.InEpsilon(t, 440.0, a.Frequency, 0.01)
		assert.Equal(t, "meta", a.Source)
		assert.GreaterOrEqual(t, a.Time, last, "timestamps must not decrease")
		last = a.Time
	}
}

func TestPipelineAccumulatesHistogramAndPeaks(t *testing.T) {
	params := DefaultParams(44100)
	p, err := New(params)
	require.NoError(t, err)

	feedSine(t, p, params, 440, 30)

	snapshot := p.Histogram().Snapshot()
	require.Positive(t, snapshot.TotalMass())

	peaks := p.Peaks(5, 2)
	require.NotEmpty(t, peaks)
	assert.InDelta(t, pitch.AbsoluteCents(440), peaks[0].Cents, 10)
}

func TestPipelineForwardsBuffersToSink(t *testing.T) {
	params := DefaultParams(44100)

	opener := &sampled.MockOpener{}
	format := sampled.Format{SampleRate: params.SampleRate, BitDepth: 16, Channels: 1}
	sink, err := sampled.OpenPacedSink(opener, nil, format, params.BufferSize, params.Overlap)
	require.NoError(t, err)

	p, err := New(params, WithSink(sink))
	require.NoError(t, err)

	feedSine(t, p, params, 440, 4)

	// One full buffer plus three overlapping tails, two bytes per frame.
	step := params.BufferSize - params.Overlap
	expected := (params.BufferSize + 3*step) * 2
	line := opener.Lines[0]
	assert.Equal(t, expected, line.BytesWritten())

	require.NoError(t, p.Finish())
	assert.True(t, line.Drained())
	assert.True(t, line.Closed())
}

func TestPipelineAppliesFilters(t *testing.T) {
	params := DefaultParams(44100)

	// A4's pitch class is 900 cents; a scale with only a 300-cent degree
	// rejects every estimate of the 440 Hz signal.
	scale, err := stream.NewScaleFilter([]float64{300}, 10)
	require.NoError(t, err)

	p, err := New(params, WithFilters(scale))
	require.NoError(t, err)

	r := &recorder{}
	p.Stream().Subscribe(r)

	feedSine(t, p, params, 440, 10)

	// Estimates were accepted by the estimator but filtered from listeners
	// and from the histogram.
	assert.Positive(t, p.PitchStats()["accepted"])
	assert.Empty(t, r.annotations())
	assert.Zero(t, p.Histogram().Snapshot().TotalMass())
}

func TestPipelinePitchStats(t *testing.T) {
	params := DefaultParams(44100)
	p, err := New(params)
	require.NoError(t, err)

	feedSine(t, p, params, 440, 20)

	stats := p.PitchStats()
	require.Positive(t, stats["accepted"])
	assert.InEpsilon(t, 440.0, stats["mean_hz"], 0.01)
}

func TestPipelineSilenceProducesNoAnnotations(t *testing.T) {
	params := DefaultParams(44100)
	p, err := New(params)
	require.NoError(t, err)

	byteBuffer := make([]byte, params.BufferSize*2)
	require.NoError(t, p.ProcessFull(make([]float64, params.BufferSize), byteBuffer))
	require.NoError(t, p.ProcessOverlapping(make([]float64, params.BufferSize), byteBuffer))

	assert.Empty(t, p.PitchStats())
	assert.Zero(t, p.Histogram().Snapshot().TotalMass())
}

func TestParamsValidate(t *testing.T) {
	params := DefaultParams(44100)
	require.NoError(t, params.Validate())

	params.Overlap = params.BufferSize
	assert.Error(t, params.Validate())

	params = DefaultParams(0)
	assert.Error(t, params.Validate())

	_, err := New(DefaultParams(-1))
	assert.Error(t, err)
}

func TestMethodNames(t *testing.T) {
	assert.Equal(t, "meta", MethodMeta.String())
	assert.Equal(t, "squared-difference", MethodSquaredDifference.String())
	assert.Equal(t, "cumulative-difference", MethodCumulativeDifference.String())
}
