package sampled

import (
	"errors"
	"fmt"

	"github.com/sonoscale/sonoscale/logging"
)

// ErrLineUnavailable reports that neither the preferred nor the fallback
// output line could be opened.
var ErrLineUnavailable = errors.New("no output line available")

// PacedSink writes overlapping analysis buffers to an output line. The
// line's blocking write is the only intentional blocking point of the
// pipeline: anything chained after the sink cannot run ahead of real-time
// playback.
type PacedSink struct {
	line        Line
	byteOverlap int
	byteStep    int
	logger      logging.Logger
}

// OpenPacedSink binds a sink to the preferred line, falling back once to
// the fallback opener if the preferred one fails. A second failure is
// returned wrapped in ErrLineUnavailable. Buffer and overlap sizes are in
// samples; byte offsets are derived via the format's frame size.
func OpenPacedSink(preferred, fallback Opener, format Format, bufferSize, overlap int) (*PacedSink, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if bufferSize <= 0 {
		return nil, fmt.Errorf("buffer size must be positive, got %d", bufferSize)
	}
	if overlap < 0 || overlap >= bufferSize {
		return nil, fmt.Errorf("overlap %d outside [0, %d)", overlap, bufferSize)
	}

	logger := logging.WithFields(logging.Fields{"component": "sampled"})

	line, err := preferred.Open(format)
	if err != nil {
		logger.Warn("could not open preferred output line, retrying on fallback", logging.Fields{
			"error": err.Error(),
		})
		if fallback == nil {
			return nil, fmt.Errorf("%w: preferred open failed (%v) and no fallback configured", ErrLineUnavailable, err)
		}
		line, err = fallback.Open(format)
		if err != nil {
			return nil, fmt.Errorf("%w: fallback open failed: %v", ErrLineUnavailable, err)
		}
	}

	frameSize := format.FrameSize()
	return &PacedSink{
		line:        line,
		byteOverlap: overlap * frameSize,
		byteStep:    bufferSize*frameSize - overlap*frameSize,
		logger:      logger,
	}, nil
}

// WriteFull writes the entire first buffer of a session.
func (s *PacedSink) WriteFull(byteBuffer []byte) error {
	_, err := s.line.Write(byteBuffer)
	return err
}

// WriteOverlapping writes only the tail of a subsequent buffer: the
// overlapping prefix was already emitted by the previous call.
func (s *PacedSink) WriteOverlapping(byteBuffer []byte) error {
	_, err := s.line.Write(byteBuffer[s.byteOverlap : s.byteOverlap+s.byteStep])
	return err
}

// Close drains pending audio, then releases the line.
func (s *PacedSink) Close() error {
	if err := s.line.Drain(); err != nil {
		s.logger.Error(err, "drain failed, closing line anyway")
	}
	return s.line.Close()
}
