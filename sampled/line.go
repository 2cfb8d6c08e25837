// Package sampled writes analysis buffers to an audio output line at the
// pace the device accepts them, keeping any chained processing in lockstep
// with real-time playback.
package sampled

import "fmt"

// Format describes the PCM encoding of the byte buffers handed to a Line.
type Format struct {
	SampleRate float64 `json:"sample_rate"` // Hz
	BitDepth   int     `json:"bit_depth"`   // bits per sample
	Channels   int     `json:"channels"`
}

// FrameSize is the number of bytes in one multi-channel sample group.
func (f Format) FrameSize() int {
	return f.BitDepth / 8 * f.Channels
}

// Validate rejects formats the sink cannot derive byte offsets for. Only
// whole-byte sample sizes are supported.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %v", f.SampleRate)
	}
	if f.BitDepth <= 0 || f.BitDepth%8 != 0 {
		return fmt.Errorf("bit depth must be a positive multiple of 8, got %d", f.BitDepth)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("channel count must be positive, got %d", f.Channels)
	}
	return nil
}

// Line is an already-opened audio output device. Write blocks until the
// device has accepted the data; PacedSink relies on that blocking as its
// pacing mechanism. Drain blocks until everything written has played out.
type Line interface {
	Write(p []byte) (int, error)
	Drain() error
	Close() error
}

// Opener binds a Line capable of the given format. Device enumeration and
// negotiation live with the caller; the sink only needs something it can
// open.
type Opener interface {
	Open(format Format) (Line, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(format Format) (Line, error)

func (fn OpenerFunc) Open(format Format) (Line, error) {
	return fn(format)
}
