package sampled

import "sync"

// MockLine is an output line backed by memory instead of hardware. It
// records everything written so tests can verify byte accounting without a
// device.
type MockLine struct {
	mu      sync.Mutex
	data    []byte
	drained bool
	closed  bool
}

func (l *MockLine) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data = append(l.data, p...)
	return len(p), nil
}

func (l *MockLine) Drain() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drained = true
	return nil
}

func (l *MockLine) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// BytesWritten returns the total number of bytes accepted so far.
func (l *MockLine) BytesWritten() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.data)
}

// Drained reports whether Drain has been called.
func (l *MockLine) Drained() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.drained
}

// Closed reports whether Close has been called.
func (l *MockLine) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// MockOpener hands out MockLines, or fails with Err when set.
type MockOpener struct {
	Err   error
	Lines []*MockLine
}

func (o *MockOpener) Open(format Format) (Line, error) {
	if o.Err != nil {
		return nil, o.Err
	}
	line := &MockLine{}
	o.Lines = append(o.Lines, line)
	return line, nil
}
