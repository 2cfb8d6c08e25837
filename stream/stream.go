package stream

import (
	"sync"

	"github.com/sonoscale/sonoscale/logging"
)

// AnnotationStream is the single funnel between estimators and listeners.
// Publish serializes concurrent callers so that stateful filters see one
// temporally ordered annotation sequence; listeners are notified in
// subscription order.
type AnnotationStream struct {
	mu        sync.Mutex
	filters   []Filter
	listeners []Listener
	logger    logging.Logger
}

// NewAnnotationStream creates a stream with the given filters, applied in
// the order supplied. Confidence filters should come before steady-state
// and scale filters, since the latter assume annotations already mean
// "accepted pitch".
func NewAnnotationStream(filters ...Filter) *AnnotationStream {
	return &AnnotationStream{
		filters: filters,
		logger:  logging.WithFields(logging.Fields{"component": "stream"}),
	}
}

// Subscribe adds a listener behind any already subscribed.
func (s *AnnotationStream) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Unsubscribe removes the first subscribed listener equal to l.
func (s *AnnotationStream) Unsubscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.listeners {
		if existing == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// AddFilter appends a filter at runtime without reconstructing the stream.
func (s *AnnotationStream) AddFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, f)
}

// SetFilters replaces the filter chain. Filter state belongs to the
// filters themselves; swapping the chain implicitly discards the state of
// the removed ones.
func (s *AnnotationStream) SetFilters(filters ...Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = filters
	s.logger.Debug("filter chain replaced", logging.Fields{"filters": len(filters)})
}

// Publish runs the annotation through the filter chain and delivers
// whatever the chain releases. A buffering filter may release several
// annotations for one input; each released annotation passes through the
// remaining filters and reaches listeners in time order.
func (s *AnnotationStream) Publish(a Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := []Annotation{a}
	for _, f := range s.filters {
		var released []Annotation
		for _, annotation := range batch {
			released = append(released, f.Apply(annotation)...)
		}
		if len(released) == 0 {
			return
		}
		batch = released
	}
	for _, annotation := range batch {
		for _, l := range s.listeners {
			l.HandleAnnotation(annotation)
		}
	}
}

// Reset clears the rolling state of every stateful filter. Subscriptions
// are unaffected.
func (s *AnnotationStream) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.filters {
		f.Reset()
	}
}
