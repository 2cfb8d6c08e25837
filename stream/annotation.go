// Package stream delivers pitch annotations to subscribed listeners
// through an ordered chain of configurable filters.
package stream

// Annotation is one accepted pitch estimate together with its provenance.
// Annotations are immutable after creation; filters include or exclude
// them but never change them.
type Annotation struct {
	Time        float64 `json:"time"`        // seconds since session start, non-decreasing
	Frequency   float64 `json:"frequency"`   // Hz, > 0
	Source      string  `json:"source"`      // identifier of the producing estimator
	Probability float64 `json:"probability"` // confidence in [0, 1]
}

// Listener receives annotations that passed every active filter.
// Listener identity is interface equality; subscribe with a value that
// compares equal to the one passed to Unsubscribe.
type Listener interface {
	HandleAnnotation(a Annotation)
}
