// Package activity counts in-flight remote calls.
package activity

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Tracker is a reference counted busy indicator. The count never goes below zero.
type Tracker struct {
	mu       sync.Mutex
	count    int
	gauge    prometheus.Gauge
	onChange func(busy bool)
}

// NewTracker creates a tracker. The gauge is registered on reg when reg is not nil.
// onChange is called with the lock held whenever the tracker goes idle or busy,
// so it must not call back into the tracker.
func NewTracker(reg prometheus.Registerer, onChange func(busy bool)) (*Tracker, error) {
	t := &Tracker{
		gauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "proverbs",
			Subsystem: "remote",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight remote store requests.",
		}),
		onChange: onChange,
	}
	if reg != nil {
		if err := reg.Register(t.gauge); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Started records the start of a remote call
func (t *Tracker) Started() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.count++
	t.gauge.Set(float64(t.count))
	if t.count == 1 && t.onChange != nil {
		t.onChange(true)
	}
}

// Finished records the end of a remote call. Extra calls are ignored.
func (t *Tracker) Finished() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.count == 0 {
		return
	}
	t.count--
	t.gauge.Set(float64(t.count))
	if t.count == 0 && t.onChange != nil {
		t.onChange(false)
	}
}

// Track calls Started and returns a func that calls Finished once
func (t *Tracker) Track() func() {
	t.Started()
	var once sync.Once
	return func() { once.Do(t.Finished) }
}

// Count returns the number of calls in flight
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Busy reports whether any call is in flight
func (t *Tracker) Busy() bool {
	return t.Count() > 0
}
