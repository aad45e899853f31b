// Package timer provides a stopwatch for timing resolve and sampling runs.
package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// units maps every accepted unit spelling to its length.
var units = map[string]time.Duration{
	"ns":           time.Nanosecond,
	"nano":         time.Nanosecond,
	"nanoseconds":  time.Nanosecond,
	"µs":           time.Microsecond,
	"us":           time.Microsecond,
	"micro":        time.Microsecond,
	"microseconds": time.Microsecond,
	"ms":           time.Millisecond,
	"milli":        time.Millisecond,
	"milliseconds": time.Millisecond,
	"s":            time.Second,
	"sec":          time.Second,
	"seconds":      time.Second,
	"m":            time.Minute,
	"min":          time.Minute,
	"minutes":      time.Minute,
	"h":            time.Hour,
	"hrs":          time.Hour,
	"hours":        time.Hour,
	"d":            24 * time.Hour,
	"days":         24 * time.Hour,
}

// Convert expresses d in the named unit. Unknown units yield 0.
func Convert(d time.Duration, unit string) float64 {
	u, ok := units[unit]
	if !ok {
		return 0
	}
	return float64(d) / float64(u)
}

// Stopwatch measures wall-clock time between Start and Stop.
// It is safe for concurrent use.
type Stopwatch struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	running bool
	start   time.Time
	stop    time.Time
}

// New returns a stopped Stopwatch reading clock. A nil clock selects the
// real clock.
func New(clock clockwork.Clock) *Stopwatch {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Stopwatch{clock: clock}
}

// Start (re)starts the watch from the current time.
func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = s.clock.Now()
	s.stop = s.start
	s.running = true
}

// Stop freezes the elapsed time. Stopping a stopped watch does nothing.
func (s *Stopwatch) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.stop = s.clock.Now()
	s.running = false
}

// Running reports whether the watch has been started and not stopped.
func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Duration returns the frozen elapsed time, or 0 while running.
func (s *Stopwatch) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return 0
	}
	return s.stop.Sub(s.start)
}

// Elapsed returns the frozen elapsed time in unit, or 0 while running.
func (s *Stopwatch) Elapsed(unit string) float64 {
	return Convert(s.Duration(), unit)
}

// Peek returns the time since Start in unit without stopping the watch.
// It returns 0 when the watch is not running.
func (s *Stopwatch) Peek(unit string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return 0
	}
	return Convert(s.clock.Since(s.start), unit)
}

// Time runs fn between Start and Stop and returns its elapsed duration.
func (s *Stopwatch) Time(fn func()) time.Duration {
	s.Start()
	fn()
	s.Stop()
	return s.Duration()
}
