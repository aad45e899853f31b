package timer_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/gamzia/internal/timer"
)

func TestStopwatch_ElapsedAfterStop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sw := timer.New(clock)

	sw.Start()
	clock.Advance(1500 * time.Millisecond)
	assert.Zero(t, sw.Elapsed("ms"), "Elapsed must read 0 while running")
	sw.Stop()

	assert.Equal(t, 1500*time.Millisecond, sw.Duration())
	assert.InDelta(t, 1500.0, sw.Elapsed("ms"), 1e-9)
	assert.InDelta(t, 1.5, sw.Elapsed("sec"), 1e-9)
	assert.InDelta(t, 1.5e6, sw.Elapsed("µs"), 1e-6)
}

func TestStopwatch_PeekWhileRunning(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sw := timer.New(clock)
	assert.Zero(t, sw.Peek("s"), "Peek must read 0 before Start")

	sw.Start()
	clock.Advance(2 * time.Minute)
	assert.InDelta(t, 2.0, sw.Peek("min"), 1e-9)
	assert.True(t, sw.Running())

	clock.Advance(time.Minute)
	assert.InDelta(t, 3.0, sw.Peek("m"), 1e-9)
}

func TestStopwatch_DoubleStopIsNoop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sw := timer.New(clock)
	sw.Start()
	clock.Advance(time.Second)
	sw.Stop()
	clock.Advance(time.Hour)
	sw.Stop()
	assert.Equal(t, time.Second, sw.Duration())
	assert.Zero(t, sw.Peek("s"))
}

func TestStopwatch_Time(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sw := timer.New(clock)
	d := sw.Time(func() { clock.Advance(250 * time.Millisecond) })
	assert.Equal(t, 250*time.Millisecond, d)
}

func TestNew_NilClockUsesRealClock(t *testing.T) {
	sw := timer.New(nil)
	sw.Start()
	sw.Stop()
	assert.GreaterOrEqual(t, sw.Duration(), time.Duration(0))
}

func TestConvert_Units(t *testing.T) {
	cases := map[string]float64{
		"ns":           3_600_000_000_000,
		"nanoseconds":  3_600_000_000_000,
		"us":           3_600_000_000,
		"microseconds": 3_600_000_000,
		"milli":        3_600_000,
		"seconds":      3_600,
		"minutes":      60,
		"hrs":          1,
		"hours":        1,
		"d":            1.0 / 24,
		"days":         1.0 / 24,
		"fortnights":   0,
		"":             0,
	}
	for unit, want := range cases {
		assert.InDelta(t, want, timer.Convert(time.Hour, unit), 1e-9, "unit %q", unit)
	}
}

// Property: converting to a unit and back by its length recovers the duration.
func TestProperty_ConvertScales(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ms := rapid.Int64Range(0, 1_000_000_000).Draw(rt, "ms")
		d := time.Duration(ms) * time.Millisecond
		assert.InDelta(rt, float64(ms), timer.Convert(d, "ms"), 1e-6)
		assert.InDelta(rt, float64(ms)/1000, timer.Convert(d, "s"), 1e-9)
	})
}
