package histogram_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/gamzia/internal/dice"
	"github.com/cory-johannsen/gamzia/internal/histogram"
	"github.com/cory-johannsen/gamzia/internal/rpn"
)

func seededSampler(t *testing.T, cfg histogram.Config) *histogram.Sampler {
	t.Helper()
	factory := dice.Factory(dice.SeededFactory(42), dice.Options{})
	return histogram.NewSampler(factory, cfg, zaptest.NewLogger(t))
}

func assertInvariants(t *testing.T, r *histogram.Report) {
	t.Helper()
	var total, sum, max int64
	for _, row := range r.Rows {
		total += row.Count
		sum += row.Outcome * row.Count
		if row.Count > max {
			max = row.Count
		}
	}
	assert.Equal(t, r.Trials, total, "counts must sum to trials")
	assert.Equal(t, sum/r.Trials, r.Mean)
	assert.Equal(t, max, r.ModeCount)
	assert.Equal(t, r.ModeCount, r.Counts()[r.Mode])
}

func TestSampler_3d6(t *testing.T) {
	s := seededSampler(t, histogram.Config{})
	r, err := s.Sample(context.Background(), "3d6", 100000)
	require.NoError(t, err)
	assertInvariants(t, r)

	assert.Equal(t, "3 6 d", r.RPN)
	assert.Equal(t, int64(100000), r.Trials)
	assert.Equal(t, int64(3), r.Rows[0].Outcome)
	assert.Equal(t, int64(18), r.Rows[len(r.Rows)-1].Outcome)
	assert.Contains(t, []int64{10, 11}, r.Mode)
	assert.Equal(t, int64(10), r.Mean, "10.5 truncates to 10")
}

func TestSampler_DeterministicWithSeed(t *testing.T) {
	a, err := seededSampler(t, histogram.Config{}).Sample(context.Background(), "2d10+1d4", 5000)
	require.NoError(t, err)
	b, err := seededSampler(t, histogram.Config{}).Sample(context.Background(), "2d10+1d4", 5000)
	require.NoError(t, err)
	assert.Equal(t, a.Counts(), b.Counts())
	assert.Equal(t, a.String(), b.String())
}

func TestSampler_ParallelWorkers(t *testing.T) {
	s := seededSampler(t, histogram.Config{Workers: 4})
	r, err := s.Sample(context.Background(), "1d6", 10001)
	require.NoError(t, err)
	assertInvariants(t, r)
	assert.Len(t, r.Rows, 6)
	for _, row := range r.Rows {
		assert.InDelta(t, 100.0/6, row.Percent, 2.0)
	}
}

func TestSampler_ConstantExpression(t *testing.T) {
	r, err := seededSampler(t, histogram.Config{}).Sample(context.Background(), "2+3", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), r.Mode)
	assert.Equal(t, int64(10), r.ModeCount)
	assert.Equal(t, int64(5), r.Mean)
	require.Len(t, r.Rows, 1)
	assert.Equal(t, 100.0, r.Rows[0].Percent)
	assert.Equal(t, histogram.DefaultColumns, r.Rows[0].Bar)
}

func TestSampler_ClampsTrials(t *testing.T) {
	s := seededSampler(t, histogram.Config{MaxTrials: 100, Workers: 3})
	r, err := s.Sample(context.Background(), "1d2", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.Trials)

	r, err = s.Sample(context.Background(), "1d2", 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(100), r.Trials)
	assertInvariants(t, r)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, int64(1), histogram.Clamp(-5, 10))
	assert.Equal(t, int64(7), histogram.Clamp(7, 10))
	assert.Equal(t, int64(10), histogram.Clamp(70, 10))
	assert.Equal(t, histogram.DefaultMaxTrials, histogram.Clamp(1<<40, 0))
	assert.Equal(t, histogram.DefaultMaxTrials, histogram.Clamp(2_000_000, 3_000_000))
}

func TestSampler_MaxTrialsCannotExceedCap(t *testing.T) {
	s := seededSampler(t, histogram.Config{MaxTrials: 3_000_000, Workers: 4})
	r, err := s.Sample(context.Background(), "1", 2_000_000)
	require.NoError(t, err)
	assert.Equal(t, histogram.DefaultMaxTrials, r.Trials)
	assert.Equal(t, histogram.DefaultMaxTrials, r.ModeCount)
}

func TestSampler_MeanOfHugeOutcomes(t *testing.T) {
	r, err := seededSampler(t, histogram.Config{Workers: 2}).Sample(context.Background(), "2^62", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4611686018427387904), r.Mean)
	assert.Equal(t, int64(4611686018427387904), r.Mode)

	r, err = seededSampler(t, histogram.Config{}).Sample(context.Background(), "-4611686018427387904-4611686018427387904", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), r.Mean)
}

func TestSampler_AbortsOnEvaluationError(t *testing.T) {
	_, err := seededSampler(t, histogram.Config{}).Sample(context.Background(), "1d6/0", 100)
	assert.ErrorIs(t, err, rpn.ErrDivisionByZero)
}

func TestSampler_AbortsOnLenientFailure(t *testing.T) {
	factory := dice.Factory(dice.SeededFactory(1), dice.Options{Lenient: true})
	s := histogram.NewSampler(factory, histogram.Config{}, zap.NewNop())
	_, err := s.Sample(context.Background(), "(9*7", 100)
	assert.ErrorIs(t, err, rpn.ErrUnmatchedOpen)
}

func TestSampler_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := seededSampler(t, histogram.Config{Workers: 2}).Sample(ctx, "1d6", 1000)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSampler_ElapsedUsesClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	inner := dice.Factory(dice.SeededFactory(9), dice.Options{})
	factory := func(worker int) *rpn.Resolver {
		clock.Advance(3 * time.Second)
		return inner(worker)
	}
	s := histogram.NewSampler(factory, histogram.Config{}, zap.NewNop(), histogram.WithClock(clock))
	r, err := s.Sample(context.Background(), "1d4", 10)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, r.Elapsed)
}

func TestSampler_LogsRun(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	factory := dice.Factory(dice.SeededFactory(3), dice.Options{})
	s := histogram.NewSampler(factory, histogram.Config{}, zap.New(core))
	_, err := s.Sample(context.Background(), "1d8", 50)
	require.NoError(t, err)

	require.Equal(t, 1, logs.FilterMessage("histogram run started").Len())
	finished := logs.FilterMessage("histogram run finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, "1d8", finished[0].ContextMap()["expression"])
	assert.Equal(t, int64(50), finished[0].ContextMap()["trials"])
}

func TestNewSampler_PanicsOnNilFactory(t *testing.T) {
	assert.Panics(t, func() { histogram.NewSampler(nil, histogram.Config{}, zap.NewNop()) })
}
