package histogram

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/gamzia/internal/rpn"
	"github.com/cory-johannsen/gamzia/internal/timer"
)

// DefaultMaxTrials is the upper trial clamp. Config.MaxTrials may lower it
// but never raise it.
const DefaultMaxTrials int64 = 1_000_000

// cancelCheckInterval is how many trials run between context checks.
const cancelCheckInterval = 4096

// ResolverFactory builds the resolver used by one worker. Each call must
// return an independent resolver with its own random source.
type ResolverFactory func(worker int) *rpn.Resolver

// Config tunes a Sampler.
type Config struct {
	// Columns is the modal bar width; 0 selects DefaultColumns.
	Columns int
	// MaxTrials caps the trial count; 0 or anything above DefaultMaxTrials
	// selects DefaultMaxTrials.
	MaxTrials int64
	// Workers is the number of parallel resolvers; 0 or 1 samples serially.
	Workers int
	// Budget bounds the wall-clock duration of a run; 0 means unbounded.
	Budget time.Duration
}

// Option customizes a Sampler.
type Option func(*Sampler)

// WithClock sets the clock used to time runs.
func WithClock(c clockwork.Clock) Option {
	return func(s *Sampler) { s.clock = c }
}

// Sampler resolves an expression repeatedly and aggregates the outcomes.
// A Sampler is safe for concurrent use; every run builds fresh resolvers.
type Sampler struct {
	factory ResolverFactory
	cfg     Config
	logger  *zap.Logger
	clock   clockwork.Clock
}

// NewSampler creates a Sampler.
//
// Precondition: factory and logger must be non-nil.
func NewSampler(factory ResolverFactory, cfg Config, logger *zap.Logger, opts ...Option) *Sampler {
	if factory == nil {
		panic("histogram: NewSampler called with nil ResolverFactory")
	}
	if cfg.MaxTrials <= 0 || cfg.MaxTrials > DefaultMaxTrials {
		cfg.MaxTrials = DefaultMaxTrials
	}
	if cfg.Columns <= 0 {
		cfg.Columns = DefaultColumns
	}
	s := &Sampler{factory: factory, cfg: cfg, logger: logger, clock: clockwork.NewRealClock()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Clamp bounds trials to [1, max]. A max that is non-positive or above
// DefaultMaxTrials selects DefaultMaxTrials.
func Clamp(trials, max int64) int64 {
	if max <= 0 || max > DefaultMaxTrials {
		max = DefaultMaxTrials
	}
	if trials < 1 {
		return 1
	}
	if trials > max {
		return max
	}
	return trials
}

// Sample resolves expression trials times and reports the distribution.
// The first trial of every worker parses; the rest re-evaluate the cached
// expression.
//
// Postcondition: on success the report's counts sum to the clamped trial
// count. Any resolution failure, including a lenient one, aborts the run.
func (s *Sampler) Sample(ctx context.Context, expression string, trials int64) (*Report, error) {
	trials = Clamp(trials, s.cfg.MaxTrials)
	workers := s.workerCount(trials)

	if s.cfg.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Budget)
		defer cancel()
	}

	log := s.logger.With(
		zap.String("expression", expression),
		zap.Int64("trials", trials),
		zap.Int("workers", workers),
	)
	log.Info("histogram run started")

	sw := timer.New(s.clock)
	sw.Start()

	parts := make([]*Histogram, workers)
	rpns := make([]string, workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		n := share(trials, workers, i)
		g.Go(func() error {
			h, rpnText, err := s.run(gctx, i, expression, n)
			if err != nil {
				return err
			}
			parts[i], rpns[i] = h, rpnText
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		sw.Stop()
		log.Warn("histogram run aborted", zap.Duration("duration", sw.Duration()), zap.Error(err))
		return nil, err
	}

	// The first partial keeps its serial mode; the rest are folded into it.
	total := parts[0]
	for _, p := range parts[1:] {
		total.Merge(p)
	}
	sw.Stop()

	report := NewReport(expression, total, s.cfg.Columns)
	report.RPN = rpns[0]
	report.Elapsed = sw.Duration()
	log.Info("histogram run finished",
		zap.Int64("mean", report.Mean),
		zap.Int64("mode", report.Mode),
		zap.Duration("duration", report.Elapsed),
	)
	return report, nil
}

func (s *Sampler) run(ctx context.Context, worker int, expression string, n int64) (*Histogram, string, error) {
	r := s.factory(worker)
	h := New()
	for i := int64(0); i < n; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, "", err
			}
		}
		v, err := r.Resolve(expression, i > 0)
		if err != nil {
			return nil, "", fmt.Errorf("histogram: trial %d: %w", i, err)
		}
		if r.Failed() {
			return nil, "", fmt.Errorf("histogram: trial %d: %w", i, r.Err())
		}
		h.Add(v)
	}
	return h, r.RPN(), nil
}

func (s *Sampler) workerCount(trials int64) int {
	w := s.cfg.Workers
	if w < 1 {
		w = 1
	}
	if int64(w) > trials {
		w = int(trials)
	}
	return w
}

// share splits trials across workers; the first trials%workers get one extra.
func share(trials int64, workers, i int) int64 {
	n := trials / int64(workers)
	if int64(i) < trials%int64(workers) {
		n++
	}
	return n
}
