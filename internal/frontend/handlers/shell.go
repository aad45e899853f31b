// Package handlers provides the Telnet dice shell session handler.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gamzia/internal/command"
	"github.com/cory-johannsen/gamzia/internal/dice"
	"github.com/cory-johannsen/gamzia/internal/frontend/telnet"
	"github.com/cory-johannsen/gamzia/internal/histogram"
	"github.com/cory-johannsen/gamzia/internal/preset"
	"github.com/cory-johannsen/gamzia/internal/rpn"
	"github.com/cory-johannsen/gamzia/internal/storage/postgres"
	"github.com/cory-johannsen/gamzia/internal/timer"
)

// Recorder defines the sampling-run persistence operations used by the shell.
type Recorder interface {
	Save(ctx context.Context, report *histogram.Report) (postgres.Run, error)
	ListByExpression(ctx context.Context, expression string, limit int) ([]postgres.Run, error)
}

// historyLimit caps the runs listed by the history command.
const historyLimit = 10

const welcomeBanner = "\r\n" +
	telnet.Bold + telnet.BrightCyan + "  DICE SHELL" + telnet.Reset + "\r\n\r\n" +
	"  Type " + telnet.Green + "help" + telnet.Reset + " for commands. Bare expressions such as " +
	telnet.Green + "3d6+2" + telnet.Reset + " are rolled.\r\n\r\n"

const prompt = telnet.BrightWhite + "dice> " + telnet.Reset

// ShellOption customizes a ShellHandler.
type ShellOption func(*ShellHandler)

// WithRecorder records every histogram run and enables the history command.
func WithRecorder(r Recorder) ShellOption {
	return func(h *ShellHandler) { h.recorder = r }
}

// WithClock sets the clock used to time rolls.
func WithClock(c clockwork.Clock) ShellOption {
	return func(h *ShellHandler) { h.clock = c }
}

// ShellHandler implements telnet.SessionHandler and runs the dice command loop.
// Every session rolls with its own resolver.
type ShellHandler struct {
	sources       dice.SourceFactory
	opts          dice.Options
	sampler       *histogram.Sampler
	presets       *preset.Set
	registry      *command.Registry
	recorder      Recorder
	defaultTrials int64
	clock         clockwork.Clock
	logger        *zap.Logger
	sessions      atomic.Int64
}

// NewShellHandler creates a ShellHandler.
//
// Precondition: sources, sampler, and logger must be non-nil; presets may be nil.
// Postcondition: Returns a ShellHandler ready to handle sessions.
func NewShellHandler(
	sources dice.SourceFactory,
	opts dice.Options,
	sampler *histogram.Sampler,
	presets *preset.Set,
	defaultTrials int64,
	logger *zap.Logger,
	options ...ShellOption,
) *ShellHandler {
	if sources == nil || sampler == nil || logger == nil {
		panic("handlers: NewShellHandler called with nil dependency")
	}
	h := &ShellHandler{
		sources:       sources,
		opts:          opts,
		sampler:       sampler,
		presets:       presets,
		registry:      command.DefaultRegistry(),
		defaultTrials: defaultTrials,
		clock:         clockwork.NewRealClock(),
		logger:        logger,
	}
	for _, o := range options {
		o(h)
	}
	return h
}

// session is the per-connection state of the shell.
type session struct {
	h      *ShellHandler
	conn   *telnet.Conn
	roller *dice.Roller
	logger *zap.Logger
}

// HandleSession implements telnet.SessionHandler. It shows the banner and
// processes commands until the client quits or the context is cancelled.
//
// Postcondition: Returns nil on clean quit, or an error if the session ended abnormally.
func (h *ShellHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	start := h.clock.Now()
	index := h.sessions.Add(1)
	logger := h.logger.With(zap.String("session_id", conn.ID().String()))
	s := &session{
		h:      h,
		conn:   conn,
		roller: dice.NewLoggedRoller(h.sources(int(index)), h.opts, logger),
		logger: logger,
	}

	if err := conn.Write([]byte(welcomeBanner)); err != nil {
		return fmt.Errorf("sending welcome: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Server shutting down. Goodbye!"))
			return ctx.Err()
		default:
		}

		if err := conn.WritePrompt(prompt); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		line, err := conn.ReadLine()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		quit, err := s.dispatch(ctx, line)
		if err != nil {
			return err
		}
		if quit {
			logger.Info("client quit", zap.Duration("session_duration", h.clock.Since(start)))
			return nil
		}
	}
}

// dispatch runs one input line. It returns quit=true when the client asked to
// leave and a non-nil error only when the connection failed.
func (s *session) dispatch(ctx context.Context, line string) (bool, error) {
	p := command.Parse(line)
	if p.Command == "" {
		return false, nil
	}

	cmd, ok := s.h.registry.Resolve(p.Command)
	if !ok {
		return false, s.bare(strings.TrimSpace(line))
	}

	switch cmd.Handler {
	case command.HandlerQuit:
		return true, s.conn.WriteLine(telnet.Colorize(telnet.Cyan, "Goodbye!"))
	case command.HandlerRoll:
		return false, s.roll(p.RawArgs)
	case command.HandlerAgain:
		return false, s.again()
	case command.HandlerRPN:
		return false, s.rpn(p.RawArgs)
	case command.HandlerHist:
		return false, s.hist(ctx, p)
	case command.HandlerHistory:
		return false, s.history(ctx, p.RawArgs)
	case command.HandlerPresets:
		return false, s.listPresets()
	case command.HandlerColors:
		return false, s.conn.Write([]byte(telnet.ShowMacros()))
	case command.HandlerHelp:
		return false, s.help()
	}
	return false, s.conn.WriteLine(telnet.Colorf(telnet.Red, "Unhandled command: %s", cmd.Name))
}

// bare rolls an input line that is not a command. Lines starting with a
// letter must name a preset.
func (s *session) bare(line string) error {
	first := line[0]
	isLetter := (first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')
	if _, ok := s.h.presets.Lookup(line); isLetter && !ok {
		name := strings.Fields(line)[0]
		return s.conn.WriteLine(telnet.Colorf(telnet.Red, "Unknown command: %s. Type 'help' for available commands.", name))
	}
	return s.roll(line)
}

func (s *session) roll(args string) error {
	expr := strings.TrimSpace(s.h.presets.Expand(args))
	if expr == "" {
		return s.usage("roll")
	}
	var (
		res dice.RollResult
		err error
	)
	elapsed := timer.New(s.h.clock).Time(func() {
		res, err = s.roller.Roll(expr)
	})
	return s.showRoll(expr, res, err, elapsed)
}

func (s *session) again() error {
	var (
		res dice.RollResult
		err error
	)
	elapsed := timer.New(s.h.clock).Time(func() {
		res, err = s.roller.Again()
	})
	if errors.Is(err, rpn.ErrNotParsed) {
		return s.conn.WriteLine(telnet.Colorize(telnet.Red, "Nothing to repeat. Roll an expression first."))
	}
	return s.showRoll(res.Expression, res, err, elapsed)
}

func (s *session) showRoll(expr string, res dice.RollResult, err error, elapsed time.Duration) error {
	switch {
	case err != nil:
		return s.conn.WriteLine(RenderError(err))
	case s.roller.Resolver().Failed():
		return s.conn.WriteLine(RenderLenientFailure(expr, s.roller.Resolver().Err()))
	}
	return s.conn.WriteLine(RenderRoll(res, elapsed))
}

func (s *session) rpn(args string) error {
	expr := strings.TrimSpace(s.h.presets.Expand(args))
	if expr == "" {
		return s.usage("rpn")
	}
	parsed, err := s.roller.Resolver().Parse(expr)
	if err != nil {
		return s.conn.WriteLine(RenderError(err))
	}
	return s.conn.WriteLine(telnet.Colorize(telnet.BrightGreen, parsed.String()))
}

func (s *session) hist(ctx context.Context, p command.ParseResult) error {
	raw, trials, ok := p.SplitCount()
	if !ok {
		trials = s.h.defaultTrials
	}
	expr := strings.TrimSpace(s.h.presets.Expand(raw))
	if expr == "" {
		return s.usage("hist")
	}

	report, err := s.h.sampler.Sample(ctx, expr, trials)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return s.conn.WriteLine(RenderError(err))
	}
	if err := s.conn.Write([]byte(RenderReport(report))); err != nil {
		return err
	}

	if s.h.recorder == nil {
		return nil
	}
	run, err := s.h.recorder.Save(ctx, report)
	if err != nil {
		s.logger.Warn("recording histogram run", zap.String("expression", expr), zap.Error(err))
		return s.conn.WriteLine(telnet.Colorize(telnet.Yellow, "Run not recorded."))
	}
	return s.conn.WriteLine(telnet.Colorf(telnet.Dim, "Recorded run %s", run.ID))
}

func (s *session) history(ctx context.Context, args string) error {
	if s.h.recorder == nil {
		return s.conn.WriteLine(telnet.Colorize(telnet.Yellow, "History is unavailable: no run store is configured."))
	}
	expr := strings.TrimSpace(s.h.presets.Expand(args))
	if expr == "" {
		return s.usage("history")
	}
	runs, err := s.h.recorder.ListByExpression(ctx, expr, historyLimit)
	if err != nil {
		s.logger.Error("listing histogram runs", zap.String("expression", expr), zap.Error(err))
		return s.conn.WriteLine(telnet.Colorize(telnet.Red, "An internal error occurred. Please try again."))
	}
	return s.conn.Write([]byte(RenderRuns(expr, runs)))
}

func (s *session) listPresets() error {
	return s.conn.Write([]byte(RenderPresets(s.h.presets.All())))
}

func (s *session) help() error {
	return s.conn.Write([]byte(RenderHelp(s.h.registry.Commands())))
}

func (s *session) usage(name string) error {
	cmd, _ := s.h.registry.Resolve(name)
	return s.conn.WriteLine(telnet.Colorf(telnet.Red, "Usage: %s", cmd.Usage))
}
