package scripting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gamzia/internal/dice"
	"github.com/cory-johannsen/gamzia/internal/histogram"
)

// ErrNoScript is returned when a hook is called on a script set that was never loaded.
var ErrNoScript = errors.New("scripting: script set not loaded")

// Manager owns one sandboxed LState per named script set and exposes hook
// dispatch.
//
// Manager is safe for concurrent use. All VM calls are serialized because the
// shared dice roller is single-goroutine.
type Manager struct {
	mu        sync.Mutex
	states    map[string]*lua.LState
	roller    *dice.Roller
	sampler   *histogram.Sampler
	instLimit int
	logger    *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil. sampler may be nil, in
// which case engine.dice.histogram raises an error.
// Postcondition: Returns a non-nil Manager with no script sets loaded.
func NewManager(roller *dice.Roller, sampler *histogram.Sampler, logger *zap.Logger, instLimit int) *Manager {
	if roller == nil {
		panic("scripting: NewManager called with nil Roller")
	}
	if logger == nil {
		panic("scripting: NewManager called with nil Logger")
	}
	return &Manager{
		states:    make(map[string]*lua.LState),
		roller:    roller,
		sampler:   sampler,
		instLimit: instLimit,
		logger:    logger,
	}
}

// LoadDir creates a sandboxed VM for name, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: name must be non-empty; scriptDir must be a readable directory.
// Postcondition: the VM replaces any previous one under name; returns error on
// Lua load failure.
func (m *Manager) LoadDir(ctx context.Context, name, scriptDir string) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, name, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)
	return m.load(ctx, name, func(L *lua.LState) error {
		for _, path := range luaFiles {
			if err := L.DoFile(path); err != nil {
				return fmt.Errorf("scripting: loading %q for %q: %w", path, name, err)
			}
		}
		return nil
	})
}

// LoadString creates a sandboxed VM for name and executes src in it.
func (m *Manager) LoadString(ctx context.Context, name, src string) error {
	return m.load(ctx, name, func(L *lua.LState) error {
		if err := L.DoString(src); err != nil {
			return fmt.Errorf("scripting: loading %q: %w", name, err)
		}
		return nil
	})
}

func (m *Manager) load(ctx context.Context, name string, body func(L *lua.LState) error) error {
	L := NewSandboxedState(m.instLimit)
	m.RegisterModules(L)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := withBudget(ctx, L, m.instLimit, func() error { return body(L) }); err != nil {
		L.Close()
		return err
	}
	if old, ok := m.states[name]; ok {
		old.Close()
	}
	m.states[name] = L
	m.logger.Debug("scripting: script set loaded", zap.String("name", name))
	return nil
}

// CallHook calls the named Lua global function in the named VM with a fresh
// instruction budget. Returns (LNil, nil) if the hook is not defined.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, ErrNoScript for
// an unknown name, or the Lua runtime error.
func (m *Manager) CallHook(ctx context.Context, name, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	L, ok := m.states[name]
	if !ok {
		return lua.LNil, fmt.Errorf("%w: %q", ErrNoScript, name)
	}

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	err := withBudget(ctx, L, m.instLimit, func() error {
		return L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, args...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("name", name),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, fmt.Errorf("scripting: %s.%s: %w", name, hook, err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Run executes src once in a throwaway sandbox.
func (m *Manager) Run(ctx context.Context, src string) error {
	L := NewSandboxedState(m.instLimit)
	defer L.Close()
	m.RegisterModules(L)

	m.mu.Lock()
	defer m.mu.Unlock()
	return withBudget(ctx, L, m.instLimit, func() error { return L.DoString(src) })
}

// RunFile executes the Lua file at path once in a throwaway sandbox.
func (m *Manager) RunFile(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("scripting: reading %q: %w", path, err)
	}
	if err := m.Run(ctx, string(src)); err != nil {
		return fmt.Errorf("scripting: running %q: %w", path, err)
	}
	return nil
}

// Close releases every loaded VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, L := range m.states {
		L.Close()
		delete(m.states, name)
	}
}
