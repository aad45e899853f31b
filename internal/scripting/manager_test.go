package scripting_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/gamzia/internal/dice"
	"github.com/cory-johannsen/gamzia/internal/histogram"
	"github.com/cory-johannsen/gamzia/internal/scripting"
)

func newTestManager(t testing.TB, instLimit int) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	roller := dice.NewLoggedRoller(dice.NewSeededSource(1), dice.Options{}, logger)
	sampler := histogram.NewSampler(dice.Factory(dice.SeededFactory(1), dice.Options{}), histogram.Config{}, logger)
	mgr := scripting.NewManager(roller, sampler, logger, instLimit)
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func TestManager_LoadDir_CallsHook(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	dir := writeTempLua(t, "hooks.lua", `
		function test_hook(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.LoadDir(context.Background(), "tables", dir))
	ret, err := mgr.CallHook(context.Background(), "tables", "test_hook", lua.LNumber(3), lua.LNumber(4))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(7), ret)
}

func TestManager_CallHook_MissingHook_NoOp(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString(context.Background(), "tables", `-- no functions`))
	ret, err := mgr.CallHook(context.Background(), "tables", "nonexistent_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_CallHook_UnknownName(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	ret, err := mgr.CallHook(context.Background(), "nothing", "some_hook")
	assert.ErrorIs(t, err, scripting.ErrNoScript)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_CallHook_RuntimeError_ReturnedAndLogged(t *testing.T) {
	mgr, logs := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString(context.Background(), "tables", `
		function bad_hook()
			error("intentional error")
		end
	`))
	ret, err := mgr.CallHook(context.Background(), "tables", "bad_hook")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "intentional error")
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterMessage("scripting: Lua runtime error").Len())
}

func TestManager_InstructionBudgetIsPerCall(t *testing.T) {
	mgr, _ := newTestManager(t, 2000)
	require.NoError(t, mgr.LoadString(context.Background(), "spin", `
		function spin(n)
			local s = 0
			for i = 1, n do s = s + i end
			return s
		end
	`))
	for i := 0; i < 20; i++ {
		ret, err := mgr.CallHook(context.Background(), "spin", "spin", lua.LNumber(50))
		require.NoError(t, err, "call %d", i)
		assert.Equal(t, lua.LNumber(1275), ret)
	}
}

func TestManager_InfiniteLoopHitsLimit(t *testing.T) {
	mgr, _ := newTestManager(t, 500)
	require.NoError(t, mgr.LoadString(context.Background(), "spin", `function forever() while true do end end`))
	_, err := mgr.CallHook(context.Background(), "spin", "forever")
	assert.Error(t, err)
}

func TestManager_CancelledContext(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString(context.Background(), "tables", `function f() return 1 end`))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mgr.CallHook(ctx, "tables", "f")
	assert.Error(t, err)
}

func TestManager_LoadDir_EmptyDir_NoError(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.LoadDir(context.Background(), "empty", t.TempDir()))
	ret, err := mgr.CallHook(context.Background(), "empty", "anything")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_LoadDir_InvalidLua_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	dir := writeTempLua(t, "bad.lua", `this is not valid lua @@@@`)
	assert.Error(t, mgr.LoadDir(context.Background(), "bad", dir))
	_, err := mgr.CallHook(context.Background(), "bad", "anything")
	assert.ErrorIs(t, err, scripting.ErrNoScript, "failed loads must not register a VM")
}

func TestManager_LoadDir_MissingDir(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	assert.Error(t, mgr.LoadDir(context.Background(), "x", filepath.Join(t.TempDir(), "nope")))
}

func TestManager_LoadDir_MultipleFiles_OrderedByName(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`base_val = 10`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`
		function get_val() return base_val end
	`), 0644))
	require.NoError(t, mgr.LoadDir(context.Background(), "ordered", dir))
	ret, err := mgr.CallHook(context.Background(), "ordered", "get_val")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(10), ret)
}

func TestManager_Reload_ReplacesVM(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString(context.Background(), "v", `function v() return 1 end`))
	require.NoError(t, mgr.LoadString(context.Background(), "v", `function v() return 2 end`))
	ret, err := mgr.CallHook(context.Background(), "v", "v")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(2), ret)
}

func TestManager_RunFile(t *testing.T) {
	mgr, logs := newTestManager(t, 0)
	dir := writeTempLua(t, "main.lua", `engine.log.info("ran")`)
	require.NoError(t, mgr.RunFile(context.Background(), filepath.Join(dir, "main.lua")))
	assert.Equal(t, 1, logs.FilterMessage("ran").Len())

	assert.Error(t, mgr.RunFile(context.Background(), filepath.Join(dir, "missing.lua")))
}

func TestProperty_CallHookMissingNameNeverPanics(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "name")
		hook := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "hook")
		count := rapid.IntRange(1, 20).Draw(rt, "count")
		for i := 0; i < count; i++ {
			mgr.CallHook(context.Background(), name, hook) //nolint:errcheck
		}
	})
}

func TestManager_CallHookConcurrent_NoRace(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString(context.Background(), "conc", `
		function roll_sum()
			return engine.dice.roll("2d6").total
		end
	`))

	const goroutines = 10
	const callsEach = 5
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsEach; j++ {
				ret, err := mgr.CallHook(context.Background(), "conc", "roll_sum")
				assert.NoError(t, err)
				n, ok := ret.(lua.LNumber)
				if assert.True(t, ok) {
					assert.GreaterOrEqual(t, int(n), 2)
					assert.LessOrEqual(t, int(n), 12)
				}
			}
		}()
	}
	wg.Wait()
}

func TestNewManager_PanicsOnNilRoller(t *testing.T) {
	assert.Panics(t, func() {
		scripting.NewManager(nil, nil, zap.NewNop(), 0)
	})
}

func TestNewManager_PanicsOnNilLogger(t *testing.T) {
	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), dice.Options{}, zap.NewNop())
	assert.Panics(t, func() {
		scripting.NewManager(roller, nil, nil, 0)
	})
}

func TestManager_Close_ReleasesVMs(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString(context.Background(), "c", `function get_x() return x end`))
	mgr.Close()
	_, err := mgr.CallHook(context.Background(), "c", "get_x")
	assert.ErrorIs(t, err, scripting.ErrNoScript)
}
