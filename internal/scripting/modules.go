package scripting

import (
	"context"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.dice.roll(expr)              -> {total, rpn, expression}
//	engine.dice.again()                 -> {total, rpn, expression}
//	engine.dice.rpn(expr)               -> string
//	engine.dice.histogram(expr, trials) -> {trials, mean, mode, counts}
//	engine.log.debug|info|warn|error(msg)
//
// Resolution failures raise Lua errors.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetField(engine, "log", m.logModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"roll":      m.luaRoll,
		"again":     m.luaAgain,
		"rpn":       m.luaRPN,
		"histogram": m.luaHistogram,
	})
	return mod
}

func (m *Manager) luaRoll(L *lua.LState) int {
	expr := L.CheckString(1)
	res, err := m.roller.Roll(expr)
	if err != nil {
		L.RaiseError("engine.dice.roll(%q): %s", expr, err.Error())
		return 0
	}
	t := L.NewTable()
	t.RawSetString("total", lua.LNumber(res.Total))
	t.RawSetString("rpn", lua.LString(res.RPN))
	t.RawSetString("expression", lua.LString(res.Expression))
	L.Push(t)
	return 1
}

func (m *Manager) luaAgain(L *lua.LState) int {
	res, err := m.roller.Again()
	if err != nil {
		L.RaiseError("engine.dice.again(): %s", err.Error())
		return 0
	}
	t := L.NewTable()
	t.RawSetString("total", lua.LNumber(res.Total))
	t.RawSetString("rpn", lua.LString(res.RPN))
	t.RawSetString("expression", lua.LString(res.Expression))
	L.Push(t)
	return 1
}

func (m *Manager) luaRPN(L *lua.LState) int {
	expr := L.CheckString(1)
	parsed, err := m.roller.Resolver().Parse(expr)
	if err != nil {
		L.RaiseError("engine.dice.rpn(%q): %s", expr, err.Error())
		return 0
	}
	L.Push(lua.LString(parsed.String()))
	return 1
}

func (m *Manager) luaHistogram(L *lua.LState) int {
	expr := L.CheckString(1)
	trials := L.OptInt64(2, 1000)
	if m.sampler == nil {
		L.RaiseError("engine.dice.histogram: sampler unavailable")
		return 0
	}
	report, err := m.sampler.Sample(context.Background(), expr, trials)
	if err != nil {
		L.RaiseError("engine.dice.histogram(%q): %s", expr, err.Error())
		return 0
	}
	counts := L.NewTable()
	for _, row := range report.Rows {
		counts.RawSetInt(int(row.Outcome), lua.LNumber(row.Count))
	}
	t := L.NewTable()
	t.RawSetString("trials", lua.LNumber(report.Trials))
	t.RawSetString("mean", lua.LNumber(report.Mean))
	t.RawSetString("mode", lua.LNumber(report.Mode))
	t.RawSetString("counts", counts)
	L.Push(t)
	return 1
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	logAt := func(fn func(string, ...zap.Field)) lua.LGFunction {
		return func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}
	}
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"debug": logAt(m.logger.Debug),
		"info":  logAt(m.logger.Info),
		"warn":  logAt(m.logger.Warn),
		"error": logAt(m.logger.Error),
	})
	return mod
}
