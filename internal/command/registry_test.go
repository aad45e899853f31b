package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Len(t, r.Commands(), len(BuiltinCommands()))
}

func TestResolve_CanonicalName(t *testing.T) {
	r := DefaultRegistry()

	cmd, ok := r.Resolve("hist")
	require.True(t, ok)
	assert.Equal(t, "hist", cmd.Name)
	assert.Equal(t, HandlerHist, cmd.Handler)
}

func TestResolve_Aliases(t *testing.T) {
	r := DefaultRegistry()
	cases := map[string]string{
		"r":         HandlerRoll,
		"resolve":   HandlerRoll,
		"repeat":    HandlerAgain,
		"histogram": HandlerHist,
		"runs":      HandlerHistory,
		"?":         HandlerHelp,
		"exit":      HandlerQuit,
	}
	for alias, handler := range cases {
		cmd, ok := r.Resolve(alias)
		require.True(t, ok, alias)
		assert.Equal(t, handler, cmd.Handler, alias)
	}
}

func TestResolve_NotFound(t *testing.T) {
	_, ok := DefaultRegistry().Resolve("3d6")
	assert.False(t, ok)
}

func TestResolve_NoCommandLooksLikeAnExpression(t *testing.T) {
	for _, cmd := range DefaultRegistry().Commands() {
		for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
			assert.NotRegexp(t, `^[0-9(]`, name)
		}
	}
}

func TestCommands_SortedByCategory(t *testing.T) {
	cmds := DefaultRegistry().Commands()
	for i := 1; i < len(cmds); i++ {
		prev, cur := cmds[i-1], cmds[i]
		assert.True(t, prev.Category < cur.Category ||
			(prev.Category == cur.Category && prev.Name < cur.Name))
	}
}

func TestNewRegistry_Collisions(t *testing.T) {
	_, err := NewRegistry([]Command{{Name: "roll"}, {Name: "roll"}})
	assert.Error(t, err)

	_, err = NewRegistry([]Command{{Name: "roll", Aliases: []string{"r"}}, {Name: "r"}})
	assert.Error(t, err)

	_, err = NewRegistry([]Command{{Name: "roll", Aliases: []string{"x"}}, {Name: "rpn", Aliases: []string{"x"}}})
	assert.Error(t, err)

	_, err = NewRegistry([]Command{{Name: "roll", Aliases: []string{"rpn"}}, {Name: "rpn"}})
	assert.Error(t, err)
}

// Property: every registered name and alias resolves to a command.
func TestProperty_EveryNameResolves(t *testing.T) {
	r := DefaultRegistry()
	cmds := BuiltinCommands()
	rapid.Check(t, func(t *rapid.T) {
		c := rapid.SampledFrom(cmds).Draw(t, "cmd")
		names := append([]string{c.Name}, c.Aliases...)
		name := rapid.SampledFrom(names).Draw(t, "name")
		got, ok := r.Resolve(name)
		if !ok || got.Name != c.Name {
			t.Fatalf("%q did not resolve to %q", name, c.Name)
		}
	})
}
