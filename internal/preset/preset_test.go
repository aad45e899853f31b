package preset_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/gamzia/internal/preset"
	"github.com/cory-johannsen/gamzia/internal/rpn"
)

const sample = `
presets:
  - name: fireball
    expression: 8d6
    description: Third-level evocation.
  - name: stats
    expression: 4d6-1d6
  - name: Crit
    expression: "(1d20+5)*2"
`

func TestParse(t *testing.T) {
	s, err := preset.Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	p, ok := s.Lookup("FIREBALL")
	require.True(t, ok)
	assert.Equal(t, "8d6", p.Expression)
	assert.Equal(t, "Third-level evocation.", p.Description)

	all := s.All()
	assert.Equal(t, "fireball", all[0].Name)
	assert.Equal(t, "Crit", all[2].Name)
	assert.Equal(t, []string{"Crit", "fireball", "stats"}, s.Names())
}

func TestExpand(t *testing.T) {
	s, err := preset.Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "(1d20+5)*2", s.Expand(" crit "))
	assert.Equal(t, "2d4", s.Expand("2d4"))

	var empty *preset.Set
	assert.Equal(t, "2d4", empty.Expand("2d4"))
	assert.Zero(t, empty.Len())
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"missing key": "other: []\n",
		"bad yaml":    "presets: [\n",
		"empty name":  "presets:\n  - expression: 1d6\n",
		"space name":  "presets:\n  - name: big hit\n    expression: 1d6\n",
		"empty expr":  "presets:\n  - name: x\n    expression: '  '\n",
		"unparsable":  "presets:\n  - name: x\n    expression: (1d6\n",
		"stray close": "presets:\n  - name: x\n    expression: 1d6)\n",
		"duplicate":   "presets:\n  - name: x\n    expression: 1d6\n  - name: X\n    expression: 1d8\n",
	}
	for name, doc := range cases {
		_, err := preset.Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestParse_UnparsableWrapsParseError(t *testing.T) {
	_, err := preset.Parse([]byte("presets:\n  - name: x\n    expression: (1d6\n"))
	var pe *rpn.ParseError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, rpn.ErrUnmatchedOpen)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))
	s, err := preset.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	_, err = preset.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_RepositoryPresets(t *testing.T) {
	s, err := preset.Load("../../configs/presets.yaml")
	require.NoError(t, err)
	assert.Greater(t, s.Len(), 0)
}

// Property: every generated valid preset is retrievable by any casing of its name.
func TestProperty_LookupIgnoresCase(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[a-z][a-z0-9_]{0,12}`).Draw(t, "name")
		n := rapid.IntRange(1, 9).Draw(t, "n")
		m := rapid.IntRange(1, 20).Draw(t, "m")
		expr := fmt.Sprintf("%dd%d", n, m)

		s, err := preset.NewSet(preset.Preset{Name: name, Expression: expr})
		require.NoError(t, err)
		p, ok := s.Lookup(strings.ToUpper(name))
		require.True(t, ok)
		assert.Equal(t, expr, p.Expression)
	})
}
