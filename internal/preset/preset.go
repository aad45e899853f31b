// Package preset loads named dice expressions from YAML.
package preset

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/gamzia/internal/dice"
	"github.com/cory-johannsen/gamzia/internal/rpn"
)

// Preset is a named expression.
//
// Precondition: Name and Expression must be non-empty.
type Preset struct {
	Name        string `yaml:"name" json:"name"`
	Expression  string `yaml:"expression" json:"expression"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// Validate checks the preset's fields and that Expression parses under ops.
func (p *Preset) Validate(ops rpn.OperatorTable) error {
	if p.Name == "" {
		return errors.New("preset: name must not be empty")
	}
	if strings.IndexFunc(p.Name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("preset %q: name must not contain whitespace", p.Name)
	}
	if strings.TrimSpace(p.Expression) == "" {
		return fmt.Errorf("preset %q: expression must not be empty", p.Name)
	}
	if _, err := rpn.Parse(p.Expression, ops); err != nil {
		return fmt.Errorf("preset %q: %w", p.Name, err)
	}
	return nil
}

// Set is an ordered collection of presets with case-insensitive lookup.
//
// Invariant: names are unique ignoring case.
type Set struct {
	presets []Preset
	byName  map[string]int
}

// yamlPresetFile wraps the YAML top-level key.
type yamlPresetFile struct {
	Presets []Preset `yaml:"presets"`
}

// Parse decodes and validates a presets document. Expressions are checked
// against the dice operator table.
//
// Postcondition: returns error on malformed YAML, a missing 'presets' key,
// an invalid preset, or a duplicate name.
func Parse(data []byte) (*Set, error) {
	var f yamlPresetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("preset.Parse: %w", err)
	}
	if f.Presets == nil {
		return nil, errors.New("preset.Parse: missing top-level 'presets' key")
	}
	return NewSet(f.Presets...)
}

// NewSet validates presets and builds a Set in the given order.
func NewSet(presets ...Preset) (*Set, error) {
	ops := dice.Operators()
	s := &Set{byName: make(map[string]int, len(presets))}
	for _, p := range presets {
		if err := p.Validate(ops); err != nil {
			return nil, err
		}
		key := strings.ToLower(p.Name)
		if _, dup := s.byName[key]; dup {
			return nil, fmt.Errorf("preset: duplicate name %q", p.Name)
		}
		s.byName[key] = len(s.presets)
		s.presets = append(s.presets, p)
	}
	return s, nil
}

// Load reads and parses the presets file at path.
//
// Precondition: path must be a readable YAML file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preset.Load: reading %q: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("preset.Load: %s: %w", path, err)
	}
	return s, nil
}

// Lookup returns the preset named name, ignoring case.
func (s *Set) Lookup(name string) (Preset, bool) {
	if s == nil {
		return Preset{}, false
	}
	i, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return Preset{}, false
	}
	return s.presets[i], true
}

// Expand returns the preset's expression when input names a preset, and
// input unchanged otherwise.
func (s *Set) Expand(input string) string {
	if p, ok := s.Lookup(strings.TrimSpace(input)); ok {
		return p.Expression
	}
	return input
}

// All returns the presets in file order.
func (s *Set) All() []Preset {
	if s == nil {
		return nil
	}
	out := make([]Preset, len(s.presets))
	copy(out, s.presets)
	return out
}

// Names returns the preset names sorted alphabetically.
func (s *Set) Names() []string {
	out := make([]string, 0, s.Len())
	for _, p := range s.All() {
		out = append(out, p.Name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of presets.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.presets)
}
