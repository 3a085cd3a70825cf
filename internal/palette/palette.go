// Package palette resolves named constants, such as the colours of a theme,
// into settings values. A reference is written ${name}; $${ produces a literal
// ${. Constants are plain strings and are gone once values are expanded.
package palette

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrUndefinedConstant is returned when a value references an unknown constant.
	ErrUndefinedConstant = errors.New("undefined constant")
	// ErrInvalidName is returned for constant names that cannot be referenced.
	ErrInvalidName = errors.New("invalid constant name")
)

var (
	namePattern      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	referencePattern = regexp.MustCompile(`\$\$\{|\$\{([^}]*)\}`)
)

// Palette is an immutable set of named string constants.
type Palette struct {
	constants map[string]string
}

// New validates the constant names and returns a Palette holding a copy of them.
func New(constants map[string]string) (*Palette, error) {
	p := &Palette{constants: make(map[string]string, len(constants))}
	for name, value := range constants {
		if !namePattern.MatchString(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
		p.constants[name] = value
	}
	return p, nil
}

// Empty returns a palette with no constants.
func Empty() *Palette {
	return &Palette{constants: map[string]string{}}
}

// Lookup returns the value of a constant.
func (p *Palette) Lookup(name string) (string, bool) {
	v, ok := p.constants[name]
	return v, ok
}

// Names returns the constant names in sorted order.
func (p *Palette) Names() []string {
	names := make([]string, 0, len(p.constants))
	for name := range p.constants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of constants.
func (p *Palette) Len() int {
	return len(p.constants)
}

// Expand replaces every ${name} reference in s.
func (p *Palette) Expand(s string) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}

	var missing []string
	out := referencePattern.ReplaceAllStringFunc(s, func(match string) string {
		if match == "$${" {
			return "${"
		}
		name := match[2 : len(match)-1]
		value, ok := p.constants[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w %q", ErrUndefinedConstant, missing[0])
	}
	return out, nil
}

// ExpandValue expands references in strings, recursing into sequences and
// string-keyed mappings. Other values are returned unchanged.
func (p *Palette) ExpandValue(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return p.Expand(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			expanded, err := p.ExpandValue(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = expanded
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			expanded, err := p.ExpandValue(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = expanded
		}
		return out, nil
	}
	return v, nil
}

// Escape protects literal ${ sequences so that Expand returns s unchanged.
func Escape(s string) string {
	return strings.ReplaceAll(s, "${", "$${")
}

// EscapeValue applies Escape to every string inside a canonical settings value.
func EscapeValue(v any) any {
	switch val := v.(type) {
	case string:
		return Escape(val)
	case []string:
		out := make([]string, len(val))
		for i, s := range val {
			out[i] = Escape(s)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, s := range val {
			out[k] = Escape(s)
		}
		return out
	}
	return v
}
