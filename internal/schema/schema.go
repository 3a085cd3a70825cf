package schema

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// ErrInvalidSchema is returned by New when option definitions conflict or are malformed.
var ErrInvalidSchema = errors.New("invalid schema")

var pathPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z0-9_]+)*$`)

// Option describes one configuration key owned by the host.
type Option struct {
	Path        string
	Type        Type
	Default     any
	Nullable    bool
	Description string
}

// Section returns the first component of the option path.
func (o Option) Section() string {
	section, _, _ := strings.Cut(o.Path, ".")
	return section
}

// Coerce validates v for this option. A nil value is accepted only for
// nullable options.
func (o Option) Coerce(v any) (any, error) {
	if v == nil {
		if o.Nullable {
			return nil, nil
		}
		return nil, errors.New("value is required")
	}
	return o.Type.Coerce(v)
}

// Schema is an immutable set of options indexed by path.
type Schema struct {
	options  map[string]Option
	prefixes map[string]struct{}
	paths    []string
}

// New builds a Schema, rejecting malformed and duplicate paths as well as
// defaults that do not satisfy their own type.
func New(opts ...Option) (*Schema, error) {
	s := &Schema{
		options:  make(map[string]Option, len(opts)),
		prefixes: make(map[string]struct{}),
		paths:    make([]string, 0, len(opts)),
	}

	for _, opt := range opts {
		if !pathPattern.MatchString(opt.Path) {
			return nil, fmt.Errorf("%w: malformed option path %q", ErrInvalidSchema, opt.Path)
		}
		if opt.Type == nil {
			return nil, fmt.Errorf("%w: option %q has no type", ErrInvalidSchema, opt.Path)
		}
		if _, exists := s.options[opt.Path]; exists {
			return nil, fmt.Errorf("%w: duplicate option %q", ErrInvalidSchema, opt.Path)
		}
		if opt.Default != nil || !opt.Nullable {
			def, err := opt.Coerce(opt.Default)
			if err != nil {
				return nil, fmt.Errorf("%w: default of %q: %v", ErrInvalidSchema, opt.Path, err)
			}
			opt.Default = def
		}
		s.options[opt.Path] = opt
		s.paths = append(s.paths, opt.Path)

		parts := strings.Split(opt.Path, ".")
		for i := 1; i < len(parts); i++ {
			s.prefixes[strings.Join(parts[:i], ".")] = struct{}{}
		}
	}

	sort.Strings(s.paths)
	return s, nil
}

// MustNew is like New but panics on error. It is meant for package-level schemas.
func MustNew(opts ...Option) *Schema {
	s, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns the option registered at path.
func (s *Schema) Lookup(path string) (Option, bool) {
	opt, ok := s.options[path]
	return opt, ok
}

// HasPrefix reports whether at least one option lives below path.
func (s *Schema) HasPrefix(path string) bool {
	_, ok := s.prefixes[path]
	return ok
}

// Paths returns all option paths in sorted order.
func (s *Schema) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Options returns all options sorted by path.
func (s *Schema) Options() []Option {
	out := make([]Option, 0, len(s.paths))
	for _, p := range s.paths {
		out = append(out, s.options[p])
	}
	return out
}

// Len returns the number of options.
func (s *Schema) Len() int {
	return len(s.paths)
}

// Defaults returns the default value of every option that has one.
func (s *Schema) Defaults() map[string]any {
	out := make(map[string]any, len(s.paths))
	for _, p := range s.paths {
		if def := s.options[p].Default; def != nil {
			out[p] = Clone(def)
		}
	}
	return out
}

// Suggest returns the known option path closest to path, or "" when nothing
// resembles it.
func (s *Schema) Suggest(path string) string {
	if matches := fuzzy.Find(path, s.paths); len(matches) > 0 {
		return matches[0].Str
	}
	// fall back to the last component so that a wrong section still finds the key
	if idx := strings.LastIndex(path, "."); idx >= 0 && idx < len(path)-1 {
		if matches := fuzzy.Find(path[idx:], s.paths); len(matches) > 0 {
			return matches[0].Str
		}
	}
	return ""
}

// Clone returns a deep copy of a canonical value.
func Clone(v any) any {
	switch val := v.(type) {
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, s := range val {
			out[k] = s
		}
		return out
	}
	return v
}
