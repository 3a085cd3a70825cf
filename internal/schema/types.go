package schema

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Type validates a raw value decoded from a settings document and converts it
// into its canonical Go representation.
type Type interface {
	// Name is a short human-readable description used in errors and listings.
	Name() string
	// Coerce returns the canonical form of v or an error describing why v is
	// not acceptable.
	Coerce(v any) (any, error)
}

// Bool accepts booleans and the usual textual spellings of them.
type Bool struct{}

func (Bool) Name() string { return "bool" }

func (Bool) Coerce(v any) (any, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		if b, ok := parseBoolString(val); ok {
			return b, nil
		}
		return nil, fmt.Errorf("invalid boolean %q", val)
	default:
		return nil, fmt.Errorf("expected boolean, got %s", describe(v))
	}
}

func parseBoolString(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, true
	case "false", "no", "off", "0":
		return false, true
	}
	return false, false
}

// BoolAsk is a boolean that may also be "ask", deferring the decision to the user.
type BoolAsk struct{}

func (BoolAsk) Name() string { return "bool|ask" }

func (BoolAsk) Coerce(v any) (any, error) {
	if s, ok := v.(string); ok && strings.EqualFold(strings.TrimSpace(s), "ask") {
		return "ask", nil
	}
	b, err := Bool{}.Coerce(v)
	if err != nil {
		return nil, fmt.Errorf("expected boolean or \"ask\", got %s", describe(v))
	}
	return b, nil
}

// Int accepts whole numbers within an optional inclusive range.
type Int struct {
	Min *int
	Max *int
}

// IntRange is a convenience constructor for a bounded Int.
func IntRange(lo, hi int) Int {
	return Int{Min: &lo, Max: &hi}
}

// IntMin is a convenience constructor for an Int with only a lower bound.
func IntMin(lo int) Int {
	return Int{Min: &lo}
}

func (t Int) Name() string {
	switch {
	case t.Min != nil && t.Max != nil:
		return fmt.Sprintf("int(%d..%d)", *t.Min, *t.Max)
	case t.Min != nil:
		return fmt.Sprintf("int(>=%d)", *t.Min)
	case t.Max != nil:
		return fmt.Sprintf("int(<=%d)", *t.Max)
	}
	return "int"
}

func (t Int) Coerce(v any) (any, error) {
	n, err := toInt(v)
	if err != nil {
		return nil, err
	}
	if t.Min != nil && n < *t.Min {
		return nil, fmt.Errorf("value %d is below minimum %d", n, *t.Min)
	}
	if t.Max != nil && n > *t.Max {
		return nil, fmt.Errorf("value %d is above maximum %d", n, *t.Max)
	}
	return n, nil
}

func toInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return 0, fmt.Errorf("integer %d out of range", val)
		}
		return int(val), nil
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return 0, fmt.Errorf("expected integer, got %v", val)
		}
		if val >= math.MaxInt64 || val < math.MinInt64 {
			return 0, fmt.Errorf("integer %v out of range", val)
		}
		return int(val), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", val)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected integer, got %s", describe(v))
	}
}

// String accepts any string; empty strings only when AllowEmpty is set.
type String struct {
	AllowEmpty bool
}

func (String) Name() string { return "string" }

func (t String) Coerce(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %s", describe(v))
	}
	if s == "" && !t.AllowEmpty {
		return nil, fmt.Errorf("value may not be empty")
	}
	return s, nil
}

// Enum accepts one of a fixed set of strings.
type Enum struct {
	Values []string
}

func (t Enum) Name() string { return strings.Join(t.Values, "|") }

func (t Enum) Coerce(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected one of %s, got %s", t.Name(), describe(v))
	}
	if !slices.Contains(t.Values, s) {
		return nil, fmt.Errorf("invalid value %q, expected one of %s", s, t.Name())
	}
	return s, nil
}

var (
	hexColorPattern  = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8}|[0-9a-fA-F]{9}|[0-9a-fA-F]{12})$`)
	funcColorPattern = regexp.MustCompile(`^(rgb|rgba|hsv|hsva)\(\s*([^)]*)\)$`)
	colorArgPattern  = regexp.MustCompile(`^\d+(\.\d+)?%?$`)
)

var namedColors = []string{
	"aqua", "black", "blue", "brown", "crimson", "cyan", "darkblue", "darkgray",
	"darkgreen", "darkgrey", "darkorange", "darkred", "fuchsia", "gold", "gray",
	"green", "grey", "indigo", "lightgray", "lightgrey", "lime", "magenta",
	"maroon", "navy", "olive", "orange", "pink", "purple", "red", "silver",
	"teal", "transparent", "violet", "white", "yellow",
}

// Color accepts hex colours, rgb()/rgba()/hsv()/hsva() notations and a set
// of CSS colour names.
type Color struct{}

func (Color) Name() string { return "color" }

func (Color) Coerce(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected color string, got %s", describe(v))
	}
	if isColor(s) {
		return s, nil
	}
	return nil, fmt.Errorf("invalid color %q", s)
}

func isColor(s string) bool {
	if hexColorPattern.MatchString(s) {
		return true
	}
	if m := funcColorPattern.FindStringSubmatch(s); m != nil {
		args := strings.Split(m[2], ",")
		want := 3
		if strings.HasSuffix(m[1], "a") {
			want = 4
		}
		if len(args) != want {
			return false
		}
		for _, arg := range args {
			if !colorArgPattern.MatchString(strings.TrimSpace(arg)) {
				return false
			}
		}
		return true
	}
	return slices.Contains(namedColors, strings.ToLower(s))
}

// URL accepts an absolute URL or a bare host such as "duckduckgo.com".
type URL struct{}

func (URL) Name() string { return "url" }

func (URL) Coerce(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected url string, got %s", describe(v))
	}
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("url may not be empty")
	}
	if strings.ContainsAny(s, " \t\n") {
		return nil, fmt.Errorf("invalid url %q: contains whitespace", s)
	}
	if _, err := url.Parse(s); err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", s, err)
	}
	return s, nil
}

var searchPlaceholders = []string{"{}", "{quoted}", "{semiquoted}", "{unquoted}"}

// SearchEngineURL is an absolute URL template carrying a search placeholder.
type SearchEngineURL struct{}

func (SearchEngineURL) Name() string { return "search-url" }

func (SearchEngineURL) Coerce(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected search engine url, got %s", describe(v))
	}
	found := false
	for _, p := range searchPlaceholders {
		if strings.Contains(s, p) {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("search engine url %q has no {} placeholder", s)
	}
	probe := s
	for _, p := range searchPlaceholders {
		probe = strings.ReplaceAll(probe, p, "x")
	}
	u, err := url.Parse(probe)
	if err != nil {
		return nil, fmt.Errorf("invalid search engine url %q: %w", s, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("search engine url %q must be absolute", s)
	}
	return s, nil
}

// PercOrInt accepts a percentage string like "50%" or a non-negative integer.
type PercOrInt struct{}

func (PercOrInt) Name() string { return "perc|int" }

func (PercOrInt) Coerce(v any) (any, error) {
	if s, ok := v.(string); ok && strings.HasSuffix(s, "%") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "%"))
		if err != nil || n < 0 || n > 100 {
			return nil, fmt.Errorf("invalid percentage %q", s)
		}
		return s, nil
	}
	n, err := toInt(v)
	if err != nil {
		return nil, fmt.Errorf("expected percentage or integer, got %s", describe(v))
	}
	if n < 0 {
		return nil, fmt.Errorf("value %d is below minimum 0", n)
	}
	return n, nil
}

var fontSizePattern = regexp.MustCompile(`^\d+(\.\d+)?(pt|px)$`)

// FontSize accepts sizes such as "10pt" or "13px".
type FontSize struct{}

func (FontSize) Name() string { return "font-size" }

func (FontSize) Coerce(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected font size, got %s", describe(v))
	}
	if !fontSizePattern.MatchString(s) {
		return nil, fmt.Errorf("invalid font size %q, expected e.g. 10pt or 13px", s)
	}
	return s, nil
}

// FontFamily accepts one family name or a fallback list of them and always
// yields a list.
type FontFamily struct{}

func (FontFamily) Name() string { return "font-family" }

func (FontFamily) Coerce(v any) (any, error) {
	if s, ok := v.(string); ok {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("font family may not be empty")
		}
		return []string{s}, nil
	}
	return List{Elem: String{}}.Coerce(v)
}

// Directory accepts a filesystem path. A leading ~ is kept as written; the
// host expands it.
type Directory struct{}

func (Directory) Name() string { return "directory" }

func (Directory) Coerce(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected directory path, got %s", describe(v))
	}
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("directory may not be empty")
	}
	if strings.ContainsRune(s, 0) {
		return nil, fmt.Errorf("directory %q contains a NUL byte", s)
	}
	return s, nil
}

// List is a sequence of strings, each checked by Elem.
type List struct {
	Elem Type
	// Unique rejects repeated elements.
	Unique bool
}

func (t List) Name() string { return "list<" + t.Elem.Name() + ">" }

func (t List) Coerce(v any) (any, error) {
	var items []any
	switch val := v.(type) {
	case []any:
		items = val
	case []string:
		items = make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
	default:
		return nil, fmt.Errorf("expected list, got %s", describe(v))
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		cv, err := t.Elem.Coerce(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		s, ok := cv.(string)
		if !ok {
			return nil, fmt.Errorf("item %d: expected string, got %s", i, describe(cv))
		}
		if t.Unique && slices.Contains(out, s) {
			return nil, fmt.Errorf("item %d: duplicate value %q", i, s)
		}
		out = append(out, s)
	}
	return out, nil
}

// Dict is a string-keyed mapping whose values are checked by Value.
type Dict struct {
	Value    Type
	Required []string
}

func (t Dict) Name() string { return "dict<" + t.Value.Name() + ">" }

func (t Dict) Coerce(v any) (any, error) {
	var entries map[string]any
	switch val := v.(type) {
	case map[string]any:
		entries = val
	case map[string]string:
		entries = make(map[string]any, len(val))
		for k, s := range val {
			entries[k] = s
		}
	default:
		return nil, fmt.Errorf("expected mapping, got %s", describe(v))
	}

	out := make(map[string]string, len(entries))
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "" {
			return nil, fmt.Errorf("mapping keys may not be empty")
		}
		cv, err := t.Value.Coerce(entries[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		s, ok := cv.(string)
		if !ok {
			return nil, fmt.Errorf("key %q: expected string, got %s", k, describe(cv))
		}
		out[k] = s
	}
	for _, req := range t.Required {
		if _, ok := out[req]; !ok {
			return nil, fmt.Errorf("missing required key %q", req)
		}
	}
	return out, nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case int, int64, uint64:
		return "integer"
	case float64:
		return "number"
	case string:
		return "string"
	case []any, []string:
		return "list"
	case map[string]any, map[string]string:
		return "mapping"
	}
	return fmt.Sprintf("%T", v)
}
