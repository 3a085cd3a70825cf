package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

func parseTOML(data []byte) (*Document, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	order := make(map[string]int, len(md.Keys()))
	for i, key := range md.Keys() {
		joined := strings.Join(key, "\x00")
		if _, seen := order[joined]; !seen {
			order[joined] = i
		}
	}

	doc := newDocument()
	for _, section := range orderedKeys(raw, nil, order) {
		val := raw[section]
		switch section {
		case "palette":
			if err := tomlPalette(doc, val); err != nil {
				return nil, err
			}
		case "settings":
			table, ok := val.(map[string]any)
			if !ok {
				return nil, syntaxErrorf(0, "settings must be a table")
			}
			doc.Settings = tomlEntries(table, []string{"settings"}, order)
		case "bindings":
			bindings, err := tomlBindings(val, order)
			if err != nil {
				return nil, err
			}
			doc.Bindings = bindings
		default:
			return nil, syntaxErrorf(0, "unknown section %q", section)
		}
	}
	return doc, nil
}

func tomlPalette(doc *Document, val any) error {
	table, ok := val.(map[string]any)
	if !ok {
		return syntaxErrorf(0, "palette must be a table of names to values")
	}
	for name, v := range table {
		switch v.(type) {
		case string, int64, float64, bool:
			doc.Palette[name] = fmt.Sprint(v)
		default:
			return syntaxErrorf(0, "palette constant %q must be a scalar", name)
		}
	}
	return nil
}

func tomlEntries(table map[string]any, prefix []string, order map[string]int) []Entry {
	keys := orderedKeys(table, prefix, order)
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		v := normalizeTOML(table[k])
		entry := Entry{Key: k, Value: v}
		if child, ok := v.(map[string]any); ok {
			entry.Children = tomlEntries(child, append(append([]string{}, prefix...), k), order)
		}
		entries = append(entries, entry)
	}
	return entries
}

func tomlBindings(val any, order map[string]int) ([]Binding, error) {
	switch v := val.(type) {
	case map[string]any:
		out := make([]Binding, 0, len(v))
		for _, trigger := range orderedKeys(v, []string{"bindings"}, order) {
			out = append(out, Binding{Trigger: trigger, Command: normalizeTOML(v[trigger])})
		}
		return out, nil
	case []map[string]any:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return tomlBindingList(items)
	case []any:
		return tomlBindingList(v)
	}
	return nil, syntaxErrorf(0, "bindings must be an array of tables or a table")
}

func tomlBindingList(items []any) ([]Binding, error) {
	out := make([]Binding, 0, len(items))
	for i, item := range items {
		table, ok := item.(map[string]any)
		if !ok {
			return nil, syntaxErrorf(0, "binding %d must be a table with key and command", i+1)
		}
		var b Binding
		for field, v := range table {
			switch field {
			case "key", "trigger":
				s, ok := v.(string)
				if !ok {
					return nil, syntaxErrorf(0, "binding %d: key must be a string", i+1)
				}
				b.Trigger = s
			case "command":
				b.Command = normalizeTOML(v)
			default:
				return nil, syntaxErrorf(0, "binding %d: unknown field %q", i+1, field)
			}
		}
		out = append(out, b)
	}
	return out, nil
}

// orderedKeys returns the keys of table in the order they appear in the
// source, falling back to alphabetical order for keys without metadata.
func orderedKeys(table map[string]any, prefix []string, order map[string]int) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	position := func(k string) int {
		full := append(append([]string{}, prefix...), k)
		if pos, ok := order[strings.Join(full, "\x00")]; ok {
			return pos
		}
		return len(order)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		pi, pj := position(keys[i]), position(keys[j])
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// normalizeTOML turns the decoder's table arrays into the generic shapes the
// YAML decoder produces.
func normalizeTOML(v any) any {
	switch val := v.(type) {
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeTOML(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeTOML(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeTOML(item)
		}
		return out
	}
	return v
}
