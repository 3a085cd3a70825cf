package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func parseYAML(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	doc := newDocument()
	if root.Kind == 0 || len(root.Content) == 0 {
		return doc, nil
	}

	top := resolve(root.Content[0])
	if isNull(top) {
		return doc, nil
	}
	if top.Kind != yaml.MappingNode {
		return nil, syntaxErrorf(top.Line, "document must be a mapping of sections")
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i], resolve(top.Content[i+1])
		if isNull(val) {
			continue
		}

		var err error
		switch key.Value {
		case "palette":
			err = yamlPalette(doc, val)
		case "settings":
			var entries []Entry
			entries, err = yamlEntries(val)
			doc.Settings = append(doc.Settings, entries...)
		case "bindings":
			var bindings []Binding
			bindings, err = yamlBindings(val)
			doc.Bindings = append(doc.Bindings, bindings...)
		default:
			err = syntaxErrorf(key.Line, "unknown section %q", key.Value)
		}
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func yamlPalette(doc *Document, node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return syntaxErrorf(node.Line, "palette must be a mapping of names to values")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], resolve(node.Content[i+1])
		if val.Kind != yaml.ScalarNode || isNull(val) {
			return syntaxErrorf(val.Line, "palette constant %q must be a scalar", key.Value)
		}
		doc.Palette[key.Value] = val.Value
	}
	return nil
}

func yamlEntries(node *yaml.Node) ([]Entry, error) {
	if node.Kind != yaml.MappingNode {
		return nil, syntaxErrorf(node.Line, "settings must be a mapping")
	}

	entries := make([]Entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], resolve(node.Content[i+1])
		if key.Kind != yaml.ScalarNode {
			return nil, syntaxErrorf(key.Line, "setting keys must be scalars")
		}

		entry := Entry{Key: key.Value, Line: key.Line}
		var value any
		if err := val.Decode(&value); err != nil {
			entry.Err = err
		} else {
			entry.Value = value
		}

		if val.Kind == yaml.MappingNode {
			children, err := yamlEntries(val)
			if err != nil {
				return nil, err
			}
			entry.Children = children
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func yamlBindings(node *yaml.Node) ([]Binding, error) {
	switch node.Kind {
	case yaml.MappingNode:
		out := make([]Binding, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], resolve(node.Content[i+1])
			var command any
			if err := val.Decode(&command); err != nil {
				return nil, syntaxErrorf(val.Line, "binding %q: %v", key.Value, err)
			}
			out = append(out, Binding{Trigger: key.Value, Command: command, Line: key.Line})
		}
		return out, nil

	case yaml.SequenceNode:
		out := make([]Binding, 0, len(node.Content))
		for _, item := range node.Content {
			item = resolve(item)
			if item.Kind != yaml.MappingNode {
				return nil, syntaxErrorf(item.Line, "binding must be a mapping with key and command")
			}
			b := Binding{Line: item.Line}
			for i := 0; i+1 < len(item.Content); i += 2 {
				field, val := item.Content[i], resolve(item.Content[i+1])
				switch field.Value {
				case "key", "trigger":
					b.Trigger = val.Value
				case "command":
					var command any
					if err := val.Decode(&command); err != nil {
						return nil, syntaxErrorf(val.Line, "binding command: %v", err)
					}
					b.Command = command
				default:
					return nil, syntaxErrorf(field.Line, "unknown binding field %q", field.Value)
				}
			}
			out = append(out, b)
		}
		return out, nil
	}
	return nil, syntaxErrorf(node.Line, "bindings must be a sequence or a mapping")
}

func resolve(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}
