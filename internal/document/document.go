package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrSyntax wraps every error caused by a document that cannot be parsed.
	ErrSyntax = errors.New("syntax error")
	// ErrUnsupportedFormat is returned for unknown document formats.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// Format identifies the syntax of a settings document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// ParseFormat maps a format name (or file extension without the dot) to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// FormatFromPath derives the Format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Entry is one key of the settings section. Nested mappings keep their keys in
// Children, in document order, so that they can be flattened into dotted
// option paths.
type Entry struct {
	Key      string
	Value    any
	Line     int
	Children []Entry
	// Err is set when Value could not be decoded; it only matters if the
	// entry turns out to be an option assignment.
	Err error
}

// Binding is one registration from the bindings section. Command is left
// undecoded so that non-string commands can be reported by the loader.
type Binding struct {
	Trigger string
	Command any
	Line    int
}

// Document is the parsed, not yet validated, content of a settings document.
type Document struct {
	Palette  map[string]string
	Settings []Entry
	Bindings []Binding
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) (*Document, error) {
	switch format {
	case FormatYAML, FormatJSON:
		// JSON documents are valid YAML and share the node based decoder.
		return parseYAML(data)
	case FormatTOML:
		return parseTOML(data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// ParseFile reads and decodes the document at path, taking the format from
// its extension.
func ParseFile(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func newDocument() *Document {
	return &Document{Palette: map[string]string{}}
}

func syntaxErrorf(line int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if line > 0 {
		return fmt.Errorf("%w: line %d: %s", ErrSyntax, line, msg)
	}
	return fmt.Errorf("%w: %s", ErrSyntax, msg)
}
