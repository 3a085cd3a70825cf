package document

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/settingsd/internal/binding"
	"github.com/eugenenazirov/settingsd/internal/palette"
)

type encodedDocument struct {
	Settings map[string]any  `yaml:"settings" toml:"settings" json:"settings"`
	Bindings []binding.Entry `yaml:"bindings,omitempty" toml:"bindings,omitempty" json:"bindings,omitempty"`
}

// Encode writes finalized options and bindings as a settings document. Option
// paths are written as dotted keys and literal ${ sequences are escaped, so
// loading the output reproduces the same mapping. TOML has no null, so
// nullable options that are unset are left out of TOML output.
func Encode(w io.Writer, format Format, options map[string]any, bindings []binding.Entry) error {
	doc := encodedDocument{Settings: make(map[string]any, len(options))}
	for path, value := range options {
		if value == nil && format == FormatTOML {
			continue
		}
		doc.Settings[path] = palette.EscapeValue(value)
	}
	for _, b := range bindings {
		doc.Bindings = append(doc.Bindings, binding.Entry{
			Trigger: b.Trigger,
			Command: palette.Escape(b.Command),
		})
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}
