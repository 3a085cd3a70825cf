// Package loader turns a settings document into the finalized option mapping
// and binding table handed to the host.
package loader

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/eugenenazirov/settingsd/internal/binding"
	"github.com/eugenenazirov/settingsd/internal/document"
	"github.com/eugenenazirov/settingsd/internal/palette"
	"github.com/eugenenazirov/settingsd/internal/schema"
)

// Result holds the statements of a document that passed validation.
type Result struct {
	// Options maps option paths to canonical values.
	Options map[string]any
	// Bindings maps normalized triggers to commands.
	Bindings map[string]string
}

// BindingEntries returns the binding table ordered by trigger.
func (r *Result) BindingEntries() []binding.Entry {
	return binding.SortedEntries(r.Bindings)
}

// Len returns the number of options and bindings in the result.
func (r *Result) Len() int {
	return len(r.Options) + len(r.Bindings)
}

// Loader validates settings documents against a schema.
type Loader struct {
	schema *schema.Schema
	logger *zap.Logger
}

// New creates a Loader for the given schema.
func New(s *schema.Schema, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{schema: s, logger: logger}
}

// Schema returns the schema the loader validates against.
func (l *Loader) Schema() *schema.Schema {
	return l.schema
}

// LoadFile reads and loads the document at path.
func (l *Loader) LoadFile(path string) (*Result, error) {
	doc, err := document.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return l.Load(doc)
}

// LoadBytes parses data in the given format and loads it.
func (l *Loader) LoadBytes(data []byte, format document.Format) (*Result, error) {
	doc, err := document.Parse(data, format)
	if err != nil {
		return nil, err
	}
	return l.Load(doc)
}

// Load validates every statement of doc. Statements are processed in document
// order and later assignments win. Failing statements are skipped and their
// errors combined into the returned error; the result still holds everything
// that was valid. A nil result is returned only when the palette itself is
// unusable.
func (l *Loader) Load(doc *document.Document) (*Result, error) {
	pal, err := palette.New(doc.Palette)
	if err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}

	res := &Result{
		Options:  make(map[string]any),
		Bindings: make(map[string]string),
	}

	var errs error
	l.loadEntries(doc.Settings, "", pal, res, &errs)

	table := binding.NewTable()
	for _, b := range doc.Bindings {
		if err := l.bind(table, pal, b); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	res.Bindings = table.Map()

	l.logger.Debug("settings document loaded",
		zap.Int("options", len(res.Options)),
		zap.Int("bindings", len(res.Bindings)),
		zap.Int("palette", pal.Len()),
		zap.Int("errors", len(multierr.Errors(errs))),
	)
	return res, errs
}

func (l *Loader) loadEntries(entries []document.Entry, prefix string, pal *palette.Palette, res *Result, errs *error) {
	for _, entry := range entries {
		path := entry.Key
		if prefix != "" {
			path = prefix + "." + entry.Key
		}

		opt, ok := l.schema.Lookup(path)
		switch {
		case ok:
			if err := l.assign(opt, entry, pal, res); err != nil {
				*errs = multierr.Append(*errs, err)
			}
		case entry.Children != nil && l.schema.HasPrefix(path):
			l.loadEntries(entry.Children, path, pal, res, errs)
		default:
			*errs = multierr.Append(*errs, &UnknownOptionError{
				Path:       path,
				Line:       entry.Line,
				Suggestion: l.schema.Suggest(path),
			})
		}
	}
}

func (l *Loader) assign(opt schema.Option, entry document.Entry, pal *palette.Palette, res *Result) error {
	invalid := func(err error) error {
		return &InvalidValueError{Path: opt.Path, Value: entry.Value, Line: entry.Line, Err: err}
	}
	if entry.Err != nil {
		return invalid(entry.Err)
	}

	expanded, err := pal.ExpandValue(entry.Value)
	if err != nil {
		return invalid(err)
	}
	value, err := opt.Coerce(expanded)
	if err != nil {
		return invalid(err)
	}

	if _, exists := res.Options[opt.Path]; exists {
		l.logger.Debug("option assigned more than once", zap.String("path", opt.Path), zap.Int("line", entry.Line))
	}
	res.Options[opt.Path] = value
	return nil
}

func (l *Loader) bind(table *binding.Table, pal *palette.Palette, b document.Binding) error {
	malformed := func(command string, err error) error {
		return &MalformedBindingError{Trigger: b.Trigger, Command: command, Line: b.Line, Err: err}
	}

	command, ok := b.Command.(string)
	if !ok {
		return malformed(fmt.Sprint(b.Command), fmt.Errorf("%w: expected string, got %T", binding.ErrMalformedCommand, b.Command))
	}
	expanded, err := pal.Expand(command)
	if err != nil {
		return malformed(command, err)
	}

	replaced, err := table.Bind(b.Trigger, expanded)
	if err != nil {
		return malformed(command, err)
	}
	if replaced {
		l.logger.Debug("binding replaced", zap.String("trigger", b.Trigger), zap.Int("line", b.Line))
	}
	return nil
}
