package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/eugenenazirov/settingsd/internal/document"
	"github.com/eugenenazirov/settingsd/internal/loader"
	"github.com/eugenenazirov/settingsd/internal/report"
	"github.com/eugenenazirov/settingsd/internal/schema"
)

// checkSettings reports every problem in the document at path. It returns
// false when the document has problems; err is reserved for documents that
// cannot be read or parsed at all.
func checkSettings(out io.Writer, l *loader.Loader, path string, show, color bool) (bool, error) {
	res, loadErr := l.LoadFile(path)
	if res == nil {
		return false, loadErr
	}

	w := report.New(out, report.Options{Color: color})
	w.Issues(path, loader.Issues(loadErr))
	if show {
		w.Settings(l.Schema(), res.Options)
		w.Bindings(res.BindingEntries())
	}
	return loadErr == nil, nil
}

// dumpSettings writes the validated content of the document at path in the
// requested format. Documents with errors are refused.
func dumpSettings(out io.Writer, l *loader.Loader, path string, format document.Format, all bool) error {
	res, err := l.LoadFile(path)
	if err != nil {
		return fmt.Errorf("%s is not valid, run check for details: %w", path, err)
	}

	options := res.Options
	if all {
		options = l.Schema().Defaults()
		for p, v := range res.Options {
			options[p] = v
		}
	}
	return document.Encode(out, format, options, res.BindingEntries())
}

// listSchema prints the options of section, or all options when section is
// empty.
func listSchema(out io.Writer, s *schema.Schema, section string) error {
	options := s.Options()
	if section != "" {
		filtered := options[:0]
		for _, opt := range options {
			if opt.Section() == section {
				filtered = append(filtered, opt)
			}
		}
		if len(filtered) == 0 {
			return fmt.Errorf("unknown section %q", section)
		}
		options = filtered
	}
	report.New(out, report.Options{}).Schema(options)
	return nil
}

// initSettings writes the sample document to path. YAML destinations get the
// sample verbatim; other formats get its validated content.
func initSettings(l *loader.Loader, path string, force bool) error {
	format, err := document.FormatFromPath(path)
	if err != nil {
		return err
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	data := document.Sample
	if format != document.FormatYAML {
		res, err := l.LoadBytes(document.Sample, document.FormatYAML)
		if err != nil {
			return fmt.Errorf("load sample: %w", err)
		}
		var buf bytes.Buffer
		if err := document.Encode(&buf, format, res.Options, res.BindingEntries()); err != nil {
			return err
		}
		data = buf.Bytes()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
