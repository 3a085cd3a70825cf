// Package report renders schema listings, load errors and binding tables for
// the command line.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/eugenenazirov/settingsd/internal/binding"
	"github.com/eugenenazirov/settingsd/internal/loader"
	"github.com/eugenenazirov/settingsd/internal/schema"
)

const maxCellWidth = 60

// Options controls how tables are rendered.
type Options struct {
	// Color enables ANSI colors for status text.
	Color bool
}

// Writer renders tables to an output stream.
type Writer struct {
	out     io.Writer
	options Options
}

// New returns a Writer that renders to out.
func New(out io.Writer, options Options) *Writer {
	return &Writer{out: out, options: options}
}

func (w *Writer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w.out)
	t.SetStyle(table.StyleRounded)
	return t
}

// Schema lists every option with its type and default.
func (w *Writer) Schema(options []schema.Option) {
	t := w.newTable()
	t.AppendHeader(table.Row{"Option", "Type", "Default", "Description"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: maxCellWidth / 2},
		{Number: 4, WidthMax: maxCellWidth},
	})
	for _, opt := range options {
		typ := opt.Type.Name()
		if opt.Nullable {
			typ += "?"
		}
		t.AppendRow(table.Row{opt.Path, typ, FormatValue(opt.Default), opt.Description})
	}
	t.AppendFooter(table.Row{"", "", "Options", len(options)})
	t.Render()
}

// Issues reports the errors found in the document at path. It writes a
// single confirmation line when there are none.
func (w *Writer) Issues(path string, issues []loader.Issue) {
	if len(issues) == 0 {
		fmt.Fprintf(w.out, "%s %s\n", w.colorize(text.FgGreen, "OK"), path)
		return
	}

	t := w.newTable()
	t.SetTitle(fmt.Sprintf("%s: %d problem(s)", path, len(issues)))
	t.AppendHeader(table.Row{"Line", "Kind", "Subject", "Message", "Suggestion"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: maxCellWidth},
	})
	for _, issue := range issues {
		line := "-"
		if issue.Line > 0 {
			line = strconv.Itoa(issue.Line)
		}
		subject := issue.Path
		if subject == "" {
			subject = issue.Trigger
		}
		t.AppendRow(table.Row{line, w.colorize(text.FgRed, issue.Kind), subject, issue.Message, issue.Suggestion})
	}
	t.Render()
}

// Bindings lists key bindings in the given order.
func (w *Writer) Bindings(entries []binding.Entry) {
	t := w.newTable()
	t.AppendHeader(table.Row{"Trigger", "Command"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: maxCellWidth},
	})
	for _, e := range entries {
		t.AppendRow(table.Row{e.Trigger, e.Command})
	}
	t.Render()
}

// Settings lists option values ordered like the schema, skipping paths that
// are absent from values.
func (w *Writer) Settings(s *schema.Schema, values map[string]any) {
	t := w.newTable()
	t.AppendHeader(table.Row{"Option", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: maxCellWidth},
	})
	for _, path := range s.Paths() {
		v, ok := values[path]
		if !ok {
			continue
		}
		t.AppendRow(table.Row{path, FormatValue(v)})
	}
	t.Render()
}

func (w *Writer) colorize(color text.Color, s string) string {
	if !w.options.Color {
		return s
	}
	return color.Sprint(s)
}

// FormatValue renders a canonical option value on one line. Scalars are
// printed bare; lists and dicts use JSON notation.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool, int:
		return fmt.Sprint(val)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
