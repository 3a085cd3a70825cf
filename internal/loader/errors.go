package loader

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// UnknownOptionError reports an assignment to a path the schema does not define.
type UnknownOptionError struct {
	Path string
	Line int
	// Suggestion is the closest known path, if any.
	Suggestion string
}

func (e *UnknownOptionError) Error() string {
	msg := fmt.Sprintf("unknown option %q", e.Path)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return withLine(e.Line, msg)
}

// InvalidValueError reports a value that does not satisfy its option's type.
type InvalidValueError struct {
	Path  string
	Value any
	Line  int
	Err   error
}

func (e *InvalidValueError) Error() string {
	return withLine(e.Line, fmt.Sprintf("invalid value for %q: %v", e.Path, e.Err))
}

func (e *InvalidValueError) Unwrap() error {
	return e.Err
}

// MalformedBindingError reports a binding whose trigger or command fails the
// syntax check.
type MalformedBindingError struct {
	Trigger string
	Command string
	Line    int
	Err     error
}

func (e *MalformedBindingError) Error() string {
	return withLine(e.Line, fmt.Sprintf("malformed binding %q: %v", e.Trigger, e.Err))
}

func (e *MalformedBindingError) Unwrap() error {
	return e.Err
}

// Errors splits an error returned by the loader into the individual
// statement errors.
func Errors(err error) []error {
	return multierr.Errors(err)
}

// Issue kinds.
const (
	KindUnknownOption    = "unknown_option"
	KindInvalidValue     = "invalid_value"
	KindMalformedBinding = "malformed_binding"
	KindDocument         = "document"
)

// Issue is a flat description of one load error, suitable for reports.
type Issue struct {
	Kind       string `json:"kind"`
	Path       string `json:"path,omitempty"`
	Trigger    string `json:"trigger,omitempty"`
	Line       int    `json:"line,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Issues describes every error contained in err.
func Issues(err error) []Issue {
	errs := Errors(err)
	out := make([]Issue, 0, len(errs))
	for _, e := range errs {
		out = append(out, describe(e))
	}
	return out
}

func describe(err error) Issue {
	var (
		unknown   *UnknownOptionError
		invalid   *InvalidValueError
		malformed *MalformedBindingError
	)
	switch {
	case errors.As(err, &unknown):
		return Issue{Kind: KindUnknownOption, Path: unknown.Path, Line: unknown.Line,
			Message: fmt.Sprintf("unknown option %q", unknown.Path), Suggestion: unknown.Suggestion}
	case errors.As(err, &invalid):
		return Issue{Kind: KindInvalidValue, Path: invalid.Path, Line: invalid.Line, Message: invalid.Err.Error()}
	case errors.As(err, &malformed):
		return Issue{Kind: KindMalformedBinding, Trigger: malformed.Trigger, Line: malformed.Line, Message: malformed.Err.Error()}
	}
	return Issue{Kind: KindDocument, Message: err.Error()}
}

func withLine(line int, msg string) string {
	if line > 0 {
		return fmt.Sprintf("line %d: %s", line, msg)
	}
	return msg
}
