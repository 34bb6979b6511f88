package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind names the class of err, e.g. "circular_include". It is stable and
// suitable for metric labels and machine-readable output.
func ErrorKind(err error) string {
	var (
		validation  *ValidationError
		notFound    *IncludeNotFoundError
		invalidPath *InvalidIncludePathError
		cycle       *CircularIncludeError
		missing     *MissingVariableError
		section     *UnknownSectionError
		syntax      *TemplateSyntaxError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &cycle):
		return "circular_include"
	case errors.As(err, &notFound):
		return "include_not_found"
	case errors.As(err, &invalidPath):
		return "invalid_include_path"
	case errors.As(err, &missing):
		return "missing_variable"
	case errors.As(err, &section):
		return "unknown_section"
	case errors.As(err, &syntax):
		return "syntax_error"
	case errors.As(err, &validation):
		return "invalid_manifest"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// ErrorReport is the machine-readable form of an error returned by the engine.
type ErrorReport struct {
	Kind       string   `json:"kind"`
	Message    string   `json:"message"`
	Document   string   `json:"document,omitempty"`
	Variable   string   `json:"variable,omitempty"`
	Section    string   `json:"section,omitempty"`
	Line       int      `json:"line,omitempty"`
	Chain      []string `json:"chain,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

// ReportError extracts the details carried by the typed error inside err.
func ReportError(err error) ErrorReport {
	r := ErrorReport{Kind: ErrorKind(err)}
	if err == nil {
		return r
	}
	r.Message = err.Error()

	var (
		validation  *ValidationError
		notFound    *IncludeNotFoundError
		invalidPath *InvalidIncludePathError
		cycle       *CircularIncludeError
		missing     *MissingVariableError
		section     *UnknownSectionError
		syntax      *TemplateSyntaxError
	)
	switch {
	case errors.As(err, &cycle):
		r.Chain = cycle.Chain
	case errors.As(err, &notFound):
		r.Document = notFound.IncludedFrom
		r.Chain = []string{notFound.IncludedFrom, notFound.Path}
	case errors.As(err, &invalidPath):
		r.Document = invalidPath.IncludedFrom
	case errors.As(err, &missing):
		r.Document = missing.Document
		r.Variable = missing.Name
	case errors.As(err, &section):
		r.Document = section.Path
		r.Section = section.Section
	case errors.As(err, &syntax):
		r.Document = syntax.Path
		r.Line = syntax.Line
	case errors.As(err, &validation):
		r.Document = validation.Path
		r.Violations = violations(validation.Err)
	}
	return r
}

// violations flattens an error joining several failures into one line each.
func violations(err error) []string {
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range multi.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{fmt.Sprint(err)}
}
