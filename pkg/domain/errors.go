package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by a Source when a path does not exist.
var ErrNotFound = errors.New("document not found")

// ValidationError reports that a manifest's structured data violates its schema.
// Err carries every violation (usually a *schema.AggregateError).
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid manifest %s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IncludeNotFoundError reports an include whose resolved file does not exist.
type IncludeNotFoundError struct {
	Path         string // resolved absolute path
	IncludedFrom string // including document
}

func (e *IncludeNotFoundError) Error() string {
	return fmt.Sprintf("include not found: %s (included from %s)", e.Path, e.IncludedFrom)
}

// InvalidIncludePathError reports a malformed or disallowed include path.
type InvalidIncludePathError struct {
	Raw          string
	IncludedFrom string
	Reason       string
}

func (e *InvalidIncludePathError) Error() string {
	return fmt.Sprintf("invalid include path %q in %s: %s", e.Raw, e.IncludedFrom, e.Reason)
}

// CircularIncludeError reports a cycle. Chain runs from the root to the repeated identity.
type CircularIncludeError struct {
	Chain []string
}

func (e *CircularIncludeError) Error() string {
	return "circular include: " + strings.Join(e.Chain, " -> ")
}

// MissingVariableError reports a strict render referencing an undefined variable.
type MissingVariableError struct {
	Name     string
	Document string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("undefined variable %q in %s", e.Name, e.Document)
}

// UnknownSectionError reports a section name a manifest does not declare.
type UnknownSectionError struct {
	Path    string
	Section string
}

func (e *UnknownSectionError) Error() string {
	return fmt.Sprintf("section %q not found in %s", e.Section, e.Path)
}

// TemplateSyntaxError reports markup the evaluator cannot parse.
type TemplateSyntaxError struct {
	Path string
	Line int
	Msg  string
}

func (e *TemplateSyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error in %s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("syntax error in %s: %s", e.Path, e.Msg)
}
