package parser

import "fmt"

// LoadError reports a document that could not be read or is not well-formed XML.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to load document: %v", e.Err)
	}
	return fmt.Sprintf("failed to load document %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Reasons carried by ReferenceError.
const (
	ReasonUnresolved = "unresolved"
	ReasonDuplicate  = "duplicate"
	ReasonCycle      = "cycle"
	ReasonMissing    = "missing"
)

// ReferenceError reports a reference or required value that does not resolve
// to exactly one node.
type ReferenceError struct {
	ID     string
	Reason string
	Detail string
}

func (e *ReferenceError) Error() string {
	msg := fmt.Sprintf("reference %q: %s", e.ID, e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// NotFoundError reports a named lookup with no match.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// AmbiguousError reports a named lookup matching more than one element.
type AmbiguousError struct {
	Kind  string
	Name  string
	Count int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s %q is ambiguous: %d elements share that name", e.Kind, e.Name, e.Count)
}
