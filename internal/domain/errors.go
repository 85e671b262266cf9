package domain

import (
	"fmt"
	"strings"
)

// FieldError is a single violation found while validating a document.
type FieldError struct {
	Path   string // dotted/bracketed location, e.g. "smb.shares[1].name"
	Reason string
}

func (e FieldError) Error() string {
	path := e.Path
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("%s: %s", path, e.Reason)
}

// ValidationError collects every violation found in one validation pass.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "invalid configuration: " + e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid configuration: %d errors", len(e.Errors))
	for _, fe := range e.Errors {
		b.WriteString("\n  ")
		b.WriteString(fe.Error())
	}
	return b.String()
}

// Has reports whether a violation was recorded for path.
func (e *ValidationError) Has(path string) bool {
	return e.Lookup(path) != nil
}

// Lookup returns the first violation recorded for path, or nil.
func (e *ValidationError) Lookup(path string) *FieldError {
	for i := range e.Errors {
		if e.Errors[i].Path == path {
			return &e.Errors[i]
		}
	}
	return nil
}

// Paths returns the path of every violation in report order.
func (e *ValidationError) Paths() []string {
	paths := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		paths = append(paths, fe.Path)
	}
	return paths
}

// Reasons reported in FieldError.Reason.
const (
	ReasonRequired = "field required"
	ReasonUnknown  = "unknown field"
	ReasonPositive = "must be positive"
)
