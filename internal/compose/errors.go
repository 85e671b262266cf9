package compose

import "fmt"

// MissingSecretError is returned when the environment variable named by a
// secret reference is not set.
type MissingSecretError struct {
	EnvVar string
	Field  string // configuration field holding the reference
}

func (e *MissingSecretError) Error() string {
	return fmt.Sprintf("missing secret: environment variable %s (referenced by %s) is not set", e.EnvVar, e.Field)
}

// TemplateRenderError is returned when the boot-config template cannot be
// rendered. Placeholder names the first reference the data could not satisfy;
// it is empty when the template itself failed to parse.
type TemplateRenderError struct {
	Template    string
	Placeholder string
	Err         error
}

func (e *TemplateRenderError) Error() string {
	if e.Placeholder != "" {
		return fmt.Sprintf("render %s: undefined placeholder %q: %v", e.Template, e.Placeholder, e.Err)
	}
	return fmt.Sprintf("render %s: %v", e.Template, e.Err)
}

func (e *TemplateRenderError) Unwrap() error { return e.Err }

// NetworkArithmeticError is returned when no gateway can be derived from an
// interface address.
type NetworkArithmeticError struct {
	Address string
	Reason  string
}

func (e *NetworkArithmeticError) Error() string {
	return fmt.Sprintf("cannot derive gateway from %q: %s", e.Address, e.Reason)
}
