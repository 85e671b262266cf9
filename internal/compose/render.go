package compose

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// missingKey matches the location text/template reports for a map lookup
// that found no entry, e.g. `at <.vm.nmae>: map has no entry for key "nmae"`.
var missingKey = regexp.MustCompile(`at <\.?([^>]*)>: map has no entry for key`)

var templateFuncs = template.FuncMap{
	"quote": yamlQuote,
}

// yamlQuote renders v as a single YAML scalar, quoting it when needed.
func yamlQuote(v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	s := strings.TrimSuffix(string(out), "\n")
	if strings.Contains(s, "\n") {
		return "", fmt.Errorf("quote: value spans multiple lines")
	}
	return s, nil
}

// Render executes text against data. Every placeholder must resolve: a
// reference to a key absent from data fails with a *TemplateRenderError
// naming it instead of rendering an empty value.
func Render(name, text string, data map[string]any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return "", &TemplateRenderError{Template: name, Err: err}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		rerr := &TemplateRenderError{Template: name, Err: err}
		if m := missingKey.FindStringSubmatch(err.Error()); m != nil {
			rerr.Placeholder = m[1]
		}
		return "", rerr
	}
	return buf.String(), nil
}
