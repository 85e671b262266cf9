// Package document reads the raw, untyped configuration document from disk.
//
// The format is chosen by file extension. Every decoder yields the same
// shape: nested map[string]any, []any, string, bool, json.Number or int
// leaves, and nil. No schema is applied here.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/tidwall/jsonc"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

// Format identifies a document syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatHCL  Format = "hcl"
)

// FormatFor returns the format implied by path's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc":
		return FormatJSON, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("unsupported document extension %q (want .yaml, .yml, .json, .jsonc or .hcl)", filepath.Ext(path))
	}
}

// Load reads and decodes the document at path.
func Load(path string) (map[string]any, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := Decode(format, filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode parses data in the given format. name is only used in diagnostics.
func Decode(format Format, name string, data []byte) (map[string]any, error) {
	switch format {
	case FormatYAML:
		return decodeYAML(data)
	case FormatJSON:
		return decodeJSON(jsonc.ToJSON(data))
	case FormatHCL:
		return decodeHCL(name, data)
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
}

func decodeYAML(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// decodeJSON keeps numbers as json.Number so integers never pass through
// float64.
func decodeJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("failed to parse JSON: trailing data after top-level object")
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// decodeHCL accepts a body made only of attributes; nested sections are
// written as object expressions, lists as tuples. Expressions are evaluated
// without variables or functions.
func decodeHCL(name string, data []byte) (map[string]any, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to read HCL attributes: %s", diags.Error())
	}

	doc := make(map[string]any, len(attrs))
	for key, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate HCL attribute %q: %s", key, diags.Error())
		}
		raw, err := ctyjson.Marshal(val, val.Type())
		if err != nil {
			return nil, fmt.Errorf("failed to convert HCL attribute %q: %w", key, err)
		}
		var v any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("failed to convert HCL attribute %q: %w", key, err)
		}
		doc[key] = v
	}
	return doc, nil
}

// Select walks a dotted key path (e.g. "config" or "config.samba:config")
// and returns the object found there. An empty path returns doc itself.
func Select(doc map[string]any, path string) (map[string]any, error) {
	if path == "" {
		return doc, nil
	}
	cur := doc
	for i, key := range strings.Split(path, ".") {
		v, ok := cur[key]
		if !ok {
			return nil, fmt.Errorf("key %q not found in document", strings.Join(strings.Split(path, ".")[:i+1], "."))
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("key %q is %T, not an object", key, v)
		}
		cur = next
	}
	return cur, nil
}
