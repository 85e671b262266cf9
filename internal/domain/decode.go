package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"net/netip"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// decoder accumulates field errors while a document is walked.
type decoder struct {
	errs []FieldError
}

func (d *decoder) fail(path, format string, args ...any) {
	d.errs = append(d.errs, FieldError{Path: path, Reason: fmt.Sprintf(format, args...)})
}

// entry is a document value stored under its canonical field name.
type entry struct {
	key   string // spelling used in the document
	value any
}

// object reads the fields of one mapping. Keys are matched by canonical
// (underscore) name, so "node-name" and "node_name" address the same field
// while "node-name_x" style mixtures are unknown.
type object struct {
	d      *decoder
	path   string
	fields map[string]entry
	used   map[string]bool
}

// canonical maps an all-hyphen spelling onto the underscore form. Keys mixing
// both separators are returned unchanged, so they match no field.
func canonical(key string) string {
	if strings.Contains(key, "_") {
		return key
	}
	return strings.ReplaceAll(key, "-", "_")
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// object returns a reader for v, or nil after recording an error when v is
// not a mapping.
func (d *decoder) object(path string, v any) *object {
	raw, ok := asMap(v)
	if !ok {
		d.fail(path, "expected mapping, got %s", typeName(v))
		return nil
	}

	o := &object{d: d, path: path, fields: make(map[string]entry, len(raw)), used: make(map[string]bool)}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := canonical(k)
		if prev, dup := o.fields[name]; dup {
			d.fail(join(path, name), "field given twice as %q and %q", prev.key, k)
			continue
		}
		o.fields[name] = entry{key: k, value: raw[k]}
	}
	return o
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			s, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[s] = val
		}
		return out, true
	}
	return nil, false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return "number"
	case []any:
		return "list"
	case map[string]any, map[any]any:
		return "mapping"
	}
	return fmt.Sprintf("%T", v)
}

// lookup marks name as consumed and returns its value.
func (o *object) lookup(name string) (any, bool) {
	o.used[name] = true
	e, ok := o.fields[name]
	return e.value, ok
}

func (o *object) at(name string) string {
	return join(o.path, name)
}

// finish reports every field that no reader consumed.
func (o *object) finish() {
	var unknown []string
	for name, e := range o.fields {
		if !o.used[name] {
			unknown = append(unknown, e.key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		o.d.fail(join(o.path, key), ReasonUnknown)
	}
}

// child returns a reader for a nested mapping. A missing field is reported
// unless optional is set, in which case nil is returned silently.
func (o *object) child(name string, optional bool) *object {
	v, ok := o.lookup(name)
	if !ok {
		if !optional {
			o.d.fail(o.at(name), ReasonRequired)
		}
		return nil
	}
	return o.d.object(o.at(name), v)
}

func (o *object) list(name string) ([]any, bool) {
	v, ok := o.lookup(name)
	if !ok {
		o.d.fail(o.at(name), ReasonRequired)
		return nil, false
	}
	l, ok := v.([]any)
	if !ok {
		o.d.fail(o.at(name), "expected list, got %s", typeName(v))
		return nil, false
	}
	return l, true
}

// str reads a string field. def is used when the field is absent; a nil def
// makes the field required.
func (o *object) str(name string, def *string) string {
	v, ok := o.lookup(name)
	if !ok {
		if def == nil {
			o.d.fail(o.at(name), ReasonRequired)
			return ""
		}
		return *def
	}
	s, ok := v.(string)
	if !ok {
		o.d.fail(o.at(name), "expected string, got %s", typeName(v))
		return ""
	}
	return s
}

func (o *object) boolean(name string, def *bool) bool {
	v, ok := o.lookup(name)
	if !ok {
		if def == nil {
			o.d.fail(o.at(name), ReasonRequired)
			return false
		}
		return *def
	}
	b, ok := v.(bool)
	if !ok {
		o.d.fail(o.at(name), "expected boolean, got %s", typeName(v))
		return false
	}
	return b
}

// positive reads a strictly positive integer. With optional set, an absent
// or null field yields nil without an error.
func (o *object) positive(name string, optional bool) *int {
	v, ok := o.lookup(name)
	if !ok || (optional && v == nil) {
		if !optional {
			o.d.fail(o.at(name), ReasonRequired)
		}
		return nil
	}
	n, err := toInt(v)
	if err != nil {
		o.d.fail(o.at(name), "%v", err)
		return nil
	}
	if n <= 0 {
		o.d.fail(o.at(name), "%s, got %d", ReasonPositive, n)
		return nil
	}
	return &n
}

func (o *object) required(name string) int {
	if n := o.positive(name, false); n != nil {
		return *n
	}
	return 0
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		if n > math.MaxInt || n < math.MinInt {
			return 0, fmt.Errorf("integer %d out of range", n)
		}
		return int(n), nil
	case uint:
		if uint64(n) > math.MaxInt {
			return 0, fmt.Errorf("integer %d out of range", n)
		}
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, fmt.Errorf("integer %d out of range", n)
		}
		return int(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := strconv.ParseInt(string(n), 10, 0); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", n.String())
		}
		return floatToInt(f)
	}
	return 0, fmt.Errorf("expected integer, got %s", typeName(v))
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("expected integer, got %v", f)
	}
	if f >= math.MaxInt || f < math.MinInt {
		return 0, fmt.Errorf("integer %v out of range", f)
	}
	return int(f), nil
}

// httpURL reads an absolute http(s) URL.
func (o *object) httpURL(name string, def *string) *url.URL {
	raw := o.str(name, def)
	if raw == "" {
		if s, ok := o.fields[name].value.(string); ok && s == "" {
			o.d.fail(o.at(name), "invalid URL: empty")
		}
		return nil
	}
	u, err := parseHTTPURL(raw)
	if err != nil {
		o.d.fail(o.at(name), "invalid URL: %v", err)
		return nil
	}
	return u
}

func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%q is not absolute", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("scheme %q is not http or https", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%q has no host", raw)
	}
	return u, nil
}

// ipv4Interface reads an address with prefix length, e.g. "10.0.1.10/24".
func (o *object) ipv4Interface(name string) netip.Prefix {
	v, ok := o.lookup(name)
	if !ok {
		o.d.fail(o.at(name), ReasonRequired)
		return netip.Prefix{}
	}
	raw, ok := v.(string)
	if !ok {
		o.d.fail(o.at(name), "expected string, got %s", typeName(v))
		return netip.Prefix{}
	}
	p, err := ParseIPv4Interface(raw)
	if err != nil {
		o.d.fail(o.at(name), "invalid IPv4 interface: %v", err)
		return netip.Prefix{}
	}
	return p
}

// ParseIPv4Interface parses an IPv4 address with prefix length and checks the
// prefix leaves room for a gateway. The host bits are preserved.
func ParseIPv4Interface(raw string) (netip.Prefix, error) {
	if !strings.Contains(raw, "/") {
		return netip.Prefix{}, fmt.Errorf("%q has no prefix length", raw)
	}
	p, err := netip.ParsePrefix(raw)
	if err != nil {
		return netip.Prefix{}, err
	}
	if !p.Addr().Is4() {
		return netip.Prefix{}, fmt.Errorf("%q is not an IPv4 address", raw)
	}
	if p.Bits() > MaxIPv4PrefixLength {
		return netip.Prefix{}, fmt.Errorf("prefix length %d leaves no room for a gateway (max %d)", p.Bits(), MaxIPv4PrefixLength)
	}
	return p, nil
}

// envVarRef reads a {envvar: NAME} secret reference.
func (o *object) envVarRef(name string, def *EnvVarRef) EnvVarRef {
	if _, present := o.fields[name]; !present && def != nil {
		o.used[name] = true
		return *def
	}
	ref := o.child(name, false)
	if ref == nil {
		return EnvVarRef{}
	}
	out := EnvVarRef{EnvVar: ref.str("envvar", nil)}
	if s, ok := ref.fields["envvar"].value.(string); ok && s == "" {
		o.d.fail(ref.at("envvar"), "must not be empty")
	}
	ref.finish()
	return out
}
