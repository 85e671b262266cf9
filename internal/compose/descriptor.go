package compose

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies what a Descriptor declares.
type Kind string

const (
	KindBootImage         Kind = "BootImage"
	KindBootConfigSnippet Kind = "BootConfigSnippet"
	KindVirtualMachine    Kind = "VirtualMachine"
	KindDNSRecord         Kind = "DnsRecord"
)

// ResourceOptions tune how the orchestration engine treats a resource.
type ResourceOptions struct {
	RetainOnDelete      bool     `json:"retain_on_delete,omitempty"`
	DeleteBeforeReplace bool     `json:"delete_before_replace,omitempty"`
	IgnoreChanges       []string `json:"ignore_changes,omitempty"`
}

// Descriptor declares one piece of infrastructure. DependsOn lists the
// logical names of descriptors that must be applied first.
type Descriptor struct {
	Kind        Kind            `json:"kind"`
	LogicalName string          `json:"logical_name"`
	Provider    string          `json:"provider"`
	Properties  map[string]any  `json:"properties"`
	DependsOn   []string        `json:"depends_on,omitempty"`
	Options     ResourceOptions `json:"options"`
}

// Provider is a configured provider instance that descriptors bind to.
type Provider struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Ref points at an attribute of another resource that is only known after
// the orchestration engine has applied it.
type Ref struct {
	Resource  string `json:"resource"`
	Attribute string `json:"attribute"`
	Index     []int  `json:"index,omitempty"`
}

func (r Ref) String() string {
	var b strings.Builder
	b.WriteString(r.Resource)
	b.WriteByte('.')
	b.WriteString(r.Attribute)
	for _, i := range r.Index {
		fmt.Fprintf(&b, "[%d]", i)
	}
	return b.String()
}

// MarshalJSON wraps the reference so consumers can tell it from a literal.
func (r Ref) MarshalJSON() ([]byte, error) {
	type plain Ref
	return json.Marshal(map[string]plain{"$ref": plain(r)})
}

// Output is a named value exported after a successful run.
type Output struct {
	Value     any
	Sensitive bool
}

func (o Output) MarshalJSON() ([]byte, error) {
	v := o.Value
	if o.Sensitive {
		v = Redacted
	}
	return json.Marshal(struct {
		Value     any  `json:"value"`
		Sensitive bool `json:"sensitive,omitempty"`
	}{v, o.Sensitive})
}

// Output names.
const (
	OutputSmbShare    = "smb-share"
	OutputSmbUsername = "smb-username"
	OutputSmbPassword = "smb-password"
	OutputIPv4        = "ipv4"
	OutputFQDN        = "fqdn"
)

// Plan is the result of composing one configuration.
type Plan struct {
	Environment string            `json:"environment"`
	Providers   []Provider        `json:"providers"`
	Resources   []Descriptor      `json:"resources"`
	Outputs     map[string]Output `json:"outputs"`
}

// Resource returns the descriptor with the given logical name.
func (p *Plan) Resource(name string) (Descriptor, bool) {
	for _, d := range p.Resources {
		if d.LogicalName == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// ByKind returns the first descriptor of kind k.
func (p *Plan) ByKind(k Kind) (Descriptor, bool) {
	for _, d := range p.Resources {
		if d.Kind == k {
			return d, true
		}
	}
	return Descriptor{}, false
}

// RedactedJSON returns the plan as indented JSON with every sensitive value
// replaced by Redacted.
func (p *Plan) RedactedJSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
