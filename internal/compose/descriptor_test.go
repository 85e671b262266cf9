package compose

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRef(t *testing.T) {
	ref := Ref{Resource: "k8s-master", Attribute: "ipv4_addresses", Index: []int{1, 0}}
	assert.Equal(t, "k8s-master.ipv4_addresses[1][0]", ref.String())

	out, err := json.Marshal(ref)
	require.NoError(t, err)
	assert.JSONEq(t, `{"$ref":{"resource":"k8s-master","attribute":"ipv4_addresses","index":[1,0]}}`, string(out))

	out, err = json.Marshal(Ref{Resource: "cloud-image", Attribute: "id"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"$ref":{"resource":"cloud-image","attribute":"id"}}`, string(out))
}

func TestOutput_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(Output{Value: "media"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"media"}`, string(out))

	out, err = json.Marshal(Output{Value: "hunter2", Sensitive: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"[sensitive]","sensitive":true}`, string(out))
}

func TestSecret_NeverPrints(t *testing.T) {
	s := NewSecret("hunter2")
	assert.Equal(t, "hunter2", s.Reveal())

	for _, format := range []string{"%v", "%s", "%+v", "%#v", "%q"} {
		assert.NotContains(t, fmt.Sprintf(format, s), "hunter2", format)
	}

	out, err := json.Marshal(map[string]any{"token": s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"[sensitive]"}`, string(out))

	var logs bytes.Buffer
	slog.New(slog.NewTextHandler(&logs, nil)).Info("resolved", "token", s)
	assert.Contains(t, logs.String(), "token=[sensitive]")
	assert.NotContains(t, logs.String(), "hunter2")
}

func TestPlan_Lookup(t *testing.T) {
	plan := &Plan{Resources: []Descriptor{
		{Kind: KindBootImage, LogicalName: BootImageName},
		{Kind: KindVirtualMachine, LogicalName: "files"},
	}}

	d, ok := plan.Resource("files")
	require.True(t, ok)
	assert.Equal(t, KindVirtualMachine, d.Kind)

	_, ok = plan.Resource("dns")
	assert.False(t, ok)

	d, ok = plan.ByKind(KindBootImage)
	require.True(t, ok)
	assert.Equal(t, BootImageName, d.LogicalName)

	_, ok = plan.ByKind(KindDNSRecord)
	assert.False(t, ok)
}
