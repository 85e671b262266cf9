package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// canonicalize rewrites every key of a document into its underscore form.
func canonicalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[canonical(k)] = canonicalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = canonicalize(val)
		}
		return out
	}
	return v
}

// assertContains checks that every field of want is present in got with an
// equal value.
func assertContains(t *testing.T, path string, want, got any) {
	t.Helper()
	switch w := want.(type) {
	case map[string]any:
		g, ok := got.(map[string]any)
		require.True(t, ok, "%s: expected mapping, got %T", path, got)
		for k, val := range w {
			gv, present := g[k]
			if assert.True(t, present, "%s.%s missing from dump", path, k) {
				assertContains(t, path+"."+k, val, gv)
			}
		}
	case []any:
		g, ok := got.([]any)
		require.True(t, ok, "%s: expected list, got %T", path, got)
		require.Len(t, g, len(w), path)
		for i := range w {
			assertContains(t, path, w[i], g[i])
		}
	default:
		assert.Equal(t, want, got, path)
	}
}

func TestDump_RoundTripsInputFields(t *testing.T) {
	doc := validDocument()
	section(doc, "vm")["vlan-id"] = 50
	doc["unify"] = map[string]any{"url": "https://unifi.lan/", "internal-domain": "lan"}

	cfg, err := Validate(doc)
	require.NoError(t, err)

	assertContains(t, "", canonicalize(doc), cfg.Dump())
}

func TestDump_Defaults(t *testing.T) {
	cfg, err := Validate(validDocument())
	require.NoError(t, err)

	dump := cfg.Dump()
	vm := dump["vm"].(map[string]any)
	assert.Nil(t, vm["vlan_id"])
	assert.Equal(t, "/mnt/data", vm["data_disk_mount"])
	assert.Equal(t, "ubuntu", vm["ssh_user"])
	assert.Equal(t, DefaultCloudImageURL, vm["cloud_image_url"])

	unify := dump["unify"].(map[string]any)
	assert.Equal(t, map[string]any{"envvar": DefaultUnifyTokenVar}, unify["api_token"])
}

func TestDump_SecretReferenceOnly(t *testing.T) {
	t.Setenv("PROXMOX_API_TOKEN", "root@pam!deploy=secret")

	cfg, err := Validate(validDocument())
	require.NoError(t, err)

	proxmox := cfg.Dump()["proxmox"].(map[string]any)
	assert.Equal(t, map[string]any{"envvar": "PROXMOX_API_TOKEN"}, proxmox["api_token"])
	assert.NotContains(t, fmt.Sprint(cfg.Dump()), "root@pam!deploy=secret")
}
