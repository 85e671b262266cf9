package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRender(t *testing.T) {
	data := map[string]any{
		"vm":  map[string]any{"name": "files", "vlan_id": nil},
		"smb": map[string]any{"shares": []any{map[string]any{"name": "a"}, map[string]any{"name": "b"}}},
	}

	out, err := Render("t", "host: {{ .vm.name }}\n{{ range .smb.shares }}- {{ .name }}@{{ $.vm.name }}\n{{ end }}", data)
	require.NoError(t, err)
	assert.Equal(t, "host: files\n- a@files\n- b@files\n", out)

	out, err = Render("t", "{{ if .vm.vlan_id }}tagged{{ else }}untagged{{ end }}", data)
	require.NoError(t, err)
	assert.Equal(t, "untagged", out)
}

func TestRender_MissingPlaceholder(t *testing.T) {
	data := map[string]any{"vm": map[string]any{"name": "files"}}

	tests := []struct {
		text string
		want string
	}{
		{"{{ .vm.nmae }}", "vm.nmae"},
		{"{{ .hostname }}", "hostname"},
		{"ok {{ .vm.name }} {{ .smb.group }}", "smb.group"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			out, err := Render("cloud-config", tt.text, data)
			assert.Empty(t, out)

			var rerr *TemplateRenderError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, tt.want, rerr.Placeholder)
			assert.Equal(t, "cloud-config", rerr.Template)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRender_ParseError(t *testing.T) {
	_, err := Render("broken", "{{ .vm.name ", nil)

	var rerr *TemplateRenderError
	require.ErrorAs(t, err, &rerr)
	assert.Empty(t, rerr.Placeholder)
	assert.NotNil(t, rerr.Unwrap())
}

func TestRender_Quote(t *testing.T) {
	for _, value := range []string{"plain", "has: colon", "#hash", "true", "", "p@ss 'word'", "*star"} {
		out, err := Render("q", "key: {{ quote .v }}", map[string]any{"v": value})
		require.NoError(t, err)

		var doc map[string]string
		require.NoError(t, yaml.Unmarshal([]byte(out), &doc), out)
		assert.Equal(t, value, doc["key"], out)
	}

	_, err := Render("q", "{{ quote .v }}", map[string]any{"v": "two\nlines"})
	assert.Error(t, err)
}
