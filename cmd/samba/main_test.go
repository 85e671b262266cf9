package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jbweber/homelab/samba/internal/api"
	"github.com/jbweber/homelab/samba/internal/compose"
	"github.com/jbweber/homelab/samba/internal/domain"
	"github.com/jbweber/homelab/samba/internal/testutil"
)

type harness struct {
	dir    string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	return &harness{dir: t.TempDir()}
}

func (h *harness) writeDoc(t *testing.T, name string, doc map[string]any) string {
	t.Helper()
	data, err := yaml.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func (h *harness) app(env map[string]string) *app {
	a := newApp(&h.stdout, &h.stderr)
	a.lookupEnv = func(name string) (string, bool) {
		if v, ok := env[name]; ok {
			return v, true
		}
		return testutil.SampleSecrets(name)
	}
	return a
}

func (h *harness) run(env map[string]string, args ...string) error {
	h.stdout.Reset()
	h.stderr.Reset()
	cmd := newRootCmd(h.app(env))
	cmd.SetArgs(append(args, "--db", filepath.Join(h.dir, "plans.db")))
	return cmd.Execute()
}

func TestValidate(t *testing.T) {
	h := newHarness(t)
	path := h.writeDoc(t, "samba.yaml", testutil.SampleDocument())

	require.NoError(t, h.run(nil, "validate", path))
	assert.Contains(t, h.stdout.String(), "valid (vm k8s-master, vmid 101, 1 share(s))")
}

func TestValidate_Key(t *testing.T) {
	h := newHarness(t)
	path := h.writeDoc(t, "Pulumi.dev.yaml", map[string]any{
		"config": map[string]any{"samba:config": testutil.SampleDocument()},
	})

	require.NoError(t, h.run(nil, "validate", path, "--key", "config.samba:config"))

	err := h.run(nil, "validate", path)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("config"))
	assert.Equal(t, 1, exitCode(err))
}

func TestValidate_Invalid(t *testing.T) {
	h := newHarness(t)
	doc := testutil.SampleDocument()
	doc["vm"].(map[string]any)["vmid"] = -1
	delete(doc["proxmox"].(map[string]any), "node-name")
	path := h.writeDoc(t, "samba.yaml", doc)

	err := h.run(nil, "validate", path)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("vm.vmid"))
	assert.True(t, verr.Has("proxmox.node_name"))
	assert.Equal(t, 1, exitCode(err))
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{
		{"validate"},
		{"validate", "a.yaml", "b.yaml"},
		{"plan", "--no-such-flag", "a.yaml"},
		{"plans", "show", "abc"},
		{"validate", "a.yaml", "--log-level", "loud"},
		{"frobnicate"},
	} {
		err := h.run(nil, args...)
		require.Error(t, err, "%v", args)
		assert.Equal(t, 2, exitCode(err), "%v: %v", args, err)
	}
	assert.Equal(t, 0, exitCode(nil))
}

func TestPlan_PrintsRedactedJSON(t *testing.T) {
	h := newHarness(t)
	path := h.writeDoc(t, "samba.yaml", testutil.SampleDocument())

	require.NoError(t, h.run(nil, "plan", path, "--env", "prod"))

	var plan map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &plan))
	assert.Equal(t, "prod", plan["environment"])
	assert.Len(t, plan["resources"], 4)

	for _, secret := range []string{"root@pam!deploy=proxmox-secret", "unify-secret", "remote-pass", "k8s-pass"} {
		assert.NotContains(t, h.stdout.String(), secret)
		assert.NotContains(t, h.stderr.String(), secret)
	}
	assert.Contains(t, h.stdout.String(), compose.Redacted)
}

func TestPlan_EnvironmentFromVariable(t *testing.T) {
	h := newHarness(t)
	path := h.writeDoc(t, "samba.yaml", testutil.SampleDocument())

	require.NoError(t, h.run(map[string]string{"SAMBA_ENVIRONMENT": "staging"}, "plan", path, "--no-dns"))

	var plan struct {
		Environment string `json:"environment"`
		Resources   []any  `json:"resources"`
	}
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &plan))
	assert.Equal(t, "staging", plan.Environment)
	assert.Len(t, plan.Resources, 3)
}

func TestPlan_MissingSecret(t *testing.T) {
	h := newHarness(t)
	doc := testutil.SampleDocument()
	doc["proxmox"].(map[string]any)["api-token"] = map[string]any{"envvar": "SAMBA_TEST_UNSET_TOKEN"}
	path := h.writeDoc(t, "samba.yaml", doc)

	err := h.run(nil, "plan", path)
	var missing *compose.MissingSecretError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "SAMBA_TEST_UNSET_TOKEN", missing.EnvVar)
	assert.Empty(t, h.stdout.String())
}

func TestPlan_TemplateOverride(t *testing.T) {
	h := newHarness(t)
	path := h.writeDoc(t, "samba.yaml", testutil.SampleDocument())

	tmpl := filepath.Join(h.dir, "bad.yaml")
	require.NoError(t, os.WriteFile(tmpl, []byte("hostname: {{ .vm.hostname }}\n"), 0o644))

	err := h.run(nil, "plan", path, "--template", tmpl)
	var rerr *compose.TemplateRenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "vm.hostname", rerr.Placeholder)
}

func TestPlan_OutputFile(t *testing.T) {
	h := newHarness(t)
	path := h.writeDoc(t, "samba.yaml", testutil.SampleDocument())
	out := filepath.Join(h.dir, "plan.json")

	require.NoError(t, h.run(nil, "plan", path, "-o", out))
	assert.Empty(t, h.stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestPlanJournal(t *testing.T) {
	h := newHarness(t)
	path := h.writeDoc(t, "samba.yaml", testutil.SampleDocument())

	require.NoError(t, h.run(nil, "plan", path, "--save"))
	planned := h.stdout.String()

	require.NoError(t, h.run(nil, "plans", "list"))
	lines := strings.Split(strings.TrimSpace(h.stdout.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "ENVIRONMENT")
	assert.Contains(t, lines[1], "k8s-master.erx.box")

	require.NoError(t, h.run(nil, "plans", "show", "1"))
	assert.JSONEq(t, planned, h.stdout.String())

	require.NoError(t, h.run(nil, "plans", "delete", "1"))
	assert.Contains(t, h.stdout.String(), "deleted plan 1")

	err := h.run(nil, "plans", "show", "1")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestDB_VersionAndRollback(t *testing.T) {
	h := newHarness(t)
	path := h.writeDoc(t, "samba.yaml", testutil.SampleDocument())

	require.NoError(t, h.run(nil, "db", "version"))
	assert.Equal(t, "schema version 0 (latest 2)\n", h.stdout.String())

	require.NoError(t, h.run(nil, "plan", path, "--save"))
	require.NoError(t, h.run(nil, "db", "version"))
	assert.Equal(t, "schema version 2 (latest 2)\n", h.stdout.String())

	require.NoError(t, h.run(nil, "db", "rollback", "1"))
	assert.Equal(t, "schema version 1\n", h.stdout.String())

	// the journal survives dropping its indexes
	require.NoError(t, h.run(nil, "plans", "list"))
	assert.Contains(t, h.stdout.String(), "k8s-master")

	require.NoError(t, h.run(nil, "db", "rollback", "0"))
	assert.Equal(t, "schema version 0\n", h.stdout.String())

	require.NoError(t, h.run(nil, "plans", "list"))
	assert.NotContains(t, h.stdout.String(), "k8s-master")

	for _, args := range [][]string{{"db", "rollback", "-1"}, {"db", "rollback", "x"}, {"db", "rollback", "3"}} {
		err := h.run(nil, args...)
		require.Error(t, err, "%v", args)
		assert.Equal(t, 2, exitCode(err), "%v", args)
	}
}

func TestRouter(t *testing.T) {
	h := newHarness(t)
	path := h.writeDoc(t, "samba.yaml", testutil.SampleDocument())
	a := h.app(nil)

	cfg, plan, err := a.composePlan(path, "", true)
	require.NoError(t, err)
	inst, err := api.InstanceFromPlan(cfg, plan)
	require.NoError(t, err)

	srv := httptest.NewServer(newRouter(a, api.NewStaticInstances(inst), nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/meta-data")
	require.NoError(t, err)
	resp.Body.Close()
	// the test client is not the configured machine
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// forwarding headers do not impersonate the machine
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/user-data", nil)
	require.NoError(t, err)
	req.Header.Set("X-Forwarded-For", "10.0.1.10")
	req.Header.Set("X-Real-IP", "10.0.1.10")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	rec := httptest.NewRecorder()
	local := httptest.NewRequest(http.MethodGet, "/user-data", nil)
	local.RemoteAddr = "10.0.1.10:40000"
	newRouter(a, api.NewStaticInstances(inst), nil).ServeHTTP(rec, local)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "#cloud-config")
}

func TestUsageError(t *testing.T) {
	err := usageErrorf("bad %s", "flag")
	assert.Equal(t, "bad flag", err.Error())
	assert.True(t, errors.Is(err, errors.Unwrap(err)))
}
