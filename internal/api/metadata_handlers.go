package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

// metaDataKeys lists the keys served under /meta-data/, in listing order
var metaDataKeys = []string{
	"instance-id",
	"hostname",
	"local-hostname",
	"local-ipv4",
	"public-hostname",
	"security-groups",
}

type noCloudMetaData struct {
	InstanceID     string `yaml:"instance-id"`
	Hostname       string `yaml:"hostname"`
	LocalHostname  string `yaml:"local-hostname"`
	LocalIPv4      string `yaml:"local-ipv4"`
	PublicHostname string `yaml:"public-hostname"`
	SecurityGroups string `yaml:"security-groups"`
}

func metaDataFor(inst *Instance) noCloudMetaData {
	public := inst.FQDN
	if public == "" {
		public = inst.Name
	}
	return noCloudMetaData{
		InstanceID:     inst.InstanceID(),
		Hostname:       inst.Name,
		LocalHostname:  inst.Name,
		LocalIPv4:      inst.Address.Addr().String(),
		PublicHostname: public,
		SecurityGroups: "default",
	}
}

func (m noCloudMetaData) value(key string) (string, bool) {
	switch key {
	case "instance-id":
		return m.InstanceID, true
	case "hostname":
		return m.Hostname, true
	case "local-hostname":
		return m.LocalHostname, true
	case "local-ipv4":
		return m.LocalIPv4, true
	case "public-hostname":
		return m.PublicHostname, true
	case "security-groups":
		return m.SecurityGroups, true
	}
	return "", false
}

// MetaData holds dependencies and handler methods for the NoCloud endpoints.
type MetaData struct {
	store  InstanceStore
	logger *slog.Logger
}

// NewMetaData creates a new MetaData instance with the given store.
func NewMetaData(store InstanceStore, logger *slog.Logger) *MetaData {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetaData{store: store, logger: logger}
}

// instance resolves the requesting machine, writing the error response itself
// when there is none.
func (m *MetaData) instance(w http.ResponseWriter, r *http.Request) (*Instance, bool) {
	ip, err := extractClientIP(r)
	if err != nil {
		m.logger.Warn("failed to extract client IP", "path", r.URL.Path, "error", err)
		http.Error(w, "unable to determine client IP address", http.StatusBadRequest)
		return nil, false
	}

	inst, err := m.store.InstanceByIPv4(ip)
	if err != nil {
		m.logger.Error("failed to lookup instance", "ip", ip.String(), "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil, false
	}
	if inst == nil {
		m.logger.Info("instance not found", "ip", ip.String(), "path", r.URL.Path)
		http.Error(w, "machine not found", http.StatusNotFound)
		return nil, false
	}
	return inst, true
}

// NoCloudMetaDataHandler serves the NoCloud meta-data document for the requestor.
func (m *MetaData) NoCloudMetaDataHandler(w http.ResponseWriter, r *http.Request) {
	inst, ok := m.instance(w, r)
	if !ok {
		return
	}

	out, err := yaml.Marshal(metaDataFor(inst))
	if err != nil {
		m.logger.Error("failed to encode meta-data", "vm", inst.Name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeText(w, m.logger, "text/yaml; charset=utf-8", string(out))
}

// MetaDataDirectoryHandler serves the key listing for /meta-data/.
func (m *MetaData) MetaDataDirectoryHandler(w http.ResponseWriter, r *http.Request) {
	var dir string
	for _, key := range metaDataKeys {
		dir += key + "\n"
	}
	writeText(w, m.logger, "text/plain; charset=utf-8", dir)
}

// MetaDataKeyHandler serves one meta-data key for /meta-data/{key}.
func (m *MetaData) MetaDataKeyHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		http.Error(w, "metadata key is required", http.StatusBadRequest)
		return
	}

	inst, ok := m.instance(w, r)
	if !ok {
		return
	}

	value, known := metaDataFor(inst).value(key)
	if !known {
		m.logger.Info("unknown metadata key requested", "key", key, "vm", inst.Name)
		http.Error(w, "unknown metadata key", http.StatusNotFound)
		return
	}
	writeText(w, m.logger, "text/plain; charset=utf-8", value+"\n")
}

// UserDataHandler serves the rendered boot-config snippet.
func (m *MetaData) UserDataHandler(w http.ResponseWriter, r *http.Request) {
	inst, ok := m.instance(w, r)
	if !ok {
		return
	}
	m.logger.Debug("serving user-data", "vm", inst.Name)
	writeText(w, m.logger, "text/cloud-config; charset=utf-8", inst.UserData)
}

// VendorDataHandler serves empty vendor-data; everything lives in user-data.
func (m *MetaData) VendorDataHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.instance(w, r); !ok {
		return
	}
	writeText(w, m.logger, "text/plain; charset=utf-8", "")
}

// NetworkConfigHandler serves a static network-config (version 2) built from
// the interface address and its derived gateway.
func (m *MetaData) NetworkConfigHandler(w http.ResponseWriter, r *http.Request) {
	inst, ok := m.instance(w, r)
	if !ok {
		return
	}

	gw := inst.Gateway.String()
	cfg := map[string]any{
		"version": 2,
		"ethernets": map[string]any{
			"primary": map[string]any{
				"match":     map[string]any{"name": "e*"},
				"addresses": []string{inst.Address.String()},
				"routes": []any{
					map[string]any{"to": "default", "via": gw},
				},
				"nameservers": map[string]any{
					"addresses": []string{gw},
					"search":    []string{"local"},
				},
			},
		},
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		m.logger.Error("failed to encode network-config", "vm", inst.Name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeText(w, m.logger, "text/yaml; charset=utf-8", string(out))
}
