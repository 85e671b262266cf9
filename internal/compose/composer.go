// Package compose maps a validated configuration onto the resource
// descriptors, providers and outputs handed to the orchestration engine.
//
// Composition is a single synchronous pass. The only outside read is the
// lookup of the environment variables named by secret references; nothing is
// returned unless every step succeeds.
package compose

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jbweber/homelab/samba/internal/domain"
)

// Logical names of the fixed resources and providers.
const (
	BootImageName   = "cloud-image"
	BootConfigName  = "cloud-config"
	DNSRecordName   = "dns"
	ProxmoxProvider = "proxmox"
	UnifyProvider   = "unify"

	// ProductionEnvironment is the one environment whose machine starts with its host.
	ProductionEnvironment = "prod"

	bridge    = "vmbr0"
	datastore = "local"
	dnsDomain = "local"
)

// Options control a Composer.
type Options struct {
	// Environment is the name of the active deployment environment.
	Environment string
	// EnableDNS adds the DNS record, its provider and the fqdn output.
	EnableDNS bool
	// LookupEnv resolves secret references; defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Composer builds plans from validated configurations.
type Composer struct {
	template string
	opts     Options
}

// NewComposer creates a Composer rendering the boot-config snippet from tmpl.
func NewComposer(tmpl string, opts Options) *Composer {
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Composer{template: tmpl, opts: opts}
}

// Compose produces the plan for cfg. It fails with *MissingSecretError,
// *NetworkArithmeticError or *TemplateRenderError before anything is returned.
func (c *Composer) Compose(cfg *domain.ComponentConfig) (*Plan, error) {
	logger := c.opts.Logger.With("vm", cfg.VM.Name, "environment", c.opts.Environment)

	proxmoxToken, err := c.resolve(cfg.Proxmox.APIToken, "proxmox.api_token")
	if err != nil {
		return nil, err
	}
	var unifyToken Secret
	if c.opts.EnableDNS {
		if unifyToken, err = c.resolve(cfg.Unify.APIToken, "unify.api_token"); err != nil {
			return nil, err
		}
	}

	gateway, err := Gateway(cfg.VM.IPv4Address)
	if err != nil {
		return nil, err
	}

	userData, err := Render("cloud-config", c.template, cfg.Dump())
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Environment: c.opts.Environment,
		Providers:   []Provider{proxmoxProvider(cfg, proxmoxToken)},
		Resources: []Descriptor{
			bootImage(cfg),
			bootConfig(cfg, userData),
			c.virtualMachine(cfg, gateway.String()),
		},
		Outputs: map[string]Output{
			OutputSmbShare:    {Value: shareName(cfg)},
			OutputSmbUsername: {Value: cfg.Smb.Remote.Username},
			OutputSmbPassword: {Value: NewSecret(cfg.Smb.Remote.Password), Sensitive: true},
			OutputIPv4:        {Value: assignedIPv4Ref(cfg)},
		},
	}

	if c.opts.EnableDNS {
		plan.Providers = append(plan.Providers, unifyProvider(cfg, unifyToken))
		plan.Resources = append(plan.Resources, dnsRecord(cfg))
		plan.Outputs[OutputFQDN] = Output{Value: cfg.FQDN()}
	}

	logger.Debug("composed plan",
		"resources", len(plan.Resources),
		"providers", len(plan.Providers),
		"gateway", gateway.String(),
		"dns", c.opts.EnableDNS,
	)
	return plan, nil
}

func (c *Composer) resolve(ref domain.EnvVarRef, field string) (Secret, error) {
	v, ok := c.opts.LookupEnv(ref.EnvVar)
	if !ok {
		return Secret{}, &MissingSecretError{EnvVar: ref.EnvVar, Field: field}
	}
	return NewSecret(v), nil
}

func proxmoxProvider(cfg *domain.ComponentConfig, token Secret) Provider {
	return Provider{
		Name: ProxmoxProvider,
		Type: "proxmoxve",
		Properties: map[string]any{
			"endpoint":  cfg.Proxmox.APIEndpoint.String(),
			"api_token": token,
			"insecure":  !cfg.Proxmox.VerifySSL,
			"ssh": map[string]any{
				"username": "root",
				"agent":    true,
			},
		},
	}
}

func unifyProvider(cfg *domain.ComponentConfig, token Secret) Provider {
	return Provider{
		Name: UnifyProvider,
		Type: "unify",
		Properties: map[string]any{
			"base_url":   cfg.Unify.URL.String(),
			"api_token":  token,
			"verify_ssl": cfg.Unify.VerifySSL,
		},
	}
}

func bootImage(cfg *domain.ComponentConfig) Descriptor {
	return Descriptor{
		Kind:        KindBootImage,
		LogicalName: BootImageName,
		Provider:    ProxmoxProvider,
		Properties: map[string]any{
			"content_type":        "iso",
			"datastore_id":        datastore,
			"node_name":           cfg.Proxmox.NodeName,
			"overwrite":           false,
			"overwrite_unmanaged": true,
			"url":                 cfg.VM.CloudImageURL.String(),
		},
		Options: ResourceOptions{RetainOnDelete: true},
	}
}

// bootConfig carries the rendered snippet as a Secret: it holds the SMB
// account passwords.
func bootConfig(cfg *domain.ComponentConfig, userData string) Descriptor {
	return Descriptor{
		Kind:        KindBootConfigSnippet,
		LogicalName: BootConfigName,
		Provider:    ProxmoxProvider,
		Properties: map[string]any{
			"node_name":    cfg.Proxmox.NodeName,
			"datastore_id": datastore,
			"content_type": "snippets",
			"source_raw": map[string]any{
				"data":      NewSecret(userData),
				"file_name": fmt.Sprintf("cloud-config-%s.yaml", cfg.VM.Name),
			},
		},
		Options: ResourceOptions{DeleteBeforeReplace: true},
	}
}

// disk returns a virtio disk; the read limit keeps subsequent runs from
// reporting a diff against the provider's defaults.
func disk(iface string, sizeGB int) map[string]any {
	return map[string]any{
		"interface":   iface,
		"size":        sizeGB,
		"iothread":    true,
		"discard":     "on",
		"file_format": "raw",
		"speed": map[string]any{
			"read": 10000,
		},
	}
}

func vlanBlock(cfg *domain.ComponentConfig) map[string]any {
	if cfg.VM.VLANID == nil {
		return map[string]any{}
	}
	return map[string]any{"vlan_id": *cfg.VM.VLANID}
}

func (c *Composer) virtualMachine(cfg *domain.ComponentConfig, gateway string) Descriptor {
	root := disk("virtio0", cfg.VM.RootDiskSizeGB)
	root["file_id"] = Ref{Resource: BootImageName, Attribute: "id"}

	nic := map[string]any{
		"bridge": bridge,
		"model":  "virtio",
	}
	for k, v := range vlanBlock(cfg) {
		nic[k] = v
	}

	return Descriptor{
		Kind:        KindVirtualMachine,
		LogicalName: cfg.VM.Name,
		Provider:    ProxmoxProvider,
		Properties: map[string]any{
			"name":        cfg.VM.Name,
			"node_name":   cfg.Proxmox.NodeName,
			"vm_id":       cfg.VM.VMID,
			"tags":        c.tags(),
			"description": "Samba file server, maintained by samba.",
			"cpu": map[string]any{
				"cores": cfg.VM.Cores,
				// exact host CPU flags; the machine is never migrated
				"type": "host",
			},
			"memory": map[string]any{
				"dedicated": cfg.VM.MemoryMBMax,
				"floating":  cfg.VM.MemoryMBMin,
			},
			"cdrom":           map[string]any{"enabled": false},
			"disks":           []any{root, disk("virtio1", cfg.VM.DataDiskSizeGB)},
			"network_devices": []any{nic},
			"agent":           map[string]any{"enabled": true},
			"initialization": map[string]any{
				"ip_configs": []any{
					map[string]any{
						"ipv4": map[string]any{
							"address": cfg.VM.IPv4Address.String(),
							"gateway": gateway,
						},
					},
				},
				"dns": map[string]any{
					"domain":  dnsDomain,
					"servers": []string{gateway},
				},
				"user_data_file_id": Ref{Resource: BootConfigName, Attribute: "id"},
			},
			"stop_on_destroy": true,
			"on_boot":         c.opts.Environment == ProductionEnvironment,
			"machine":         "q35",
			// Linux 2.6+
			"operating_system": map[string]any{"type": "l26"},
		},
		DependsOn: []string{BootImageName, BootConfigName},
		Options:   ResourceOptions{IgnoreChanges: []string{"cdrom"}},
	}
}

func (c *Composer) tags() []string {
	if c.opts.Environment == "" {
		return []string{}
	}
	return []string{c.opts.Environment}
}

// shareName is the share exported as smb-share: the first one configured.
func shareName(cfg *domain.ComponentConfig) string {
	if len(cfg.Smb.Shares) == 0 {
		return ""
	}
	return cfg.Smb.Shares[0].Name
}

func assignedIPv4Ref(cfg *domain.ComponentConfig) Ref {
	return Ref{
		Resource:  cfg.VM.Name,
		Attribute: "ipv4_addresses",
		Index:     []int{AssignedIPv4Interface, AssignedIPv4Entry},
	}
}

func dnsRecord(cfg *domain.ComponentConfig) Descriptor {
	return Descriptor{
		Kind:        KindDNSRecord,
		LogicalName: DNSRecordName,
		Provider:    UnifyProvider,
		Properties: map[string]any{
			"domain_name": cfg.FQDN(),
			"ipv4":        assignedIPv4Ref(cfg),
		},
		DependsOn: []string{cfg.VM.Name},
	}
}
