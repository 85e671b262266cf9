package domain

import (
	"fmt"
	"slices"
)

func ptr[T any](v T) *T { return &v }

// Validate turns an untyped document into a ComponentConfig. Every violation
// found is reported in a single *ValidationError; nothing in the returned
// config is read from the environment.
func Validate(raw map[string]any) (*ComponentConfig, error) {
	d := &decoder{}
	cfg := &ComponentConfig{}

	root := d.object("", raw)
	if root != nil {
		if o := root.child("proxmox", false); o != nil {
			cfg.Proxmox = decodeProxmox(o)
		}
		if o := root.child("vm", false); o != nil {
			cfg.VM = decodeVM(o)
		}
		if o := root.child("unify", true); o != nil {
			cfg.Unify = decodeUnify(o)
		} else if _, present := root.fields["unify"]; !present {
			cfg.Unify = DefaultUnifyConfig()
		}
		if o := root.child("smb", false); o != nil {
			cfg.Smb = decodeSmb(o)
		}
		root.finish()
	}

	if len(d.errs) > 0 {
		return nil, &ValidationError{Errors: d.errs}
	}
	return cfg, nil
}

// DefaultUnifyConfig returns the DNS controller settings used when a document
// has no unify section.
func DefaultUnifyConfig() UnifyConfig {
	u, err := parseHTTPURL(DefaultUnifyURL)
	if err != nil {
		panic(fmt.Sprintf("domain: bad default unify url: %v", err))
	}
	return UnifyConfig{
		URL:            u,
		VerifySSL:      false,
		InternalDomain: DefaultInternalDomain,
		APIToken:       EnvVarRef{EnvVar: DefaultUnifyTokenVar},
	}
}

func decodeProxmox(o *object) ProxmoxConfig {
	defer o.finish()
	return ProxmoxConfig{
		NodeName:    o.str("node_name", nil),
		APIEndpoint: o.httpURL("api_endpoint", nil),
		APIToken:    o.envVarRef("api_token", nil),
		VerifySSL:   o.boolean("verify_ssl", ptr(true)),
	}
}

func decodeVM(o *object) VirtualMachineConfig {
	defer o.finish()
	vm := VirtualMachineConfig{
		Name:          o.str("name", nil),
		VMID:          o.required("vmid"),
		CloudImageURL: o.httpURL("cloud_image_url", ptr(DefaultCloudImageURL)),
		VLANID:        o.positive("vlan_id", true),
		IPv4Address:   o.ipv4Interface("ipv4_address"),

		Cores:       o.required("cores"),
		MemoryMBMin: o.required("memory_mb_min"),
		MemoryMBMax: o.required("memory_mb_max"),

		RootDiskSizeGB: o.required("root_disk_size_gb"),
		DataDiskSizeGB: o.required("data_disk_size_gb"),
		DataDiskMount:  o.str("data_disk_mount", ptr(DefaultDataDiskMount)),

		SSHUser:      o.str("ssh_user", ptr(DefaultSSHUser)),
		SSHPublicKey: o.str("ssh_public_key", nil),
	}
	if _, ok := o.fields["name"].value.(string); ok {
		switch {
		case vm.Name == "":
			o.d.fail(o.at("name"), "must not be empty")
		case slices.Contains(ReservedNames, vm.Name):
			o.d.fail(o.at("name"), "%q is reserved for a composed resource", vm.Name)
		}
	}
	return vm
}

func decodeUnify(o *object) UnifyConfig {
	defer o.finish()
	def := DefaultUnifyConfig()
	return UnifyConfig{
		URL:            o.httpURL("url", ptr(DefaultUnifyURL)),
		VerifySSL:      o.boolean("verify_ssl", ptr(def.VerifySSL)),
		InternalDomain: o.str("internal_domain", ptr(def.InternalDomain)),
		APIToken:       o.envVarRef("api_token", &def.APIToken),
	}
}

func decodeSmb(o *object) SmbConfig {
	defer o.finish()
	smb := SmbConfig{}
	if a := o.child("remote", false); a != nil {
		smb.Remote = decodeAccount(a)
	}
	if a := o.child("k8s", false); a != nil {
		smb.K8s = decodeAccount(a)
	}
	smb.Group = o.str("group", ptr(DefaultSmbGroup))

	items, ok := o.list("shares")
	if !ok {
		return smb
	}
	if len(items) == 0 {
		o.d.fail(o.at("shares"), "at least one share is required")
	}
	seen := make(map[string]int, len(items))
	for i, item := range items {
		path := fmt.Sprintf("%s[%d]", o.at("shares"), i)
		s := o.d.object(path, item)
		if s == nil {
			continue
		}
		share := decodeShare(s)
		if first, dup := seen[share.Name]; dup && share.Name != "" {
			o.d.fail(path+".name", "duplicate share name %q (also at index %d)", share.Name, first)
		} else {
			seen[share.Name] = i
		}
		smb.Shares = append(smb.Shares, share)
	}
	return smb
}

func decodeAccount(o *object) SmbAccount {
	defer o.finish()
	return SmbAccount{
		Username: o.str("username", nil),
		Password: o.str("password", nil),
	}
}

func decodeShare(o *object) SmbShare {
	defer o.finish()
	return SmbShare{
		Name:        o.str("name", nil),
		RemoteWrite: o.boolean("remote_write", nil),
		K8sWrite:    o.boolean("k8s_write", nil),
	}
}
