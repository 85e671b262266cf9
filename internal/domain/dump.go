package domain

// Dump returns the configuration as a nested map keyed by canonical field
// names. Secret references appear only as their variable name. The result is
// a fresh value on every call and may be modified by the caller.
func (c *ComponentConfig) Dump() map[string]any {
	var vlan any
	if c.VM.VLANID != nil {
		vlan = *c.VM.VLANID
	}

	shares := make([]any, 0, len(c.Smb.Shares))
	for _, s := range c.Smb.Shares {
		shares = append(shares, map[string]any{
			"name":         s.Name,
			"remote_write": s.RemoteWrite,
			"k8s_write":    s.K8sWrite,
		})
	}

	return map[string]any{
		"proxmox": map[string]any{
			"node_name":    c.Proxmox.NodeName,
			"api_endpoint": urlString(c.Proxmox.APIEndpoint),
			"api_token":    c.Proxmox.APIToken.dump(),
			"verify_ssl":   c.Proxmox.VerifySSL,
		},
		"vm": map[string]any{
			"name":              c.VM.Name,
			"vmid":              c.VM.VMID,
			"cloud_image_url":   urlString(c.VM.CloudImageURL),
			"vlan_id":           vlan,
			"ipv4_address":      c.VM.IPv4Address.String(),
			"cores":             c.VM.Cores,
			"memory_mb_min":     c.VM.MemoryMBMin,
			"memory_mb_max":     c.VM.MemoryMBMax,
			"root_disk_size_gb": c.VM.RootDiskSizeGB,
			"data_disk_size_gb": c.VM.DataDiskSizeGB,
			"data_disk_mount":   c.VM.DataDiskMount,
			"ssh_user":          c.VM.SSHUser,
			"ssh_public_key":    c.VM.SSHPublicKey,
		},
		"unify": map[string]any{
			"url":             urlString(c.Unify.URL),
			"verify_ssl":      c.Unify.VerifySSL,
			"internal_domain": c.Unify.InternalDomain,
			"api_token":       c.Unify.APIToken.dump(),
		},
		"smb": map[string]any{
			"remote": c.Smb.Remote.dump(),
			"k8s":    c.Smb.K8s.dump(),
			"group":  c.Smb.Group,
			"shares": shares,
		},
	}
}

func (r EnvVarRef) dump() map[string]any {
	return map[string]any{"envvar": r.EnvVar}
}

func (a SmbAccount) dump() map[string]any {
	return map[string]any{"username": a.Username, "password": a.Password}
}
