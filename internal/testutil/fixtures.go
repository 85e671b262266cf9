package testutil

// SampleDocument returns a complete, valid configuration document in the
// hyphenated external spelling. Each call returns a fresh copy.
func SampleDocument() map[string]any {
	return map[string]any{
		"proxmox": map[string]any{
			"node-name":    "pve",
			"api-endpoint": "https://pve.example.com:8006/",
			"api-token":    map[string]any{"envvar": "PROXMOX_API_TOKEN"},
		},
		"vm": map[string]any{
			"name":              "k8s-master",
			"vmid":              101,
			"ipv4-address":      "10.0.1.10/24",
			"cores":             2,
			"memory-mb-min":     1024,
			"memory-mb-max":     4096,
			"root-disk-size-gb": 20,
			"data-disk-size-gb": 100,
			"ssh-public-key":    "ssh-ed25519 AAAAC3 test@example",
		},
		"smb": map[string]any{
			"remote": map[string]any{"username": "remote", "password": "remote-pass"},
			"k8s":    map[string]any{"username": "k8s", "password": "k8s-pass"},
			"shares": []any{
				map[string]any{"name": "media", "remote-write": true, "k8s-write": false},
			},
		},
	}
}

// SampleSecrets resolves the secret references of SampleDocument.
func SampleSecrets(name string) (string, bool) {
	v, ok := map[string]string{
		"PROXMOX_API_TOKEN":       "root@pam!deploy=proxmox-secret",
		"UNIFY_API_TOKEN__PULUMI": "unify-secret",
	}[name]
	return v, ok
}
