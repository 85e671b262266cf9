package domain

import (
	"net/netip"
	"net/url"
)

// Defaults applied when a document omits the corresponding optional field.
const (
	DefaultCloudImageURL  = "https://cloud-images.ubuntu.com/noble/current/noble-server-cloudimg-amd64.img"
	DefaultDataDiskMount  = "/mnt/data"
	DefaultSSHUser        = "ubuntu"
	DefaultUnifyURL       = "https://unifi/"
	DefaultInternalDomain = "erx.box"
	DefaultSmbGroup       = "smb-users"
	DefaultUnifyTokenVar  = "UNIFY_API_TOKEN__PULUMI"
)

// ReservedNames are the logical names of the resources composed next to the
// VM. The VM is addressed by its name, so it may not take one of these.
var ReservedNames = []string{"cloud-image", "cloud-config", "dns"}

// MaxIPv4PrefixLength is the longest prefix that still leaves room for a
// gateway (network address + 1) and at least one further host.
const MaxIPv4PrefixLength = 30

// EnvVarRef names the environment variable holding a secret. Only the name is
// part of the configuration; the value is read when a plan is composed.
type EnvVarRef struct {
	EnvVar string
}

// ComponentConfig is the validated deployment description for one machine.
type ComponentConfig struct {
	Proxmox ProxmoxConfig
	VM      VirtualMachineConfig
	Unify   UnifyConfig
	Smb     SmbConfig
}

// ProxmoxConfig describes the virtualization node and how to reach its API.
type ProxmoxConfig struct {
	NodeName    string
	APIEndpoint *url.URL
	APIToken    EnvVarRef
	VerifySSL   bool
}

// VirtualMachineConfig describes the machine itself.
type VirtualMachineConfig struct {
	Name          string
	VMID          int
	CloudImageURL *url.URL
	VLANID        *int         // nil means untagged
	IPv4Address   netip.Prefix // interface address, e.g. 10.0.1.10/24

	Cores       int
	MemoryMBMin int
	MemoryMBMax int

	RootDiskSizeGB int
	DataDiskSizeGB int
	DataDiskMount  string

	SSHUser      string
	SSHPublicKey string
}

// UnifyConfig describes the DNS controller.
type UnifyConfig struct {
	URL            *url.URL
	VerifySSL      bool
	InternalDomain string
	APIToken       EnvVarRef
}

// SmbShare is one exported share and who may write to it.
type SmbShare struct {
	Name        string
	RemoteWrite bool
	K8sWrite    bool
}

// SmbAccount is a samba login.
type SmbAccount struct {
	Username string
	Password string
}

// SmbConfig describes the samba accounts and shares provisioned on the machine.
type SmbConfig struct {
	Remote SmbAccount
	K8s    SmbAccount
	Group  string
	Shares []SmbShare
}

// FQDN returns the name registered for the machine with the DNS controller.
func (c *ComponentConfig) FQDN() string {
	return c.VM.Name + "." + c.Unify.InternalDomain
}

func urlString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}
