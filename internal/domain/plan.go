package domain

// PlanRecord is a composed plan saved to the plan journal
type PlanRecord struct {
	ID          int64  // Unique identifier
	Environment string // Environment the plan was composed for (e.g. "prod")
	VMName      string // Virtual machine logical name
	VMID        int    // Proxmox VM id
	FQDN        string // DNS name, empty when DNS was disabled
	Document    string // Plan JSON with sensitive values redacted
	CreatedAt   string // When the plan was recorded
}
