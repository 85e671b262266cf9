package api

import (
	"fmt"
	"net/netip"
	"sync"

	"github.com/jbweber/homelab/samba/internal/compose"
	"github.com/jbweber/homelab/samba/internal/domain"
)

// Instance is a composed machine as the NoCloud datasource sees it.
type Instance struct {
	Name     string
	VMID     int
	Address  netip.Prefix
	Gateway  netip.Addr
	FQDN     string
	UserData string
}

// InstanceID is the NoCloud instance-id; it changes only when the vmid does.
func (i Instance) InstanceID() string {
	return fmt.Sprintf("iid-%08d", i.VMID)
}

// InstanceFromPlan collects the datasource view of a composed machine.
func InstanceFromPlan(cfg *domain.ComponentConfig, plan *compose.Plan) (Instance, error) {
	gateway, err := compose.Gateway(cfg.VM.IPv4Address)
	if err != nil {
		return Instance{}, err
	}

	snippet, ok := plan.ByKind(compose.KindBootConfigSnippet)
	if !ok {
		return Instance{}, fmt.Errorf("plan for %s has no boot config snippet", cfg.VM.Name)
	}
	raw, _ := snippet.Properties["source_raw"].(map[string]any)
	userData, ok := raw["data"].(compose.Secret)
	if !ok {
		return Instance{}, fmt.Errorf("boot config snippet for %s has no rendered data", cfg.VM.Name)
	}

	inst := Instance{
		Name:     cfg.VM.Name,
		VMID:     cfg.VM.VMID,
		Address:  cfg.VM.IPv4Address,
		Gateway:  gateway,
		UserData: userData.Reveal(),
	}
	if fqdn, ok := plan.Outputs[compose.OutputFQDN]; ok {
		inst.FQDN, _ = fqdn.Value.(string)
	}
	return inst, nil
}

// InstanceStore finds the instance a request comes from.
type InstanceStore interface {
	InstanceByIPv4(ip netip.Addr) (*Instance, error)
}

// StaticInstances is an in-memory InstanceStore keyed by interface address.
type StaticInstances struct {
	mu     sync.RWMutex
	byAddr map[netip.Addr]Instance
}

// NewStaticInstances creates a store holding instances.
func NewStaticInstances(instances ...Instance) *StaticInstances {
	s := &StaticInstances{byAddr: make(map[netip.Addr]Instance, len(instances))}
	for _, inst := range instances {
		s.Put(inst)
	}
	return s
}

// Put adds or replaces the instance at inst's address.
func (s *StaticInstances) Put(inst Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byAddr[inst.Address.Addr()] = inst
}

// InstanceByIPv4 returns nil when no instance owns ip.
func (s *StaticInstances) InstanceByIPv4(ip netip.Addr) (*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.byAddr[ip.Unmap()]
	if !ok {
		return nil, nil
	}
	return &inst, nil
}
