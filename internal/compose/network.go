package compose

import (
	"fmt"
	"net/netip"

	"github.com/jbweber/homelab/samba/internal/domain"
)

// Gateway returns the first usable address of the interface's network, that
// is the network address plus one.
func Gateway(iface netip.Prefix) (netip.Addr, error) {
	if !iface.IsValid() {
		return netip.Addr{}, &NetworkArithmeticError{Address: iface.String(), Reason: "invalid interface address"}
	}
	if !iface.Addr().Is4() {
		return netip.Addr{}, &NetworkArithmeticError{Address: iface.String(), Reason: "not an IPv4 address"}
	}
	if iface.Bits() > domain.MaxIPv4PrefixLength {
		return netip.Addr{}, &NetworkArithmeticError{
			Address: iface.String(),
			Reason:  fmt.Sprintf("prefix length %d leaves no host addresses", iface.Bits()),
		}
	}
	return iface.Masked().Addr().Next(), nil
}

// Positions of the machine's own address in the per-interface address lists
// the guest agent reports. The provider lists the loopback interface first,
// so the configured address is the first entry of the second list.
const (
	AssignedIPv4Interface = 1
	AssignedIPv4Entry     = 0
)

// AssignedIPv4 picks the machine's configured IPv4 address out of the address
// lists reported for its interfaces.
func AssignedIPv4(reported [][]string) (netip.Addr, error) {
	if len(reported) <= AssignedIPv4Interface || len(reported[AssignedIPv4Interface]) <= AssignedIPv4Entry {
		return netip.Addr{}, fmt.Errorf("reported addresses %v have no entry [%d][%d]", reported, AssignedIPv4Interface, AssignedIPv4Entry)
	}
	raw := reported[AssignedIPv4Interface][AssignedIPv4Entry]
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("reported address %q: %w", raw, err)
	}
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("reported address %q is not IPv4; the provider's address ordering may have changed", raw)
	}
	return addr, nil
}
