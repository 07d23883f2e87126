package probe

import (
	"context"
	"fmt"
	"net"
	"net/netip"
)

// lookupHost is replaced in tests
var lookupHost = net.DefaultResolver.LookupNetIP

// ResolveDestination returns the first IPv4 address of host. Literal
// addresses are returned without a lookup.
func ResolveDestination(ctx context.Context, host string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		addr = addr.Unmap()
		if !addr.Is4() {
			return netip.Addr{}, fmt.Errorf("%w: %s", ErrNotIPv4, host)
		}
		return addr, nil
	}

	addrs, err := lookupHost(ctx, "ip4", host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("resolving %s: %w", host, err)
	}
	for _, a := range addrs {
		if a = a.Unmap(); a.Is4() {
			return a, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("resolving %s: %w", host, ErrNotIPv4)
}
