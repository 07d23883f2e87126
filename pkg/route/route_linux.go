//go:build linux

package route

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/jsimonetti/rtnetlink"
	"golang.org/x/sys/unix"
)

// fetchRoutes sends RTM_GETROUTE for ip. Variable for mocking in tests.
var fetchRoutes = func(ip netip.Addr) ([]rtnetlink.RouteMessage, error) {
	c, err := rtnetlink.Dial(nil)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	tx := &rtnetlink.RouteMessage{
		Family:    unix.AF_INET,
		DstLength: 32,
		Table:     unix.RT_TABLE_MAIN,
		Attributes: rtnetlink.RouteAttributes{
			Dst: ip.AsSlice(),
		},
	}
	return c.Route.Get(tx)
}

// interfaceByIndex is net.InterfaceByIndex, replaced in tests
var interfaceByIndex = net.InterfaceByIndex

// fromMessages converts the kernel's answer. RTM_GETROUTE resolves to a
// single route, so anything else is treated as an error.
func fromMessages(ip netip.Addr, msgs []rtnetlink.RouteMessage) (Route, error) {
	switch {
	case len(msgs) == 0:
		return Route{}, fmt.Errorf("%w: %s", ErrNoRoute, ip)
	case len(msgs) > 1:
		return Route{}, fmt.Errorf("multiple routes found for %s", ip)
	}
	m := msgs[0]
	if m.Type != unix.RTN_UNICAST && m.Type != unix.RTN_LOCAL {
		return Route{}, fmt.Errorf("%w: %s is route type %d", ErrNoRoute, ip, m.Type)
	}

	dst, ok := netip.AddrFromSlice(m.Attributes.Dst)
	if !ok || dst.Unmap() != ip {
		return Route{}, fmt.Errorf("route destination %v does not match %s", m.Attributes.Dst, ip)
	}
	src, ok := netip.AddrFromSlice(m.Attributes.Src)
	if !ok {
		return Route{}, fmt.Errorf("route to %s has no source address", ip)
	}
	var gw netip.Addr
	if a, ok := netip.AddrFromSlice(m.Attributes.Gateway); ok {
		gw = a.Unmap()
	}

	intf, err := interfaceByIndex(int(m.Attributes.OutIface))
	if err != nil {
		return Route{}, fmt.Errorf("interface index %d: %w", m.Attributes.OutIface, err)
	}
	if intf.Flags&net.FlagUp == 0 {
		return Route{}, fmt.Errorf("interface %s is down", intf.Name)
	}

	return Route{
		Destination: ip,
		Gateway:     gw,
		Source:      src.Unmap(),
		Interface:   intf,
	}, nil
}

func get(ip netip.Addr) (Route, error) {
	msgs, err := fetchRoutes(ip)
	if err != nil {
		return Route{}, fmt.Errorf("route lookup for %s: %w", ip, err)
	}
	return fromMessages(ip, msgs)
}
