package iface

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/jackpal/gateway"

	"github.com/tkjaer/hops/pkg/route"
)

// ErrNoIPv4Address is returned for interfaces without an IPv4 address
var ErrNoIPv4Address = errors.New("interface has no IPv4 address")

// Interface is the local end probes are sent from
type Interface struct {
	Index int
	Name  string
	Addr  netip.Addr
}

// Replaced in tests
var (
	interfaceByName   = net.InterfaceByName
	interfaces        = net.Interfaces
	interfaceAddrs    = (*net.Interface).Addrs
	routeGet          = route.Get
	discoverInterface = gateway.DiscoverInterface
)

// Lookup returns the named interface and its first IPv4 address
func Lookup(name string) (Interface, error) {
	intf, err := interfaceByName(name)
	if err != nil {
		return Interface{}, fmt.Errorf("interface %q: %w", name, err)
	}
	addr, err := firstIPv4(intf)
	if err != nil {
		return Interface{}, err
	}
	return Interface{Index: intf.Index, Name: intf.Name, Addr: addr}, nil
}

// ForDestination picks the interface and source address the kernel would
// use for dst. Without a usable route it falls back to the interface that
// holds the default gateway.
func ForDestination(dst netip.Addr) (Interface, error) {
	r, err := routeGet(dst)
	if err == nil && r.Source.Is4() {
		return Interface{Index: r.Interface.Index, Name: r.Interface.Name, Addr: r.Source}, nil
	}
	routeErr := err

	ip, err := discoverInterface()
	if err != nil {
		return Interface{}, fmt.Errorf("no interface for %s: %w", dst, errors.Join(routeErr, err))
	}
	addr, ok := netip.AddrFromSlice(ip)
	if !ok || !addr.Unmap().Is4() {
		return Interface{}, fmt.Errorf("default interface address %v: %w", ip, ErrNoIPv4Address)
	}
	return byAddress(addr.Unmap())
}

// byAddress finds the interface carrying addr
func byAddress(addr netip.Addr) (Interface, error) {
	ifs, err := interfaces()
	if err != nil {
		return Interface{}, err
	}
	for i := range ifs {
		addrs, err := interfaceAddrs(&ifs[i])
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipFromAddr(a) == addr {
				return Interface{Index: ifs[i].Index, Name: ifs[i].Name, Addr: addr}, nil
			}
		}
	}
	return Interface{}, fmt.Errorf("no interface has address %s", addr)
}

func firstIPv4(intf *net.Interface) (netip.Addr, error) {
	addrs, err := interfaceAddrs(intf)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("interface %s addresses: %w", intf.Name, err)
	}
	for _, a := range addrs {
		if ip := ipFromAddr(a); ip.Is4() {
			return ip, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("%s: %w", intf.Name, ErrNoIPv4Address)
}

func ipFromAddr(a net.Addr) netip.Addr {
	var ip net.IP
	switch v := a.(type) {
	case *net.IPNet:
		ip = v.IP
	case *net.IPAddr:
		ip = v.IP
	}
	addr, _ := netip.AddrFromSlice(ip)
	return addr.Unmap()
}
