package route

import (
	"errors"
	"net"
	"net/netip"
)

// ErrNoRoute is returned when the kernel has no usable route to an address
var ErrNoRoute = errors.New("no route to destination")

// Route is the kernel's choice for reaching one destination: the next hop,
// the source address it would use and the outgoing interface.
type Route struct {
	Destination netip.Addr
	Gateway     netip.Addr // invalid when the destination is on-link
	Source      netip.Addr
	Interface   *net.Interface
}

// Get asks the routing table how an IPv4 destination would be reached
func Get(ip netip.Addr) (Route, error) {
	if !ip.Is4() {
		return Route{}, errors.New("route lookups are IPv4 only")
	}
	return get(ip)
}
