//go:build !linux

package route

import (
	"errors"
	"net/netip"
)

func get(netip.Addr) (Route, error) {
	return Route{}, errors.ErrUnsupported
}
