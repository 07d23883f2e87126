//go:build !linux

// Package rawsock sends hand-built IPv4 packets and reads ICMP responses
// through raw sockets.
package rawsock

import (
	"errors"
	"net/netip"
)

// Conn is only available on Linux
type Conn struct{}

func Open(string, netip.Addr) (*Conn, error) {
	return nil, errors.ErrUnsupported
}

func (c *Conn) Send([]byte, netip.Addr) error { return errors.ErrUnsupported }

func (c *Conn) Poll([]byte) (int, error) { return 0, errors.ErrUnsupported }

func (c *Conn) Close() error { return nil }
