//go:build linux

// Package rawsock sends hand-built IPv4 packets and reads ICMP responses
// through raw sockets.
package rawsock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"syscall"

	"golang.org/x/net/bpf"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// Conn is a pair of raw sockets: one writing complete IPv4 packets out of a
// single interface, one reading ICMP addressed to the local address.
type Conn struct {
	send   *ipv4.RawConn
	recv   *net.IPConn
	recvRC syscall.RawConn
}

// Open creates both sockets. It needs CAP_NET_RAW.
func Open(ifName string, local netip.Addr) (*Conn, error) {
	if !local.Is4() {
		return nil, fmt.Errorf("local address %v is not IPv4", local)
	}

	lc := net.ListenConfig{Control: bindToDevice(ifName)}
	pc, err := lc.ListenPacket(context.Background(), "ip4:255", "0.0.0.0")
	if err != nil {
		return nil, fmt.Errorf("opening send socket: %w", err)
	}
	send, err := ipv4.NewRawConn(pc)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("enabling header inclusion: %w", err)
	}

	recv, err := net.ListenIP("ip4:icmp", &net.IPAddr{IP: local.AsSlice()})
	if err != nil {
		send.Close()
		return nil, fmt.Errorf("opening receive socket: %w", err)
	}
	c := &Conn{send: send, recv: recv}

	if err := c.attachFilter(); err != nil {
		// The engine validates every packet anyway
		slog.Warn("Receiving without socket filter", "error", err)
	}
	if c.recvRC, err = recv.SyscallConn(); err != nil {
		c.Close()
		return nil, err
	}

	slog.Debug("Opened raw sockets", "interface", ifName, "local", local)
	return c, nil
}

func bindToDevice(ifName string) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		if ifName == "" {
			return nil
		}
		var serr error
		if err := c.Control(func(fd uintptr) {
			serr = unix.BindToDevice(int(fd), ifName)
		}); err != nil {
			return err
		}
		if serr != nil {
			return fmt.Errorf("binding to %s: %w", ifName, serr)
		}
		return nil
	}
}

func (c *Conn) attachFilter() error {
	prog, err := bpf.Assemble(icmpFilter)
	if err != nil {
		return err
	}
	return ipv4.NewPacketConn(c.recv).SetBPF(prog)
}

// Send writes one complete IPv4 packet. The destination in the header is
// replaced with dst.
func (c *Conn) Send(packet []byte, dst netip.Addr) error {
	h, err := ipv4.ParseHeader(packet)
	if err != nil {
		return err
	}
	h.Dst = dst.AsSlice()
	return c.send.WriteTo(h, packet[h.Len:], nil)
}

// Poll reads one packet without blocking. It returns zero bytes when
// nothing is queued.
func (c *Conn) Poll(buf []byte) (int, error) {
	var n int
	var rerr error
	err := c.recvRC.Read(func(fd uintptr) bool {
		n, _, rerr = unix.Recvfrom(int(fd), buf, unix.MSG_DONTWAIT)
		return true
	})
	if err != nil {
		return 0, err
	}
	switch {
	case errors.Is(rerr, unix.EAGAIN), errors.Is(rerr, unix.EWOULDBLOCK), errors.Is(rerr, unix.EINTR):
		return 0, nil
	case rerr != nil:
		return 0, rerr
	}
	return n, nil
}

func (c *Conn) Close() error {
	return errors.Join(c.send.Close(), c.recv.Close())
}
