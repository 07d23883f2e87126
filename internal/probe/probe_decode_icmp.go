package probe

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/net/ipv4"

	"github.com/tkjaer/hops/internal/shared"
)

// Response is a validated ICMP response read from the raw socket
type Response struct {
	Kind        shared.ResponseKind
	Code        uint8
	ID          uint16 // identifier used for correlation
	Source      netip.Addr
	Destination netip.Addr
	Length      int

	// Addresses of the quoted original packet, set for error kinds only
	Inner struct {
		Source      netip.Addr
		Destination netip.Addr
	}
}

// Parse validates an IPv4 packet carrying ICMP and extracts what is needed to
// correlate it with a probe. Every rejection wraps ErrInvalidPacket.
func Parse(b []byte) (Response, error) {
	var r Response

	ip, err := decodeIPv4(b)
	if err != nil {
		return r, err
	}
	if total := int(binary.BigEndian.Uint16(b[2:4])); total > len(b) {
		return r, invalid("declared length %d exceeds received %d", total, len(b))
	}
	if ip.FragOffset != 0 {
		return r, invalid("fragment offset %d", ip.FragOffset)
	}
	if ip.Protocol != layers.IPProtocolICMPv4 {
		return r, invalid("protocol %v", ip.Protocol)
	}

	var icmp layers.ICMPv4
	if err := icmp.DecodeFromBytes(ip.Payload, gopacket.NilDecodeFeedback); err != nil {
		return r, invalid("icmp header: %v", err)
	}

	r.Source = addrFrom(ip.SrcIP)
	r.Destination = addrFrom(ip.DstIP)
	r.Length = len(b)
	r.Code = icmp.TypeCode.Code()

	switch t, c := icmp.TypeCode.Type(), icmp.TypeCode.Code(); {
	case t == layers.ICMPv4TypeEchoReply:
		r.Kind = shared.EchoReply
		r.ID = icmp.Id
		return r, nil
	case t == layers.ICMPv4TypeTimeExceeded && c == layers.ICMPv4CodeTTLExceeded:
		r.Kind = shared.TimeExceeded
	case t == layers.ICMPv4TypeDestinationUnreachable:
		r.Kind = shared.DestinationUnreachable
	default:
		return r, invalid("icmp type %d code %d", t, c)
	}

	if err := r.decodeQuoted(icmp.Payload); err != nil {
		return Response{}, err
	}
	return r, nil
}

// decodeQuoted reads the original IPv4 and ICMP headers carried by an ICMP
// error message
func (r *Response) decodeQuoted(b []byte) error {
	inner, err := decodeIPv4(b)
	if err != nil {
		return fmt.Errorf("quoted %w", err)
	}
	if inner.Protocol != layers.IPProtocolICMPv4 {
		return invalid("quoted protocol %v", inner.Protocol)
	}
	// The quoted length field describes the original datagram, not what the
	// router chose to copy back.
	if len(inner.Payload) < icmpHeaderLen {
		inner.Payload = b[int(inner.IHL)*4:]
	}

	var icmp layers.ICMPv4
	if err := icmp.DecodeFromBytes(inner.Payload, gopacket.NilDecodeFeedback); err != nil {
		return invalid("quoted icmp header: %v", err)
	}
	if icmp.TypeCode.Type() != layers.ICMPv4TypeEchoRequest {
		return invalid("quoted icmp type %d", icmp.TypeCode.Type())
	}

	r.ID = icmp.Id
	r.Inner.Source = addrFrom(inner.SrcIP)
	r.Inner.Destination = addrFrom(inner.DstIP)
	return nil
}

// IsForUs reports whether the response belongs to a probe this host sent to
// target from local
func (r Response) IsForUs(local, target netip.Addr) bool {
	if r.Destination != local {
		return false
	}
	if r.Kind == shared.EchoReply {
		return true
	}
	return r.Inner.Source == local && r.Inner.Destination == target
}

// decodeIPv4 checks the fixed header fields by hand before handing the bytes to
// gopacket, so truncated input never reaches past the buffer
func decodeIPv4(b []byte) (*layers.IPv4, error) {
	if len(b) < ipv4.HeaderLen {
		return nil, invalid("%d bytes is shorter than an IPv4 header", len(b))
	}
	if v := b[0] >> 4; v != 4 {
		return nil, invalid("ip version %d", v)
	}
	hdrLen := int(b[0]&0x0f) * 4
	if hdrLen < ipv4.HeaderLen || hdrLen+icmpHeaderLen > len(b) {
		return nil, invalid("header length %d with %d bytes", hdrLen, len(b))
	}

	ip := &layers.IPv4{}
	if err := ip.DecodeFromBytes(b, gopacket.NilDecodeFeedback); err != nil {
		return nil, invalid("ipv4 header: %v", err)
	}
	return ip, nil
}

func addrFrom(ip net.IP) netip.Addr {
	a, _ := netip.AddrFromSlice(ip)
	return a.Unmap()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPacket, fmt.Sprintf(format, args...))
}
