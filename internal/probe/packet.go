package probe

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/net/ipv4"
)

const (
	icmpHeaderLen = 8
	maxPacketLen  = 65535

	// MaxPayloadLength is the largest ICMP payload that still fits an IPv4 packet
	MaxPayloadLength = maxPacketLen - ipv4.HeaderLen - icmpHeaderLen

	payloadMarker = "archtester"
)

// PacketLength returns the wire length of a probe carrying payloadLen bytes
func PacketLength(payloadLen int) int {
	return ipv4.HeaderLen + icmpHeaderLen + payloadLen
}

// Construct builds an IPv4 ICMP Echo Request ready for a header-included raw
// socket. The identifier is used both as ICMP identifier and IP identification.
func Construct(src, dst netip.Addr, id, seq uint16, ttl uint8, payloadLen int) ([]byte, error) {
	if !src.Is4() || !dst.Is4() {
		return nil, fmt.Errorf("%w: %v -> %v", ErrNotIPv4, src, dst)
	}
	if payloadLen < 0 || payloadLen > MaxPayloadLength {
		return nil, fmt.Errorf("%w: %d byte payload", ErrPacketTooLong, payloadLen)
	}

	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      ttl,
		Id:       id,
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    src.AsSlice(),
		DstIP:    dst.AsSlice(),
	}
	icmp := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0),
		Id:       id,
		Seq:      seq,
	}
	payload := gopacket.Payload(fillPayload(payloadLen))

	// Checksums are filled in below so both layers are summed the same way.
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, ip, icmp, payload); err != nil {
		return nil, fmt.Errorf("serializing probe %d: %w", id, err)
	}

	b := buf.Bytes()
	if len(b) < ipv4.HeaderLen+icmpHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrLengthMismatch, len(b))
	}
	binary.BigEndian.PutUint16(b[ipv4.HeaderLen+2:], Checksum(b[ipv4.HeaderLen:]))
	binary.BigEndian.PutUint16(b[10:], Checksum(b[:ipv4.HeaderLen]))

	return b, nil
}

// fillPayload repeats the marker string to exactly n bytes
func fillPayload(n int) []byte {
	p := make([]byte, n)
	for i := 0; i < n; i += len(payloadMarker) {
		copy(p[i:], payloadMarker)
	}
	return p
}
