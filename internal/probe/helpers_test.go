package probe

import (
	"encoding/binary"
	"net/netip"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/tkjaer/hops/internal/shared"
)

var (
	testLocal  = netip.MustParseAddr("192.0.2.10")
	testTarget = netip.MustParseAddr("198.51.100.7")
	testOther  = netip.MustParseAddr("192.0.2.99")
)

// buildICMP serializes an IPv4 ICMP message with valid checksums
func buildICMP(t *testing.T, src, dst netip.Addr, typ, code uint8, id, seq uint16, payload []byte) []byte {
	t.Helper()
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    src.AsSlice(),
		DstIP:    dst.AsSlice(),
	}
	icmp := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(typ, code),
		Id:       id,
		Seq:      seq,
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, ip, icmp, gopacket.Payload(payload)); err != nil {
		t.Fatalf("SerializeLayers() error = %v", err)
	}
	return buf.Bytes()
}

// echoReplyFor reflects a probe the way the target would
func echoReplyFor(t *testing.T, probe []byte) []byte {
	t.Helper()
	src := netip.AddrFrom4([4]byte(probe[16:20]))
	dst := netip.AddrFrom4([4]byte(probe[12:16]))
	id := binary.BigEndian.Uint16(probe[24:26])
	seq := binary.BigEndian.Uint16(probe[26:28])
	return buildICMP(t, src, dst, layers.ICMPv4TypeEchoReply, 0, id, seq, probe[28:])
}

// errorFor builds an ICMP error from router quoting the probe header
func errorFor(t *testing.T, router netip.Addr, typ, code uint8, probe []byte) []byte {
	t.Helper()
	dst := netip.AddrFrom4([4]byte(probe[12:16]))
	return buildICMP(t, router, dst, typ, code, 0, 0, probe[:28])
}

func routerAt(ttl uint8) netip.Addr {
	return netip.AddrFrom4([4]byte{203, 0, 113, ttl})
}

// pathResponder answers like a path where the target is hops away
func pathResponder(t *testing.T, hops int) func([]byte) [][]byte {
	return func(probe []byte) [][]byte {
		ttl := probe[8]
		if int(ttl) < hops {
			return [][]byte{errorFor(t, routerAt(ttl), layers.ICMPv4TypeTimeExceeded, layers.ICMPv4CodeTTLExceeded, probe)}
		}
		return [][]byte{echoReplyFor(t, probe)}
	}
}

type fakeTransport struct {
	respond func([]byte) [][]byte
	queue   [][]byte
	sent    [][]byte
	sendErr error
	pollErr error
	onPoll  func()
}

func (f *fakeTransport) Send(packet []byte, dst netip.Addr) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	p := append([]byte(nil), packet...)
	f.sent = append(f.sent, p)
	if f.respond != nil {
		f.queue = append(f.queue, f.respond(p)...)
	}
	return nil
}

func (f *fakeTransport) Poll(buf []byte) (int, error) {
	if f.onPoll != nil {
		f.onPoll()
	}
	if f.pollErr != nil {
		return 0, f.pollErr
	}
	if len(f.queue) == 0 {
		return 0, nil
	}
	n := copy(buf, f.queue[0])
	f.queue = f.queue[1:]
	return n, nil
}

func (f *fakeTransport) sentTTLs() []uint8 {
	ttls := make([]uint8, 0, len(f.sent))
	for _, p := range f.sent {
		ttls = append(ttls, p[8])
	}
	return ttls
}

type recordingReporter struct {
	events []shared.Event
}

func (r *recordingReporter) Progress(e shared.Event) {
	r.events = append(r.events, e)
}

func (r *recordingReporter) count(typ shared.EventType) int {
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// stepClock advances by step on every reading
func stepClock(step time.Duration) func() time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func testConfig() Config {
	return Config{
		Destination:   "target.example",
		DestinationIP: testTarget,
		SourceIP:      testLocal,
		Interface:     "eth0",
		StartTTL:      1,
		MaxTTL:        5,
		MaxProbes:     DefaultMaxProbes,
		Parallel:      1,
		Algorithm:     Sequential,
	}
}
