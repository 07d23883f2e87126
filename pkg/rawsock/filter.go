package rawsock

import (
	"golang.org/x/net/bpf"
	"golang.org/x/net/ipv4"
)

const snapLen = 0xffff

// icmpFilter accepts the ICMP messages a probe can be answered with: Echo
// Reply, Destination Unreachable and Time Exceeded. The raw socket delivers
// the IPv4 header, so the ICMP type sits right after it.
var icmpFilter = []bpf.Instruction{
	bpf.LoadMemShift{Off: 0},
	bpf.LoadIndirect{Off: 0, Size: 1},
	bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(ipv4.ICMPTypeEchoReply), SkipTrue: 3},
	bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(ipv4.ICMPTypeDestinationUnreachable), SkipTrue: 2},
	bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(ipv4.ICMPTypeTimeExceeded), SkipTrue: 1},
	bpf.RetConstant{Val: 0},
	bpf.RetConstant{Val: snapLen},
}
