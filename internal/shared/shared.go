package shared

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"strings"
	"time"
)

// ResponseKind identifies the ICMP message a probe was answered with
type ResponseKind uint8

const (
	EchoReply ResponseKind = iota
	TimeExceeded
	DestinationUnreachable
)

func (k ResponseKind) String() string {
	switch k {
	case EchoReply:
		return "echo_reply"
	case TimeExceeded:
		return "time_exceeded"
	case DestinationUnreachable:
		return "destination_unreachable"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name in JSON output
func (k ResponseKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// RunState tracks the lifecycle of a probing run
type RunState uint8

const (
	Idle RunState = iota
	Probing
	Concluded
)

func (s RunState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Probing:
		return "probing"
	case Concluded:
		return "concluded"
	default:
		return "unknown"
	}
}

// EventType is the kind of progress event emitted by the probing loop
type EventType string

const (
	EventSent     EventType = "sent"
	EventReceived EventType = "received"
	EventOther    EventType = "other"
)

// Event is a single progress notification
type Event struct {
	Type      EventType
	ID        uint16       // probe identifier
	TTL       uint8        // TTL of the matched probe, zero when Found is false
	Kind      ResponseKind // valid for EventReceived
	From      string       // responder address
	Found     bool         // response matched a probe we sent
	Duplicate bool         // probe had already been answered
	Batch     bool         // not the first probe of a send burst
	Reason    string       // why an EventOther packet was discarded
	Estimate  HopEstimate  // hop estimate after the event
	Timestamp time.Time
}

// HopEstimate is what is currently known about the hop distance
type HopEstimate struct {
	Exact   bool `json:"exact"`
	Unknown bool `json:"unknown"`
	Low     int  `json:"low"`
	High    int  `json:"high"`
}

// Brief renders the estimate the way progress lines show it
func (h HopEstimate) Brief() string {
	switch {
	case h.Exact:
		return fmt.Sprintf("%d hops away", h.Low)
	case h.Unknown:
		return "unknown hops away"
	default:
		return fmt.Sprintf("%d.. %d hops away", h.Low, h.High)
	}
}

// Phrase renders the estimate for the final conclusion sentence
func (h HopEstimate) Phrase() string {
	switch {
	case h.Exact:
		return fmt.Sprintf("%d hops away", h.Low)
	case h.Unknown:
		return "unknown hops away"
	default:
		return fmt.Sprintf("between %d and %d hops away", h.Low, h.High)
	}
}

// Reachability summarises which response kinds were seen
type Reachability string

const (
	Reachable           Reachability = "reachable"
	ReachableWithErrors Reachability = "reachable_with_errors"
	MaybeUnreachable    Reachability = "maybe_unreachable"
	Unsure              Reachability = "unsure"
	NoResponses         Reachability = "no_responses"
)

// Suffix completes the conclusion sentence after the hop estimate
func (r Reachability) Suffix() string {
	switch r {
	case Reachable:
		return " and reachable"
	case ReachableWithErrors:
		return " and reachable, but also gives reachability errors"
	case MaybeUnreachable:
		return ", but may not be reachable"
	case Unsure:
		return ", not sure if it is reachable"
	default:
		return ", not sure if it is reachable as we got no ICMPs back at all"
	}
}

// TTLCount is how many probes were sent with one TTL
type TTLCount struct {
	TTL   uint8 `json:"ttl"`
	Count int   `json:"count"`
}

// Stats aggregates the probe table at the end of a run
type Stats struct {
	ProbesSent              int        `json:"probes_sent"`
	TTLs                    []TTLCount `json:"ttls"`
	BytesSent               int        `json:"bytes_sent"`
	Responses               int        `json:"responses"`
	BytesReceived           int        `json:"bytes_received"`
	EchoReplies             int        `json:"echo_replies"`
	DestinationUnreachables int        `json:"destination_unreachables"`
	TimeExceededs           int        `json:"time_exceededs"`
	MinDelay                int64      `json:"min_delay"` // microseconds, zero without responses
	MaxDelay                int64      `json:"max_delay"` // microseconds
}

// Conclusion is everything derived from the final probe table and hop bound
type Conclusion struct {
	Hops         HopEstimate  `json:"hops"`
	Reachability Reachability `json:"reachability"`
	Stats        Stats        `json:"stats"`
}

// ProbeRecord is the final state of one probe
type ProbeRecord struct {
	ID             uint16       `json:"id"`
	TTL            uint8        `json:"ttl"`
	Length         int          `json:"length"`
	SentAt         time.Time    `json:"sent_at"`
	Responded      bool         `json:"responded"`
	Kind           ResponseKind `json:"kind,omitempty"`
	ResponseLength int          `json:"response_length,omitempty"`
	Delay          int64        `json:"delay,omitempty"` // microseconds
	From           string       `json:"from,omitempty"`
}

// PathHop is the first responder seen for a TTL
type PathHop struct {
	TTL  uint8        `json:"ttl"`
	IP   string       `json:"ip"`
	Kind ResponseKind `json:"kind"`
	PTR  string       `json:"ptr"`
}

// Report is the complete result of a run
type Report struct {
	Destination   string        `json:"destination"`
	DestinationIP string        `json:"destination_ip"`
	SourceIP      string        `json:"source_ip"`
	Interface     string        `json:"interface"`
	Algorithm     string        `json:"algorithm"`
	MaxTTL        uint8         `json:"max_ttl"`
	State         string        `json:"state"`
	Conclusion    Conclusion    `json:"conclusion"`
	Probes        []ProbeRecord `json:"probes"`
	Path          []PathHop     `json:"path"`
	PathHash      string        `json:"path_hash"`
	Timestamp     time.Time     `json:"timestamp"`
}

// calculatePathHash computes a hash of the network path using the specified algorithm
// It takes a slice of IP addresses representing the path and returns a hash string
func calculatePathHash(ips []string, algorithm string) string {
	if len(ips) == 0 {
		switch algorithm {
		case "sha256":
			return strings.Repeat("0", 64)
		default:
			return "00000000"
		}
	}

	var pathBuilder strings.Builder
	for _, ip := range ips {
		if ip != "" {
			pathBuilder.WriteString(ip)
			pathBuilder.WriteString("|")
		}
	}
	pathString := pathBuilder.String()

	switch algorithm {
	case "sha256":
		hash := sha256.Sum256([]byte(pathString))
		return hex.EncodeToString(hash[:])
	default:
		hash := crc32.ChecksumIEEE([]byte(pathString))
		return fmt.Sprintf("%08x", hash)
	}
}

// CalculatePathHashFromHops computes a hash from responders ordered by TTL
func CalculatePathHashFromHops(hops []PathHop, algorithm string) string {
	ips := make([]string, 0, len(hops))
	for _, hop := range hops {
		if hop.IP != "" {
			ips = append(ips, hop.IP)
		}
	}
	return calculatePathHash(ips, algorithm)
}
