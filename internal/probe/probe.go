package probe

import (
	"net/netip"
	"time"

	"github.com/tkjaer/hops/internal/shared"
)

const (
	DefaultStartTTL  = 1
	DefaultMaxTTL    = 255
	DefaultMaxProbes = 50
	DefaultParallel  = 1
	MaxParallel      = 100 // exclusive

	DefaultIdleWait = time.Millisecond
)

// Config holds everything the probing loop needs for one run
type Config struct {
	Destination   string // name as given by the user
	DestinationIP netip.Addr
	SourceIP      netip.Addr
	Interface     string

	StartTTL      uint8
	MaxTTL        uint8
	MaxProbes     int
	Parallel      int
	PayloadLength int
	Algorithm     Algorithm

	TableSize     int           // defaults to DefaultTableSize
	IdleWait      time.Duration // pause after an empty poll, zero disables it
	HashAlgorithm string
}

// Probe is one Echo Request and, once answered, its response
type Probe struct {
	ID     uint16
	TTL    uint8
	Length int
	SentAt time.Time

	Responded      bool
	Kind           shared.ResponseKind
	ResponseLength int
	ReceivedAt     time.Time
	Delay          time.Duration
	From           netip.Addr

	used bool
}

// record converts the probe for reporting
func (p *Probe) record() shared.ProbeRecord {
	r := shared.ProbeRecord{
		ID:        p.ID,
		TTL:       p.TTL,
		Length:    p.Length,
		SentAt:    p.SentAt,
		Responded: p.Responded,
	}
	if p.Responded {
		r.Kind = p.Kind
		r.ResponseLength = p.ResponseLength
		r.Delay = p.Delay.Microseconds()
		r.From = p.From.String()
	}
	return r
}
