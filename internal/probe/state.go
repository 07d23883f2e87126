package probe

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/tkjaer/hops/internal/shared"
)

// Correlation is the outcome of matching a response to the probe table
type Correlation int

const (
	NotFound Correlation = iota
	AlreadyResponded
	NewlyResponded
)

func (c Correlation) String() string {
	switch c {
	case NotFound:
		return "not found"
	case AlreadyResponded:
		return "already responded"
	case NewlyResponded:
		return "newly responded"
	default:
		return "unknown"
	}
}

// State is the mutable bookkeeping of a run. It is owned by a single goroutine.
type State struct {
	Table  *Table
	Bound  HopBound
	Window *Window
	MaxTTL uint8
}

func NewState(tableSize, parallel int, maxTTL uint8) *State {
	return &State{
		Table:  NewTable(tableSize),
		Bound:  NewHopBound(maxTTL),
		Window: NewWindow(parallel),
		MaxTTL: maxTTL,
	}
}

// Register claims a window slot and the next identifier for a probe
func (s *State) Register(ttl uint8, length int, now time.Time) (*Probe, error) {
	id, err := s.Table.NextID()
	if err != nil {
		return nil, err
	}
	if !s.Window.Take() {
		return nil, ErrWindowClosed
	}
	p, err := s.Table.Register(id, ttl, length, now)
	if err != nil {
		s.Window.Release()
		return nil, err
	}
	return p, nil
}

// Correlate applies a response to the probe it answers. Only the first
// response for a probe changes any state.
func (s *State) Correlate(kind shared.ResponseKind, id uint16, length int, from netip.Addr, now time.Time) (Correlation, *Probe, error) {
	p, ok := s.Table.Lookup(id)
	if !ok {
		return NotFound, nil, nil
	}
	if p.Responded {
		return AlreadyResponded, p, nil
	}
	if now.Before(p.SentAt) {
		return NotFound, p, fmt.Errorf("%w: response to probe %d at %v, sent at %v", ErrClockWentBackwards, id, now, p.SentAt)
	}

	p.Responded = true
	p.Kind = kind
	p.ResponseLength = length
	p.ReceivedAt = now
	p.Delay = now.Sub(p.SentAt)
	p.From = from

	switch kind {
	case shared.TimeExceeded:
		s.Bound.ObserveTimeExceeded(p.TTL)
	case shared.EchoReply:
		s.Bound.ObserveEchoReply(p.TTL)
	}
	s.Window.Release()

	return NewlyResponded, p, nil
}

// ShouldContinue reports whether another probe can still teach us anything
func (s *State) ShouldContinue(maxProbes int) bool {
	if s.Table.Len() >= maxProbes {
		return false
	}
	if s.Bound.Exact() {
		return false
	}
	lo, hi := s.Bound.Candidates()
	for ttl := lo; ttl <= hi; ttl++ {
		if !s.Table.Tried(uint8(ttl)) {
			return true
		}
	}
	return false
}

// Estimate summarises the hop bound as it currently stands
func (s *State) Estimate() shared.HopEstimate {
	return estimate(s.Bound, s.MaxTTL)
}
