package probe

import (
	"fmt"
	"time"
)

// DefaultTableSize is the number of probe identifiers available to one run
const DefaultTableSize = 256

// Table records every probe of a run, indexed by identifier. Identifiers are
// handed out sequentially and never reused.
type Table struct {
	probes   []Probe
	next     int
	count    int
	ttlCount [256]int
}

func NewTable(size int) *Table {
	if size <= 0 {
		size = DefaultTableSize
	}
	if size > 1<<16 {
		size = 1 << 16
	}
	return &Table{probes: make([]Probe, size)}
}

func (t *Table) Cap() int { return len(t.probes) }

func (t *Table) Len() int { return t.count }

// NextID returns the next identifier that has never been handed out
func (t *Table) NextID() (uint16, error) {
	if t.next >= len(t.probes) {
		return 0, fmt.Errorf("%w: all %d identifiers used", ErrIdentifierSpaceExhausted, len(t.probes))
	}
	return uint16(t.next), nil
}

// Register records a probe sent at now
func (t *Table) Register(id uint16, ttl uint8, length int, now time.Time) (*Probe, error) {
	if t.count >= len(t.probes) || int(id) >= len(t.probes) {
		return nil, fmt.Errorf("%w: cannot register id %d in a table of %d", ErrIdentifierSpaceExhausted, id, len(t.probes))
	}
	p := &t.probes[id]
	if p.used {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}

	*p = Probe{ID: id, TTL: ttl, Length: length, SentAt: now, used: true}
	t.count++
	t.ttlCount[ttl]++
	if int(id) >= t.next {
		t.next = int(id) + 1
	}
	return p, nil
}

// Lookup returns the probe registered under id
func (t *Table) Lookup(id uint16) (*Probe, bool) {
	if int(id) >= len(t.probes) || !t.probes[id].used {
		return nil, false
	}
	return &t.probes[id], true
}

// Tried reports whether any probe has been sent with ttl
func (t *Table) Tried(ttl uint8) bool {
	return t.ttlCount[ttl] > 0
}

// SentWithTTL returns how many probes were sent with ttl
func (t *Table) SentWithTTL(ttl uint8) int {
	return t.ttlCount[ttl]
}

// Probes returns copies of all registered probes in identifier order
func (t *Table) Probes() []Probe {
	out := make([]Probe, 0, t.count)
	for i := range t.probes {
		if t.probes[i].used {
			out = append(out, t.probes[i])
		}
	}
	return out
}
