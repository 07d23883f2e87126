package probe

// hopUnknown marks a lower bound no Time Exceeded has raised yet
const hopUnknown = -1

// HopBound brackets the hop distance. Min only rises and Max only falls.
type HopBound struct {
	Min int
	Max int
}

func NewHopBound(maxTTL uint8) HopBound {
	return HopBound{Min: hopUnknown, Max: int(maxTTL)}
}

// ObserveTimeExceeded raises Min past a TTL that expired before the target
func (b *HopBound) ObserveTimeExceeded(ttl uint8) {
	if n := int(ttl) + 1; n > b.Min {
		b.Min = n
	}
}

// ObserveEchoReply lowers Max to a TTL that reached the target
func (b *HopBound) ObserveEchoReply(ttl uint8) {
	if n := int(ttl); n < b.Max {
		b.Max = n
	}
}

func (b HopBound) Exact() bool { return b.Min == b.Max }

func (b HopBound) MinKnown() bool { return b.Min != hopUnknown }

// Candidates returns the inclusive TTL range (Min, Max] still worth probing.
// An unknown Min counts as zero. lo > hi means nothing is left.
func (b HopBound) Candidates() (lo, hi int) {
	return max(b.Min, 0) + 1, min(b.Max, 255)
}
