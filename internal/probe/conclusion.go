package probe

import (
	"github.com/tkjaer/hops/internal/shared"
)

// estimate turns a hop bound into what can be said about the distance
func estimate(b HopBound, maxTTL uint8) shared.HopEstimate {
	switch {
	case b.Exact():
		return shared.HopEstimate{Exact: true, Low: b.Min, High: b.Max}
	case !b.MinKnown() && b.Max >= int(maxTTL):
		return shared.HopEstimate{Unknown: true, Low: 0, High: b.Max}
	default:
		return shared.HopEstimate{Low: max(b.Min, 0), High: b.Max}
	}
}

// Conclude derives the hop estimate, reachability and statistics from the
// final table and bound
func Conclude(t *Table, b HopBound, maxTTL uint8) shared.Conclusion {
	var c shared.Conclusion
	c.Hops = estimate(b, maxTTL)

	st := &c.Stats
	for ttl := 1; ttl <= 255; ttl++ {
		if n := t.SentWithTTL(uint8(ttl)); n > 0 {
			st.TTLs = append(st.TTLs, shared.TTLCount{TTL: uint8(ttl), Count: n})
		}
	}

	first := true
	for _, p := range t.Probes() {
		st.ProbesSent++
		st.BytesSent += p.Length
		if !p.Responded {
			continue
		}
		st.Responses++
		st.BytesReceived += p.ResponseLength
		switch p.Kind {
		case shared.EchoReply:
			st.EchoReplies++
		case shared.TimeExceeded:
			st.TimeExceededs++
		case shared.DestinationUnreachable:
			st.DestinationUnreachables++
		}

		d := p.Delay.Microseconds()
		if first || d < st.MinDelay {
			st.MinDelay = d
		}
		if first || d > st.MaxDelay {
			st.MaxDelay = d
		}
		first = false
	}

	switch {
	case st.EchoReplies > 0 && st.DestinationUnreachables > 0:
		c.Reachability = shared.ReachableWithErrors
	case st.EchoReplies > 0:
		c.Reachability = shared.Reachable
	case st.DestinationUnreachables > 0:
		c.Reachability = shared.MaybeUnreachable
	case st.TimeExceededs > 0:
		c.Reachability = shared.Unsure
	default:
		c.Reachability = shared.NoResponses
	}
	return c
}
