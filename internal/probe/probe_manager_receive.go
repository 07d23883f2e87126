package probe

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tkjaer/hops/internal/shared"
)

// receiveOne polls the transport once and handles at most one packet.
// It reports whether a packet was read.
func (pm *ProbeManager) receiveOne() (bool, error) {
	n, err := pm.transport.Poll(pm.buf)
	if err != nil {
		return false, fmt.Errorf("receiving: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	now, err := pm.now()
	if err != nil {
		return true, err
	}
	return true, pm.handlePacket(pm.buf[:n], now)
}

// handlePacket correlates a received packet with the probe table. Packets
// that are malformed or not ours are dropped; only clock errors are returned.
func (pm *ProbeManager) handlePacket(b []byte, now time.Time) error {
	resp, err := Parse(b)
	if err != nil {
		slog.Debug("Discarding packet", "reason", err)
		pm.emitOther(err.Error(), now)
		return nil
	}
	if !resp.IsForUs(pm.config.SourceIP, pm.config.DestinationIP) {
		slog.Debug("Discarding packet", "reason", "not addressed to us",
			"kind", resp.Kind, "from", resp.Source, "to", resp.Destination)
		pm.emitOther("not addressed to us", now)
		return nil
	}

	result, p, err := pm.state.Correlate(resp.Kind, resp.ID, resp.Length, resp.Source, now)
	if err != nil {
		return err
	}
	slog.Debug("Received response", "id", resp.ID, "kind", resp.Kind, "from", resp.Source, "result", result)

	e := shared.Event{
		Type:      shared.EventReceived,
		ID:        resp.ID,
		Kind:      resp.Kind,
		From:      resp.Source.String(),
		Timestamp: now,
	}
	switch result {
	case NewlyResponded:
		e.Found = true
		e.TTL = p.TTL
	case AlreadyResponded:
		e.Found = true
		e.Duplicate = true
		e.TTL = p.TTL
	}
	e.Estimate = pm.state.Estimate()
	pm.emit(e)
	return nil
}

func (pm *ProbeManager) emitOther(reason string, now time.Time) {
	pm.emit(shared.Event{
		Type:      shared.EventOther,
		Reason:    reason,
		Estimate:  pm.state.Estimate(),
		Timestamp: now,
	})
}
