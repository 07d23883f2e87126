package probe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tkjaer/hops/internal/shared"
)

// sendProbes sends as many probes as the admission window allows
func (pm *ProbeManager) sendProbes(ctx context.Context) error {
	batch := false
	for pm.state.Window.Available() > 0 && pm.shouldContinue(ctx) {
		if err := pm.sendProbe(batch); err != nil {
			return err
		}
		batch = true
	}
	return nil
}

func (pm *ProbeManager) sendProbe(batch bool) error {
	ttl := pm.selector.next(pm.state)

	now, err := pm.now()
	if err != nil {
		return err
	}
	length := PacketLength(pm.config.PayloadLength)
	p, err := pm.state.Register(ttl, length, now)
	if err != nil {
		return err
	}
	packet, err := Construct(pm.config.SourceIP, pm.config.DestinationIP, p.ID, pm.seq, ttl, pm.config.PayloadLength)
	if err != nil {
		return err
	}
	if len(packet) != p.Length {
		return fmt.Errorf("%w: probe %d is %d bytes, expected %d", ErrLengthMismatch, p.ID, len(packet), p.Length)
	}

	if err := pm.transport.Send(packet, pm.config.DestinationIP); err != nil {
		return fmt.Errorf("sending probe %d: %w", p.ID, err)
	}
	slog.Debug("Sent probe", "id", p.ID, "seq", pm.seq, "ttl", ttl, "length", len(packet))
	pm.seq++

	pm.emit(shared.Event{
		Type:      shared.EventSent,
		ID:        p.ID,
		TTL:       ttl,
		Batch:     batch,
		Estimate:  pm.state.Estimate(),
		Timestamp: now,
	})
	return nil
}
