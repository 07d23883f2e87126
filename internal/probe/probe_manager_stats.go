package probe

import (
	"context"
	"log/slog"
	"time"

	"github.com/tkjaer/hops/internal/shared"
)

// ptrWait bounds how long the summary waits for reverse lookups
const ptrWait = 2 * time.Second

// generateSummary creates the final report from the probe table
func (pm *ProbeManager) generateSummary(ctx context.Context) *shared.Report {
	probes := pm.state.Table.Probes()

	report := &shared.Report{
		Destination:   pm.config.Destination,
		DestinationIP: pm.config.DestinationIP.String(),
		SourceIP:      pm.config.SourceIP.String(),
		Interface:     pm.config.Interface,
		Algorithm:     pm.config.Algorithm.String(),
		MaxTTL:        pm.config.MaxTTL,
		State:         pm.runState.String(),
		Conclusion:    Conclude(pm.state.Table, pm.state.Bound, pm.config.MaxTTL),
		Probes:        make([]shared.ProbeRecord, 0, len(probes)),
		Timestamp:     pm.clock(),
	}
	if report.Destination == "" {
		report.Destination = report.DestinationIP
	}
	for i := range probes {
		report.Probes = append(report.Probes, probes[i].record())
	}

	report.Path = responderPath(probes)
	pm.resolvePath(ctx, report.Path)
	report.PathHash = shared.CalculatePathHashFromHops(report.Path, pm.config.HashAlgorithm)

	return report
}

// responderPath lists the first responder for each TTL, ordered by TTL
func responderPath(probes []Probe) []shared.PathHop {
	var seen [256]bool
	var hops [256]shared.PathHop
	for i := range probes {
		p := &probes[i]
		if !p.Responded || seen[p.TTL] {
			continue
		}
		seen[p.TTL] = true
		hops[p.TTL] = shared.PathHop{TTL: p.TTL, IP: p.From.String(), Kind: p.Kind}
	}

	path := []shared.PathHop{}
	for ttl := range hops {
		if seen[ttl] {
			path = append(path, hops[ttl])
		}
	}
	return path
}

// resolvePath fills in PTR names when reverse lookups are enabled
func (pm *ProbeManager) resolvePath(ctx context.Context, path []shared.PathHop) {
	if pm.ptrManager == nil || len(path) == 0 {
		return
	}
	// Names are still wanted when the run itself was interrupted.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ptrWait)
	defer cancel()
	for _, hop := range path {
		pm.ptrManager.RequestPTRAsync(wctx, hop.IP)
	}
	pm.ptrManager.Wait(wctx)

	for i := range path {
		if name, ok := pm.ptrManager.GetPTR(path[i].IP); ok {
			path[i].PTR = name
		}
	}
	slog.Debug("Resolved responder names", "hops", len(path))
}
