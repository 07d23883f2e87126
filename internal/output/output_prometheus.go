package output

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tkjaer/hops/internal/shared"
)

// MetricsOutput writes the result of a run as a Prometheus textfile, for
// node_exporter's textfile collector
type MetricsOutput struct {
	filename string
	registry *prometheus.Registry

	hopsLow       *prometheus.GaugeVec
	hopsHigh      *prometheus.GaugeVec
	hopsExact     *prometheus.GaugeVec
	reachable     *prometheus.GaugeVec
	probesSent    *prometheus.GaugeVec
	responses     *prometheus.GaugeVec
	responseDelay *prometheus.GaugeVec
	hopInfo       *prometheus.GaugeVec
	lastRun       *prometheus.GaugeVec
}

var destinationLabels = []string{"destination", "destination_ip"}

func NewMetricsOutput(filename string) *MetricsOutput {
	gauge := func(name, help string, extra ...string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: name, Help: help},
			append(append([]string{}, destinationLabels...), extra...),
		)
	}

	m := &MetricsOutput{
		filename:      filename,
		registry:      prometheus.NewRegistry(),
		hopsLow:       gauge("hops_distance_low", "Lower bound of the hop distance"),
		hopsHigh:      gauge("hops_distance_high", "Upper bound of the hop distance"),
		hopsExact:     gauge("hops_distance_exact", "Whether the hop distance is known exactly (1 = yes, 0 = no)"),
		reachable:     gauge("hops_destination_reachable", "Whether the destination sent an echo reply (1 = yes, 0 = no)"),
		probesSent:    gauge("hops_probes_sent", "Number of probes sent in the run"),
		responses:     gauge("hops_responses", "Responses received by kind", "kind"),
		responseDelay: gauge("hops_response_delay_ms", "Shortest and longest response delay in milliseconds", "bound"),
		hopInfo:       gauge("hops_path_hop", "Responder seen at a TTL, always 1", "ttl", "hop_ip", "hop_ptr", "path_hash"),
		lastRun:       gauge("hops_last_run_timestamp", "Unix time the run concluded"),
	}
	m.registry.MustRegister(
		m.hopsLow, m.hopsHigh, m.hopsExact, m.reachable, m.probesSent,
		m.responses, m.responseDelay, m.hopInfo, m.lastRun,
	)
	return m
}

// Progress is a no-op, metrics are only written once the run is complete
func (m *MetricsOutput) Progress(shared.Event) {}

func (m *MetricsOutput) Complete(report *shared.Report) error {
	if report == nil {
		return nil
	}
	m.record(report)
	return prometheus.WriteToTextfile(m.filename, m.registry)
}

func (m *MetricsOutput) record(r *shared.Report) {
	dst := prometheus.Labels{"destination": r.Destination, "destination_ip": r.DestinationIP}
	c := r.Conclusion

	m.hopsLow.With(dst).Set(float64(c.Hops.Low))
	m.hopsHigh.With(dst).Set(float64(c.Hops.High))
	m.hopsExact.With(dst).Set(boolToFloat(c.Hops.Exact))
	m.reachable.With(dst).Set(boolToFloat(c.Reachability == shared.Reachable || c.Reachability == shared.ReachableWithErrors))
	m.probesSent.With(dst).Set(float64(c.Stats.ProbesSent))

	kinds := map[shared.ResponseKind]int{
		shared.EchoReply:              c.Stats.EchoReplies,
		shared.TimeExceeded:           c.Stats.TimeExceededs,
		shared.DestinationUnreachable: c.Stats.DestinationUnreachables,
	}
	for kind, n := range kinds {
		m.responses.With(withLabel(dst, "kind", kind.String())).Set(float64(n))
	}

	if c.Stats.Responses > 0 {
		m.responseDelay.With(withLabel(dst, "bound", "min")).Set(float64(c.Stats.MinDelay) / 1000)
		m.responseDelay.With(withLabel(dst, "bound", "max")).Set(float64(c.Stats.MaxDelay) / 1000)
	}

	for _, hop := range r.Path {
		l := withLabel(dst, "ttl", strconv.Itoa(int(hop.TTL)))
		l["hop_ip"] = hop.IP
		l["hop_ptr"] = hop.PTR
		l["path_hash"] = r.PathHash
		m.hopInfo.With(l).Set(1)
	}

	m.lastRun.With(dst).Set(float64(r.Timestamp.Unix()))
}

func withLabel(base prometheus.Labels, name, value string) prometheus.Labels {
	l := make(prometheus.Labels, len(base)+1)
	for k, v := range base {
		l[k] = v
	}
	l[name] = value
	return l
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Close is a no-op, the file is written in one go by Complete
func (m *MetricsOutput) Close() error { return nil }
