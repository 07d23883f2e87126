package probe

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/netip"
	"time"

	"github.com/tkjaer/hops/pkg/ptr"

	"github.com/tkjaer/hops/internal/shared"
)

// Transport moves raw IPv4 packets. Poll must not block; it returns zero
// bytes when nothing is waiting.
type Transport interface {
	Send(packet []byte, dst netip.Addr) error
	Poll(buf []byte) (int, error)
}

// Reporter receives progress events from the probing loop
type Reporter interface {
	Progress(shared.Event)
}

type Option func(*ProbeManager)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(pm *ProbeManager) { pm.clock = now }
}

// WithRand sets the random source used by the random algorithm
func WithRand(r *rand.Rand) Option {
	return func(pm *ProbeManager) { pm.rng = r }
}

// WithPtrManager enables reverse lookups of responders for the report
func WithPtrManager(p *ptr.PtrManager) Option {
	return func(pm *ProbeManager) { pm.ptrManager = p }
}

// ProbeManager runs one hop discovery against a single destination. All
// probe state is owned by the goroutine calling Run.
type ProbeManager struct {
	config     Config
	transport  Transport
	reporter   Reporter
	ptrManager *ptr.PtrManager

	state    *State
	selector *selector
	runState shared.RunState
	seq      uint16

	clock func() time.Time
	last  time.Time
	rng   *rand.Rand
	buf   []byte
}

// NewProbeManager validates the configuration and prepares a run
func NewProbeManager(cfg Config, t Transport, r Reporter, opts ...Option) (*ProbeManager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.TableSize == 0 {
		cfg.TableSize = DefaultTableSize
	}

	pm := &ProbeManager{
		config:    cfg,
		transport: t,
		reporter:  r,
		state:     NewState(cfg.TableSize, cfg.Parallel, cfg.MaxTTL),
		runState:  shared.Idle,
		clock:     time.Now,
		buf:       make([]byte, maxPacketLen),
	}
	for _, opt := range opts {
		opt(pm)
	}
	if pm.rng == nil {
		pm.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return pm, nil
}

func (c Config) validate() error {
	switch {
	case !c.SourceIP.Is4():
		return fmt.Errorf("%w: source %v", ErrNotIPv4, c.SourceIP)
	case !c.DestinationIP.Is4():
		return fmt.Errorf("%w: destination %v", ErrNotIPv4, c.DestinationIP)
	case c.MaxTTL == 0:
		return fmt.Errorf("%w: max TTL must be at least 1", ErrInvalidConfig)
	case c.StartTTL == 0:
		return fmt.Errorf("%w: start TTL must be at least 1", ErrInvalidConfig)
	case c.MaxProbes < 1:
		return fmt.Errorf("%w: max probes must be at least 1", ErrInvalidConfig)
	case c.Parallel < 1 || c.Parallel >= MaxParallel:
		return fmt.Errorf("%w: parallel probes must be between 1 and %d", ErrInvalidConfig, MaxParallel-1)
	case c.PayloadLength < 0 || c.PayloadLength > MaxPayloadLength:
		return fmt.Errorf("%w: payload length must be between 0 and %d", ErrInvalidConfig, MaxPayloadLength)
	case c.TableSize < 0 || c.TableSize > 1<<16:
		return fmt.Errorf("%w: table size %d", ErrInvalidConfig, c.TableSize)
	}
	return nil
}

// State exposes the probe bookkeeping, mainly for inspection after Run
func (pm *ProbeManager) State() *State { return pm.state }

func (pm *ProbeManager) RunState() shared.RunState { return pm.runState }

// Run probes until the hop distance is known, nothing is left to learn, the
// probe budget is spent or ctx is done. Cancellation is not an error; the
// report then describes what was learned so far.
func (pm *ProbeManager) Run(ctx context.Context) (*shared.Report, error) {
	sel, err := newSelector(pm.config.Algorithm, pm.config.StartTTL, pm.config.MaxTTL, pm.rng)
	if err != nil {
		return nil, err
	}
	pm.selector = sel
	pm.runState = shared.Probing

	slog.Debug("Starting probe run",
		"destination", pm.config.DestinationIP,
		"source", pm.config.SourceIP,
		"algorithm", pm.config.Algorithm,
		"parallel", pm.config.Parallel,
		"max_ttl", pm.config.MaxTTL,
		"max_probes", pm.config.MaxProbes)

	for pm.shouldContinue(ctx) {
		if err := pm.sendProbes(ctx); err != nil {
			return nil, err
		}
		received, err := pm.receiveOne()
		if err != nil {
			return nil, err
		}
		if !received && pm.config.IdleWait > 0 {
			pm.idle(ctx)
		}
	}

	pm.runState = shared.Concluded
	if ctx.Err() != nil {
		slog.Debug("Probe run cancelled", "error", ctx.Err())
	}
	slog.Debug("Probe run concluded", "probes", pm.state.Table.Len(), "min", pm.state.Bound.Min, "max", pm.state.Bound.Max)

	return pm.generateSummary(ctx), nil
}

func (pm *ProbeManager) shouldContinue(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	return pm.state.ShouldContinue(pm.config.MaxProbes)
}

func (pm *ProbeManager) idle(ctx context.Context) {
	t := time.NewTimer(pm.config.IdleWait)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// now reads the clock and fails if it moved backwards since the last reading
func (pm *ProbeManager) now() (time.Time, error) {
	t := pm.clock()
	if t.Before(pm.last) {
		return t, fmt.Errorf("%w: %v after %v", ErrClockWentBackwards, t, pm.last)
	}
	pm.last = t
	return t, nil
}

func (pm *ProbeManager) emit(e shared.Event) {
	if pm.reporter != nil {
		pm.reporter.Progress(e)
	}
}
