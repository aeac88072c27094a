package chat

import (
	"context"
	"net/netip"
	"time"

	"github.com/rs/zerolog"
)

// Monitor is the single long-running task that watches for inactive
// clients. Each cycle it considers only the least-recently-active client
// and drives it through probe, reset-on-traffic, or eviction. One client
// per cycle bounds the probe rate.
type Monitor struct {
	registry      *Registry
	router        *Router
	interval      time.Duration
	idleThreshold time.Duration
	probeTimeout  time.Duration
	log           *zerolog.Logger
	now           func() time.Time
}

// NewMonitor builds an inactivity monitor over the shared registry.
func NewMonitor(registry *Registry, router *Router, interval, idleThreshold, probeTimeout time.Duration, logger *zerolog.Logger) *Monitor {
	return &Monitor{
		registry:      registry,
		router:        router,
		interval:      interval,
		idleThreshold: idleThreshold,
		probeTimeout:  probeTimeout,
		log:           logger,
		now:           time.Now,
	}
}

// Run blocks, sweeping the registry on every tick until ctx is canceled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Info().
		Dur("interval", m.interval).
		Dur("idle_threshold", m.idleThreshold).
		Dur("probe_timeout", m.probeTimeout).
		Msg("inactivity monitor started")

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("inactivity monitor stopped")
			return
		case <-ticker.C:
			m.sweep(m.now())
		}
	}
}

// sweep runs one monitor cycle against the registry state at the given
// time.
func (m *Monitor) sweep(now time.Time) {
	c, ok := m.registry.OldestActive()
	if !ok {
		return
	}
	if now.Sub(c.LastActive) < m.idleThreshold {
		return
	}

	if !c.ProbePending() {
		// MarkProbed fails if the client answered or vanished since the
		// scan; in that case no probe goes out.
		if m.registry.MarkProbed(c.Addr, c.SessionID, now) {
			m.router.Probe(c.Addr)
			m.log.Debug().Str("session", c.SessionID).Str("name", c.Name).Msg("liveness probe sent")
		}
		return
	}

	if now.Sub(c.PingSentAt) < m.probeTimeout {
		return
	}

	// Re-check under the write lock: a concurrent handler may have
	// refreshed or removed this client between the scan and now.
	evicted, ok := m.registry.EvictIfProbeExpired(c.Addr, c.SessionID, m.probeTimeout, now)
	if !ok {
		return
	}

	m.router.System(evicted.Addr, "You have been removed from the chat")
	m.router.BroadcastSystem(evicted.Name+" has been removed from the chat due to inactivity", netip.AddrPort{})
	m.log.Info().Str("session", evicted.SessionID).Str("name", evicted.Name).Msg("client evicted for inactivity")
}
