package chat

import (
	"strings"
	"testing"
	"time"
)

func newTestMonitor(t *testing.T) (*Registry, *Monitor, *recordingWriter, time.Time) {
	t.Helper()

	registry := NewRegistry(128, 64)
	history := NewHistory(15)
	writer := newRecordingWriter()
	router := NewRouter(registry, history, writer, nopLogger())
	monitor := NewMonitor(registry, router, 10*time.Second, time.Minute, 30*time.Second, nopLogger())

	base := time.Now()
	registry.now = func() time.Time { return base }
	return registry, monitor, writer, base
}

func TestMonitorProbesOnlyOldestIdleClient(t *testing.T) {
	registry, monitor, writer, base := newTestMonitor(t)

	idleAddr := addr(t, "127.0.0.1:40001")
	freshAddr := addr(t, "127.0.0.1:40002")
	mustRegister(t, registry, "Idle", idleAddr)

	registry.now = func() time.Time { return base.Add(30 * time.Second) }
	mustRegister(t, registry, "Fresh", freshAddr)
	writer.reset()

	// Nobody past the threshold yet.
	monitor.sweep(base.Add(45 * time.Second))
	if lines := writer.linesTo(idleAddr); len(lines) != 0 {
		t.Fatalf("premature probe: %v", lines)
	}

	// Idle crossed the threshold: exactly one probe, to the oldest only.
	monitor.sweep(base.Add(70 * time.Second))
	if lines := writer.linesTo(idleAddr); len(lines) != 1 || lines[0] != "ping$" {
		t.Fatalf("idle got %v", lines)
	}
	if lines := writer.linesTo(freshAddr); len(lines) != 0 {
		t.Fatalf("fresh client probed: %v", lines)
	}

	// A later cycle inside the probe window must not re-probe.
	monitor.sweep(base.Add(80 * time.Second))
	if lines := writer.linesTo(idleAddr); len(lines) != 1 {
		t.Fatalf("re-probed while probe outstanding: %v", lines)
	}
}

func TestMonitorEvictsAfterProbeTimeout(t *testing.T) {
	registry, monitor, writer, base := newTestMonitor(t)

	idleAddr := addr(t, "127.0.0.1:40001")
	peerAddr := addr(t, "127.0.0.1:40002")
	mustRegister(t, registry, "Idle", idleAddr)

	registry.now = func() time.Time { return base.Add(30 * time.Second) }
	mustRegister(t, registry, "Peer", peerAddr)
	writer.reset()

	monitor.sweep(base.Add(70 * time.Second)) // probe
	monitor.sweep(base.Add(90 * time.Second)) // timeout not yet elapsed
	if _, ok := registry.FindByAddr(idleAddr); !ok {
		t.Fatal("evicted before probe timeout")
	}

	monitor.sweep(base.Add(101 * time.Second)) // past the 30s probe timeout

	if _, ok := registry.FindByAddr(idleAddr); ok {
		t.Fatal("idle client still registered")
	}
	idleLines := writer.linesTo(idleAddr)
	if len(idleLines) != 2 || idleLines[1] != "SYS$You have been removed from the chat" {
		t.Fatalf("idle got %v", idleLines)
	}
	peerLines := writer.linesTo(peerAddr)
	if len(peerLines) != 1 || peerLines[0] != "SYS$Idle has been removed from the chat due to inactivity" {
		t.Fatalf("peer got %v", peerLines)
	}

	// Further sweeps must not evict or announce again.
	monitor.sweep(base.Add(130 * time.Second))
	if got := writer.linesTo(idleAddr); len(got) != 2 {
		t.Fatalf("idle got extra traffic after eviction: %v", got)
	}
}

func TestMonitorTrafficResetsProbe(t *testing.T) {
	registry, monitor, writer, base := newTestMonitor(t)

	idleAddr := addr(t, "127.0.0.1:40001")
	mustRegister(t, registry, "Idle", idleAddr)

	monitor.sweep(base.Add(70 * time.Second))
	if lines := writer.linesTo(idleAddr); len(lines) != 1 {
		t.Fatalf("expected one probe, got %v", lines)
	}

	// Any inbound traffic counts as liveness and clears the probe.
	registry.now = func() time.Time { return base.Add(80 * time.Second) }
	if !registry.Touch(idleAddr) {
		t.Fatal("touch failed")
	}

	monitor.sweep(base.Add(110 * time.Second))
	if _, ok := registry.FindByAddr(idleAddr); !ok {
		t.Fatal("client evicted despite fresh traffic")
	}
	if lines := writer.linesTo(idleAddr); len(lines) != 1 {
		t.Fatalf("unexpected traffic after reset: %v", lines)
	}
}

func TestMonitorEvictionRecheckToleratesConcurrentRemoval(t *testing.T) {
	registry, monitor, writer, base := newTestMonitor(t)

	idleAddr := addr(t, "127.0.0.1:40001")
	peerAddr := addr(t, "127.0.0.1:40002")
	mustRegister(t, registry, "Idle", idleAddr)

	registry.now = func() time.Time { return base.Add(30 * time.Second) }
	mustRegister(t, registry, "Peer", peerAddr)
	writer.reset()

	monitor.sweep(base.Add(70 * time.Second)) // probe sent

	// A handler removes the client between scan and eviction.
	if _, ok := registry.RemoveByAddr(idleAddr); !ok {
		t.Fatal("remove failed")
	}

	monitor.sweep(base.Add(150 * time.Second))

	for _, line := range writer.linesTo(peerAddr) {
		if strings.Contains(line, "has been removed") {
			t.Fatalf("eviction announced for an already-removed client: %q", line)
		}
	}
}

func TestMonitorEmptyRegistry(t *testing.T) {
	_, monitor, _, base := newTestMonitor(t)
	monitor.sweep(base.Add(time.Hour)) // must not panic
}
