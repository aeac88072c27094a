package chat

import (
	"net/netip"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func addr(t *testing.T, s string) netip.AddrPort {
	t.Helper()

	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		t.Fatalf("bad addr %q: %v", s, err)
	}
	return ap
}

// recordingWriter captures every outbound line per destination address.
type recordingWriter struct {
	mu   sync.Mutex
	sent map[netip.AddrPort][]string
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{sent: make(map[netip.AddrPort][]string)}
}

func (w *recordingWriter) WriteTo(ap netip.AddrPort, payload []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.sent[ap] = append(w.sent[ap], strings.TrimSuffix(string(payload), "\n"))
	return len(payload), nil
}

func (w *recordingWriter) linesTo(ap netip.AddrPort) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, len(w.sent[ap]))
	copy(out, w.sent[ap])
	return out
}

func (w *recordingWriter) lastTo(t *testing.T, ap netip.AddrPort) string {
	t.Helper()

	lines := w.linesTo(ap)
	if len(lines) == 0 {
		t.Fatalf("no lines sent to %s", ap)
	}
	return lines[len(lines)-1]
}

func (w *recordingWriter) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sent = make(map[netip.AddrPort][]string)
}

// newTestStack builds a handler with the default limits over an
// in-memory writer.
func newTestStack(t *testing.T) (*Registry, *History, *Router, *Handler, *recordingWriter) {
	t.Helper()

	registry := NewRegistry(128, 64)
	history := NewHistory(15)
	writer := newRecordingWriter()
	router := NewRouter(registry, history, writer, nopLogger())
	handler := NewHandler(registry, router, 6666, 64, nopLogger())
	return registry, history, router, handler, writer
}
