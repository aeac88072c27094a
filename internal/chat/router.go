package chat

import (
	"net/netip"

	"github.com/rs/zerolog"
)

// Writer sends one datagram to one address. Implemented by the UDP
// transport; tests substitute an in-memory recorder.
type Writer interface {
	WriteTo(addr netip.AddrPort, payload []byte) (int, error)
}

// Router computes recipient sets and performs the per-recipient transport
// writes. It always snapshots the registry first and never writes while a
// lock is held; a failed send to one recipient is logged and does not
// affect the rest.
type Router struct {
	registry *Registry
	history  *History
	writer   Writer
	log      *zerolog.Logger
}

// NewRouter builds a router over the shared registry and history.
func NewRouter(registry *Registry, history *History, writer Writer, logger *zerolog.Logger) *Router {
	return &Router{registry: registry, history: history, writer: writer, log: logger}
}

// Reply sends one newline-terminated line to a single address.
func (rt *Router) Reply(addr netip.AddrPort, line string) {
	if _, err := rt.writer.WriteTo(addr, []byte(line+"\n")); err != nil {
		rt.log.Warn().Err(err).Str("addr", addr.String()).Msg("send failed")
	}
}

// System sends an informational SYS$ line to a single address.
func (rt *Router) System(addr netip.AddrPort, msg string) {
	rt.Reply(addr, prefixSystem+msg)
}

// Error sends an ERR$ line to a single address.
func (rt *Router) Error(addr netip.AddrPort, msg string) {
	rt.Reply(addr, prefixError+msg)
}

// Probe sends a liveness probe to a single address. No reply is expected
// beyond a future ret-ping$ datagram.
func (rt *Router) Probe(addr netip.AddrPort) {
	rt.Reply(addr, probeLine)
}

// BroadcastPublic records the chat line in history and delivers it to
// every client except the sender and anyone who muted the sender.
func (rt *Router) BroadcastPublic(sender Client, line string) {
	rt.history.Append(line)
	for _, c := range rt.registry.SnapshotActive() {
		if c.Addr == sender.Addr || c.HasMuted(sender.Name) {
			continue
		}
		rt.Reply(c.Addr, line)
	}
}

// BroadcastSystem records msg in history and delivers it as a SYS$ line
// to every client, optionally skipping one address.
func (rt *Router) BroadcastSystem(msg string, exclude netip.AddrPort) {
	rt.history.Append(msg)
	for _, c := range rt.registry.SnapshotActive() {
		if exclude.IsValid() && c.Addr == exclude {
			continue
		}
		rt.System(c.Addr, msg)
	}
}

// SendPrivate delivers a private line to the named recipient. When the
// recipient muted the sender nothing is delivered and blocked is true;
// the recipient never learns a delivery was attempted.
func (rt *Router) SendPrivate(senderName, recipient, msg string) (blocked bool, err error) {
	rc, ok := rt.registry.FindByName(recipient)
	if !ok {
		return false, ErrRecipientNotFound
	}
	if rc.HasMuted(senderName) {
		return true, nil
	}
	rt.Reply(rc.Addr, senderName+" (private): "+msg)
	return false, nil
}

// ReplayHistory sends every retained history line to addr in original
// order, each wrapped with the history marker so the client can tell
// replayed context from live traffic.
func (rt *Router) ReplayHistory(addr netip.AddrPort) {
	for _, line := range rt.history.Lines() {
		rt.Reply(addr, historyMarker+line)
	}
}
