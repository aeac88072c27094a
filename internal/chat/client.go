package chat

import (
	"net/netip"
	"time"
)

// Client is one registered chat participant as stored in the registry.
// The registry owns every record; handlers and the monitor only ever see
// copies taken under the registry lock.
type Client struct {
	SessionID  string // stable across rename, used to correlate log lines
	Name       string
	Addr       netip.AddrPort
	Muted      map[string]struct{}
	LastActive time.Time
	PingSentAt time.Time // zero when no liveness probe is outstanding
}

// HasMuted reports whether this client suppressed messages from sender.
func (c Client) HasMuted(sender string) bool {
	_, ok := c.Muted[sender]
	return ok
}

// ProbePending reports whether a liveness probe is outstanding.
func (c Client) ProbePending() bool {
	return !c.PingSentAt.IsZero()
}

func (c Client) clone() Client {
	out := c
	out.Muted = make(map[string]struct{}, len(c.Muted))
	for name := range c.Muted {
		out.Muted[name] = struct{}{}
	}
	return out
}
