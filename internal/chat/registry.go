package chat

import (
	"net/netip"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry is the authoritative table of connected clients, keyed by
// network address with a secondary index by display name. All access goes
// through one reader/writer lock; every method returns copies, never
// pointers into the table.
type Registry struct {
	mu     sync.RWMutex
	byAddr map[netip.AddrPort]*Client
	byName map[string]*Client

	maxClients int
	maxMutes   int
	now        func() time.Time
}

// NewRegistry builds an empty registry with the given capacity limits.
func NewRegistry(maxClients, maxMutes int) *Registry {
	return &Registry{
		byAddr:     make(map[netip.AddrPort]*Client),
		byName:     make(map[string]*Client),
		maxClients: maxClients,
		maxMutes:   maxMutes,
		now:        time.Now,
	}
}

// FindByAddr returns a copy of the client registered at addr.
func (r *Registry) FindByAddr(addr netip.AddrPort) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byAddr[addr]
	if !ok {
		return Client{}, false
	}
	return c.clone(), true
}

// FindByName returns a copy of the client using the given display name.
func (r *Registry) FindByName(name string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byName[name]
	if !ok {
		return Client{}, false
	}
	return c.clone(), true
}

// Register associates name with addr. A first registration inserts a new
// client; a repeat registration from a known address is treated as that
// client renaming itself and keeps its mute list. renamedFrom carries the
// previous name when an existing client changed it.
func (r *Registry) Register(name string, addr netip.AddrPort) (c Client, renamedFrom string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, known := r.byAddr[addr]
	if other, taken := r.byName[name]; taken && other != existing {
		return Client{}, "", ErrNameTaken
	}

	if known {
		old := existing.Name
		if old != name {
			delete(r.byName, old)
			existing.Name = name
			r.byName[name] = existing
			renamedFrom = old
		}
		existing.LastActive = r.now()
		existing.PingSentAt = time.Time{}
		return existing.clone(), renamedFrom, nil
	}

	if len(r.byAddr) >= r.maxClients {
		return Client{}, "", ErrCapacityExceeded
	}

	fresh := &Client{
		SessionID:  uuid.NewString(),
		Name:       name,
		Addr:       addr,
		Muted:      make(map[string]struct{}),
		LastActive: r.now(),
	}
	r.byAddr[addr] = fresh
	r.byName[name] = fresh
	return fresh.clone(), "", nil
}

// Rename changes the display name of the client at addr and returns the
// old name for announcement. Renaming to the current name is allowed.
func (r *Registry) Rename(addr netip.AddrPort, newName string) (oldName string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byAddr[addr]
	if !ok {
		return "", ErrNotRegistered
	}
	if other, taken := r.byName[newName]; taken && other != c {
		return "", ErrNameTaken
	}

	oldName = c.Name
	delete(r.byName, oldName)
	c.Name = newName
	r.byName[newName] = c
	return oldName, nil
}

// Mute adds target to the mute list of the client at addr. Muting an
// already-muted name is a no-op.
func (r *Registry) Mute(addr netip.AddrPort, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byAddr[addr]
	if !ok {
		return ErrNotRegistered
	}
	if _, dup := c.Muted[target]; dup {
		return nil
	}
	if len(c.Muted) >= r.maxMutes {
		return ErrListFull
	}
	c.Muted[target] = struct{}{}
	return nil
}

// Unmute removes target from the mute list of the client at addr.
func (r *Registry) Unmute(addr netip.AddrPort, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byAddr[addr]
	if !ok {
		return ErrNotRegistered
	}
	if _, present := c.Muted[target]; !present {
		return ErrNotMuted
	}
	delete(c.Muted, target)
	return nil
}

// RemoveByAddr deletes the client at addr and returns a copy of the
// removed record. Removing an absent address is a safe no-op.
func (r *Registry) RemoveByAddr(addr netip.AddrPort) (Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(r.byAddr[addr])
}

// RemoveByName deletes the client using name. Safe no-op when absent.
func (r *Registry) RemoveByName(name string) (Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(r.byName[name])
}

func (r *Registry) removeLocked(c *Client) (Client, bool) {
	if c == nil {
		return Client{}, false
	}
	delete(r.byAddr, c.Addr)
	delete(r.byName, c.Name)
	return c.clone(), true
}

// Touch refreshes liveness for the client at addr: updates LastActive and
// clears any outstanding probe. Any traffic counts as liveness.
func (r *Registry) Touch(addr netip.AddrPort) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byAddr[addr]
	if !ok {
		return false
	}
	c.LastActive = r.now()
	c.PingSentAt = time.Time{}
	return true
}

// SnapshotActive returns a consistent point-in-time copy of every client,
// for iteration outside the lock. Broadcast never performs network writes
// while the registry is locked.
func (r *Registry) SnapshotActive() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Client, 0, len(r.byAddr))
	for _, c := range r.byAddr {
		out = append(out, c.clone())
	}
	return out
}

// Len reports the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAddr)
}

// OldestActive returns a copy of the client with the oldest LastActive.
func (r *Registry) OldestActive() (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var oldest *Client
	for _, c := range r.byAddr {
		if oldest == nil || c.LastActive.Before(oldest.LastActive) {
			oldest = c
		}
	}
	if oldest == nil {
		return Client{}, false
	}
	return oldest.clone(), true
}

// MarkProbed records that a liveness probe was sent at the given time.
// It only applies when the same session is still registered at addr and
// no probe is already outstanding.
func (r *Registry) MarkProbed(addr netip.AddrPort, sessionID string, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byAddr[addr]
	if !ok || c.SessionID != sessionID || !c.PingSentAt.IsZero() {
		return false
	}
	c.PingSentAt = at
	return true
}

// EvictIfProbeExpired removes the client at addr only if the same session
// is still registered, its probe is still outstanding, and the probe is
// older than timeout at the given time. A concurrent request or removal
// between the monitor's scan and this call makes it a safe no-op.
func (r *Registry) EvictIfProbeExpired(addr netip.AddrPort, sessionID string, timeout time.Duration, now time.Time) (Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byAddr[addr]
	if !ok || c.SessionID != sessionID || c.PingSentAt.IsZero() {
		return Client{}, false
	}
	if now.Sub(c.PingSentAt) < timeout {
		return Client{}, false
	}
	return r.removeLocked(c)
}
