package chat

import "sync"

// History is a fixed-capacity ring of the most recent broadcast lines,
// replayed to newly connecting clients. It has its own lock and is never
// touched while the registry lock is held.
type History struct {
	mu    sync.RWMutex
	lines []string
	start int
	count int
}

// NewHistory builds an empty ring holding at most capacity lines.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{lines: make([]string, capacity)}
}

// Append stores one line, evicting the oldest when the ring is full.
func (h *History) Append(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == len(h.lines) {
		h.lines[h.start] = line
		h.start = (h.start + 1) % len(h.lines)
		return
	}
	h.lines[(h.start+h.count)%len(h.lines)] = line
	h.count++
}

// Lines returns the retained lines in chronological order.
func (h *History) Lines() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, h.count)
	for i := 0; i < h.count; i++ {
		out = append(out, h.lines[(h.start+i)%len(h.lines)])
	}
	return out
}
