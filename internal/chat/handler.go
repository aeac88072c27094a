package chat

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/rs/zerolog"
)

const (
	mustConnSay    = "You must conn$<name> before sending messages"
	mustConnMute   = "You must conn$<name> before muting users"
	mustConnUnmute = "You must conn$<name> before unmuting users"
	mustConnRename = "You must conn$<name> before renaming"
)

// Handler processes one datagram per invocation. It is stateless across
// requests; everything durable lives in the registry and history.
type Handler struct {
	registry   *Registry
	router     *Router
	adminPort  uint16
	maxNameLen int
	log        *zerolog.Logger
}

// NewHandler builds the per-datagram command dispatcher. adminPort is the
// source port whose traffic is allowed to kick; it is a convention, not a
// credential.
func NewHandler(registry *Registry, router *Router, adminPort uint16, maxNameLen int, logger *zerolog.Logger) *Handler {
	return &Handler{
		registry:   registry,
		router:     router,
		adminPort:  adminPort,
		maxNameLen: maxNameLen,
		log:        logger,
	}
}

// Handle parses and executes a single request from addr, replying to the
// sender synchronously. Safe for concurrent use.
func (h *Handler) Handle(addr netip.AddrPort, raw []byte) {
	cmd, payload, ok := ParseRequest(raw)
	if !ok {
		h.reject(addr, ErrCodeBadRequest, "Malformed request (no $): "+payload)
		return
	}

	// Any parsable datagram from a registered address counts as liveness:
	// refresh LastActive and clear an outstanding probe before branching.
	h.registry.Touch(addr)

	h.log.Debug().Str("addr", addr.String()).Str("cmd", cmd).Msg("request")

	switch cmd {
	case CmdConn:
		h.handleConn(addr, payload)
	case CmdSay:
		h.handleSay(addr, payload)
	case CmdSayTo:
		h.handleSayTo(addr, payload)
	case CmdMute:
		h.handleMute(addr, payload)
	case CmdUnmute:
		h.handleUnmute(addr, payload)
	case CmdRename:
		h.handleRename(addr, payload)
	case CmdDisconn:
		h.handleDisconn(addr)
	case CmdKick:
		h.handleKick(addr, payload)
	case CmdRetPing:
		// The Touch above already cleared the probe; never replies.
	default:
		h.reject(addr, ErrCodeUnknownCommand, fmt.Sprintf("Unknown command '%s'", cmd))
	}
}

func (h *Handler) handleConn(addr netip.AddrPort, name string) {
	if name == "" {
		h.reject(addr, ErrCodeEmptyName, "Name cannot be empty")
		return
	}
	if len(name) > h.maxNameLen {
		h.reject(addr, ErrCodeEmptyName, fmt.Sprintf("Name '%s' is too long", name))
		return
	}

	c, renamedFrom, err := h.registry.Register(name, addr)
	switch {
	case errors.Is(err, ErrNameTaken):
		h.reject(addr, ErrCodeNameTaken, fmt.Sprintf("Name '%s' already in use", name))
		return
	case errors.Is(err, ErrCapacityExceeded):
		h.reject(addr, ErrCodeCapacityExceeded, "Server full or name taken")
		return
	}

	h.router.System(addr, fmt.Sprintf("Hi %s, you have successfully connected to the chat", name))

	// Replay always precedes the join broadcast so the new client sees
	// history strictly before anything triggered by its own arrival.
	h.router.ReplayHistory(addr)
	h.router.BroadcastSystem(name+" has joined the chat", addr)

	h.log.Info().
		Str("session", c.SessionID).
		Str("name", name).
		Str("addr", addr.String()).
		Str("renamed_from", renamedFrom).
		Msg("client connected")
}

func (h *Handler) handleSay(addr netip.AddrPort, msg string) {
	sender, ok := h.registry.FindByAddr(addr)
	if !ok {
		h.reject(addr, ErrCodeNotRegistered, mustConnSay)
		return
	}
	if msg == "" {
		// Empty broadcasts are dropped without an error reply.
		return
	}
	h.router.BroadcastPublic(sender, sender.Name+": "+msg)
}

func (h *Handler) handleSayTo(addr netip.AddrPort, payload string) {
	sender, ok := h.registry.FindByAddr(addr)
	if !ok {
		h.reject(addr, ErrCodeNotRegistered, mustConnSay)
		return
	}

	recipient, msg, found := splitRecipient(payload)
	if !found {
		h.reject(addr, ErrCodeBadArgs, "sayto requires a recipient name and a message")
		return
	}

	blocked, err := h.router.SendPrivate(sender.Name, recipient, msg)
	switch {
	case errors.Is(err, ErrRecipientNotFound):
		h.reject(addr, ErrCodeRecipientNotFound, fmt.Sprintf("Recipient '%s' not found", recipient))
	case blocked:
		// Deliberate: blocking is silent to the recipient and explained
		// to the sender.
		h.router.System(addr, fmt.Sprintf("Your message could not be delivered (you are muted by %s)", recipient))
	default:
		h.router.System(addr, "Message delivered to "+recipient)
	}
}

func (h *Handler) handleMute(addr netip.AddrPort, target string) {
	if _, ok := h.registry.FindByAddr(addr); !ok {
		h.reject(addr, ErrCodeNotRegistered, mustConnMute)
		return
	}
	if target == "" {
		h.reject(addr, ErrCodeBadArgs, "mute requires a client name")
		return
	}

	switch err := h.registry.Mute(addr, target); {
	case errors.Is(err, ErrListFull):
		h.reject(addr, ErrCodeListFull, fmt.Sprintf("Unable to mute %s (maybe full list)", target))
	case errors.Is(err, ErrNotRegistered):
		h.reject(addr, ErrCodeNotRegistered, mustConnMute)
	default:
		h.router.System(addr, "You have muted "+target)
	}
}

func (h *Handler) handleUnmute(addr netip.AddrPort, target string) {
	if _, ok := h.registry.FindByAddr(addr); !ok {
		h.reject(addr, ErrCodeNotRegistered, mustConnUnmute)
		return
	}
	if target == "" {
		h.reject(addr, ErrCodeBadArgs, "unmute requires a client name")
		return
	}

	switch err := h.registry.Unmute(addr, target); {
	case errors.Is(err, ErrNotMuted):
		h.reject(addr, ErrCodeNotMuted, target+" was not muted")
	case errors.Is(err, ErrNotRegistered):
		h.reject(addr, ErrCodeNotRegistered, mustConnUnmute)
	default:
		h.router.System(addr, "You have unmuted "+target)
	}
}

func (h *Handler) handleRename(addr netip.AddrPort, newName string) {
	if _, ok := h.registry.FindByAddr(addr); !ok {
		h.reject(addr, ErrCodeNotRegistered, mustConnRename)
		return
	}
	if newName == "" {
		h.reject(addr, ErrCodeBadArgs, "rename requires a new name")
		return
	}
	if len(newName) > h.maxNameLen {
		h.reject(addr, ErrCodeBadArgs, fmt.Sprintf("Name '%s' is too long", newName))
		return
	}

	oldName, err := h.registry.Rename(addr, newName)
	switch {
	case errors.Is(err, ErrNameTaken):
		h.reject(addr, ErrCodeNameTaken, fmt.Sprintf("Name '%s' already in use", newName))
		return
	case errors.Is(err, ErrNotRegistered):
		h.reject(addr, ErrCodeNotRegistered, mustConnRename)
		return
	}

	h.router.System(addr, "You are now known as "+newName)
	if oldName != newName {
		h.router.BroadcastSystem(fmt.Sprintf("%s is now known as %s", oldName, newName), addr)
	}
}

func (h *Handler) handleDisconn(addr netip.AddrPort) {
	removed, ok := h.registry.RemoveByAddr(addr)
	if !ok {
		h.router.System(addr, "You are not connected")
		return
	}

	h.router.System(addr, "Disconnected. Bye!")
	h.router.BroadcastSystem(removed.Name+" has left the chat", netip.AddrPort{})

	h.log.Info().Str("session", removed.SessionID).Str("name", removed.Name).Msg("client disconnected")
}

func (h *Handler) handleKick(addr netip.AddrPort, target string) {
	if addr.Port() != h.adminPort {
		h.reject(addr, ErrCodeForbidden, "kick is admin-only")
		return
	}
	if target == "" {
		h.reject(addr, ErrCodeBadArgs, "kick requires a client name")
		return
	}

	removed, ok := h.registry.RemoveByName(target)
	if !ok {
		h.reject(addr, ErrCodeRecipientNotFound, fmt.Sprintf("Client '%s' not found", target))
		return
	}

	h.router.System(removed.Addr, "You have been removed from the chat")
	h.router.BroadcastSystem(removed.Name+" has been removed from the chat", netip.AddrPort{})

	h.log.Info().Str("session", removed.SessionID).Str("name", removed.Name).Msg("client kicked")
}

func (h *Handler) reject(addr netip.AddrPort, code, msg string) {
	h.log.Debug().Str("addr", addr.String()).Str("code", code).Msg(msg)
	h.router.Error(addr, msg)
}

// splitRecipient separates "recipient message..." into its two parts.
// Both must be non-empty.
func splitRecipient(payload string) (recipient, msg string, ok bool) {
	recipient, msg, found := strings.Cut(payload, " ")
	msg = strings.TrimLeft(msg, " \t")
	if !found || recipient == "" || msg == "" {
		return "", "", false
	}
	return recipient, msg, true
}
