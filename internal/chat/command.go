package chat

import "strings"

// Wire command names. The client half of the protocol sends these as the
// part before the '$' delimiter.
const (
	CmdConn    = "conn"
	CmdSay     = "say"
	CmdSayTo   = "sayto"
	CmdMute    = "mute"
	CmdUnmute  = "unmute"
	CmdRename  = "rename"
	CmdDisconn = "disconn"
	CmdKick    = "kick"
	CmdRetPing = "ret-ping"
)

const (
	prefixSystem  = "SYS$"
	prefixError   = "ERR$"
	historyMarker = "[History] "

	// probeLine is the liveness probe datagram; clients answer ret-ping$.
	probeLine = "ping$"
)

// ParseRequest splits an incoming datagram into its command and payload.
// Trailing NUL padding and line endings are dropped first, then both
// halves are trimmed of spaces and tabs. ok is false when the '$'
// delimiter is missing; payload then carries the cleaned raw text for
// error reporting. The payload itself may contain further '$' characters.
func ParseRequest(raw []byte) (command, payload string, ok bool) {
	s := strings.TrimRight(string(raw), "\x00")
	s = strings.TrimRight(s, "\r\n")

	cmd, rest, found := strings.Cut(s, "$")
	if !found {
		return "", s, false
	}
	return strings.Trim(cmd, " \t"), strings.Trim(rest, " \t"), true
}
