package udp

import (
	"fmt"
	"net"
	"net/netip"
)

// MaxDatagram is the largest request the server reads from one datagram.
// One datagram equals one message; there is no framing beyond that.
const MaxDatagram = 4096

// Conn wraps a bound UDP socket with the read/write primitives the chat
// core consumes. No retries, no fragmentation handling.
type Conn struct {
	conn *net.UDPConn
}

// Open binds a datagram socket on addr (e.g. ":12000"). Failure here is
// the only fatal condition in the server.
func Open(addr string) (*Conn, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Conn{conn: conn}, nil
}

// Read blocks for the next datagram and returns the byte count and the
// sender's address.
func (c *Conn) Read(buf []byte) (int, netip.AddrPort, error) {
	return c.conn.ReadFromUDPAddrPort(buf)
}

// WriteTo sends one datagram to addr. Fire and forget: a slow or dead
// peer cannot block anyone else.
func (c *Conn) WriteTo(addr netip.AddrPort, payload []byte) (int, error) {
	return c.conn.WriteToUDPAddrPort(payload, addr)
}

// LocalAddr reports the bound address.
func (c *Conn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Close releases the socket, unblocking any pending Read.
func (c *Conn) Close() error {
	return c.conn.Close()
}
