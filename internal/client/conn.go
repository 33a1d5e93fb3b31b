package client

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"time"

	"github.com/mkeats/cadenza/pkg/protocol"
)

// conn wraps one TCP connection to the server after a successful handshake.
type conn struct {
	nc      net.Conn
	rd      *bufio.Reader
	version string
}

// dial connects and performs the banner handshake. The timeout bounds both
// the TCP connect and the banner read.
func dial(ctx context.Context, addr string, timeout time.Duration) (*conn, error) {
	d := net.Dialer{Timeout: timeout}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	rd := bufio.NewReader(nc)
	if timeout > 0 {
		_ = nc.SetReadDeadline(time.Now().Add(timeout))
	}
	line, err := rd.ReadString('\n')
	if err != nil {
		_ = nc.Close()
		return nil, &HandshakeError{Addr: addr, Err: err}
	}
	line = strings.TrimRight(line, "\r\n")

	version, ok := protocol.ParseBanner(line)
	if !ok {
		_ = nc.Close()
		return nil, &HandshakeError{Addr: addr, Line: line}
	}
	_ = nc.SetReadDeadline(time.Time{})

	return &conn{nc: nc, rd: rd, version: version}, nil
}

// writeLine sends one command line and drains it fully before returning.
func (c *conn) writeLine(line string, timeout time.Duration) error {
	if timeout > 0 {
		_ = c.nc.SetWriteDeadline(time.Now().Add(timeout))
	} else {
		_ = c.nc.SetWriteDeadline(time.Time{})
	}
	_, err := io.WriteString(c.nc, line+"\n")
	return err
}

// readLine returns the next response line with the trailing newline removed.
// A zero timeout blocks indefinitely; the long-poll wait relies on that.
func (c *conn) readLine(timeout time.Duration) (string, error) {
	if timeout > 0 {
		_ = c.nc.SetReadDeadline(time.Now().Add(timeout))
	} else {
		_ = c.nc.SetReadDeadline(time.Time{})
	}
	line, err := c.rd.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *conn) close() error {
	return c.nc.Close()
}
