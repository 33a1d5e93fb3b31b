package client

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mkeats/cadenza/pkg/protocol"
)

// Channel owns the connection and serializes command execution over it. At
// most one command's bytes are in flight at any instant; a long-poll wait in
// progress is preempted by writing noidle out-of-band and letting the wait
// owner drain its terminator before the next command runs.
type Channel struct {
	addr    string
	timeout time.Duration
	log     *zap.Logger

	mu         sync.Mutex
	cond       *sync.Cond
	busy       bool
	idling     bool
	noidleSent bool
	conn       *conn
}

// NewChannel creates a channel for addr. The timeout bounds connection
// establishment, writes, and each response line of ordinary commands; the
// long-poll wait reads without a deadline.
func NewChannel(log *zap.Logger, addr string, timeout time.Duration) *Channel {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Channel{addr: addr, timeout: timeout, log: log}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Exec runs one ordinary command and returns its response lines with the
// terminator stripped. The connection is established on demand.
func (c *Channel) Exec(ctx context.Context, cmd string) ([]string, error) {
	if err := c.acquire(ctx, true); err != nil {
		return nil, err
	}
	defer c.release()

	cn, err := c.ensureConn(ctx)
	if err != nil {
		return nil, err
	}

	c.log.Debug("send", zap.String("command", cmd))
	if err := cn.writeLine(cmd, c.timeout); err != nil {
		c.drop(cn)
		return nil, &ConnectionError{Addr: c.addr, Err: err}
	}
	return c.readResponse(cn, cmd, c.timeout)
}

// Wait issues the idle long-poll and blocks until the server reports a
// change or another caller preempts it. It returns the changed subsystem
// names; an empty result means the wait was canceled before anything
// changed, which is not an error.
func (c *Channel) Wait(ctx context.Context, subsystems []string) ([]string, error) {
	if err := c.acquire(ctx, false); err != nil {
		return nil, err
	}
	defer c.release()

	cn, err := c.ensureConn(ctx)
	if err != nil {
		return nil, err
	}

	cmd := "idle"
	if len(subsystems) > 0 {
		cmd += " " + strings.Join(subsystems, " ")
	}
	if err := cn.writeLine(cmd, c.timeout); err != nil {
		c.drop(cn)
		return nil, &ConnectionError{Addr: c.addr, Err: err}
	}

	// Only once the idle command is on the wire may other callers preempt
	// us; they block in acquire until then.
	c.mu.Lock()
	c.idling = true
	c.cond.Broadcast()
	c.mu.Unlock()

	lines, err := c.readResponse(cn, cmd, 0)
	if err != nil {
		return nil, err
	}

	var changed []string
	for _, line := range lines {
		if key, value, ok := protocol.SplitPair(line); ok && key == "changed" {
			changed = append(changed, value)
		}
	}
	return changed, nil
}

// Version returns the server version from the handshake banner, or the
// empty string while disconnected.
func (c *Channel) Version() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ""
	}
	return c.conn.version
}

// Close tears down the connection. An outstanding wait observes the closed
// stream and exits with a connection error.
func (c *Channel) Close() error {
	c.mu.Lock()
	cn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if cn == nil {
		return nil
	}
	return cn.close()
}

// acquire takes exclusive ownership of the wire. Callers that may preempt a
// pending wait send a single noidle and then block until the wait owner has
// drained its terminator and released.
func (c *Channel) acquire(ctx context.Context, preempt bool) error {
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	for c.busy {
		if err := ctx.Err(); err != nil {
			return err
		}
		if preempt && c.idling && !c.noidleSent {
			cn := c.conn
			if cn == nil {
				// The wait owner's connection already died; it is on its
				// way to release and there is nothing left to preempt.
				c.cond.Wait()
				continue
			}
			c.noidleSent = true
			c.mu.Unlock()
			// Out-of-band write: the wait owner is blocked reading and
			// never writes, so the wire stays single-writer.
			err := cn.writeLine("noidle", c.timeout)
			c.mu.Lock()
			if err != nil {
				c.log.Warn("noidle write failed", zap.Error(err))
			}
			continue
		}
		c.cond.Wait()
	}
	c.busy = true
	return nil
}

// release clears all wire bookkeeping. It runs on every exit path,
// including failures, so an error never wedges the channel.
func (c *Channel) release() {
	c.mu.Lock()
	c.busy = false
	c.idling = false
	c.noidleSent = false
	c.cond.Broadcast()
	c.mu.Unlock()
}

// ensureConn dials on demand. It is only called while the caller holds the
// wire, so no two handshakes can run at once.
func (c *Channel) ensureConn(ctx context.Context) (*conn, error) {
	c.mu.Lock()
	cn := c.conn
	c.mu.Unlock()
	if cn != nil {
		return cn, nil
	}

	cn, err := dial(ctx, c.addr, c.timeout)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.conn = cn
	c.mu.Unlock()
	c.log.Debug("connected", zap.String("addr", c.addr), zap.String("version", cn.version))
	return cn, nil
}

// drop discards a broken connection so the next command redials.
func (c *Channel) drop(cn *conn) {
	c.mu.Lock()
	if c.conn == cn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = cn.close()
}

// readResponse drains one command's response. Success ends on the OK line,
// failure on an ACK line; a missed per-line deadline surfaces as a timeout
// without tearing down the connection.
func (c *Channel) readResponse(cn *conn, cmd string, timeout time.Duration) ([]string, error) {
	var lines []string
	for {
		line, err := cn.readLine(timeout)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil, &TimeoutError{Command: cmd, Timeout: timeout}
			}
			c.drop(cn)
			return nil, &ConnectionError{Addr: c.addr, Err: err}
		}
		if line == protocol.TermOK {
			return lines, nil
		}
		if strings.HasPrefix(line, protocol.AckPrefix) {
			return nil, protocol.ParseAck(line)
		}
		lines = append(lines, line)
	}
}
