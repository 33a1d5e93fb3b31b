package client

import (
	"errors"
	"fmt"
	"time"
)

// ErrContract marks programming errors such as a queue that no longer holds
// the track we just enqueued. These are not user-recoverable.
var ErrContract = errors.New("client contract violation")

// ConnectionError reports a socket that could not be established or kept
// alive. It is not retried automatically; the next command attempt
// re-establishes the connection.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("unable to connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// HandshakeError reports a missing or malformed server banner. It is fatal
// for that connection attempt.
type HandshakeError struct {
	Addr string
	Line string
	Err  error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("unable to understand response from %s; MPD may not be bound to this address", e.Addr)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// TimeoutError reports a command whose next response line did not arrive in
// time. The connection itself stays up.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no response to %q within %s", e.Command, e.Timeout)
}
