package client

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mkeats/cadenza/pkg/protocol"
)

// fakeServer speaks just enough of the protocol for one client connection:
// banner on accept, then one scripted reply per command line. An empty reply
// leaves the command pending, which is how idle is modelled.
type fakeServer struct {
	ln     net.Listener
	banner string

	mu   sync.Mutex
	cmds []string

	respond func(cmd string) string
}

func newFakeServer(t *testing.T, banner string, respond func(cmd string) string) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{ln: ln, banner: banner, respond: respond}
	go s.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *fakeServer) addr() string { return s.ln.Addr().String() }

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.session(conn)
	}
}

func (s *fakeServer) session(conn net.Conn) {
	defer conn.Close()
	if _, err := io.WriteString(conn, s.banner+"\n"); err != nil {
		return
	}
	rd := bufio.NewReader(conn)
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\n")
		s.mu.Lock()
		s.cmds = append(s.cmds, cmd)
		s.mu.Unlock()
		if reply := s.respond(cmd); reply != "" {
			if _, err := io.WriteString(conn, reply); err != nil {
				return
			}
		}
	}
}

func (s *fakeServer) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cmds...)
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func okOnly(string) string { return "OK\n" }

func TestChannelHandshake(t *testing.T) {
	srv := newFakeServer(t, "OK MPD 0.21.5", okOnly)
	ch := NewChannel(nil, srv.addr(), time.Second)
	defer ch.Close()

	if _, err := ch.Exec(context.Background(), "ping"); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if got := ch.Version(); got != "0.21.5" {
		t.Fatalf("version: %q", got)
	}
}

func TestChannelBadBanner(t *testing.T) {
	srv := newFakeServer(t, "welkrjewlkj", okOnly)
	ch := NewChannel(nil, srv.addr(), time.Second)
	defer ch.Close()

	_, err := ch.Exec(context.Background(), "ping")
	var handshakeErr *HandshakeError
	if !errors.As(err, &handshakeErr) {
		t.Fatalf("expected handshake error, got %v", err)
	}
	if !strings.Contains(err.Error(), "MPD may not be bound") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestChannelDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	ch := NewChannel(nil, addr, 200*time.Millisecond)
	defer ch.Close()

	_, execErr := ch.Exec(context.Background(), "ping")
	var connErr *ConnectionError
	if !errors.As(execErr, &connErr) {
		t.Fatalf("expected connection error, got %v", execErr)
	}
}

func TestChannelExecLines(t *testing.T) {
	srv := newFakeServer(t, "OK MPD 0.21.5", func(cmd string) string {
		if cmd == "list albumartist" {
			return "AlbumArtist: A\nAlbumArtist: B\nOK\n"
		}
		return "OK\n"
	})
	ch := NewChannel(nil, srv.addr(), time.Second)
	defer ch.Close()

	lines, err := ch.Exec(context.Background(), "list albumartist")
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	records := protocol.GroupRecords(lines, "albumartist")
	if len(records) != 2 || records[0].Get("albumartist") != "A" || records[1].Get("albumartist") != "B" {
		t.Fatalf("unexpected records: %v", records)
	}
}

func TestChannelAckKeepsConnectionUsable(t *testing.T) {
	srv := newFakeServer(t, "OK MPD 0.21.5", func(cmd string) string {
		if cmd == "play 99" {
			return "ACK [50@0] {play} song doesn't exist\n"
		}
		return "OK\n"
	})
	ch := NewChannel(nil, srv.addr(), time.Second)
	defer ch.Close()

	_, err := ch.Exec(context.Background(), "play 99")
	var ack *protocol.AckError
	if !errors.As(err, &ack) {
		t.Fatalf("expected ack error, got %v", err)
	}
	if ack.Message != "song doesn't exist" {
		t.Fatalf("message: %q", ack.Message)
	}

	if _, err := ch.Exec(context.Background(), "status"); err != nil {
		t.Fatalf("channel unusable after ack: %v", err)
	}
}

func TestChannelTimeout(t *testing.T) {
	srv := newFakeServer(t, "OK MPD 0.21.5", func(cmd string) string {
		return "" // never answer
	})
	ch := NewChannel(nil, srv.addr(), 100*time.Millisecond)
	defer ch.Close()

	_, err := ch.Exec(context.Background(), "ping")
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestChannelWaitReportsChanges(t *testing.T) {
	srv := newFakeServer(t, "OK MPD 0.21.5", func(cmd string) string {
		if cmd == "idle" {
			return "changed: playlist\nchanged: player\nOK\n"
		}
		return "OK\n"
	})
	ch := NewChannel(nil, srv.addr(), time.Second)
	defer ch.Close()

	changed, err := ch.Wait(context.Background(), nil)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(changed) != 2 || changed[0] != "playlist" || changed[1] != "player" {
		t.Fatalf("changed: %v", changed)
	}
}

func TestChannelWaitPreemption(t *testing.T) {
	srv := newFakeServer(t, "OK MPD 0.21.5", func(cmd string) string {
		switch cmd {
		case "idle":
			return "" // held open until noidle
		case "noidle":
			return "OK\n" // the idle's immediate, empty terminator
		case "status":
			return "volume: 50\nstate: play\nOK\n"
		default:
			return "OK\n"
		}
	})
	ch := NewChannel(nil, srv.addr(), time.Second)
	defer ch.Close()

	type waitResult struct {
		changed []string
		err     error
	}
	waitDone := make(chan waitResult, 1)
	go func() {
		changed, err := ch.Wait(context.Background(), nil)
		waitDone <- waitResult{changed, err}
	}()

	waitUntil(t, "idle on the wire", func() bool {
		for _, cmd := range srv.received() {
			if cmd == "idle" {
				return true
			}
		}
		return false
	})

	lines, err := ch.Exec(context.Background(), "status")
	if err != nil {
		t.Fatalf("exec during wait: %v", err)
	}
	if len(lines) != 2 || lines[0] != "volume: 50" || lines[1] != "state: play" {
		t.Fatalf("idle bytes leaked into command response: %v", lines)
	}

	res := <-waitDone
	if res.err != nil {
		t.Fatalf("canceled wait reported error: %v", res.err)
	}
	if len(res.changed) != 0 {
		t.Fatalf("canceled wait reported changes: %v", res.changed)
	}

	cmds := srv.received()
	if len(cmds) != 3 || cmds[0] != "idle" || cmds[1] != "noidle" || cmds[2] != "status" {
		t.Fatalf("unexpected wire order: %v", cmds)
	}
}

func TestChannelPreemptDuringWaitTeardown(t *testing.T) {
	ch := NewChannel(nil, "127.0.0.1:0", time.Second)

	// A wait whose connection died sits between drop and release for a
	// moment: the wire flags are still set but the connection is gone. A
	// preempting caller arriving in that window must park until the wait
	// owner releases instead of writing noidle to a dead connection.
	ch.mu.Lock()
	ch.busy = true
	ch.idling = true
	ch.conn = nil
	ch.mu.Unlock()

	released := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		ch.release()
		close(released)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := ch.acquire(ctx, true); err != nil {
		t.Fatalf("acquire after dropped wait connection: %v", err)
	}
	ch.release()
	<-released
}

func TestChannelAcquireHonorsContext(t *testing.T) {
	srv := newFakeServer(t, "OK MPD 0.21.5", func(cmd string) string {
		return "" // hold every command open
	})
	ch := NewChannel(nil, srv.addr(), 10*time.Second)
	defer ch.Close()

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = ch.Exec(context.Background(), "ping")
	}()
	<-started
	waitUntil(t, "first command on the wire", func() bool {
		return len(srv.received()) == 1
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := ch.Exec(ctx, "status")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
