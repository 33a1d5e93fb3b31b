package client

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, respond func(cmd string) string) (*Client, *fakeServer) {
	t.Helper()
	srv := newFakeServer(t, "OK MPD 0.21.5", respond)
	host, port, err := net.SplitHostPort(srv.addr())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	c := New(nil, Options{Host: host, Port: portNum, Timeout: time.Second})
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func TestParseCriteria(t *testing.T) {
	criteria, err := ParseCriteria([]string{"artist=Neil Young", "album=Harvest"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if criteria[0].Tag != "artist" || criteria[0].Value != "Neil Young" {
		t.Fatalf("first criterion: %+v", criteria[0])
	}
	if criteria[1].Tag != "album" || criteria[1].Value != "Harvest" {
		t.Fatalf("second criterion: %+v", criteria[1])
	}

	if _, err := ParseCriteria([]string{"noequals"}); err == nil {
		t.Fatalf("expected error for malformed criterion")
	}
	if _, err := ParseCriteria(nil); err == nil {
		t.Fatalf("expected error for empty criteria")
	}
}

func TestListGrouped(t *testing.T) {
	c, _ := newTestClient(t, func(cmd string) string {
		if cmd == "list album group albumartist" {
			return "AlbumArtist: X\nAlbum: One\nAlbumArtist: Y\nAlbum: Two\nOK\n"
		}
		return "OK\n"
	})

	records, err := c.List(context.Background(), "album", "albumartist")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Get("albumartist") != "X" || records[0].Get("album") != "One" {
		t.Fatalf("first record: %v", records[0])
	}
}

func TestCurrentSongEmpty(t *testing.T) {
	c, _ := newTestClient(t, okOnly)

	rec, err := c.CurrentSong(context.Background())
	if err != nil {
		t.Fatalf("currentsong: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected no record, got %v", rec)
	}
}

func TestSearchQuotesValues(t *testing.T) {
	c, srv := newTestClient(t, okOnly)

	criteria := []Criterion{{Tag: "title", Value: `a "quoted" name`}}
	if _, err := c.Search(context.Background(), criteria); err != nil {
		t.Fatalf("search: %v", err)
	}

	cmds := srv.received()
	want := `search title "a \"quoted\" name"`
	if len(cmds) != 1 || cmds[0] != want {
		t.Fatalf("got %v, want %q", cmds, want)
	}
}

func TestAddAndPlaySelectsLastMatchingTitle(t *testing.T) {
	c, srv := newTestClient(t, func(cmd string) string {
		switch {
		case strings.HasPrefix(cmd, "search "):
			return "file: x/1.flac\nTitle: Song A\nfile: x/2.flac\nTitle: Song B\nOK\n"
		case strings.HasPrefix(cmd, "searchadd "):
			return "OK\n"
		case cmd == "playlistinfo":
			// The queue already held a same-named track; the freshly added
			// copy sits nearer the tail.
			return "file: old.flac\nTitle: Song A\nPos: 0\n" +
				"file: other.flac\nTitle: Other\nPos: 1\n" +
				"file: x/1.flac\nTitle: Song A\nPos: 2\n" +
				"file: x/2.flac\nTitle: Song B\nPos: 3\nOK\n"
		default:
			return "OK\n"
		}
	})

	criteria := []Criterion{{Tag: "album", Value: "X"}}
	if err := c.AddAndPlay(context.Background(), criteria); err != nil {
		t.Fatalf("add and play: %v", err)
	}

	var played string
	for _, cmd := range srv.received() {
		if strings.HasPrefix(cmd, "play ") {
			played = cmd
		}
	}
	if played != "play 2" {
		t.Fatalf("expected play 2 (last entry titled like the first hit), got %q", played)
	}
}

func TestAddAndPlayQueueMissingTrack(t *testing.T) {
	c, _ := newTestClient(t, func(cmd string) string {
		switch {
		case strings.HasPrefix(cmd, "search "):
			return "file: x/1.flac\nTitle: Song A\nOK\n"
		case cmd == "playlistinfo":
			return "OK\n" // queue empty after enqueue
		default:
			return "OK\n"
		}
	})

	err := c.AddAndPlay(context.Background(), []Criterion{{Tag: "album", Value: "X"}})
	if !errors.Is(err, ErrContract) {
		t.Fatalf("expected contract violation, got %v", err)
	}
}

func TestAddAndPlayNoMatches(t *testing.T) {
	c, _ := newTestClient(t, okOnly)

	err := c.AddAndPlay(context.Background(), []Criterion{{Tag: "album", Value: "X"}})
	if err == nil || errors.Is(err, ErrContract) {
		t.Fatalf("expected a plain no-match error, got %v", err)
	}
}

func TestDeleteRange(t *testing.T) {
	c, srv := newTestClient(t, okOnly)

	if err := c.Delete(context.Background(), 2, 5); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Delete(context.Background(), 7, -1); err != nil {
		t.Fatalf("delete single: %v", err)
	}

	cmds := srv.received()
	if cmds[0] != "delete 2:5" || cmds[1] != "delete 7" {
		t.Fatalf("unexpected commands: %v", cmds)
	}
}
