package protocol

import "testing"

func TestParseBanner(t *testing.T) {
	version, ok := ParseBanner("OK MPD 0.21.5")
	if !ok || version != "0.21.5" {
		t.Fatalf("got %q ok=%v", version, ok)
	}

	if _, ok := ParseBanner("welkrjewlkj"); ok {
		t.Fatalf("expected banner rejection")
	}
	if _, ok := ParseBanner(""); ok {
		t.Fatalf("expected empty banner rejection")
	}
}

func TestParseAck(t *testing.T) {
	ack := ParseAck("ACK [50@0] {play} song doesn't exist")
	if ack.Code != 50 || ack.ListPos != 0 {
		t.Fatalf("code=%d listpos=%d", ack.Code, ack.ListPos)
	}
	if ack.Command != "play" {
		t.Fatalf("command: %q", ack.Command)
	}
	if ack.Message != "song doesn't exist" {
		t.Fatalf("message: %q", ack.Message)
	}
}

func TestParseAckMalformed(t *testing.T) {
	ack := ParseAck("ACK something went wrong")
	if ack.Message != "something went wrong" {
		t.Fatalf("message: %q", ack.Message)
	}
	if ack.Code != 0 || ack.Command != "" {
		t.Fatalf("expected zero code and command, got %v", ack)
	}
}

func TestAckErrorString(t *testing.T) {
	ack := &AckError{Command: "play", Message: "song doesn't exist"}
	if ack.Error() != "mpd: play: song doesn't exist" {
		t.Fatalf("error: %q", ack.Error())
	}
}

func TestQuote(t *testing.T) {
	cases := []struct{ in, want string }{
		{`plain`, `"plain"`},
		{`with space`, `"with space"`},
		{`quote " inside`, `"quote \" inside"`},
		{`back\slash`, `"back\\slash"`},
		{"line\nbreak\rhere", `"linebreakhere"`},
	}
	for _, tc := range cases {
		if got := Quote(tc.in); got != tc.want {
			t.Fatalf("Quote(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUnquoteRoundTrip(t *testing.T) {
	original := "he said \"no\\way\"\nand left\r"
	got, err := Unquote(Quote(original))
	if err != nil {
		t.Fatalf("unquote: %v", err)
	}
	// Newline and carriage return are stripped on the way out; everything
	// else must survive.
	want := `he said "no\way"and left`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestUnquoteRejectsMalformed(t *testing.T) {
	for _, in := range []string{``, `"`, `unquoted`, `"bad " quote"`, `"dangling\`} {
		if _, err := Unquote(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}
