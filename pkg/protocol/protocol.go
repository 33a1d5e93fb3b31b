package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Greeting is the banner prefix every MPD server sends on connect.
const Greeting = "OK MPD "

// Terminator lines for a command response.
const (
	TermOK    = "OK"
	AckPrefix = "ACK "
)

// ParseBanner extracts the server version from the handshake banner.
func ParseBanner(line string) (string, bool) {
	if !strings.HasPrefix(line, Greeting) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, Greeting)), true
}

// AckError is a server-reported command failure, decoded from a line of the
// form `ACK [code@listpos] {command} message`.
type AckError struct {
	Code    int
	ListPos int
	Command string
	Message string
}

func (e *AckError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("mpd: %s: %s", e.Command, e.Message)
	}
	return fmt.Sprintf("mpd: %s", e.Message)
}

// ParseAck decodes an ACK terminator line. Lines that do not carry the fixed
// error-code prefix keep the full remainder as the message.
func ParseAck(line string) *AckError {
	rest := strings.TrimPrefix(line, AckPrefix)
	ack := &AckError{Message: strings.TrimSpace(rest)}

	if !strings.HasPrefix(rest, "[") {
		return ack
	}
	end := strings.Index(rest, "]")
	if end < 0 {
		return ack
	}
	codes := rest[1:end]
	rest = strings.TrimSpace(rest[end+1:])

	if at := strings.Index(codes, "@"); at >= 0 {
		if n, err := strconv.Atoi(codes[:at]); err == nil {
			ack.Code = n
		}
		if n, err := strconv.Atoi(codes[at+1:]); err == nil {
			ack.ListPos = n
		}
	}

	if strings.HasPrefix(rest, "{") {
		if end := strings.Index(rest, "}"); end >= 0 {
			ack.Command = rest[1:end]
			rest = strings.TrimSpace(rest[end+1:])
		}
	}

	ack.Message = rest
	return ack
}
