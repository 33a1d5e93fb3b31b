package client

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkeats/cadenza/pkg/protocol"
)

// Options configures the client.
type Options struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// Client provides the typed operations the UI layer calls. All operations
// go through the exclusive command channel.
type Client struct {
	ch  *Channel
	log *zap.Logger
}

// New creates a client. The connection is established lazily on the first
// command.
func New(log *zap.Logger, opts Options) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Host == "" {
		opts.Host = "localhost"
	}
	if opts.Port == 0 {
		opts.Port = 6600
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	return &Client{
		ch:  NewChannel(log, addr, opts.Timeout),
		log: log,
	}
}

// Channel exposes the underlying command channel for the watcher.
func (c *Client) Channel() *Channel { return c.ch }

// Version returns the connected server's protocol version.
func (c *Client) Version() string { return c.ch.Version() }

// Close tears down the connection.
func (c *Client) Close() error { return c.ch.Close() }

// Criterion is one tag filter of a search or find command.
type Criterion struct {
	Tag   string
	Value string
}

// ParseCriterion parses a "tag=value" argument.
func ParseCriterion(arg string) (Criterion, error) {
	tag, value, ok := strings.Cut(arg, "=")
	if !ok || tag == "" {
		return Criterion{}, fmt.Errorf("criterion %q is not of the form tag=value", arg)
	}
	return Criterion{Tag: strings.ToLower(tag), Value: value}, nil
}

// ParseCriteria parses a list of "tag=value" arguments.
func ParseCriteria(args []string) ([]Criterion, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one tag=value criterion is required")
	}
	out := make([]Criterion, 0, len(args))
	for _, arg := range args {
		criterion, err := ParseCriterion(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, criterion)
	}
	return out, nil
}

func criteriaArgs(criteria []Criterion) string {
	var b strings.Builder
	for _, criterion := range criteria {
		b.WriteByte(' ')
		b.WriteString(criterion.Tag)
		b.WriteByte(' ')
		b.WriteString(protocol.Quote(criterion.Value))
	}
	return b.String()
}

// List returns the distinct values of a tag, one record per value. With a
// non-empty groupBy the server interleaves the grouping tag and each value
// record carries both fields.
func (c *Client) List(ctx context.Context, typ, groupBy string) ([]protocol.Record, error) {
	cmd := "list " + typ
	startField := typ
	if groupBy != "" {
		cmd += " group " + groupBy
		startField = groupBy
	}
	lines, err := c.ch.Exec(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return protocol.GroupRecords(lines, startField), nil
}

// Queue returns the current play queue in order, one record per track.
func (c *Client) Queue(ctx context.Context) ([]protocol.Record, error) {
	lines, err := c.ch.Exec(ctx, "playlistinfo")
	if err != nil {
		return nil, err
	}
	return protocol.GroupRecords(lines, "file"), nil
}

// CurrentSong returns the playing track, or nil when nothing plays.
func (c *Client) CurrentSong(ctx context.Context) (*protocol.Record, error) {
	lines, err := c.ch.Exec(ctx, "currentsong")
	if err != nil {
		return nil, err
	}
	records := protocol.GroupRecords(lines, "file")
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Status returns the player status as a single record.
func (c *Client) Status(ctx context.Context) (protocol.Record, error) {
	lines, err := c.ch.Exec(ctx, "status")
	if err != nil {
		return protocol.Record{}, err
	}
	records := protocol.GroupRecords(lines, "")
	if len(records) == 0 {
		return protocol.Record{}, nil
	}
	return records[0], nil
}

// Search returns the tracks matching the criteria without touching the
// queue. Matching is case-insensitive on the server side.
func (c *Client) Search(ctx context.Context, criteria []Criterion) ([]protocol.Record, error) {
	lines, err := c.ch.Exec(ctx, "search"+criteriaArgs(criteria))
	if err != nil {
		return nil, err
	}
	return protocol.GroupRecords(lines, "file"), nil
}

// SearchAdd appends every track matching the criteria to the queue.
func (c *Client) SearchAdd(ctx context.Context, criteria []Criterion) error {
	_, err := c.ch.Exec(ctx, "searchadd"+criteriaArgs(criteria))
	return err
}

// AddAndPlay enqueues everything matching the criteria and starts playback
// at the first match. The queue may hold several same-named entries, so the
// selection takes the last queue entry whose title matches the first search
// hit's title. That heuristic mirrors how duplicate titles inside a freshly
// added album land at the queue tail; it is an approximation for other
// duplicate-content cases.
func (c *Client) AddAndPlay(ctx context.Context, criteria []Criterion) error {
	hits, err := c.Search(ctx, criteria)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		return fmt.Errorf("no tracks match the given criteria")
	}

	if err := c.SearchAdd(ctx, criteria); err != nil {
		return err
	}

	queue, err := c.Queue(ctx)
	if err != nil {
		return err
	}
	title := hits[0].Get("title")
	for i := len(queue) - 1; i >= 0; i-- {
		if queue[i].Get("title") != title {
			continue
		}
		pos := i
		if n, err := strconv.Atoi(queue[i].Get("pos")); err == nil {
			pos = n
		}
		return c.Play(ctx, pos)
	}
	return fmt.Errorf("%w: queue does not contain enqueued track %q", ErrContract, title)
}

// AddURL appends a single stream URL or file path to the queue.
func (c *Client) AddURL(ctx context.Context, uri string) error {
	_, err := c.ch.Exec(ctx, "add "+protocol.Quote(uri))
	return err
}

// Play starts playback at a queue position; a negative position resumes
// wherever the server left off.
func (c *Client) Play(ctx context.Context, pos int) error {
	cmd := "play"
	if pos >= 0 {
		cmd = fmt.Sprintf("play %d", pos)
	}
	_, err := c.ch.Exec(ctx, cmd)
	return err
}

// Pause pauses or resumes playback.
func (c *Client) Pause(ctx context.Context, on bool) error {
	arg := "0"
	if on {
		arg = "1"
	}
	_, err := c.ch.Exec(ctx, "pause "+arg)
	return err
}

// Toggle switches between playing and paused based on the current state.
func (c *Client) Toggle(ctx context.Context) error {
	status, err := c.Status(ctx)
	if err != nil {
		return err
	}
	switch status.Get("state") {
	case "play":
		return c.Pause(ctx, true)
	case "pause":
		return c.Pause(ctx, false)
	default:
		return c.Play(ctx, -1)
	}
}

// Stop stops playback.
func (c *Client) Stop(ctx context.Context) error {
	_, err := c.ch.Exec(ctx, "stop")
	return err
}

// Next skips to the next queue entry.
func (c *Client) Next(ctx context.Context) error {
	_, err := c.ch.Exec(ctx, "next")
	return err
}

// Previous returns to the previous queue entry.
func (c *Client) Previous(ctx context.Context) error {
	_, err := c.ch.Exec(ctx, "previous")
	return err
}

// Clear empties the queue.
func (c *Client) Clear(ctx context.Context) error {
	_, err := c.ch.Exec(ctx, "clear")
	return err
}

// Delete removes queue positions [start, end). With end < 0 only the single
// entry at start is removed.
func (c *Client) Delete(ctx context.Context, start, end int) error {
	cmd := fmt.Sprintf("delete %d", start)
	if end >= 0 {
		cmd = fmt.Sprintf("delete %d:%d", start, end)
	}
	_, err := c.ch.Exec(ctx, cmd)
	return err
}
