// Package mpv drives an mpv process over its JSON IPC socket. The video is
// rendered in mpv's own window; the client only sends commands and turns
// observed property changes into player events.
package mpv

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/dexterlb/mpvipc"
	"github.com/rs/zerolog"

	"github.com/keagan/framefinder/internal/player"
)

// ErrCommand is wrapped by errors mpv reports for a command.
var ErrCommand = errors.New("mpv command failed")

const (
	replyTimeout  = 5 * time.Second
	dialTimeout   = 10 * time.Second
	eventCapacity = 64
)

// observed property ids
const (
	propPause = iota + 1
	propIdle
	propTimePos
	propDuration
)

// Options configures how mpv is launched.
type Options struct {
	BinaryPath string
	SocketPath string
	ExtraArgs  []string
	Title      string
}

// Client implements player.Interface on top of an mpv IPC connection.
type Client struct {
	logger zerolog.Logger
	ipc    *mpvipc.Connection
	cmd    *exec.Cmd

	// event queue between the mpvipc listener and the consumer; the
	// listener must never block or command replies would stall behind
	// events.
	queueMu sync.Mutex
	queue   []player.Event
	notify  chan struct{}
	events  chan player.Event

	// only touched by the listen loop
	paused  bool
	idle    bool
	state   player.State
	lastErr string

	done      chan struct{}
	closeOnce sync.Once
}

// Launch starts mpv listening on opts.SocketPath and connects to it.
func Launch(ctx context.Context, logger zerolog.Logger, opts Options) (*Client, error) {
	binary := opts.BinaryPath
	if binary == "" {
		binary = "mpv"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("mpv not found in PATH: %w", err)
	}

	_ = os.Remove(opts.SocketPath)

	title := opts.Title
	if title == "" {
		title = "FrameFinder"
	}
	args := []string{
		"--idle=yes",
		"--force-window=yes",
		"--keep-open=yes",
		"--pause",
		"--hr-seek=yes",
		"--no-terminal",
		"--title=" + title,
		"--input-ipc-server=" + opts.SocketPath,
	}
	args = append(args, opts.ExtraArgs...)

	logger.Debug().
		Str("cmd", path).
		Strs("args", args).
		Msg("launching mpv")

	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mpv: %w", err)
	}

	conn, err := Dial(ctx, opts.SocketPath)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	c := NewClient(logger, conn)
	c.cmd = cmd
	if err := c.Observe(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Dial opens an IPC connection, retrying until mpv has created its socket.
func Dial(ctx context.Context, socketPath string) (*mpvipc.Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	for {
		conn := mpvipc.NewConnection(socketPath)
		err := conn.Open()
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to mpv socket %s: %w", socketPath, err)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// NewClient wraps an open IPC connection and starts listening for events.
func NewClient(logger zerolog.Logger, conn *mpvipc.Connection) *Client {
	c := &Client{
		logger: logger.With().Str("component", "mpv").Logger(),
		ipc:    conn,
		notify: make(chan struct{}, 1),
		events: make(chan player.Event, eventCapacity),
		idle:   true,
		state:  player.Stopped,
		done:   make(chan struct{}),
	}

	events, stop := conn.NewEventListener()
	go c.listenLoop(events)
	go func() {
		conn.WaitUntilClosed()
		select {
		case <-c.done:
		default:
			c.logger.Warn().Msg("mpv connection lost")
			c.push(player.Event{Kind: player.ErrorOccurred, Message: "media player exited"})
		}
		close(stop)
	}()
	go c.forwardLoop()
	return c
}

// Observe subscribes to the properties the client translates into events
// and to error log messages, which carry the reason a file failed to open.
func (c *Client) Observe() error {
	props := []struct {
		id   int
		name string
	}{
		{propPause, "pause"},
		{propIdle, "idle-active"},
		{propTimePos, "time-pos"},
		{propDuration, "duration"},
	}
	for _, p := range props {
		if _, err := c.call("observe_property", p.id, p.name); err != nil {
			return fmt.Errorf("observe %s: %w", p.name, err)
		}
	}
	if _, err := c.call("request_log_messages", "error"); err != nil {
		return fmt.Errorf("request log messages: %w", err)
	}
	return nil
}

// Load replaces the current file.
func (c *Client) Load(path string) error {
	_, err := c.call("loadfile", path, "replace")
	return err
}

// Play resumes playback.
func (c *Client) Play() error {
	return c.setProperty("pause", false)
}

// Pause suspends playback.
func (c *Client) Pause() error {
	return c.setProperty("pause", true)
}

// SetRate maps a signed rate onto mpv's speed and play-direction.
func (c *Client) SetRate(rate float64) error {
	if rate == 0 {
		return fmt.Errorf("invalid playback rate 0")
	}
	direction := "forward"
	if rate < 0 {
		direction = "backward"
	}
	if err := c.setProperty("play-direction", direction); err != nil {
		return err
	}
	return c.setProperty("speed", math.Abs(rate))
}

// Seek jumps to an absolute position; mpv clamps it to the file.
func (c *Client) Seek(pos time.Duration) error {
	_, err := c.call("seek", pos.Seconds(), "absolute+exact")
	return err
}

// Position reads the playhead from mpv.
func (c *Client) Position() (time.Duration, error) {
	data, err := c.call("get_property", "time-pos")
	if err != nil {
		return 0, err
	}
	secs, ok := seconds(data)
	if !ok {
		return 0, fmt.Errorf("mpv reported no position")
	}
	return secs, nil
}

// Events returns the notification channel. It is closed after Close.
func (c *Client) Events() <-chan player.Event {
	return c.events
}

// Close asks mpv to quit and tears down the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.cmd != nil {
			_, _ = c.call("quit")
		}
		close(c.done)
		err = c.ipc.Close()
		if c.cmd != nil {
			waitCh := make(chan error, 1)
			go func() { waitCh <- c.cmd.Wait() }()
			select {
			case <-waitCh:
			case <-time.After(2 * time.Second):
				_ = c.cmd.Process.Kill()
				<-waitCh
			}
		}
	})
	return err
}

func (c *Client) setProperty(name string, value any) error {
	_, err := c.call("set_property", name, value)
	return err
}

// call sends a command and waits for its reply. mpvipc waits forever, so
// the wait is bounded here.
func (c *Client) call(args ...any) (any, error) {
	select {
	case <-c.done:
		return nil, player.ErrClosed
	default:
	}

	c.logger.Debug().Interface("command", args).Msg("mpv command")

	type result struct {
		data any
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := c.ipc.Call(args...)
		ch <- result{data, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v: %v", ErrCommand, args[0], r.err)
		}
		return r.data, nil
	case <-c.done:
		return nil, player.ErrClosed
	case <-time.After(replyTimeout):
		return nil, fmt.Errorf("mpv did not reply to %v within %v", args[0], replyTimeout)
	}
}

func (c *Client) listenLoop(events <-chan *mpvipc.Event) {
	for e := range events {
		c.handleEvent(e)
	}
}

func (c *Client) handleEvent(e *mpvipc.Event) {
	switch e.Name {
	case "property-change":
		c.handleProperty(e)
	case "log-message":
		if e.Level == "error" || e.Level == "fatal" {
			c.lastErr = strings.TrimSpace(e.Text)
		}
	case "start-file":
		c.lastErr = ""
	case "end-file":
		if e.Reason == "error" {
			text := c.lastErr
			if text == "" {
				text = "playback failed"
			}
			c.push(player.Event{Kind: player.ErrorOccurred, Message: text})
		}
	default:
		c.logger.Debug().Str("event", e.Name).Msg("mpv event")
	}
}

func (c *Client) handleProperty(e *mpvipc.Event) {
	switch e.ID {
	case propPause:
		if v, ok := e.Data.(bool); ok {
			c.paused = v
		}
		c.updateState()
	case propIdle:
		if v, ok := e.Data.(bool); ok {
			c.idle = v
		}
		c.updateState()
	case propTimePos:
		if secs, ok := seconds(e.Data); ok {
			c.push(player.Event{Kind: player.PositionChanged, Position: secs})
		}
	case propDuration:
		secs, _ := seconds(e.Data)
		c.push(player.Event{Kind: player.DurationChanged, Duration: secs})
	}
}

func (c *Client) updateState() {
	next := player.Playing
	switch {
	case c.idle:
		next = player.Stopped
	case c.paused:
		next = player.Paused
	}
	if next == c.state {
		return
	}
	c.state = next
	c.push(player.Event{Kind: player.StateChanged, State: next})
}

// seconds converts a property value in seconds; null yields false.
func seconds(data any) (time.Duration, bool) {
	v, ok := data.(float64)
	if !ok {
		return 0, false
	}
	return time.Duration(v * float64(time.Second)), true
}

// push queues an event without blocking. Consecutive position updates are
// coalesced.
func (c *Client) push(e player.Event) {
	c.queueMu.Lock()
	n := len(c.queue)
	if e.Kind == player.PositionChanged && n > 0 && c.queue[n-1].Kind == player.PositionChanged {
		c.queue[n-1] = e
	} else {
		c.queue = append(c.queue, e)
	}
	c.queueMu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *Client) forwardLoop() {
	defer close(c.events)
	for {
		select {
		case <-c.done:
			return
		case <-c.notify:
		}

		c.queueMu.Lock()
		batch := c.queue
		c.queue = nil
		c.queueMu.Unlock()

		for _, e := range batch {
			select {
			case c.events <- e:
			case <-c.done:
				return
			}
		}
	}
}

// Verify Client implements player.Interface at compile time.
var _ player.Interface = (*Client)(nil)
