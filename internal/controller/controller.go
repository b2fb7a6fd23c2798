// Package controller drives the media player, the playlist cursor and the
// snapshot runner on behalf of a front end.
//
// A Controller is not safe for concurrent use. Every method must run on the
// goroutine that owns the user interface; player events and snapshot results
// are handed to that goroutine by the front end (fyne.Do, a tea.Cmd) or by the
// post function given in Options.
package controller

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/keagan/framefinder/internal/keymap"
	"github.com/keagan/framefinder/internal/player"
	"github.com/keagan/framefinder/internal/playlist"
	"github.com/keagan/framefinder/internal/snapshot"
	"github.com/keagan/framefinder/pkg/util"
	"github.com/rs/zerolog"
)

// Presenter renders controller state.
type Presenter interface {
	Render(ViewState)
}

// Snapshotter runs snapshot requests in the background.
type Snapshotter interface {
	Start(ctx context.Context, req snapshot.Request, done func(snapshot.Result)) error
}

// Options configures a Controller.
type Options struct {
	PositiveDir string
	NegativeDir string
	// Post runs f on the owner goroutine. Defaults to calling f directly.
	Post func(f func())
}

// Controller is the single owner of playback, playlist and status state.
type Controller struct {
	ctx       context.Context
	logger    zerolog.Logger
	player    player.Interface
	playlist  *playlist.Cursor
	snaps     Snapshotter
	presenter Presenter
	post      func(func())

	positiveDir string
	negativeDir string

	view ViewState
}

// New creates a controller. Nothing is loaded until Start or Next.
func New(ctx context.Context, logger zerolog.Logger, p player.Interface, cursor *playlist.Cursor, snaps Snapshotter, opts Options) *Controller {
	post := opts.Post
	if post == nil {
		post = func(f func()) { f() }
	}
	negative := opts.NegativeDir
	if negative == "" {
		negative = opts.PositiveDir
	}

	c := &Controller{
		ctx:         ctx,
		logger:      logger.With().Str("component", "controller").Logger(),
		player:      p,
		playlist:    cursor,
		snaps:       snaps,
		post:        post,
		positiveDir: opts.PositiveDir,
		negativeDir: negative,
	}
	c.view = ViewState{
		State:  player.Stopped,
		Rate:   player.RateForward,
		TwoWay: filepath.Clean(opts.PositiveDir) != filepath.Clean(negative),
		Count:  cursor.Len(),
		Index:  -1,
	}
	return c
}

// SetPresenter attaches the front end and renders the current state.
func (c *Controller) SetPresenter(p Presenter) {
	c.presenter = p
	c.render()
}

// View returns the current view state.
func (c *Controller) View() ViewState {
	return c.view
}

// Start loads the first video of the playlist, if any.
func (c *Controller) Start() {
	if c.playlist.IsEmpty() {
		c.logger.Info().Msg("playlist is empty")
		c.render()
		return
	}
	c.Next()
}

// Play resumes playback at the current rate.
func (c *Controller) Play() {
	if c.view.File == "" || c.view.State == player.Playing {
		return
	}
	if err := c.player.Play(); err != nil {
		c.fail("play", err)
		return
	}
	c.logger.Debug().Msg("play")
	c.view.State = player.Playing
	c.render()
}

// Pause suspends playback.
func (c *Controller) Pause() {
	if c.view.State != player.Playing {
		return
	}
	if err := c.player.Pause(); err != nil {
		c.fail("pause", err)
		return
	}
	c.logger.Debug().Msg("pause")
	c.view.State = player.Paused
	c.render()
}

// Toggle pauses when playing and plays otherwise.
func (c *Controller) Toggle() {
	if c.view.State == player.Playing {
		c.Pause()
		return
	}
	c.Play()
}

// SetRate sets the signed playback rate and resumes playback.
func (c *Controller) SetRate(rate float64) {
	if err := c.player.SetRate(rate); err != nil {
		c.fail("set rate", err)
		return
	}
	c.logger.Debug().Float64("rate", rate).Msg("rate changed")
	c.view.Rate = rate
	c.render()
	c.Play()
}

func (c *Controller) Rewind()      { c.SetRate(player.RateRewind) }
func (c *Controller) SlowRewind()  { c.SetRate(player.RateSlowRewind) }
func (c *Controller) SlowForward() { c.SetRate(player.RateSlowForward) }
func (c *Controller) Forward()     { c.SetRate(player.RateForward) }
func (c *Controller) FastForward() { c.SetRate(player.RateFast) }

// Seek moves to an absolute position, clamped to [0, duration]. The upper
// bound only applies once the duration is known.
func (c *Controller) Seek(positionMs int64) {
	if c.view.File == "" {
		return
	}
	if positionMs < 0 {
		positionMs = 0
	}
	if c.view.DurationMs > 0 && positionMs > c.view.DurationMs {
		positionMs = c.view.DurationMs
	}
	if err := c.player.Seek(time.Duration(positionMs) * time.Millisecond); err != nil {
		c.fail("seek", err)
		return
	}
	c.logger.Debug().Int64("position_ms", positionMs).Msg("seek")
	c.view.PositionMs = positionMs
	c.render()
}

// Next advances the playlist cyclically: pause, load, update the file
// label, clear any error and resume. On an empty playlist nothing changes.
func (c *Controller) Next() {
	path, ok := c.playlist.Next()
	if !ok {
		return
	}

	c.Pause()
	if err := c.player.Load(path); err != nil {
		c.fail("load", err)
		return
	}
	c.logger.Info().
		Str("file", path).
		Int("index", c.playlist.Index()).
		Int("count", c.playlist.Len()).
		Msg("loaded video")

	c.view.File = path
	c.view.Index = c.playlist.Index()
	c.view.Status = ""
	c.view.PositionMs = 0
	c.view.DurationMs = 0
	c.view.State = player.Paused
	c.render()
	c.Play()
}

// SnapshotPositive exports the current frame into the positive directory.
func (c *Controller) SnapshotPositive() {
	c.snapshot(c.positiveDir)
}

// SnapshotNegative exports the current frame into the negative directory.
// In single-directory mode both directories are the same.
func (c *Controller) SnapshotNegative() {
	c.snapshot(c.negativeDir)
}

func (c *Controller) snapshot(dir string) {
	if c.view.File == "" {
		c.setStatus("No video loaded")
		return
	}

	req := snapshot.Request{Source: c.view.File, PositionMs: c.position(), Dir: dir}
	err := c.snaps.Start(c.ctx, req, func(res snapshot.Result) {
		c.post(func() { c.snapshotDone(res) })
	})
	switch {
	case errors.Is(err, snapshot.ErrBusy):
		c.setStatus("Snapshot in progress")
	case err != nil:
		c.fail("snapshot", err)
	default:
		c.view.Busy = true
		c.setStatus("Saving " + snapshot.FileName(req.Source, req.PositionMs) + "...")
	}
}

// position reads the playhead from the player. Position notifications are
// coalesced and can trail it during playback.
func (c *Controller) position() int64 {
	pos, err := c.player.Position()
	if err != nil {
		c.logger.Debug().Err(err).Msg("position query failed, using last notification")
		return c.view.PositionMs
	}
	c.view.PositionMs = pos.Milliseconds()
	return c.view.PositionMs
}

func (c *Controller) snapshotDone(res snapshot.Result) {
	c.view.Busy = false
	c.view.Status = res.Message
	if res.OK() {
		c.view.Preview = res.Path
	}
	c.render()
}

// Mark records the current file and position in the log and status line.
func (c *Controller) Mark() {
	if c.view.File == "" {
		return
	}
	pos := time.Duration(c.view.PositionMs) * time.Millisecond
	c.logger.Info().
		Str("file", c.view.File).
		Int64("position_ms", c.view.PositionMs).
		Msg("marked")
	c.setStatus("Marked " + filepath.Base(c.view.File) + " @ " + util.FormatClock(pos))
}

// Dispatch runs the controller operation bound to action. It returns false
// for actions the controller does not handle, such as quit.
func (c *Controller) Dispatch(action keymap.Action) bool {
	switch action {
	case keymap.ActionRewind:
		c.Rewind()
	case keymap.ActionSlowRewind:
		c.SlowRewind()
	case keymap.ActionPlayPause:
		c.Toggle()
	case keymap.ActionSlowForward:
		c.SlowForward()
	case keymap.ActionForward:
		c.Forward()
	case keymap.ActionFastForward:
		c.FastForward()
	case keymap.ActionSnapshotPositive:
		c.SnapshotPositive()
	case keymap.ActionSnapshotNegative:
		c.SnapshotNegative()
	case keymap.ActionMark:
		c.Mark()
	case keymap.ActionNext:
		c.Next()
	default:
		return false
	}
	return true
}

// HandleEvent applies a player notification.
func (c *Controller) HandleEvent(e player.Event) {
	switch e.Kind {
	case player.StateChanged:
		c.OnStateChanged(e.State)
	case player.PositionChanged:
		c.OnPositionChanged(e.Position)
	case player.DurationChanged:
		c.OnDurationChanged(e.Duration)
	case player.ErrorOccurred:
		c.OnError(e.Message)
	}
}

// OnStateChanged mirrors the player state, which drives the play/pause icon.
func (c *Controller) OnStateChanged(s player.State) {
	if c.view.State == s {
		return
	}
	c.view.State = s
	c.render()
}

// OnPositionChanged mirrors the playhead.
func (c *Controller) OnPositionChanged(pos time.Duration) {
	c.view.PositionMs = pos.Milliseconds()
	c.render()
}

// OnDurationChanged sets the slider range.
func (c *Controller) OnDurationChanged(d time.Duration) {
	c.view.DurationMs = d.Milliseconds()
	c.render()
}

// OnError shows a player error in the status line.
func (c *Controller) OnError(message string) {
	c.logger.Warn().Str("file", c.view.File).Str("error", message).Msg("player error")
	c.setStatus("Error: " + message)
}

// Close shuts the player down.
func (c *Controller) Close() error {
	return c.player.Close()
}

func (c *Controller) fail(op string, err error) {
	c.logger.Error().Err(err).Str("op", op).Msg("player command failed")
	c.setStatus("Error: " + err.Error())
}

func (c *Controller) setStatus(s string) {
	c.view.Status = s
	c.render()
}

func (c *Controller) render() {
	if c.presenter != nil {
		c.presenter.Render(c.view)
	}
}
