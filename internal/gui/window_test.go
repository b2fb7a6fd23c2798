package gui

import (
	"context"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keagan/framefinder/internal/controller"
	"github.com/keagan/framefinder/internal/keymap"
	"github.com/keagan/framefinder/internal/player"
	"github.com/keagan/framefinder/internal/playlist"
	"github.com/keagan/framefinder/internal/snapshot"
)

type nopSnapshotter struct{ requests []snapshot.Request }

func (n *nopSnapshotter) Start(_ context.Context, req snapshot.Request, _ func(snapshot.Result)) error {
	n.requests = append(n.requests, req)
	return nil
}

func newTestWindow(t *testing.T, paths []string, negDir string) (*Window, *player.Mock, *nopSnapshotter) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	mock := player.NewMock()
	snaps := &nopSnapshotter{}
	ctrl := controller.New(context.Background(), zerolog.Nop(), mock, playlist.New(paths), snaps, controller.Options{
		PositiveDir: "pos",
		NegativeDir: negDir,
	})
	w := NewWindow(a, zerolog.Nop(), ctrl, keymap.NewResolver(keymap.Defaults))
	return w, mock, snaps
}

func TestWindowShowsLoadedVideo(t *testing.T) {
	w, _, _ := newTestWindow(t, []string{"movies/a.mp4"}, "neg")
	assert.Equal(t, "No video", w.fileLabel.Text)

	w.ctrl.Start()

	assert.Equal(t, "a.mp4", w.fileLabel.Text)
	assert.Equal(t, "Pause (d)", w.playButton.Text)
	assert.Equal(t, "1x", w.rateLabel.Text)
}

func TestWindowKeysDispatch(t *testing.T) {
	w, mock, snaps := newTestWindow(t, []string{"a.mp4", "b.mp4"}, "neg")
	w.ctrl.Start()

	w.handleKey("d")
	assert.Equal(t, player.Paused, mock.State())
	assert.Equal(t, "Play (d)", w.playButton.Text)

	w.handleKey("s")
	assert.Equal(t, player.Playing, mock.State())
	assert.Equal(t, "-0.25x", w.rateLabel.Text)

	w.handleKey("n")
	assert.Equal(t, "b.mp4", w.fileLabel.Text)

	w.handleKey("o")
	require.Len(t, snaps.requests, 1)
	assert.Equal(t, "neg", snaps.requests[0].Dir)
	assert.True(t, w.negButton.Disabled())

	// unbound keys are ignored
	w.handleKey("z")
	assert.Equal(t, "b.mp4", w.fileLabel.Text)
}

func TestWindowButtons(t *testing.T) {
	w, mock, _ := newTestWindow(t, []string{"a.mp4"}, "neg")
	w.ctrl.Start()

	test.Tap(w.playButton)
	assert.Equal(t, player.Paused, mock.State())
	test.Tap(w.playButton)
	assert.Equal(t, player.Playing, mock.State())
}

func TestWindowSingleDirectoryMode(t *testing.T) {
	w, _, snaps := newTestWindow(t, []string{"a.mp4"}, "")
	w.ctrl.Start()

	assert.False(t, w.negButton.Visible())
	assert.Equal(t, "Snapshot (p)", w.posButton.Text)

	w.handleKey("p")
	require.Len(t, snaps.requests, 1)
	assert.Equal(t, "pos", snaps.requests[0].Dir)
	assert.True(t, w.posButton.Disabled(), "snapshot controls are disabled while busy")
}

func TestWindowSliderSeeks(t *testing.T) {
	w, mock, _ := newTestWindow(t, []string{"a.mp4"}, "neg")
	w.ctrl.Start()
	w.ctrl.OnDurationChanged(10 * time.Second)
	w.ctrl.OnPositionChanged(2 * time.Second)

	assert.Equal(t, float64(10000), w.slider.Max)
	assert.Equal(t, float64(2000), w.slider.Value)
	assert.Empty(t, mock.SeekCalls(), "rendering must not seek")

	w.slider.OnChangeEnded(7500)

	assert.Equal(t, []time.Duration{7500 * time.Millisecond}, mock.SeekCalls())
	assert.Equal(t, "0:07 / 0:10", w.posLabel.Text)
}

// typeRune delivers r the way the desktop driver does: to the focused
// widget if there is one, otherwise to the canvas handler.
func typeRune(c fyne.Canvas, r rune) {
	if f := c.Focused(); f != nil {
		f.TypedRune(r)
		return
	}
	c.OnTypedRune()(r)
}

func TestWindowShortcutsAfterSliderTap(t *testing.T) {
	w, _, _ := newTestWindow(t, []string{"a.mp4", "b.mp4", "c.mp4"}, "neg")
	w.ctrl.Start()
	c := w.win.Canvas()

	typeRune(c, 'n')
	assert.Equal(t, "b.mp4", w.fileLabel.Text)

	test.Tap(w.slider)
	require.NotNil(t, c.Focused(), "a tapped slider takes focus")

	typeRune(c, 'n')
	assert.Equal(t, "c.mp4", w.fileLabel.Text)

	typeRune(c, 'q')
	assert.True(t, w.closing)
}

func TestWindowShowsErrors(t *testing.T) {
	w, _, _ := newTestWindow(t, []string{"a.mp4"}, "neg")
	w.ctrl.Start()

	w.ctrl.OnError("unsupported codec")

	assert.Equal(t, "Error: unsupported codec", w.statusLabel.Text)
}

func TestWindowQuitClosesPlayer(t *testing.T) {
	w, mock, _ := newTestWindow(t, []string{"a.mp4"}, "neg")

	w.handleKey("q")

	_, open := <-mock.Events()
	assert.False(t, open)
}
