// Package gui is the fyne front end. The video itself renders in the player's
// own window; this window carries the transport controls, the position
// slider, the status line and a preview of the last snapshot.
package gui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/keagan/framefinder/internal/controller"
	"github.com/keagan/framefinder/internal/keymap"
	"github.com/keagan/framefinder/internal/player"
	"github.com/keagan/framefinder/internal/snapshot"
)

const previewWidth = 320

// Window is a controller.Presenter backed by a fyne window.
type Window struct {
	win    fyne.Window
	ctrl   *controller.Controller
	keys   *keymap.Resolver
	logger zerolog.Logger

	fileLabel   *widget.Label
	posLabel    *widget.Label
	rateLabel   *widget.Label
	statusLabel *widget.Label
	slider      *seekSlider
	playButton  *widget.Button
	posButton   *widget.Button
	negButton   *widget.Button
	preview     *canvas.Image

	shownPreview string
	closing      bool
	// set while Render moves the slider so OnChanged doesn't seek
	rendering bool
}

// NewWindow builds the window and attaches it to ctrl as its presenter.
func NewWindow(a fyne.App, logger zerolog.Logger, ctrl *controller.Controller, keys *keymap.Resolver) *Window {
	w := &Window{
		win:    a.NewWindow("FrameFinder"),
		ctrl:   ctrl,
		keys:   keys,
		logger: logger.With().Str("component", "gui").Logger(),
	}
	w.build()
	w.win.Canvas().SetOnTypedRune(func(r rune) {
		w.handleKey(string(r))
	})
	w.win.SetCloseIntercept(w.quit)

	ctrl.SetPresenter(w)
	return w
}

// Pump forwards player events to the controller on the fyne goroutine until
// events is closed.
func (w *Window) Pump(events <-chan player.Event) {
	go func() {
		for e := range events {
			fyne.Do(func() {
				w.ctrl.HandleEvent(e)
			})
		}
	}()
}

// ShowAndRun shows the window and blocks until it is closed.
func (w *Window) ShowAndRun() {
	w.win.ShowAndRun()
}

func (w *Window) build() {
	w.fileLabel = widget.NewLabel("No video")
	w.fileLabel.TextStyle = fyne.TextStyle{Bold: true}
	w.posLabel = widget.NewLabel("0:00 / 0:00")
	w.rateLabel = widget.NewLabel("1x")
	w.statusLabel = widget.NewLabel("")
	w.statusLabel.Wrapping = fyne.TextWrapWord

	w.slider = newSeekSlider(func(r rune) { w.handleKey(string(r)) })
	w.slider.OnChanged = func(val float64) {
		if w.rendering {
			return
		}
		w.posLabel.SetText(clockLabel(int64(val), w.ctrl.View().DurationMs))
	}
	w.slider.OnChangeEnded = func(val float64) {
		if w.rendering {
			return
		}
		w.ctrl.Seek(int64(val))
	}

	w.playButton = widget.NewButtonWithIcon(w.label("Play", keymap.ActionPlayPause), theme.MediaPlayIcon(), w.action(keymap.ActionPlayPause))
	transport := container.NewHBox(
		widget.NewButtonWithIcon(w.label("Rewind", keymap.ActionRewind), theme.MediaFastRewindIcon(), w.action(keymap.ActionRewind)),
		widget.NewButton(w.label("Slow rewind", keymap.ActionSlowRewind), w.action(keymap.ActionSlowRewind)),
		w.playButton,
		widget.NewButton(w.label("Slow forward", keymap.ActionSlowForward), w.action(keymap.ActionSlowForward)),
		widget.NewButton(w.label("Forward", keymap.ActionForward), w.action(keymap.ActionForward)),
		widget.NewButtonWithIcon(w.label("Fast", keymap.ActionFastForward), theme.MediaFastForwardIcon(), w.action(keymap.ActionFastForward)),
	)

	w.posButton = widget.NewButtonWithIcon(w.label("Positive", keymap.ActionSnapshotPositive), theme.ConfirmIcon(), w.action(keymap.ActionSnapshotPositive))
	w.negButton = widget.NewButtonWithIcon(w.label("Negative", keymap.ActionSnapshotNegative), theme.CancelIcon(), w.action(keymap.ActionSnapshotNegative))
	actions := container.NewHBox(
		w.posButton,
		w.negButton,
		widget.NewButton(w.label("Mark", keymap.ActionMark), w.action(keymap.ActionMark)),
		widget.NewButtonWithIcon(w.label("Next", keymap.ActionNext), theme.MediaSkipNextIcon(), w.action(keymap.ActionNext)),
	)

	w.preview = canvas.NewImageFromImage(nil)
	w.preview.FillMode = canvas.ImageFillContain
	w.preview.SetMinSize(fyne.NewSize(previewWidth, previewWidth*9/16))
	w.preview.Hide()

	w.win.SetContent(container.NewVBox(
		container.NewHBox(w.fileLabel, widget.NewSeparator(), w.rateLabel),
		w.slider,
		w.posLabel,
		transport,
		actions,
		w.statusLabel,
		container.NewCenter(w.preview),
	))
	w.win.Resize(fyne.NewSize(640, 240))
}

// seekSlider is a position slider that passes typed runes to the window's
// shortcuts. A tapped slider takes keyboard focus, and the canvas only calls
// its typed-rune handler when nothing is focused.
type seekSlider struct {
	widget.Slider
	onRune func(rune)
}

func newSeekSlider(onRune func(rune)) *seekSlider {
	s := &seekSlider{onRune: onRune}
	s.Max = 1
	s.Step = 1
	s.Orientation = widget.Horizontal
	s.ExtendBaseWidget(s)
	return s
}

// TypedRune implements fyne.Focusable.
func (s *seekSlider) TypedRune(r rune) {
	s.onRune(r)
}

// Render implements controller.Presenter.
func (w *Window) Render(v controller.ViewState) {
	w.fileLabel.SetText(v.FileLabel())
	w.rateLabel.SetText(v.RateLabel())
	w.posLabel.SetText(v.PositionLabel())
	w.statusLabel.SetText(v.Status)

	w.rendering = true
	end := float64(v.DurationMs)
	if end <= 0 {
		end = 1
	}
	w.slider.Max = end
	w.slider.SetValue(float64(v.PositionMs))
	w.rendering = false

	if v.State == player.Playing {
		w.playButton.SetIcon(theme.MediaPauseIcon())
		w.playButton.SetText(w.label("Pause", keymap.ActionPlayPause))
	} else {
		w.playButton.SetIcon(theme.MediaPlayIcon())
		w.playButton.SetText(w.label("Play", keymap.ActionPlayPause))
	}

	if v.TwoWay {
		w.posButton.SetText(w.label("Positive", keymap.ActionSnapshotPositive))
		w.negButton.Show()
	} else {
		w.posButton.SetText(w.label("Snapshot", keymap.ActionSnapshotPositive))
		w.negButton.Hide()
	}
	if v.Busy {
		w.posButton.Disable()
		w.negButton.Disable()
	} else {
		w.posButton.Enable()
		w.negButton.Enable()
	}

	if v.Preview != "" && v.Preview != w.shownPreview {
		w.shownPreview = v.Preview
		w.loadPreview(v.Preview)
	}
}

// loadPreview decodes the thumbnail off the UI goroutine.
func (w *Window) loadPreview(path string) {
	go func() {
		img, err := snapshot.Thumbnail(path, previewWidth)
		fyne.Do(func() {
			if err != nil {
				w.logger.Warn().Err(err).Str("path", path).Msg("preview failed")
				return
			}
			w.showPreview(img)
		})
	}()
}

func (w *Window) showPreview(img image.Image) {
	w.preview.Image = img
	w.preview.Show()
	w.preview.Refresh()
}

func (w *Window) handleKey(key string) {
	action := w.keys.Resolve(key)
	if action == "" {
		return
	}
	w.logger.Debug().Str("key", key).Str("action", string(action)).Msg("key")
	if action == keymap.ActionQuit {
		w.quit()
		return
	}
	w.ctrl.Dispatch(action)
}

// quit stops the player before closing the window.
func (w *Window) quit() {
	if w.closing {
		return
	}
	w.closing = true
	if err := w.ctrl.Close(); err != nil {
		w.logger.Warn().Err(err).Msg("closing player")
	}
	w.win.Close()
}

func (w *Window) action(a keymap.Action) func() {
	return func() {
		w.ctrl.Dispatch(a)
	}
}

func (w *Window) label(text string, a keymap.Action) string {
	return w.keys.Label(text, a)
}

func clockLabel(posMs, durMs int64) string {
	return controller.ViewState{PositionMs: posMs, DurationMs: durMs}.PositionLabel()
}
