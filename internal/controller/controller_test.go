package controller

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/keagan/framefinder/internal/ffmpeg"
	"github.com/keagan/framefinder/internal/keymap"
	"github.com/keagan/framefinder/internal/player"
	"github.com/keagan/framefinder/internal/playlist"
	"github.com/keagan/framefinder/internal/snapshot"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	renders int
	last    ViewState
}

func (r *recorder) Render(v ViewState) {
	r.renders++
	r.last = v
}

type stubExtractor struct {
	err   error
	block chan struct{}
}

func (s *stubExtractor) ExtractFrame(ctx context.Context, opts ffmpeg.FrameOptions) error {
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(opts.Output, []byte("jpeg"), 0644)
}

func (s *stubExtractor) Tool() string { return "ffmpeg" }

type fixture struct {
	ctrl   *Controller
	player *player.Mock
	view   *recorder
	posted chan func()
	posDir string
	negDir string
}

func newFixture(t *testing.T, paths []string, extractor *stubExtractor, twoWay bool) *fixture {
	t.Helper()
	if extractor == nil {
		extractor = &stubExtractor{}
	}

	f := &fixture{
		player: player.NewMock(),
		view:   &recorder{},
		posted: make(chan func(), 4),
		posDir: t.TempDir(),
	}
	opts := Options{
		PositiveDir: f.posDir,
		Post:        func(fn func()) { f.posted <- fn },
	}
	if twoWay {
		f.negDir = t.TempDir()
		opts.NegativeDir = f.negDir
	}

	runner := snapshot.NewRunner(snapshot.NewExporter(zerolog.Nop(), extractor, time.Second, 2))
	f.ctrl = New(context.Background(), zerolog.Nop(), f.player, playlist.New(paths), runner, opts)
	f.ctrl.SetPresenter(f.view)
	return f
}

// drain runs the next posted callback on the test goroutine.
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	select {
	case fn := <-f.posted:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("no callback posted")
	}
}

func TestStartLoadsFirstVideoAndPlays(t *testing.T) {
	f := newFixture(t, []string{"movies/a.mp4", "movies/b.mp4"}, nil, true)

	f.ctrl.Start()

	assert.Equal(t, []string{"movies/a.mp4"}, f.player.LoadCalls())
	assert.Equal(t, player.Playing, f.player.State())
	assert.Equal(t, "movies/a.mp4", f.view.last.File)
	assert.Equal(t, player.Playing, f.view.last.State)
	assert.Equal(t, 0, f.view.last.Index)
	assert.Equal(t, 2, f.view.last.Count)
}

func TestNextCyclesBackToFirst(t *testing.T) {
	f := newFixture(t, []string{"movies/a.mp4", "movies/b.mp4"}, nil, true)

	f.ctrl.Start()
	f.ctrl.Next()
	f.ctrl.Next()

	assert.Equal(t, []string{"movies/a.mp4", "movies/b.mp4", "movies/a.mp4"}, f.player.LoadCalls())
	assert.Equal(t, "movies/a.mp4", f.view.last.File)
	assert.Equal(t, player.Playing, f.view.last.State)
}

func TestEmptyPlaylistIsInert(t *testing.T) {
	f := newFixture(t, nil, nil, true)

	f.ctrl.Start()
	before := f.ctrl.View()
	f.ctrl.Next()
	f.ctrl.Play()
	f.ctrl.Seek(1000)

	assert.Equal(t, before, f.ctrl.View())
	assert.Empty(t, f.player.LoadCalls())
	assert.Zero(t, f.player.PlayCalls())
	assert.False(t, f.view.last.HasVideo())
	assert.Empty(t, f.view.last.Status)
	assert.Equal(t, player.Stopped, f.view.last.State)
}

func TestNextClearsErrorAndResetsPosition(t *testing.T) {
	f := newFixture(t, []string{"a.mp4", "b.mp4"}, nil, true)
	f.ctrl.Start()
	f.ctrl.OnPositionChanged(5 * time.Second)
	f.ctrl.OnDurationChanged(10 * time.Second)
	f.ctrl.OnError("cannot decode")
	require.Equal(t, "Error: cannot decode", f.view.last.Status)

	f.ctrl.Next()

	assert.Empty(t, f.view.last.Status)
	assert.Equal(t, "b.mp4", f.view.last.File)
	assert.Zero(t, f.view.last.PositionMs)
	assert.Zero(t, f.view.last.DurationMs)
}

func TestNextLoadFailure(t *testing.T) {
	f := newFixture(t, []string{"a.mp4"}, nil, true)
	f.player.SetLoadError(errors.New("no such file"))

	f.ctrl.Next()

	assert.Contains(t, f.view.last.Status, "Error")
	assert.False(t, f.view.last.HasVideo())
}

func TestToggleTwiceRestoresState(t *testing.T) {
	for _, start := range []player.State{player.Playing, player.Paused} {
		t.Run(start.String(), func(t *testing.T) {
			f := newFixture(t, []string{"a.mp4"}, nil, true)
			f.ctrl.Start()
			if start == player.Paused {
				f.ctrl.Pause()
			}
			require.Equal(t, start, f.ctrl.View().State)

			f.ctrl.Toggle()
			assert.NotEqual(t, start, f.ctrl.View().State)
			f.ctrl.Toggle()
			assert.Equal(t, start, f.ctrl.View().State)
		})
	}
}

func TestPlayIsIdempotent(t *testing.T) {
	f := newFixture(t, []string{"a.mp4"}, nil, true)
	f.ctrl.Start()
	calls := f.player.PlayCalls()

	f.ctrl.Play()

	assert.Equal(t, calls, f.player.PlayCalls())
}

func TestRateChangesLeavePlaying(t *testing.T) {
	actions := []struct {
		name string
		do   func(*Controller)
		rate float64
	}{
		{"rewind", (*Controller).Rewind, -1},
		{"slow rewind", (*Controller).SlowRewind, -0.25},
		{"slow forward", (*Controller).SlowForward, 0.25},
		{"forward", (*Controller).Forward, 1},
		{"fast forward", (*Controller).FastForward, 2},
	}

	// mpv reports Stopped after a file fails to play
	priors := []player.State{player.Playing, player.Paused, player.Stopped}

	for _, a := range actions {
		for _, prior := range priors {
			t.Run(a.name+"/"+prior.String(), func(t *testing.T) {
				f := newFixture(t, []string{"a.mp4"}, nil, true)
				f.ctrl.Start()
				switch prior {
				case player.Paused:
					f.ctrl.Pause()
				case player.Stopped:
					f.ctrl.OnStateChanged(player.Stopped)
					f.player.SetState(player.Stopped)
					require.Equal(t, player.Stopped, f.ctrl.View().State)
				}

				a.do(f.ctrl)

				assert.Equal(t, player.Playing, f.ctrl.View().State)
				assert.Equal(t, player.Playing, f.player.State())
				assert.Equal(t, a.rate, f.player.Rate())
				assert.Equal(t, a.rate, f.view.last.Rate)
			})
		}
	}
}

func TestSeekClampsToDuration(t *testing.T) {
	f := newFixture(t, []string{"a.mp4"}, nil, true)
	f.ctrl.Start()

	// unknown duration: only the lower bound applies
	f.ctrl.Seek(-50)
	f.ctrl.Seek(99000)

	f.ctrl.OnDurationChanged(10 * time.Second)
	f.ctrl.Seek(20000)
	f.ctrl.Seek(4200)

	assert.Equal(t, []time.Duration{
		0,
		99 * time.Second,
		10 * time.Second,
		4200 * time.Millisecond,
	}, f.player.SeekCalls())
	assert.Equal(t, int64(4200), f.view.last.PositionMs)
}

func TestNotificationsUpdateView(t *testing.T) {
	f := newFixture(t, []string{"a.mp4"}, nil, true)
	f.ctrl.Start()

	f.ctrl.HandleEvent(player.Event{Kind: player.DurationChanged, Duration: 90 * time.Second})
	f.ctrl.HandleEvent(player.Event{Kind: player.PositionChanged, Position: 14230 * time.Millisecond})
	f.ctrl.HandleEvent(player.Event{Kind: player.StateChanged, State: player.Paused})

	v := f.view.last
	assert.Equal(t, int64(90000), v.DurationMs)
	assert.Equal(t, int64(14230), v.PositionMs)
	assert.Equal(t, player.Paused, v.State)
	assert.Equal(t, "0:14 / 1:30", v.PositionLabel())

	f.ctrl.HandleEvent(player.Event{Kind: player.ErrorOccurred, Message: "unsupported codec"})
	assert.Equal(t, "Error: unsupported codec", f.view.last.Status)
}

func TestSnapshotPositiveSaves(t *testing.T) {
	f := newFixture(t, []string{"movies/clip.mp4"}, nil, true)
	f.ctrl.Start()
	// the last notification trails the playhead
	f.ctrl.OnPositionChanged(14000 * time.Millisecond)
	f.player.SetPosition(14230 * time.Millisecond)

	f.ctrl.SnapshotPositive()
	assert.True(t, f.view.last.Busy)
	assert.Equal(t, "Saving clip_14230.jpg...", f.view.last.Status)

	f.drain(t)

	want := filepath.Join(f.posDir, "clip_14230.jpg")
	assert.False(t, f.view.last.Busy)
	assert.Equal(t, "Saved "+want, f.view.last.Status)
	assert.Equal(t, want, f.view.last.Preview)
	assert.FileExists(t, want)
}

func TestSnapshotFallsBackToLastPosition(t *testing.T) {
	f := newFixture(t, []string{"movies/clip.mp4"}, nil, true)
	f.ctrl.Start()
	f.ctrl.OnPositionChanged(9500 * time.Millisecond)
	f.player.SetPositionError(errors.New("property unavailable"))

	f.ctrl.SnapshotPositive()
	f.drain(t)

	assert.FileExists(t, filepath.Join(f.posDir, "clip_9500.jpg"))
}

func TestSnapshotNegativeTargetsNegativeDir(t *testing.T) {
	f := newFixture(t, []string{"clip.mp4"}, nil, true)
	f.ctrl.Start()

	f.ctrl.SnapshotNegative()
	f.drain(t)

	assert.FileExists(t, filepath.Join(f.negDir, "clip_0.jpg"))
	assert.NoFileExists(t, filepath.Join(f.posDir, "clip_0.jpg"))
}

func TestSingleDirectoryMode(t *testing.T) {
	f := newFixture(t, []string{"clip.mp4"}, nil, false)
	f.ctrl.Start()
	assert.False(t, f.view.last.TwoWay)

	f.ctrl.SnapshotNegative()
	f.drain(t)

	assert.FileExists(t, filepath.Join(f.posDir, "clip_0.jpg"))
}

func TestSnapshotFailureShowsError(t *testing.T) {
	f := newFixture(t, []string{"clip.mp4"}, &stubExtractor{err: errors.New("exit status 1")}, true)
	f.ctrl.Start()

	f.ctrl.SnapshotPositive()
	f.drain(t)

	assert.Equal(t, "Error running ffmpeg", f.view.last.Status)
	assert.Empty(t, f.view.last.Preview)
	assert.NoFileExists(t, filepath.Join(f.posDir, "clip_0.jpg"))
	assert.Equal(t, player.Playing, f.view.last.State, "failure must not stop playback")
}

func TestSnapshotRejectedWhileBusy(t *testing.T) {
	ext := &stubExtractor{block: make(chan struct{})}
	f := newFixture(t, []string{"clip.mp4"}, ext, true)
	f.ctrl.Start()

	f.ctrl.SnapshotPositive()
	f.ctrl.SnapshotNegative()
	assert.Equal(t, "Snapshot in progress", f.view.last.Status)
	assert.True(t, f.view.last.Busy)

	close(ext.block)
	f.drain(t)
	assert.False(t, f.view.last.Busy)
	assert.NoFileExists(t, filepath.Join(f.negDir, "clip_0.jpg"))
}

func TestSnapshotWithoutVideo(t *testing.T) {
	f := newFixture(t, nil, nil, true)

	f.ctrl.SnapshotPositive()

	assert.Equal(t, "No video loaded", f.view.last.Status)
	assert.Empty(t, f.posted)
}

func TestMark(t *testing.T) {
	f := newFixture(t, []string{"movies/clip.mp4"}, nil, true)
	f.ctrl.Mark()
	assert.Empty(t, f.view.last.Status)

	f.ctrl.Start()
	f.ctrl.OnPositionChanged(75 * time.Second)
	f.ctrl.Mark()

	assert.Equal(t, "Marked clip.mp4 @ 1:15", f.view.last.Status)
}

func TestDispatch(t *testing.T) {
	f := newFixture(t, []string{"a.mp4", "b.mp4"}, nil, true)
	f.ctrl.Start()

	assert.True(t, f.ctrl.Dispatch(keymap.ActionPlayPause))
	assert.Equal(t, player.Paused, f.ctrl.View().State)

	assert.True(t, f.ctrl.Dispatch(keymap.ActionSlowRewind))
	assert.Equal(t, -0.25, f.player.Rate())
	assert.Equal(t, player.Playing, f.ctrl.View().State)

	assert.True(t, f.ctrl.Dispatch(keymap.ActionNext))
	assert.Equal(t, "b.mp4", f.ctrl.View().File)

	assert.True(t, f.ctrl.Dispatch(keymap.ActionMark))
	assert.Contains(t, f.ctrl.View().Status, "Marked b.mp4")

	assert.False(t, f.ctrl.Dispatch(keymap.ActionQuit))
	assert.False(t, f.ctrl.Dispatch(keymap.Action("bogus")))
}

func TestViewLabels(t *testing.T) {
	v := ViewState{Rate: -0.25}
	assert.Equal(t, "No video", v.FileLabel())
	assert.Equal(t, "-0.25x", v.RateLabel())
	assert.Zero(t, v.Progress())

	v = ViewState{File: "movies/a.mp4", Rate: 2, PositionMs: 2500, DurationMs: 10000}
	assert.Equal(t, "a.mp4", v.FileLabel())
	assert.Equal(t, "2x", v.RateLabel())
	assert.InDelta(t, 0.25, v.Progress(), 1e-9)
}
