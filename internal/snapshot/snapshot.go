// Package snapshot exports single frames of the current video as JPEG files
// named after the source file and the playhead position.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/keagan/framefinder/internal/ffmpeg"
	"github.com/keagan/framefinder/pkg/util"
	"github.com/rs/zerolog"
)

// ErrNoVideo is reported when a snapshot is requested with nothing loaded.
var ErrNoVideo = errors.New("no video loaded")

// Extension of exported frames.
const Extension = ".jpg"

// FrameExtractor writes one frame of a video to an image file.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, opts ffmpeg.FrameOptions) error
	Tool() string
}

// Request describes one snapshot.
type Request struct {
	Source     string
	PositionMs int64
	Dir        string
}

// Result is the outcome of a snapshot. Message is the status line text.
type Result struct {
	Path    string
	Err     error
	Message string
}

// OK reports whether the snapshot was written.
func (r Result) OK() bool {
	return r.Err == nil
}

// FileName derives the snapshot name, e.g. ("movies/clip.mp4", 14230) ->
// "clip_14230.jpg".
func FileName(source string, positionMs int64) string {
	return fmt.Sprintf("%s_%d%s", util.BaseName(source), positionMs, Extension)
}

// Exporter runs the frame extractor and turns its outcome into a status
// message. It never retries.
type Exporter struct {
	logger    zerolog.Logger
	extractor FrameExtractor
	timeout   time.Duration
	quality   int
}

// NewExporter creates an exporter. A zero timeout disables the deadline.
func NewExporter(logger zerolog.Logger, extractor FrameExtractor, timeout time.Duration, quality int) *Exporter {
	return &Exporter{
		logger:    logger.With().Str("component", "snapshot").Logger(),
		extractor: extractor,
		timeout:   timeout,
		quality:   quality,
	}
}

// Export writes the frame described by req.
func (e *Exporter) Export(ctx context.Context, req Request) Result {
	if req.Source == "" {
		return Result{Err: ErrNoVideo, Message: "No video loaded"}
	}

	path := filepath.Join(req.Dir, FileName(req.Source, req.PositionMs))
	existed := util.FileExists(path)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	err := e.extractor.ExtractFrame(ctx, ffmpeg.FrameOptions{
		Input:      req.Source,
		Output:     path,
		PositionMs: req.PositionMs,
		Quality:    e.quality,
	})
	if err != nil {
		// don't leave a partial image behind, but never delete an earlier
		// snapshot we were overwriting
		if !existed {
			_ = os.Remove(path)
		}
		e.logger.Error().
			Err(err).
			Str("source", req.Source).
			Int64("position_ms", req.PositionMs).
			Msg("snapshot failed")
		return Result{Path: path, Err: err, Message: "Error running " + e.extractor.Tool()}
	}

	ev := e.logger.Info().Str("path", path).Bool("overwrote", existed)
	if info, statErr := os.Stat(path); statErr == nil {
		ev = ev.Str("size", humanize.Bytes(uint64(info.Size())))
	}
	ev.Msg("snapshot saved")

	return Result{Path: path, Message: "Saved " + path}
}
