package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/keagan/framefinder/pkg/util"
)

// ErrNoFrame is returned when ffmpeg exits cleanly without encoding a frame,
// as it does when the position is past the end of the input.
var ErrNoFrame = errors.New("no frame at position")

// ExtractFrame writes the single frame at opts.PositionMs of opts.Input to
// opts.Output, overwriting it.
func (e *Executor) ExtractFrame(ctx context.Context, opts FrameOptions) error {
	if opts.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.PositionMs < 0 {
		return fmt.Errorf("invalid position %dms", opts.PositionMs)
	}

	e.logger.Info().
		Str("input", opts.Input).
		Str("output", opts.Output).
		Int64("position_ms", opts.PositionMs).
		Msg("extracting frame")

	args := FrameArgs(opts)

	var last *Progress
	runOpts := RunOptions{
		Args: args,
		ProgressHandler: func(p *Progress) {
			last = p
		},
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("frame extraction")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		ev := e.logger.Warn().Err(err).Str("input", opts.Input)
		if last != nil {
			ev = ev.Int("frames", last.Frame).Str("out_time", last.Time).Str("speed", last.Speed)
		}
		ev.Msg("frame extraction failed")
		return fmt.Errorf("frame extraction failed: %w", err)
	}

	if last != nil && last.Frame == 0 {
		return fmt.Errorf("%w %dms of %s", ErrNoFrame, opts.PositionMs, opts.Input)
	}

	e.logger.Debug().Str("output", opts.Output).Msg("frame extraction complete")
	return nil
}

// FrameArgs builds the ffmpeg arguments for a single-frame extraction:
// seek offset in seconds, input, frame count 1, output. -update 1 keeps the
// image2 muxer from reading %d in the output name as a sequence pattern.
func FrameArgs(opts FrameOptions) []string {
	args := []string{
		"-ss", util.FormatSeconds(opts.PositionMs),
		"-i", opts.Input,
		"-frames:v", "1",
	}

	quality := opts.Quality
	if quality == 0 {
		quality = DefaultFrameQuality
	}
	args = append(args, "-q:v", strconv.Itoa(quality))

	return append(args, "-update", "1", opts.Output)
}
