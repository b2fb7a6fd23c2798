// Package catalog probes the videos of a playlist for the list command.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/keagan/framefinder/internal/ffmpeg"
)

// Prober reads video metadata.
type Prober interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
}

// Catalog probes playlist entries in parallel.
type Catalog struct {
	logger  zerolog.Logger
	prober  Prober
	workers int
}

// New creates a catalog. workers <= 0 means one probe at a time.
func New(logger zerolog.Logger, prober Prober, workers int) *Catalog {
	if workers <= 0 {
		workers = 1
	}
	return &Catalog{
		logger:  logger.With().Str("component", "catalog").Logger(),
		prober:  prober,
		workers: workers,
	}
}

// Scan probes every path and returns one entry per path in playlist order.
// A file that fails to probe is reported in its entry; only cancellation
// aborts the scan.
func (c *Catalog) Scan(ctx context.Context, paths []string) ([]Entry, error) {
	c.logger.Info().
		Int("files", len(paths)).
		Int("workers", c.workers).
		Msg("probing playlist")

	start := time.Now()
	entries := make([]Entry, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			info, err := c.prober.ProbeVideo(gctx, path)
			entries[i] = Entry{Index: i, Path: path, Info: info, Err: err}
			if err != nil {
				c.logger.Warn().Err(err).Str("file", path).Msg("probe failed")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	c.logger.Debug().Dur("elapsed", time.Since(start)).Msg("probe complete")
	return entries, nil
}
