package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/framefinder/internal/catalog"
	"github.com/keagan/framefinder/internal/config"
	"github.com/keagan/framefinder/internal/ffmpeg"
	"github.com/keagan/framefinder/internal/playlist"
	"github.com/keagan/framefinder/pkg/util"
)

var listCmd = &cobra.Command{
	Use:   "list [MOVIE_DIR]",
	Short: "List the playlist in playback order",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg := config.FromContext(cmd.Context())
		if len(args) == 1 {
			cfg.MovieDir = args[0]
		}

		cursor, err := playlist.FromDir(cfg.MovieDir, cfg.Pattern, cfg.SortPlaylist)
		if err != nil {
			return err
		}

		ff, err := ffmpeg.New(log.Logger, ffmpeg.Options{
			FFmpegPath:  cfg.FFmpeg.BinaryPath,
			FFprobePath: cfg.FFmpeg.ProbePath,
			Threads:     cfg.FFmpeg.Threads,
		})
		if err != nil {
			return err
		}

		entries, err := catalog.New(log.Logger, ff, cfg.Concurrency).Scan(cmd.Context(), cursor.Paths())
		if err != nil {
			return err
		}
		return printCatalog(cmd.OutOrStdout(), entries)
	},
}

func printCatalog(w io.Writer, entries []catalog.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no videos found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFILE\tDURATION\tRESOLUTION\tSIZE")
	for _, e := range entries {
		name := filepath.Base(e.Path)
		if e.Err != nil || e.Info == nil {
			fmt.Fprintf(tw, "%d\t%s\t-\t-\tunreadable\n", e.Index+1, name)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%dx%d\t%s\n",
			e.Index+1,
			name,
			util.FormatClock(e.Info.Duration),
			e.Info.Width, e.Info.Height,
			humanize.Bytes(uint64(e.Info.Size)),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := catalog.Summarize(entries)
	_, err := fmt.Fprintf(w, "\n%d videos, %s total, %s", s.Files, util.FormatClock(s.Duration), humanize.Bytes(uint64(s.Bytes)))
	if err == nil && s.Failed > 0 {
		_, err = fmt.Fprintf(w, ", %d unreadable", s.Failed)
	}
	if err == nil {
		_, err = fmt.Fprintln(w)
	}
	return err
}
