package main

import (
	"context"
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/framefinder/internal/config"
	"github.com/keagan/framefinder/internal/controller"
	"github.com/keagan/framefinder/internal/ffmpeg"
	"github.com/keagan/framefinder/internal/gui"
	"github.com/keagan/framefinder/internal/keymap"
	"github.com/keagan/framefinder/internal/logging"
	"github.com/keagan/framefinder/internal/player/mpv"
	"github.com/keagan/framefinder/internal/playlist"
	"github.com/keagan/framefinder/internal/snapshot"
	"github.com/keagan/framefinder/internal/tui"
	"github.com/keagan/framefinder/pkg/util"
)

var (
	cfgFile string
	verbose bool
	useTUI  bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "framefinder [MOVIE_DIR POS_SNAPSHOT_DIR NEG_SNAPSHOT_DIR]",
	Short: "FrameFinder - scrub videos and export labeled frames",
	Long: "Scrub through a directory of videos and export single frames as JPEG images.\n" +
		"With three arguments snapshots are sorted into positive and negative directories;\n" +
		"with none the configured movie directory and snapshot directory are used.",
	Args: snapshotArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if len(args) == 3 && cmd == cmd.Root() {
			cfg.MovieDir, cfg.PositiveDir, cfg.NegativeDir = args[0], args[1], args[2]
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// past argument validation; runtime failures shouldn't print usage
		cmd.SilenceUsage = true
		return run(cmd.Context(), config.FromContext(cmd.Context()))
	},
}

// snapshotArgs accepts no arguments or exactly MOVIE_DIR POS_SNAPSHOT_DIR
// NEG_SNAPSHOT_DIR.
func snapshotArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 3 {
		return fmt.Errorf("expected 0 or 3 arguments, got %d", len(args))
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./framefinder.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVar(&useTUI, "tui", false, "use the terminal interface instead of the GUI")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
}

func run(ctx context.Context, cfg *config.Config) error {
	if useTUI {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logging.InitWriter(f, verbose)
	}
	logger := logging.WithComponent("main")

	positive, negative := cfg.OutputDirs()
	for _, dir := range []string{positive, negative} {
		if err := util.EnsureDir(dir); err != nil {
			return fmt.Errorf("create snapshot directory %s: %w", dir, err)
		}
	}

	keys, err := keymap.Load(cfg.Keys)
	if err != nil {
		return err
	}

	cursor, err := playlist.FromDir(cfg.MovieDir, cfg.Pattern, cfg.SortPlaylist)
	if err != nil {
		return err
	}
	logger.Info().
		Str("dir", cfg.MovieDir).
		Int("videos", cursor.Len()).
		Bool("two_way", cfg.TwoWay()).
		Msg("playlist ready")

	ff, err := ffmpeg.New(log.Logger, ffmpeg.Options{
		FFmpegPath:  cfg.FFmpeg.BinaryPath,
		FFprobePath: cfg.FFmpeg.ProbePath,
		Threads:     cfg.FFmpeg.Threads,
	})
	if err != nil {
		return err
	}
	runner := snapshot.NewRunner(snapshot.NewExporter(log.Logger, ff, cfg.FFmpeg.Timeout, cfg.FFmpeg.Quality))

	mp, err := mpv.Launch(ctx, log.Logger, mpv.Options{
		BinaryPath: cfg.Player.BinaryPath,
		SocketPath: cfg.Player.SocketPath,
		ExtraArgs:  cfg.Player.ExtraArgs,
		Title:      "FrameFinder",
	})
	if err != nil {
		return fmt.Errorf("start media player: %w", err)
	}
	defer mp.Close()

	opts := controller.Options{
		PositiveDir: positive,
		NegativeDir: negative,
	}

	if useTUI {
		posts := tui.NewPoster()
		opts.Post = posts.Post
		ctrl := controller.New(ctx, log.Logger, mp, cursor, runner, opts)
		return tui.Run(ctrl, keys, mp.Events(), posts)
	}

	a := app.NewWithID("io.github.keagan.framefinder")
	opts.Post = fyne.Do
	ctrl := controller.New(ctx, log.Logger, mp, cursor, runner, opts)
	w := gui.NewWindow(a, log.Logger, ctrl, keys)
	w.Pump(mp.Events())
	ctrl.Start()
	w.ShowAndRun()
	return nil
}
