package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pianowarp/config"
	"pianowarp/keyboard"
	"pianowarp/timeline"
	"pianowarp/videogenerator"
)

var logger = slog.Default()

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

var flags struct {
	debug      bool
	fps        int
	workers    int
	keepFrames bool
	output     string
	probe      string
	highlight  []int
}

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "pianowarp",
	Short: "Draw a piano keyboard warped onto a camera frame and light it from MIDI",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		applyFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}
		initLogger(cfg.Debug)
		return nil
	},
	SilenceUsage: true,
}

var renderCmd = &cobra.Command{
	Use:   "render <file.mid>",
	Short: "Render a MIDI file to an mp4 of the projected keyboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := videogenerator.New(cfg, logger).Generate(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var playCmd = &cobra.Command{
	Use:   "play <file.mid>",
	Short: "Replay a MIDI file in real time and log the lit keys",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		replay, err := videogenerator.New(cfg, logger).Replay(args[0])
		if err != nil {
			return err
		}
		return videogenerator.Play(cmd.Context(), replay, logger, func(active []timeline.Note) {
			keys := make([]int, len(active))
			for i, n := range active {
				keys[i] = n.Key
			}
			logger.Info("play", "tempo", replay.Tempo(), "keys", keys)
		})
	},
}

var stillCmd = &cobra.Command{
	Use:   "still [file.png]",
	Short: "Paint one frame of the keyboard, optionally with keys highlighted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "keyboard.png"
		if len(args) == 1 {
			path = args[0]
		}
		if err := videogenerator.New(cfg, logger).RenderStill(path, flags.highlight...); err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

type keyPolygon struct {
	Key     int                `json:"key"`
	Pitch   int                `json:"pitch"`
	Class   string             `json:"class"`
	Polygon keyboard.Rectangle `json:"polygon"`
}

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print the projected key polygons as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		layout, err := videogenerator.New(cfg, logger).Layout()
		if err != nil {
			return err
		}

		if flags.probe != "" {
			pt, err := parsePoint(flags.probe)
			if err != nil {
				return err
			}
			key, ok := layout.KeyAt(pt)
			if !ok {
				return fmt.Errorf("no key at %v,%v", pt.X, pt.Y)
			}
			fmt.Println(key)
			return nil
		}

		polygons := make([]keyPolygon, layout.Len())
		for key := range polygons {
			polygons[key] = keyPolygon{
				Key:     key,
				Pitch:   cfg.LowestPitch + key,
				Class:   layout.ClassOf(key).String(),
				Polygon: layout.RectangleFor(key),
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(polygons)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flags.fps, "fps", 0, "frames per second (overrides PIANOWARP_FPS)")

	renderCmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "parallel frame painters (overrides PIANOWARP_WORKERS)")
	renderCmd.Flags().BoolVar(&flags.keepFrames, "keep-frames", false, "leave the PNG frames on disk")
	renderCmd.Flags().StringVarP(&flags.output, "output", "o", "", "output folder (overrides PIANOWARP_OUTPUT_FOLDER)")

	stillCmd.Flags().IntSliceVar(&flags.highlight, "highlight", nil, "keys to highlight, 0 is the lowest key")

	layoutCmd.Flags().StringVar(&flags.probe, "probe", "", "print the key under the image point x,y")

	rootCmd.AddCommand(renderCmd, playCmd, stillCmd, layoutCmd)
}

func applyFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("debug") {
		cfg.Debug = flags.debug
	}
	if cmd.Flags().Changed("fps") {
		cfg.FPS = flags.fps
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = flags.workers
	}
	if cmd.Flags().Changed("keep-frames") {
		cfg.KeepFrames = flags.keepFrames
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputFolder = flags.output
	}
}

func parsePoint(s string) (keyboard.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return keyboard.Point{}, fmt.Errorf("probe %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return keyboard.Point{}, fmt.Errorf("probe %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return keyboard.Point{}, fmt.Errorf("probe %q: %w", s, err)
	}
	return keyboard.Point{X: x, Y: y}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("pianowarp", "err", err)
		stop()
		os.Exit(1)
	}
}
