// Package videogenerator paints projected keyboards driven by a performance
// replay, either as a PNG frame sequence stitched by ffmpeg or live.
package videogenerator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fogleman/gg"

	"pianowarp/config"
	"pianowarp/keyboard"
	"pianowarp/midiparser"
	"pianowarp/timeline"
)

type Generator struct {
	cfg config.Config
	log *slog.Logger
}

func New(cfg config.Config, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{cfg: cfg, log: log}
}

// Layout builds the projected keyboard described by the configuration.
func (g *Generator) Layout() (*keyboard.ProjectedLayout, error) {
	flat, err := keyboard.NewLayout2D(g.cfg.KeyboardConfig())
	if err != nil {
		return nil, err
	}
	return keyboard.NewProjectedLayout(flat, g.cfg.BorderRectangle())
}

func (g *Generator) Painter(layout *keyboard.ProjectedLayout) (*Painter, error) {
	return NewPainter(layout, PainterOptions{
		HighlightScale: g.cfg.HighlightScale,
		LowestPitch:    g.cfg.LowestPitch,
		Labels:         true,
		LabelSize:      g.cfg.KeyboardHeight / 12,
	})
}

// Replay decodes a MIDI file and prepares its replay.
func (g *Generator) Replay(midiPath string) (*timeline.Replay, error) {
	var opts []midiparser.Option
	opts = append(opts, midiparser.WithLogger(g.log))
	if g.cfg.SkipDrums {
		opts = append(opts, midiparser.SkipChannel(midiparser.DrumChannel))
	}
	parsed, err := midiparser.ParseFile(midiPath, opts...)
	if err != nil {
		return nil, err
	}
	return timeline.NewReplay(parsed.Performance, g.cfg.KeyRange(), timeline.WithLogger(g.log))
}

// RenderStill paints the idle keyboard with the given keys highlighted.
func (g *Generator) RenderStill(path string, highlight ...int) error {
	layout, err := g.Layout()
	if err != nil {
		return err
	}
	painter, err := g.Painter(layout)
	if err != nil {
		return err
	}
	var active []timeline.Note
	for _, key := range highlight {
		if key < 0 || key >= layout.Len() {
			return fmt.Errorf("highlight key %d outside [0, %d)", key, layout.Len())
		}
		active = append(active, timeline.Note{
			Pitch:    uint8(g.cfg.LowestPitch + key),
			Velocity: 100,
			Key:      key,
		})
	}
	return painter.PaintFile(path, g.cfg.FrameWidth, g.cfg.FrameHeight, active)
}

// Generate renders midiPath to an mp4 in the output folder and returns its
// path.
func (g *Generator) Generate(ctx context.Context, midiPath string) (string, error) {
	executionStartTime := time.Now()

	layout, err := g.Layout()
	if err != nil {
		return "", err
	}
	painter, err := g.Painter(layout)
	if err != nil {
		return "", err
	}
	replay, err := g.Replay(midiPath)
	if err != nil {
		return "", err
	}

	plan := g.plan(replay)
	g.log.Info("videogenerator: planned",
		"music", plan.music,
		"frames", plan.totalFrames(),
		"fps", plan.fps,
	)

	if err := os.MkdirAll(g.cfg.FramesFolder, 0o755); err != nil {
		return "", err
	}
	if !g.cfg.KeepFrames {
		defer g.removeFrames(plan.totalFrames())
	}
	if err := g.createFrames(ctx, plan, painter); err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.cfg.OutputFolder, 0o755); err != nil {
		return "", err
	}
	outputVideoPath := filepath.Join(g.cfg.OutputFolder, getFileNameWithoutExtension(midiPath)+".mp4")
	if err := createVideoFromFrames(ctx, g.cfg.FramesFolder, outputVideoPath, plan); err != nil {
		return "", err
	}

	g.log.Info("videogenerator: video generated",
		"path", outputVideoPath,
		"seconds", time.Since(executionStartTime).Seconds(),
	)
	return outputVideoPath, nil
}

func (g *Generator) plan(replay *timeline.Replay) framePlan {
	keyframes, music := collectKeyframes(replay, g.log)
	return framePlan{
		keyframes: keyframes,
		music:     music,
		leadIn:    time.Duration(g.cfg.LeadInSeconds * float64(time.Second)),
		tail:      time.Duration(g.cfg.TailSeconds * float64(time.Second)),
		fps:       g.cfg.FPS,
	}
}

func (g *Generator) framePath(i int) string {
	return filepath.Join(g.cfg.FramesFolder, fmt.Sprintf(framePattern, i+1))
}

// createFrames paints every frame with a fixed pool of gg contexts.
func (g *Generator) createFrames(ctx context.Context, plan framePlan, painter *Painter) error {
	maxWorkers := g.cfg.Workers
	sem := make(chan struct{}, maxWorkers)
	contexts := make(chan *gg.Context, maxWorkers)

	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	totalFrames := plan.totalFrames()
	var finishedFrames atomic.Uint64
	startTime := time.Now()

	for i := 0; i < maxWorkers; i++ {
		contexts <- gg.NewContext(g.cfg.FrameWidth, g.cfg.FrameHeight)
	}

	for i := 0; i < totalFrames; i++ {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		dc := <-contexts
		go func(dc *gg.Context, i int) {
			defer wg.Done()
			defer func() {
				<-sem
				contexts <- dc
			}()

			painter.Paint(dc, plan.frameActive(i))
			if err := dc.SavePNG(g.framePath(i)); err != nil {
				errOnce.Do(func() { firstErr = fmt.Errorf("save frame %d: %w", i+1, err) })
				return
			}

			f := finishedFrames.Add(1)
			if int(f)%(plan.fps*30) == 0 {
				g.log.Info("videogenerator: finished frames",
					"done", f,
					"total", totalFrames,
					"avg_seconds_per_frame", time.Since(startTime).Seconds()/float64(f),
				)
			}
		}(dc, i)
	}

	wg.Wait()
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// removeFrames deletes the n frames this run wrote. Other files in the
// frames folder are left alone.
func (g *Generator) removeFrames(n int) {
	var failed int
	for i := 0; i < n; i++ {
		if err := os.Remove(g.framePath(i)); err != nil && !errors.Is(err, os.ErrNotExist) {
			failed++
		}
	}
	if failed > 0 {
		g.log.Warn("videogenerator: frames left behind", "count", failed)
	}
}
