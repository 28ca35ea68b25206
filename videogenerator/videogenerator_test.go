package videogenerator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"pianowarp/config"
	"pianowarp/timeline"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		FrameWidth:     160,
		FrameHeight:    90,
		KeyboardWidth:  140,
		KeyboardHeight: 20,
		LowestPitch:    60,
		Keys:           12,
		Border:         []float64{10, 30, 150, 20, 150, 60, 10, 70},
		HighlightScale: 1.5,
		FPS:            10,
		LeadInSeconds:  0.5,
		TailSeconds:    0,
		FramesFolder:   t.TempDir(),
		OutputFolder:   t.TempDir(),
		Workers:        3,
	}
}

func TestCreateFrames(t *testing.T) {
	cfg := testConfig(t)
	g := New(cfg, quietLog)

	layout, err := g.Layout()
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	painter, err := g.Painter(layout)
	if err != nil {
		t.Fatalf("Painter() error = %v", err)
	}

	plan := g.plan(mustReplay(t,
		timeline.Event{Delta: 0, Kind: timeline.NoteOn, Pitch: 60, Velocity: 100},
		timeline.Event{Delta: 480, Kind: timeline.NoteOff, Pitch: 60},
	))
	if plan.music != 500*time.Millisecond || plan.leadIn != 500*time.Millisecond {
		t.Fatalf("plan = %+v", plan)
	}

	if err := g.createFrames(context.Background(), plan, painter); err != nil {
		t.Fatalf("createFrames() error = %v", err)
	}
	files, err := filepath.Glob(filepath.Join(cfg.FramesFolder, "fr*.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != plan.totalFrames() || len(files) != 10 {
		t.Errorf("wrote %d frames, want %d", len(files), plan.totalFrames())
	}
	if _, err := os.Stat(filepath.Join(cfg.FramesFolder, "fr00001.png")); err != nil {
		t.Errorf("first frame missing: %v", err)
	}

	foreign := []string{
		filepath.Join(cfg.FramesFolder, "fr00042.png"),
		filepath.Join(cfg.FramesFolder, "from-camera.png"),
	}
	for _, f := range foreign {
		if err := os.WriteFile(f, []byte("keep"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	g.removeFrames(plan.totalFrames())
	for i := 0; i < plan.totalFrames(); i++ {
		if _, err := os.Stat(g.framePath(i)); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("frame %d left after removeFrames: %v", i+1, err)
		}
	}
	for _, f := range foreign {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("removeFrames deleted %s: %v", filepath.Base(f), err)
		}
	}
}

func TestCreateFramesCancelled(t *testing.T) {
	cfg := testConfig(t)
	g := New(cfg, quietLog)
	layout, err := g.Layout()
	if err != nil {
		t.Fatal(err)
	}
	painter, err := g.Painter(layout)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan := g.plan(mustReplay(t, timeline.Event{Delta: 4800, Kind: timeline.Other}))
	if err := g.createFrames(ctx, plan, painter); err == nil {
		t.Error("createFrames() ignored a cancelled context")
	}
}

func TestRenderStill(t *testing.T) {
	g := New(testConfig(t), quietLog)
	path := filepath.Join(t.TempDir(), "still.png")
	if err := g.RenderStill(path, 0, 6); err != nil {
		t.Fatalf("RenderStill() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("still not written: %v", err)
	}
	if err := g.RenderStill(path, 12); err == nil {
		t.Error("RenderStill() accepted an out-of-range key")
	}
}

func TestLayoutRejectsBadBorder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Border = []float64{0, 0, 1, 0, 2, 0, 3, 0}
	if _, err := New(cfg, quietLog).Layout(); err == nil {
		t.Error("Layout() accepted a collinear border")
	}
}

func TestFFmpegArgs(t *testing.T) {
	plan := framePlan{music: 2 * time.Second, leadIn: time.Second, fps: 30}
	args := ffmpegArgs("frames", "out/song.mp4", plan)

	if args[len(args)-1] != "out/song.mp4" {
		t.Errorf("output is not last: %v", args)
	}
	i := slices.Index(args, "-framerate")
	if i < 0 || args[i+1] != "30" {
		t.Errorf("framerate missing: %v", args)
	}
	i = slices.Index(args, "-i")
	if i < 0 || args[i+1] != filepath.Join("frames", "fr%05d.png") {
		t.Errorf("input pattern wrong: %v", args)
	}
	i = slices.Index(args, "-t")
	if i < 0 || !strings.HasPrefix(args[i+1], "3.0") {
		t.Errorf("duration wrong: %v", args)
	}
}

func TestGetFileNameWithoutExtension(t *testing.T) {
	if got := getFileNameWithoutExtension("sample-midis/minuetg.mid"); got != "minuetg" {
		t.Errorf("got %q", got)
	}
}
