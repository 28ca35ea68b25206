// Package config loads pianowarp settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"pianowarp/keyboard"
	"pianowarp/perspective"
	"pianowarp/timeline"
)

// Prefix is prepended to every environment variable name.
const Prefix = "PIANOWARP_"

// Config holds the render settings. Defaults reproduce the 88-key demo
// warped onto a 1080p camera frame.
type Config struct {
	FrameWidth  int `env:"FRAME_WIDTH" envDefault:"1920"`
	FrameHeight int `env:"FRAME_HEIGHT" envDefault:"1080"`

	KeyboardWidth  float64 `env:"KEYBOARD_WIDTH" envDefault:"1920"`
	KeyboardHeight float64 `env:"KEYBOARD_HEIGHT" envDefault:"240"`
	LowestPitch    int     `env:"LOWEST_PITCH" envDefault:"21"`
	Keys           int     `env:"KEYS" envDefault:"88"`

	// Border holds tl, tr, br, bl as x,y pairs.
	Border []float64 `env:"BORDER" envSeparator:"," envDefault:"625,767,1662,242,1824,267,835,905"`

	HighlightScale float64 `env:"HIGHLIGHT_SCALE" envDefault:"1.5"`
	FPS            int     `env:"FPS" envDefault:"60"`
	LeadInSeconds  float64 `env:"LEAD_IN_SECONDS" envDefault:"1"`
	TailSeconds    float64 `env:"TAIL_SECONDS" envDefault:"2"`
	SkipDrums      bool    `env:"SKIP_DRUMS" envDefault:"true"`

	FramesFolder string `env:"FRAMES_FOLDER" envDefault:"_frames"`
	OutputFolder string `env:"OUTPUT_FOLDER" envDefault:"output"`
	Workers      int    `env:"WORKERS" envDefault:"8"`
	KeepFrames   bool   `env:"KEEP_FRAMES"`

	Debug bool `env:"DEBUG"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that the geometry code cannot check itself.
func (c Config) Validate() error {
	switch {
	case c.FrameWidth <= 0 || c.FrameHeight <= 0:
		return fmt.Errorf("frame size %dx%d must be positive", c.FrameWidth, c.FrameHeight)
	case len(c.Border) != 8:
		return fmt.Errorf("border needs 8 values (tl, tr, br, bl as x,y), got %d", len(c.Border))
	case c.LowestPitch < 0 || c.LowestPitch > 127:
		return fmt.Errorf("lowest pitch %d outside the MIDI range", c.LowestPitch)
	case c.FPS <= 0:
		return fmt.Errorf("fps %d must be positive", c.FPS)
	case c.Workers <= 0:
		return fmt.Errorf("workers %d must be positive", c.Workers)
	case c.LeadInSeconds < 0 || c.TailSeconds < 0:
		return fmt.Errorf("lead-in and tail must not be negative")
	case c.HighlightScale <= 0:
		return fmt.Errorf("highlight scale %v must be positive", c.HighlightScale)
	}
	return nil
}

// KeyboardConfig returns the flat layout settings. The start key is the
// pitch class of the lowest pitch.
func (c Config) KeyboardConfig() keyboard.Config {
	return keyboard.Config{
		Width:    c.KeyboardWidth,
		Height:   c.KeyboardHeight,
		StartKey: c.LowestPitch % 12,
		NKeys:    c.Keys,
	}
}

func (c Config) KeyRange() timeline.KeyRange {
	return timeline.KeyRange{Base: c.LowestPitch, Len: c.Keys}
}

// BorderRectangle returns Border as a quadrilateral. Call Validate first.
func (c Config) BorderRectangle() perspective.Rectangle {
	b := c.Border
	return perspective.NewRectangle(
		[2]float64{b[0], b[1]},
		[2]float64{b[2], b[3]},
		[2]float64{b[4], b[5]},
		[2]float64{b[6], b[7]},
	)
}
