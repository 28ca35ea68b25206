package videogenerator

import (
	"fmt"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"pianowarp/keyboard"
	"pianowarp/timeline"
)

type PainterOptions struct {
	// HighlightScale stretches the overlay drawn over active keys.
	HighlightScale float64
	// LowestPitch is the pitch of key 0, used for octave labels.
	LowestPitch    int
	Labels         bool
	LabelSize      float64
}

// Painter draws a projected keyboard with highlighted notes. All polygons
// are computed in NewPainter, so one Painter can serve many goroutines.
type Painter struct {
	opts       PainterOptions
	classes    []keyboard.KeyClass
	keys       []keyboard.Rectangle
	highlights []keyboard.Rectangle
	labelFont  *truetype.Font
}

func NewPainter(layout *keyboard.ProjectedLayout, opts PainterOptions) (*Painter, error) {
	p := &Painter{
		opts:       opts,
		classes:    make([]keyboard.KeyClass, layout.Len()),
		keys:       make([]keyboard.Rectangle, layout.Len()),
		highlights: make([]keyboard.Rectangle, layout.Len()),
	}
	for key := 0; key < layout.Len(); key++ {
		p.classes[key] = layout.ClassOf(key)
		p.keys[key] = layout.RectangleFor(key)
		p.highlights[key] = layout.ScaledRectangleFor(key, opts.HighlightScale)
	}

	if opts.Labels {
		ttf, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("parse label font: %w", err)
		}
		p.labelFont = ttf
		if p.opts.LabelSize <= 0 {
			p.opts.LabelSize = 12
		}
	}
	return p, nil
}

func setRGBColor(dc *gg.Context, c Color) {
	dc.SetRGB(c.R, c.G, c.B)
}

func tracePolygon(dc *gg.Context, r keyboard.Rectangle) {
	dc.NewSubPath()
	dc.MoveTo(r.TL.X, r.TL.Y)
	dc.LineTo(r.TR.X, r.TR.Y)
	dc.LineTo(r.BR.X, r.BR.Y)
	dc.LineTo(r.BL.X, r.BL.Y)
	dc.ClosePath()
}

func drawKey(dc *gg.Context, r keyboard.Rectangle, fill Color) {
	tracePolygon(dc, r)
	setRGBColor(dc, fill)
	dc.FillPreserve()
	setRGBColor(dc, colorOutline)
	dc.SetLineWidth(1)
	dc.Stroke()
}

func prepareScreen(dc *gg.Context) {
	setRGBColor(dc, colorBackground)
	dc.Clear()
}

// Paint draws one frame: white keys, black keys on top, then an oversized
// overlay on every active key.
func (p *Painter) Paint(dc *gg.Context, active []timeline.Note) {
	prepareScreen(dc)

	for _, class := range []keyboard.KeyClass{keyboard.White, keyboard.Black} {
		fill := colorWhiteKey
		if class == keyboard.Black {
			fill = colorBlackKey
		}
		for key, r := range p.keys {
			if p.classes[key] == class {
				drawKey(dc, r, fill)
			}
		}
	}

	for _, class := range []keyboard.KeyClass{keyboard.White, keyboard.Black} {
		for _, n := range active {
			if n.Key < 0 || n.Key >= len(p.keys) || p.classes[n.Key] != class {
				continue
			}
			c := getColor(n.Velocity)
			if class == keyboard.Black {
				c = getDarkerShade(c)
			}
			tracePolygon(dc, p.highlights[n.Key])
			setRGBColor(dc, c)
			dc.Fill()
		}
	}

	if p.opts.Labels {
		p.drawCNotesNotation(dc)
	}
}

func (p *Painter) drawCNotesNotation(dc *gg.Context) {
	// faces cache glyphs, so each call gets its own
	face := truetype.NewFace(p.labelFont, &truetype.Options{Size: p.opts.LabelSize})
	defer face.Close()

	dc.SetFontFace(face)
	dc.SetRGBA(0, 0, 0, 0.8)
	for key, r := range p.keys {
		pitch := p.opts.LowestPitch + key
		if pitch%12 != 0 {
			continue
		}
		dc.DrawString(pitchName(pitch), r.BL.X+2, r.BL.Y-4)
	}
}

// PaintFile renders a single frame to a PNG file.
func (p *Painter) PaintFile(path string, width, height int, active []timeline.Note) error {
	dc := gg.NewContext(width, height)
	p.Paint(dc, active)
	return dc.SavePNG(path)
}
