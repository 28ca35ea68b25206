package keyboard

import (
	"fmt"

	"pianowarp/perspective"
)

// ProjectedLayout warps a Layout2D onto a border quadrilateral. The border
// and its homography are fixed at construction.
//
// A ProjectedLayout is not safe for concurrent use.
type ProjectedLayout struct {
	flat      *Layout2D
	projector *perspective.Projector

	cache  []Rectangle
	cached []bool
}

// NewProjectedLayout maps the bounds of flat onto border, corner for corner.
// The error wraps perspective.ErrDegenerateGeometry for unusable borders.
func NewProjectedLayout(flat *Layout2D, border Rectangle) (*ProjectedLayout, error) {
	p, err := perspective.New(flat.Bounds(), border)
	if err != nil {
		return nil, fmt.Errorf("project keyboard: %w", err)
	}
	return &ProjectedLayout{
		flat:      flat,
		projector: p,
		cache:     make([]Rectangle, flat.Len()),
		cached:    make([]bool, flat.Len()),
	}, nil
}

// Flat returns the un-projected layout.
func (p *ProjectedLayout) Flat() *Layout2D {
	return p.flat
}

func (p *ProjectedLayout) Projector() *perspective.Projector {
	return p.projector
}

// Border returns the quadrilateral the keyboard is warped onto.
func (p *ProjectedLayout) Border() Rectangle {
	return p.projector.Destination()
}

func (p *ProjectedLayout) Len() int {
	return p.flat.Len()
}

func (p *ProjectedLayout) ClassOf(key int) KeyClass {
	return p.flat.ClassOf(key)
}

// RectangleFor returns the projected key, cached after the first call.
func (p *ProjectedLayout) RectangleFor(key int) Rectangle {
	checkKey("rectangle for", key, p.flat.Len())
	if p.cached[key] {
		return p.cache[key]
	}
	r := p.projector.ProjectRectangle(p.flat.RectangleFor(key))
	p.cache[key] = r
	p.cached[key] = true
	return r
}

// ScaledRectangleFor stretches the flat key vertically by heightScale about
// its middle, (heightScale-1)/2 of its height on each side, then projects
// it. The result is not cached.
func (p *ProjectedLayout) ScaledRectangleFor(key int, heightScale float64) Rectangle {
	checkKey("scaled rectangle for", key, p.flat.Len())
	r := p.flat.RectangleFor(key)

	extend := (r.BL.Y - r.TL.Y) * (heightScale - 1) / 2
	top, bottom := r.TL.Y-extend, r.BL.Y+extend
	r.TL.Y, r.TR.Y = top, top
	r.BL.Y, r.BR.Y = bottom, bottom

	return p.projector.ProjectRectangle(r)
}

// KeyAt returns the key drawn at pt in projected space. Black keys sit on
// top of white keys and win ties.
func (p *ProjectedLayout) KeyAt(pt Point) (int, bool) {
	flatPt := p.projector.Unproject(pt)
	for _, class := range []KeyClass{Black, White} {
		for key := 0; key < p.flat.Len(); key++ {
			if p.flat.ClassOf(key) != class {
				continue
			}
			if p.flat.RectangleFor(key).Contains(flatPt) {
				return key, true
			}
		}
	}
	return 0, false
}
