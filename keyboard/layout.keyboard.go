// Package keyboard lays out piano keys as polygons, flat or warped onto an
// arbitrary quadrilateral.
package keyboard

import (
	"fmt"
	"math"

	"pianowarp/perspective"
)

const (
	blackKeyHeightRatio = 0.65
	blackKeyWidthRatio  = 0.5
)

// Layout2D computes axis-aligned key rectangles inside a Width x Height
// image. Rectangles are computed on first use and cached per key.
//
// A Layout2D is not safe for concurrent use.
type Layout2D struct {
	cfg        Config
	classes    []KeyClass
	ordinals   []int // position among keys of the same class
	nWhite     int
	whiteWidth float64

	cache  []Rectangle
	cached []bool
}

// NewLayout2D validates cfg and classifies every key. Invalid
// configurations return an error wrapping ErrPrecondition here, at
// construction, rather than from the first RectangleFor call: a Layout2D
// that exists is always drawable, and RectangleFor only panics on an
// out-of-range key.
func NewLayout2D(cfg Config) (*Layout2D, error) {
	switch {
	case !(cfg.Width > 0) || math.IsInf(cfg.Width, 0):
		return nil, &PreconditionError{Op: "new layout", Detail: fmt.Sprintf("width %v must be positive", cfg.Width)}
	case !(cfg.Height > 0) || math.IsInf(cfg.Height, 0):
		return nil, &PreconditionError{Op: "new layout", Detail: fmt.Sprintf("height %v must be positive", cfg.Height)}
	case cfg.NKeys <= 0:
		return nil, &PreconditionError{Op: "new layout", Detail: fmt.Sprintf("key count %d must be positive", cfg.NKeys)}
	case cfg.StartKey < 0:
		return nil, &PreconditionError{Op: "new layout", Detail: fmt.Sprintf("start key %d must not be negative", cfg.StartKey)}
	}

	l := &Layout2D{
		cfg:      cfg,
		classes:  make([]KeyClass, cfg.NKeys),
		ordinals: make([]int, cfg.NKeys),
		cache:    make([]Rectangle, cfg.NKeys),
		cached:   make([]bool, cfg.NKeys),
	}
	var nBlack int
	for i := range l.classes {
		c := ClassOfPitch(cfg.StartKey + i)
		l.classes[i] = c
		if c == Black {
			l.ordinals[i] = nBlack
			nBlack++
		} else {
			l.ordinals[i] = l.nWhite
			l.nWhite++
		}
	}
	if l.nWhite == 0 {
		return nil, &PreconditionError{Op: "new layout", Detail: "keyboard has no white key"}
	}
	l.whiteWidth = cfg.Width / float64(l.nWhite)
	return l, nil
}

// Config returns the configuration the layout was built from.
func (l *Layout2D) Config() Config { return l.cfg }

// Len returns the number of keys.
func (l *Layout2D) Len() int { return l.cfg.NKeys }

// WhiteKeys returns the number of white keys.
func (l *Layout2D) WhiteKeys() int { return l.nWhite }

// WhiteKeyWidth returns the width shared by every white key.
func (l *Layout2D) WhiteKeyWidth() float64 { return l.whiteWidth }

// Bounds returns the whole keyboard image, (0,0)-(Width,Height).
func (l *Layout2D) Bounds() Rectangle {
	return perspective.AxisAligned(0, 0, l.cfg.Width, l.cfg.Height)
}

// ClassOf panics with a *PreconditionError if key is out of range.
func (l *Layout2D) ClassOf(key int) KeyClass {
	checkKey("class of", key, l.cfg.NKeys)
	return l.classes[key]
}

// RectangleFor returns the key rectangle, computing and caching it on the
// first call. It panics with a *PreconditionError if key is out of range.
func (l *Layout2D) RectangleFor(key int) Rectangle {
	checkKey("rectangle for", key, l.cfg.NKeys)
	if l.cached[key] {
		return l.cache[key]
	}

	var r Rectangle
	if l.classes[key] == Black {
		r = l.blackRectangle(key)
	} else {
		lx := float64(l.ordinals[key]) * l.whiteWidth
		r = perspective.AxisAligned(lx, 0, lx+l.whiteWidth, l.cfg.Height)
	}

	l.cache[key] = r
	l.cached[key] = true
	return r
}

func (l *Layout2D) blackRectangle(key int) Rectangle {
	blacks, whites := l.cluster(key)

	rank := 0
	for i, b := range blacks {
		if b == key {
			rank = i
			break
		}
	}

	groupWidth := l.whiteWidth * float64(len(whites))
	groupLx := l.whiteWidth * float64(l.ordinals[whites[0]])
	segment := groupWidth / float64(2*len(blacks)+1)

	lx := groupLx + segment*float64(2*rank+1)
	rx := lx + l.whiteWidth*blackKeyWidthRatio
	return perspective.AxisAligned(lx, 0, rx, l.cfg.Height*blackKeyHeightRatio)
}

// cluster returns the run of black keys around key, left to right, and the
// white keys bounding them. Runs truncated by either end of the keyboard keep
// whatever bounding white keys exist.
func (l *Layout2D) cluster(key int) (blacks, whites []int) {
	n := l.cfg.NKeys

	first := key
	for i := key - 2; i >= 0 && l.classes[i] == Black; i -= 2 {
		first = i
	}
	last := key
	for i := key + 2; i < n && l.classes[i] == Black; i += 2 {
		last = i
	}

	for b := first; b <= last; b += 2 {
		blacks = append(blacks, b)
		if b-1 >= 0 && (len(whites) == 0 || whites[len(whites)-1] != b-1) {
			whites = append(whites, b-1)
		}
		if b+1 < n {
			whites = append(whites, b+1)
		}
	}
	return blacks, whites
}
