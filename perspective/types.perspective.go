package perspective

import (
	"errors"
	"fmt"
	"math"
)

// Point is a 2D point in any planar unit (pixels, keyboard units).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rectangle is a quadrilateral with corners in top-left, top-right,
// bottom-right, bottom-left order. It need not be axis aligned.
type Rectangle struct {
	TL Point `json:"tl"`
	TR Point `json:"tr"`
	BR Point `json:"br"`
	BL Point `json:"bl"`
}

// NewRectangle builds a Rectangle from four (x, y) pairs.
func NewRectangle(topLeft, topRight, bottomRight, bottomLeft [2]float64) Rectangle {
	return Rectangle{
		TL: Point{topLeft[0], topLeft[1]},
		TR: Point{topRight[0], topRight[1]},
		BR: Point{bottomRight[0], bottomRight[1]},
		BL: Point{bottomLeft[0], bottomLeft[1]},
	}
}

// AxisAligned returns the rectangle spanning (x0, y0)-(x1, y1).
func AxisAligned(x0, y0, x1, y1 float64) Rectangle {
	return Rectangle{
		TL: Point{x0, y0},
		TR: Point{x1, y0},
		BR: Point{x1, y1},
		BL: Point{x0, y1},
	}
}

// Points returns the corners in winding order.
func (r Rectangle) Points() []Point {
	return []Point{r.TL, r.TR, r.BR, r.BL}
}

// RectangleFromPoints is the inverse of Points. pts must hold exactly four points.
func RectangleFromPoints(pts []Point) Rectangle {
	if len(pts) != 4 {
		panic(fmt.Sprintf("perspective: rectangle needs 4 points, got %d", len(pts)))
	}
	return Rectangle{TL: pts[0], TR: pts[1], BR: pts[2], BL: pts[3]}
}

// Area is the signed shoelace area of the quad.
func (r Rectangle) Area() float64 {
	pts := r.Points()
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return sum / 2
}

// Contains reports whether p lies inside the quad (edges included).
// The quad is assumed convex. Non-finite points are never inside.
func (r Rectangle) Contains(p Point) bool {
	if !p.finite() {
		return false
	}
	pts := r.Points()
	var pos, neg bool
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		c := cross(a, b, p)
		if c > 0 {
			pos = true
		} else if c < 0 {
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return true
}

func (p Point) finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// ErrDegenerateGeometry is wrapped by every error New returns for a quad
// that cannot define a projective transform.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// DegenerateError describes why a quad pair was rejected.
type DegenerateError struct {
	Which  string
	Reason string
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("%s: %s quad: %s", ErrDegenerateGeometry, e.Which, e.Reason)
}

func (e *DegenerateError) Unwrap() error {
	return ErrDegenerateGeometry
}
