// Package perspective maps points between two planar quadrilaterals with a
// homography estimated once from their corners.
package perspective

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// collinearEps is relative to the squared extent of the quad.
const collinearEps = 1e-9

// Projector applies the projective transform taking one quad onto another.
// It is immutable after New and safe for concurrent use.
type Projector struct {
	src Rectangle
	dst Rectangle
	h   mgl64.Mat3
	inv mgl64.Mat3
}

// New estimates the homography taking each corner of src onto the matching
// corner of dst. Collinear, zero-area or numerically unsolvable
// configurations return an error wrapping ErrDegenerateGeometry.
func New(src, dst Rectangle) (*Projector, error) {
	if err := checkQuad("source", src); err != nil {
		return nil, err
	}
	if err := checkQuad("destination", dst); err != nil {
		return nil, err
	}

	h, err := solveHomography(src, dst)
	if err != nil {
		return nil, err
	}

	det := h.Det()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return nil, &DegenerateError{Which: "destination", Reason: "transform is not invertible"}
	}

	return &Projector{
		src: src,
		dst: dst,
		h:   h,
		inv: h.Inv(),
	}, nil
}

// Source returns the quad the projector maps from.
func (p *Projector) Source() Rectangle { return p.src }

// Destination returns the quad the projector maps onto.
func (p *Projector) Destination() Rectangle { return p.dst }

// Coefficients returns a..h of
// (x', y') = ((a·x+b·y+c)/(g·x+h·y+1), (d·x+e·y+f)/(g·x+h·y+1)).
func (p *Projector) Coefficients() [8]float64 {
	return [8]float64{
		p.h.At(0, 0), p.h.At(0, 1), p.h.At(0, 2),
		p.h.At(1, 0), p.h.At(1, 1), p.h.At(1, 2),
		p.h.At(2, 0), p.h.At(2, 1),
	}
}

// ProjectPoint maps a single point. There is no clamping: points on the
// vanishing line come back as ±Inf or NaN.
func (p *Projector) ProjectPoint(pt Point) Point {
	return apply(p.h, pt)
}

// Project maps every point, keeping count and order.
func (p *Projector) Project(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, pt := range pts {
		out[i] = apply(p.h, pt)
	}
	return out
}

// ProjectRectangle maps the four corners of r.
func (p *Projector) ProjectRectangle(r Rectangle) Rectangle {
	return RectangleFromPoints(p.Project(r.Points()))
}

// Unproject maps a destination-space point back into source space.
func (p *Projector) Unproject(pt Point) Point {
	return apply(p.inv, pt)
}

func apply(m mgl64.Mat3, pt Point) Point {
	v := m.Mul3x1(mgl64.Vec3{pt.X, pt.Y, 1})
	return Point{X: v[0] / v[2], Y: v[1] / v[2]}
}

func checkQuad(which string, r Rectangle) error {
	pts := r.Points()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range pts {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
			return &DegenerateError{Which: which, Reason: "corner is not finite"}
		}
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}

	extent := math.Hypot(maxX-minX, maxY-minY)
	if extent == 0 {
		return &DegenerateError{Which: which, Reason: "all corners coincide"}
	}
	tol := collinearEps * extent * extent

	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			for k := j + 1; k < 4; k++ {
				if math.Abs(cross(pts[i], pts[j], pts[k])) <= tol {
					return &DegenerateError{
						Which:  which,
						Reason: fmt.Sprintf("corners %d, %d and %d are collinear", i, j, k),
					}
				}
			}
		}
	}

	if math.Abs(r.Area()) <= tol {
		return &DegenerateError{Which: which, Reason: "zero area"}
	}
	return nil
}

// normalizer translates the centroid of pts to the origin and scales the
// mean distance to sqrt(2), which keeps the linear system well conditioned
// for pixel-sized coordinates.
func normalizer(pts []Point) mgl64.Mat3 {
	var cx, cy float64
	for _, pt := range pts {
		cx += pt.X
		cy += pt.Y
	}
	cx /= float64(len(pts))
	cy /= float64(len(pts))

	var dist float64
	for _, pt := range pts {
		dist += math.Hypot(pt.X-cx, pt.Y-cy)
	}
	dist /= float64(len(pts))

	s := math.Sqrt2 / dist
	return mgl64.Mat3FromRows(
		mgl64.Vec3{s, 0, -s * cx},
		mgl64.Vec3{0, s, -s * cy},
		mgl64.Vec3{0, 0, 1},
	)
}

func solveHomography(src, dst Rectangle) (mgl64.Mat3, error) {
	srcPts, dstPts := src.Points(), dst.Points()
	ts, td := normalizer(srcPts), normalizer(dstPts)

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := range srcPts {
		s := apply(ts, srcPts[i])
		d := apply(td, dstPts[i])

		r := 2 * i
		a.SetRow(r, []float64{s.X, s.Y, 1, 0, 0, 0, -s.X * d.X, -s.Y * d.X})
		b.SetVec(r, d.X)
		a.SetRow(r+1, []float64{0, 0, 0, s.X, s.Y, 1, -s.X * d.Y, -s.Y * d.Y})
		b.SetVec(r+1, d.Y)
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return mgl64.Mat3{}, &DegenerateError{
				Which:  "destination",
				Reason: fmt.Sprintf("ill-conditioned system (condition number %.3g)", float64(cond)),
			}
		}
		return mgl64.Mat3{}, &DegenerateError{Which: "destination", Reason: err.Error()}
	}

	hn := mgl64.Mat3FromRows(
		mgl64.Vec3{x.AtVec(0), x.AtVec(1), x.AtVec(2)},
		mgl64.Vec3{x.AtVec(3), x.AtVec(4), x.AtVec(5)},
		mgl64.Vec3{x.AtVec(6), x.AtVec(7), 1},
	)

	h := td.Inv().Mul3(hn).Mul3(ts)
	scale := h.At(2, 2)
	if math.Abs(scale) < 1e-12 {
		return mgl64.Mat3{}, &DegenerateError{Which: "destination", Reason: "source origin maps to infinity"}
	}
	h = h.Mul(1 / scale)

	for _, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return mgl64.Mat3{}, &DegenerateError{Which: "destination", Reason: "transform is not finite"}
		}
	}
	return h, nil
}
