package physics

import (
	"github.com/jakecoffman/cp/v2"
	"github.com/oliverbestmann/bykeblend/gm"
)

type ToShape interface {
	MakeShape(body *cp.Body) *cp.Shape
}

type CircleShape struct {
	Radius float64
}

func (s CircleShape) MakeShape(body *cp.Body) *cp.Shape {
	return cp.NewCircle(body, s.Radius, cp.Vector{})
}

// BoxShape is an axis aligned box centered on the position.
type BoxShape struct {
	Size   gm.Vec
	Radius float64
}

func (s BoxShape) MakeShape(body *cp.Body) *cp.Shape {
	return cp.NewBox(body, s.Size.X, s.Size.Y, s.Radius)
}

// PolygonShape is a convex polygon. The points must be in counter clockwise order.
type PolygonShape struct {
	Points []gm.Vec
	Radius float64
}

func (s PolygonShape) MakeShape(body *cp.Body) *cp.Shape {
	points := make([]cp.Vector, len(s.Points))
	for idx := range s.Points {
		points[idx] = cpVecOf(s.Points[idx])
	}

	return cp.NewPolyShapeRaw(body, len(points), points, s.Radius)
}

func cpVecOf(vec gm.Vec) cp.Vector {
	return cp.Vector{X: vec.X, Y: vec.Y}
}
