package physics

import (
	"github.com/jakecoffman/cp/v2"
	"github.com/oliverbestmann/bykeblend"
	"github.com/oliverbestmann/bykeblend/gm"
)

type Collider struct {
	byke.Component[Collider]
	Shape ToShape

	// the actual collider cp.Shape
	shape *cp.Shape
}

// Position of the collider in the plane.
type Position struct {
	byke.Component[Position]
	Value gm.Vec
}

type ShapeFilter struct {
	byke.Component[ShapeFilter]

	// Two objects with the same non-zero group value do not collide.
	// This is generally used to group objects in a composite object together to disable self collisions.
	Group uint
	// A bitmask of user definable categories that this object belongs to.
	// The category/mask combinations of both objects in a collision must agree for a collision to occur.
	Categories uint
	// A bitmask of user definable category types that this object object collides with.
	// The category/mask combinations of both objects in a collision must agree for a collision to occur.
	Mask uint
}

func (f ShapeFilter) toCp() cp.ShapeFilter {
	return cp.ShapeFilter{
		Group:      f.Group,
		Categories: f.Categories,
		Mask:       f.Mask,
	}
}
