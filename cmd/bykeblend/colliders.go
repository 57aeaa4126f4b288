package main

import (
	"github.com/oliverbestmann/bykeblend"
	"github.com/oliverbestmann/bykeblend/gm"
	"github.com/oliverbestmann/bykeblend/physics"
	"github.com/oliverbestmann/bykeblend/scene"
)

type transformItem struct {
	Transform scene.Transform
	ChildOf   byke.Option[scene.ChildOf]
}

// attachCollidersSystem projects the authored colliders onto the ground
// plane so overlapping objects can be reported.
func attachCollidersSystem(
	commands *byke.Commands,
	transformsQuery byke.Query[transformItem],
	collidersQuery byke.Query[struct {
		Entity   byke.EntityId
		Collider Collider
		_        byke.With[scene.SceneInstance]
		_        byke.Without[physics.Collider]
	}],
) {
	for item := range collidersQuery.Items() {
		shape, ok := shapeOf(item.Collider)
		if !ok {
			continue
		}

		translation := globalTranslation(transformsQuery, item.Entity)

		commands.Entity(item.Entity).Insert(
			physics.Collider{Shape: shape},
			physics.Position{Value: translation.XZ()},
		)
	}
}

func shapeOf(collider Collider) (physics.ToShape, bool) {
	switch {
	case collider.Cuboid != nil:
		halfExtents := gm.Vec{X: float64(collider.Cuboid.X), Y: float64(collider.Cuboid.Z)}
		return physics.BoxShape{Size: halfExtents.Mul(2)}, true

	case collider.Sphere != nil:
		return physics.CircleShape{Radius: float64(*collider.Sphere)}, true

	default:
		return nil, false
	}
}

// boundsOf returns the area the collider covers on the ground plane
// when placed at center.
func boundsOf(collider Collider, center gm.Vec) (gm.Rect, bool) {
	switch {
	case collider.Cuboid != nil:
		size := gm.Vec{X: float64(collider.Cuboid.X), Y: float64(collider.Cuboid.Z)}.Mul(2)
		return gm.RectWithCenterAndSize(center, size), true

	case collider.Sphere != nil:
		diameter := 2 * float64(*collider.Sphere)
		return gm.RectWithCenterAndSize(center, gm.Vec{X: diameter, Y: diameter}), true

	default:
		return gm.Rect{}, false
	}
}

func globalTranslation(transformsQuery byke.Query[transformItem], entityId byke.EntityId) gm.Vec3 {
	var translation gm.Vec3

	// walk up the hierarchy, the depth limit protects against cycles
	for range 64 {
		item, ok := transformsQuery.Get(entityId)
		if !ok {
			break
		}

		translation = translation.Add(item.Transform.Translation)

		parent, ok := item.ChildOf.Get()
		if !ok {
			break
		}

		entityId = parent.Parent
	}

	return translation
}
