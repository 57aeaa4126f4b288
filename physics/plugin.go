// Package physics keeps colliders in a chipmunk space and reports which
// of them overlap. Bodies are never simulated.
package physics

import (
	"cmp"
	"slices"

	"github.com/jakecoffman/cp/v2"
	"github.com/oliverbestmann/bykeblend"
)

type Space struct {
	*cp.Space
}

// Overlap is a pair of overlapping colliders with A < B.
type Overlap struct {
	A, B byke.EntityId
}

// Overlaps holds the overlapping colliders as found during the last update.
type Overlaps struct {
	Pairs []Overlap
}

type entityIndex struct {
	Bodies map[byke.EntityId]*cp.Body
}

func Plugin(app *byke.App) {
	app.InsertResource(Space{cp.NewSpace()})
	app.InsertResource(Overlaps{})

	app.InsertResource(entityIndex{
		Bodies: map[byke.EntityId]*cp.Body{},
	})

	app.AddSystems(byke.Last, byke.System(
		removeStaleBodiesSystem,
		makeBodySystem,
		syncPositionsSystem,
		findOverlapsSystem,
	).Chain())
}

func makeBodySystem(
	space Space,
	index *entityIndex,
	collidersQuery byke.Query[struct {
		Entity   byke.EntityId
		Collider *Collider
		Filter   byke.Option[ShapeFilter]
	}],
) {
	for item := range collidersQuery.Items() {
		if item.Collider.shape != nil {
			continue
		}

		// the collider was replaced, drop the previous body
		if body, ok := index.Bodies[item.Entity]; ok {
			removeBody(space, body)
		}

		body := space.AddBody(cp.NewKinematicBody())

		// add user data so we can identify the body later
		body.UserData = item.Entity

		shape := item.Collider.Shape.MakeShape(body)
		shape.UserData = item.Entity

		if filter, ok := item.Filter.Get(); ok {
			shape.SetFilter(filter.toCp())
		}

		space.AddShape(shape)

		item.Collider.shape = shape

		// keep a reverse mapping so we can cleanup on entity despawn
		index.Bodies[item.Entity] = body
	}
}

func syncPositionsSystem(
	space Space,
	collidersQuery byke.Query[struct {
		Collider Collider
		Position Position
	}],
) {
	for item := range collidersQuery.Items() {
		body := item.Collider.shape.Body()

		target := cpVecOf(item.Position.Value)
		if body.Position() == target {
			continue
		}

		body.SetPosition(target)
		space.ReindexShapesForBody(body)
	}
}

func removeStaleBodiesSystem(
	space Space,
	index *entityIndex,
	collidersQuery byke.Query[struct {
		Collider Collider
	}],
) {
	for entityId, body := range index.Bodies {
		if item, ok := collidersQuery.Get(entityId); ok && item.Collider.shape != nil && item.Collider.shape.Body() == body {
			continue
		}

		delete(index.Bodies, entityId)
		removeBody(space, body)
	}
}

func findOverlapsSystem(
	space Space,
	overlaps *Overlaps,
	collidersQuery byke.Query[struct {
		Entity   byke.EntityId
		Collider Collider
	}],
) {
	overlaps.Pairs = overlaps.Pairs[:0]

	for item := range collidersQuery.Items() {
		space.ShapeQuery(item.Collider.shape, func(other *cp.Shape, _ *cp.ContactPointSet) {
			otherId, ok := other.UserData.(byke.EntityId)

			// report each pair only once
			if !ok || otherId <= item.Entity {
				return
			}

			overlaps.Pairs = append(overlaps.Pairs, Overlap{A: item.Entity, B: otherId})
		})
	}

	slices.SortFunc(overlaps.Pairs, func(lhs, rhs Overlap) int {
		return cmp.Or(cmp.Compare(lhs.A, rhs.A), cmp.Compare(lhs.B, rhs.B))
	})
}

func removeBody(space Space, body *cp.Body) {
	var shapes []*cp.Shape
	body.EachShape(func(shape *cp.Shape) {
		shapes = append(shapes, shape)
	})

	for _, shape := range shapes {
		space.RemoveShape(shape)
	}

	space.RemoveBody(body)
}
