package physics

import (
	"testing"

	"github.com/oliverbestmann/bykeblend"
	"github.com/oliverbestmann/bykeblend/gm"
	"github.com/stretchr/testify/require"
)

func newTestApp() *byke.App {
	var app byke.App
	app.AddPlugin(byke.PluginFunc(Plugin))
	return &app
}

func overlapsOf(app *byke.App) []Overlap {
	overlaps, _ := byke.ResourceOf[Overlaps](app.World())
	return overlaps.Pairs
}

func TestOverlaps(t *testing.T) {
	app := newTestApp()
	world := app.World()

	a := world.Spawn([]byke.ErasedComponent{
		Collider{Shape: CircleShape{Radius: 1}},
		Position{Value: gm.Vec{X: 0, Y: 0}},
	})

	b := world.Spawn([]byke.ErasedComponent{
		Collider{Shape: BoxShape{Size: gm.Vec{X: 2, Y: 2}}},
		Position{Value: gm.Vec{X: 1.5, Y: 0}},
	})

	world.Spawn([]byke.ErasedComponent{
		Collider{Shape: CircleShape{Radius: 1}},
		Position{Value: gm.Vec{X: 10, Y: 10}},
	})

	app.Update()

	require.Equal(t, []Overlap{{A: a, B: b}}, overlapsOf(app))

	t.Run("moved apart", func(t *testing.T) {
		world.InsertComponents(b, []byke.ErasedComponent{Position{Value: gm.Vec{X: -5}}})
		app.Update()

		require.Empty(t, overlapsOf(app))
	})

	t.Run("despawned", func(t *testing.T) {
		world.InsertComponents(b, []byke.ErasedComponent{Position{Value: gm.Vec{X: 0.5}}})
		app.Update()
		require.Len(t, overlapsOf(app), 1)

		world.Despawn(b)
		app.Update()
		require.Empty(t, overlapsOf(app))

		index, _ := byke.ResourceOf[entityIndex](world)
		require.Len(t, index.Bodies, 2)
	})
}

func TestShapeFilter(t *testing.T) {
	app := newTestApp()
	world := app.World()

	for range 2 {
		world.Spawn([]byke.ErasedComponent{
			Collider{Shape: PolygonShape{Points: []gm.Vec{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 0, Y: 1}}}},
			Position{},
			ShapeFilter{Group: 1, Categories: 1, Mask: 1},
		})
	}

	app.Update()

	// same group never collides
	require.Empty(t, overlapsOf(app))
}
