package main

import (
	"testing"

	"github.com/oliverbestmann/bykeblend/gm"
	"github.com/stretchr/testify/require"
)

func TestBoundsOf(t *testing.T) {
	radius := float32(0.5)

	bounds, ok := boundsOf(Collider{Sphere: &radius}, gm.Vec{X: 2, Y: 3})
	require.True(t, ok)
	require.Equal(t, gm.Rect{Min: gm.Vec{X: 1.5, Y: 2.5}, Max: gm.Vec{X: 2.5, Y: 3.5}}, bounds)

	// the y extent of a cuboid is the height and not part of the ground plane
	bounds, ok = boundsOf(Collider{Cuboid: &Vec3{X: 1, Y: 10, Z: 2}}, gm.Vec{})
	require.True(t, ok)
	require.Equal(t, gm.Rect{Min: gm.Vec{X: -1, Y: -2}, Max: gm.Vec{X: 1, Y: 2}}, bounds)

	_, ok = boundsOf(Collider{}, gm.Vec{})
	require.False(t, ok)
}
