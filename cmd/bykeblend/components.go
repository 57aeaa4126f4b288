package main

import (
	"github.com/oliverbestmann/bykeblend"
	"github.com/oliverbestmann/bykeblend/registry"
)

type GameState int

const (
	GameStateLoading GameState = iota
	GameStateStart
)

type ShadowsEnabled struct {
	byke.Component[ShadowsEnabled]
	Enabled bool
}

type Barbette struct {
	byke.Component[Barbette]
}

type Enemy struct {
	byke.Component[Enemy]
}

type Cannonball struct {
	byke.Component[Cannonball]
}

type Vec3 struct {
	X, Y, Z float32
}

// Collider is either a Cuboid with the given half extents or a Sphere with a radius.
type Collider struct {
	byke.Component[Collider]
	Cuboid *Vec3    `ron:",variant"`
	Sphere *float32 `ron:",variant"`
}

func newTypeRegistry() *registry.TypeRegistry {
	reg := registry.New()
	registry.Register[ShadowsEnabled](reg)
	registry.Register[Barbette](reg)
	registry.Register[Enemy](reg)
	registry.Register[Cannonball](reg)
	registry.Register[Collider](reg)
	return reg
}
