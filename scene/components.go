package scene

import (
	"github.com/oliverbestmann/bykeblend"
	"github.com/oliverbestmann/bykeblend/gm"
)

// SceneExtras holds the metadata attached to the scene itself.
// The value is a JSON object mapping type names to their RON encoded values.
type SceneExtras struct {
	byke.Component[SceneExtras]
	Value string
}

// Extras holds the metadata attached to a node.
type Extras struct {
	byke.Component[Extras]
	Value string
}

// MeshExtras holds the metadata attached to the mesh of a node.
type MeshExtras struct {
	byke.Component[MeshExtras]
	Value string
}

// MaterialExtras holds the metadata attached to the material of a nodes mesh.
type MaterialExtras struct {
	byke.Component[MaterialExtras]
	Value string
}

// ChildOf points to the parent entity of a node.
type ChildOf struct {
	byke.Component[ChildOf]
	Parent byke.EntityId
}

// Transform holds the translation of a node relative to its parent.
type Transform struct {
	byke.Component[Transform]
	Translation gm.Vec3
}
