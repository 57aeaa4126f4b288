package bridge

import (
	"github.com/oliverbestmann/bykeblend"
	"github.com/oliverbestmann/bykeblend/scene"
)

// Slot names the component a metadata blob was read from.
type Slot uint8

const (
	SlotScene Slot = iota
	SlotNode
	SlotMesh
	SlotMaterial
)

func (s Slot) String() string {
	switch s {
	case SlotScene:
		return "scene"
	case SlotNode:
		return "node"
	case SlotMesh:
		return "mesh"
	case SlotMaterial:
		return "material"
	default:
		return "unknown"
	}
}

// Blob is the raw metadata of one slot.
type Blob struct {
	Slot Slot
	Text string
}

var (
	sceneExtrasType    = byke.ComponentTypeOf[scene.SceneExtras]()
	extrasType         = byke.ComponentTypeOf[scene.Extras]()
	meshExtrasType     = byke.ComponentTypeOf[scene.MeshExtras]()
	materialExtrasType = byke.ComponentTypeOf[scene.MaterialExtras]()
)

// Scan collects the metadata blobs of an entity in slot order.
func Scan(ref byke.EntityRef) []Blob {
	var blobs []Blob

	if value, ok := ref.Get(sceneExtrasType); ok {
		blobs = appendBlob(blobs, SlotScene, value.(*scene.SceneExtras).Value)
	}

	if value, ok := ref.Get(extrasType); ok {
		blobs = appendBlob(blobs, SlotNode, value.(*scene.Extras).Value)
	}

	if value, ok := ref.Get(meshExtrasType); ok {
		blobs = appendBlob(blobs, SlotMesh, value.(*scene.MeshExtras).Value)
	}

	if value, ok := ref.Get(materialExtrasType); ok {
		blobs = appendBlob(blobs, SlotMaterial, value.(*scene.MaterialExtras).Value)
	}

	return blobs
}

func appendBlob(blobs []Blob, slot Slot, text string) []Blob {
	if text == "" {
		return blobs
	}

	return append(blobs, Blob{Slot: slot, Text: text})
}
