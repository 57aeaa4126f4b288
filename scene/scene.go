// Package scene provides scene assets. Each scene owns a private world
// that holds one entity per node of the scene.
package scene

import (
	"strconv"
	"sync"

	"github.com/oliverbestmann/bykeblend"
	"github.com/oliverbestmann/bykeblend/gm"
)

// Scene is a template of entities that can be spawned into another world.
type Scene struct {
	Name string

	mu    sync.Mutex
	world *byke.World
	root  byke.EntityId
}

// Root returns the entity that represents the scene itself.
func (s *Scene) Root() byke.EntityId {
	return s.root
}

// Exclusive runs fn with exclusive access to the scenes world. The world must not be
// retained after fn returns.
func (s *Scene) Exclusive(fn func(world *byke.World)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.world)
}

// Description describes the content of a scene independent of its file format.
type Description struct {
	Name string

	// Extras of the scene itself
	Extras string

	Nodes []Node
}

type Node struct {
	Name        string
	Translation gm.Vec3

	Extras         string
	MeshExtras     string
	MaterialExtras string

	Children []Node
}

// Build creates a new scene from a description. The scene gets a root entity
// holding the scenes extras, each node becomes an entity with a ChildOf
// pointing to its parent.
func Build(desc Description) *Scene {
	world := byke.NewWorld()

	components := []byke.ErasedComponent{byke.Named(desc.Name), Transform{}}
	if desc.Extras != "" {
		components = append(components, SceneExtras{Value: desc.Extras})
	}

	root := world.Spawn(components)

	for _, node := range desc.Nodes {
		spawnNode(world, root, node)
	}

	return &Scene{
		Name:  desc.Name,
		world: world,
		root:  root,
	}
}

func spawnNode(world *byke.World, parent byke.EntityId, node Node) {
	components := []byke.ErasedComponent{
		byke.Named(node.Name),
		Transform{Translation: node.Translation},
		ChildOf{Parent: parent},
	}

	if node.Extras != "" {
		components = append(components, Extras{Value: node.Extras})
	}

	if node.MeshExtras != "" {
		components = append(components, MeshExtras{Value: node.MeshExtras})
	}

	if node.MaterialExtras != "" {
		components = append(components, MaterialExtras{Value: node.MaterialExtras})
	}

	entityId := world.Spawn(components)

	for _, child := range node.Children {
		spawnNode(world, entityId, child)
	}
}

// Document is a loaded scene file. A file may contain multiple scenes,
// they can be addressed using the labels "Scene0", "Scene1" and so on.
type Document struct {
	Scenes []*Scene

	// Index of the scene to use if no label is given
	Default int
}

func (d *Document) LabeledAsset(label string) (any, bool) {
	for idx, scene := range d.Scenes {
		if label == sceneLabel(idx) {
			return scene, true
		}
	}

	return nil, false
}

// DefaultScene returns the scene that is used if the document
// is referenced without a label.
func (d *Document) DefaultScene() (*Scene, bool) {
	if d.Default < 0 || d.Default >= len(d.Scenes) {
		return nil, false
	}

	return d.Scenes[d.Default], true
}

func sceneLabel(idx int) string {
	return "Scene" + strconv.Itoa(idx)
}
