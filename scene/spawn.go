package scene

import (
	"io/fs"
	"log/slog"
	"slices"

	"github.com/oliverbestmann/bykeblend"
	"github.com/oliverbestmann/bykeblend/assets"
)

// Scenes gives access to the loaded scenes of an asset server.
type Scenes struct {
	server *assets.Server
}

func NewScenes(server *assets.Server) Scenes {
	return Scenes{server: server}
}

// Get returns the scene referenced by the handle. A handle without a label
// resolves to the default scene of the document.
func (s Scenes) Get(handle assets.Handle) (*Scene, bool) {
	value, ok := s.server.Get(handle)
	if !ok {
		return nil, false
	}

	switch value := value.(type) {
	case *Scene:
		return value, true

	case *Document:
		return value.DefaultScene()

	default:
		return nil, false
	}
}

// SceneRoot requests the scene to be spawned as children of the entity
// holding this component, once the scene is loaded and not held back by HeldScenes.
type SceneRoot struct {
	byke.Component[SceneRoot]
	Handle assets.Handle
}

// SceneInstance is added to every entity cloned from a scene.
type SceneInstance struct {
	byke.Component[SceneInstance]

	// The entity holding the SceneRoot
	Root byke.EntityId
}

// SceneSpawned marks a SceneRoot whose scene was spawned.
type SceneSpawned struct {
	byke.Component[SceneSpawned]
}

// HeldScenes lists scene files that must not be spawned yet, for example
// because their entities are still being processed.
type HeldScenes struct {
	Paths []string
}

func (h *HeldScenes) Hold(paths ...string) {
	for _, p := range paths {
		if !slices.Contains(h.Paths, p) {
			h.Paths = append(h.Paths, p)
		}
	}
}

func (h *HeldScenes) Release(paths ...string) {
	h.Paths = slices.DeleteFunc(h.Paths, func(p string) bool {
		return slices.Contains(paths, p)
	})
}

func (h *HeldScenes) Holds(handle assets.Handle) bool {
	return h != nil && slices.Contains(h.Paths, handle.Path())
}

// Plugin installs an asset server with the scene loaders and the system
// that spawns scenes for SceneRoot entities.
type Plugin struct {
	FS fs.FS
}

func (p Plugin) ApplyTo(app *byke.App) {
	server := assets.NewServer(p.FS, GltfLoader{}, YamlLoader{})

	app.InsertResource(server)
	app.InsertResource(NewScenes(server))
	app.InsertResource(HeldScenes{})

	app.AddSystems(byke.PostUpdate, spawnSceneRootsSystem)
}

type pendingSceneRoot struct {
	Entity byke.EntityId
	Root   SceneRoot
	_      byke.Without[SceneSpawned]
}

func spawnSceneRootsSystem(
	commands *byke.Commands,
	scenes Scenes,
	held byke.ResOption[HeldScenes],
	roots byke.Query[pendingSceneRoot],
) {
	for root := range roots.Items() {
		if held.Value.Holds(root.Root.Handle) {
			continue
		}

		scene, ok := scenes.Get(root.Root.Handle)
		if !ok {
			continue
		}

		count := SpawnInto(commands, scene, root.Entity)

		commands.Entity(root.Entity).Insert(SceneSpawned{})

		slog.Debug(
			"Spawned scene",
			slog.Any("handle", root.Root.Handle),
			slog.Any("root", root.Entity),
			slog.Int("entities", count),
		)
	}
}

// SpawnInto enqueues a copy of every entity of the scene. Parent links are
// rewritten to the new entities, entities without a parent become children of root.
// It returns the number of entities spawned.
func SpawnInto(commands *byke.Commands, scene *Scene, root byke.EntityId) int {
	type clone struct {
		source     byke.EntityId
		parent     byke.EntityId
		components []byke.ErasedComponent
	}

	var clones []clone

	scene.Exclusive(func(world *byke.World) {
		for entity := range world.Entities() {
			c := clone{source: entity.EntityId, parent: byke.NoEntityId}

			for _, component := range entity.Components() {
				if childOf, ok := component.(*ChildOf); ok {
					c.parent = childOf.Parent
					continue
				}

				// copy the value while we hold the lock
				c.components = append(c.components, component.ComponentType().CopyOf(component))
			}

			clones = append(clones, c)
		}
	})

	// reserve all ids first so we can remap the parents
	remapped := make(map[byke.EntityId]byke.EntityId, len(clones))
	spawned := make([]byke.EntityCommands, 0, len(clones))

	for _, c := range clones {
		entity := commands.Spawn(c.components...)
		remapped[c.source] = entity.Id()
		spawned = append(spawned, entity)
	}

	for idx, c := range clones {
		parent, ok := remapped[c.parent]
		if !ok {
			parent = root
		}

		spawned[idx].Insert(
			ChildOf{Parent: parent},
			SceneInstance{Root: root},
		)
	}

	return len(clones)
}
