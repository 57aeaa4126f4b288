package bridge

import (
	"log/slog"

	"github.com/oliverbestmann/bykeblend"
	"github.com/oliverbestmann/bykeblend/assets"
	"github.com/oliverbestmann/bykeblend/registry"
	"github.com/oliverbestmann/bykeblend/scene"
)

// Phase of the ingestion pipeline. It only ever moves forward.
type Phase uint8

const (
	// Pending waits for all scenes to be loaded.
	Pending Phase = iota
	Ingesting
	Done
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "Pending"
	case Ingesting:
		return "Ingesting"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Ingestion is a resource holding the current phase of the pipeline.
type Ingestion struct {
	Phase Phase
}

// Plugin loads the given scenes and, once all of them are loaded, turns their metadata
// into components. Afterwards the state S is set to Processed.
//
// The scene.Plugin must be added before this plugin, and the state S must be initialized.
type Plugin[S comparable] struct {
	ScenePaths []string
	Processed  S

	// Registry to resolve types with. If nil, an existing
	// *registry.TypeRegistry resource is used.
	Registry *registry.TypeRegistry

	Options Options
}

type ingestConfig[S comparable] struct {
	Processed S
	Options   Options
}

func (p Plugin[S]) ApplyTo(app *byke.App) {
	server, ok := byke.ResourceOf[*assets.Server](app.World())
	if !ok {
		panic("bridge: asset server not found, add scene.Plugin first")
	}

	if p.Registry != nil {
		app.InsertResource(p.Registry)
	} else if _, ok := byke.ResourceOf[*registry.TypeRegistry](app.World()); !ok {
		panic("bridge: no type registry configured")
	}

	handles := make([]assets.Handle, 0, len(p.ScenePaths))
	for _, path := range p.ScenePaths {
		handles = append(handles, (*server).Load(path))
	}

	// scenes must not be spawned before their metadata was turned into components
	held, ok := byke.ResourceOf[scene.HeldScenes](app.World())
	if !ok {
		panic("bridge: held scenes not found, add scene.Plugin first")
	}

	held.Hold(scenePathsOf(handles)...)

	app.InsertResource(SceneHandles{Handles: handles})
	app.InsertResource(LoadGate{})
	app.InsertResource(Ingestion{Phase: Pending})
	app.InsertResource(Report{})

	app.InsertResource(ingestConfig[S]{
		Processed: p.Processed,
		Options:   p.Options,
	})

	app.AddSystems(byke.Update, byke.System(ingestSystem[S]).RunIf(readyToIngest))
}

func readyToIngest(
	gate *LoadGate,
	ingestion Ingestion,
	handles SceneHandles,
	server *assets.Server,
) bool {
	return ingestion.Phase == Pending && gate.Poll(handles.Handles, server)
}

func ingestSystem[S comparable](
	config ingestConfig[S],
	handles SceneHandles,
	scenes scene.Scenes,
	reg *registry.TypeRegistry,
	ingestion *Ingestion,
	report *Report,
	nextState *byke.NextState[S],
	held *scene.HeldScenes,
) {
	ingestion.Phase = Ingesting

	logger := config.Options.logger()

	for _, handle := range handles.Handles {
		s, ok := scenes.Get(handle)
		if !ok {
			logger.Warn("Scene is loaded but not available", slog.Any("handle", handle))
			continue
		}

		report.add(IngestScene(s, reg, config.Options))
	}

	ingestion.Phase = Done

	held.Release(scenePathsOf(handles.Handles)...)

	nextState.Set(config.Processed)

	logger.Info(
		"Scene metadata processed",
		slog.Int("scenes", report.Scenes),
		slog.Int("components", report.Components),
		slog.Int("issues", len(report.Issues)),
	)
}

func scenePathsOf(handles []assets.Handle) []string {
	paths := make([]string, 0, len(handles))
	for _, handle := range handles {
		paths = append(paths, handle.Path())
	}

	return paths
}
