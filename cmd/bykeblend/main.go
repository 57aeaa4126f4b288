package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/oliverbestmann/bykeblend"
	"github.com/oliverbestmann/bykeblend/assets"
	"github.com/oliverbestmann/bykeblend/bridge"
	"github.com/oliverbestmann/bykeblend/gm"
	"github.com/oliverbestmann/bykeblend/internal/config"
	"github.com/oliverbestmann/bykeblend/physics"
	"github.com/oliverbestmann/bykeblend/scene"
	"github.com/pkg/profile"
)

// ExitError carries the exit code for errors caused by invalid usage.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func main() {
	// use a minimal logger until the configuration is loaded
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	Config    config.Config
	Profile   string
	MaxFrames int
	FrameTime time.Duration
}

func parseArgs(args []string, output io.Writer) (options, bool, error) {
	flagSet := flag.NewFlagSet("bykeblend", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
bykeblend - turns the metadata of exported scenes into components.

Usage:
  bykeblend [options] [SCENE...]

Arguments:
  SCENE
    Path of a scene relative to the asset root, e.g. "barbette.glb#Scene0".
    Replaces the scenes of the configuration file.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the HCL configuration file.")
	assetsFlag := flagSet.String("assets", "", "Directory to load scenes from, overrides asset_root.")
	workersFlag := flagSet.Int("workers", 0, "Number of entities resolved in parallel.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'.")
	profileFlag := flagSet.String("profile", "", "Write a profile to the working directory. Options: 'cpu' or 'mem'.")
	maxFramesFlag := flagSet.Int("max-frames", 600, "Give up if the scenes are not ready after this many frames.")
	frameTimeFlag := flagSet.Duration("frame-time", 10*time.Millisecond, "Time between two frames.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return options{}, true, nil
		}

		return options{}, false, &ExitError{Code: 2, Message: err.Error()}
	}

	switch *profileFlag {
	case "", "cpu", "mem":
		// valid
	default:
		return options{}, false, &ExitError{Code: 2, Message: "invalid profile: must be 'cpu' or 'mem'"}
	}

	overrides := []config.Override{
		func(cfg *config.Config) {
			if *assetsFlag != "" {
				cfg.AssetRoot = *assetsFlag
			}

			if *workersFlag != 0 {
				cfg.Workers = *workersFlag
			}

			if *logLevelFlag != "" {
				cfg.LogLevel = strings.ToLower(*logLevelFlag)
			}

			if *logFormatFlag != "" {
				cfg.LogFormat = strings.ToLower(*logFormatFlag)
			}
		},
	}

	if flagSet.NArg() > 0 {
		overrides = append(overrides, config.WithScenePaths(flagSet.Args()...))
	}

	cfg, err := config.Load(*configFlag, overrides...)
	if err != nil {
		return options{}, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return options{
		Config:    cfg,
		Profile:   *profileFlag,
		MaxFrames: *maxFramesFlag,
		FrameTime: *frameTimeFlag,
	}, false, nil
}

func run(out io.Writer, args []string) error {
	opts, shouldExit, err := parseArgs(args, out)
	if err != nil || shouldExit {
		return err
	}

	logger, err := newLogger(opts.Config)
	if err != nil {
		return err
	}

	slog.SetDefault(logger)

	switch opts.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	app := newApp(opts.Config, logger)

	app.RunWorld(runFrames(out, opts.MaxFrames, opts.FrameTime))

	return app.Run()
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, handlerOptions)), nil
	}

	return slog.New(slog.NewTextHandler(os.Stderr, handlerOptions)), nil
}

func newApp(cfg config.Config, logger *slog.Logger) *byke.App {
	duplicates, _ := cfg.DuplicatePolicy()

	var app byke.App

	app.InitState(byke.StateType[GameState]{InitialValue: GameStateLoading})

	app.AddPlugin(scene.Plugin{FS: os.DirFS(cfg.AssetRoot)})
	app.AddPlugin(byke.PluginFunc(physics.Plugin))

	app.AddPlugin(bridge.Plugin[GameState]{
		ScenePaths: cfg.ScenePaths(),
		Processed:  GameStateStart,
		Registry:   newTypeRegistry(),
		Options: bridge.Options{
			Workers:    cfg.Workers,
			Duplicates: duplicates,
			Logger:     logger,
		},
	})

	app.AddSystems(byke.OnEnter(GameStateStart), spawnScenesSystem)
	app.AddSystems(byke.Update, byke.System(attachCollidersSystem).RunIf(byke.InState(GameStateStart)))

	return &app
}

func spawnScenesSystem(commands *byke.Commands, handles bridge.SceneHandles) {
	for _, handle := range handles.Handles {
		commands.Spawn(
			byke.Named(handle.String()),
			scene.SceneRoot{Handle: handle},
		)
	}
}

// runFrames runs the app until all scenes are spawned and their colliders
// were checked once.
func runFrames(out io.Writer, maxFrames int, frameTime time.Duration) byke.RunWorld {
	return func(world *byke.World) error {
		// frames to wait after spawning for colliders to be attached and checked
		settle := 2

		for range maxFrames {
			world.RunSchedule(byke.Main)

			if err := failedScene(world); err != nil {
				return err
			}

			if !scenesSpawned(world) {
				time.Sleep(frameTime)
				continue
			}

			settle--
			if settle == 0 {
				printInventory(out, world)
				return nil
			}
		}

		return fmt.Errorf("scenes not ready after %d frames", maxFrames)
	}
}

func failedScene(world *byke.World) error {
	server, _ := byke.ResourceOf[*assets.Server](world)
	handles, _ := byke.ResourceOf[bridge.SceneHandles](world)

	for _, handle := range handles.Handles {
		if (*server).LoadState(handle) == assets.Failed {
			return fmt.Errorf("scene %s: %w", handle, (*server).LoadError(handle))
		}
	}

	return nil
}

func scenesSpawned(world *byke.World) bool {
	state, _ := byke.ResourceOf[byke.State[GameState]](world)
	if state.Current() != GameStateStart {
		return false
	}

	pending := byke.NewQuery[struct {
		_ byke.With[scene.SceneRoot]
		_ byke.Without[scene.SceneSpawned]
	}](world)

	spawned := byke.NewQuery[struct {
		_ byke.With[scene.SceneSpawned]
	}](world)

	return pending.Count() == 0 && spawned.Count() > 0
}

type inventoryItem struct {
	Entity   byke.EntityId
	Name     byke.Name
	Instance scene.SceneInstance
}

// components that are not interesting to the user
var helperComponents = []*byke.ComponentType{
	byke.ComponentTypeOf[byke.Name](),
	byke.ComponentTypeOf[scene.Transform](),
	byke.ComponentTypeOf[scene.ChildOf](),
	byke.ComponentTypeOf[scene.SceneInstance](),
	byke.ComponentTypeOf[scene.SceneExtras](),
	byke.ComponentTypeOf[scene.Extras](),
	byke.ComponentTypeOf[scene.MeshExtras](),
	byke.ComponentTypeOf[scene.MaterialExtras](),
	byke.ComponentTypeOf[physics.Collider](),
	byke.ComponentTypeOf[physics.Position](),
}

func printInventory(out io.Writer, world *byke.World) {
	items := slices.Collect(byke.NewQuery[inventoryItem](world).Items())

	slices.SortFunc(items, func(lhs, rhs inventoryItem) int {
		return int(lhs.Entity) - int(rhs.Entity)
	})

	names := map[byke.EntityId]string{}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tNAME\tCOMPONENTS")

	for _, item := range items {
		names[item.Entity] = item.Name.Name

		ref, ok := world.Entity(item.Entity)
		if !ok {
			continue
		}

		var components []string
		for _, component := range ref.Components() {
			componentType := component.ComponentType()
			if slices.Contains(helperComponents, componentType) {
				continue
			}

			components = append(components, componentType.String())
		}

		slices.Sort(components)

		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.Entity, item.Name.Name, strings.Join(components, ", "))
	}

	_ = tw.Flush()

	report, _ := byke.ResourceOf[bridge.Report](world)

	fmt.Fprintf(out, "\n%d scenes, %d entities, %d components, %d issues\n",
		report.Scenes, report.Entities, report.Components, len(report.Issues))

	for _, issue := range report.Issues {
		fmt.Fprintf(out, "  skipped: %s\n", issue.Error())
	}

	overlaps, _ := byke.ResourceOf[physics.Overlaps](world)
	for _, overlap := range overlaps.Pairs {
		fmt.Fprintf(out, "  collider of %q overlaps %q\n", names[overlap.A], names[overlap.B])
	}

	printColliderBounds(out, world, names)
}

type placedCollider struct {
	Entity   byke.EntityId
	Collider Collider
	Position physics.Position
}

func printColliderBounds(out io.Writer, world *byke.World, names map[byke.EntityId]string) {
	items := slices.Collect(byke.NewQuery[placedCollider](world).Items())

	slices.SortFunc(items, func(lhs, rhs placedCollider) int {
		return int(lhs.Entity) - int(rhs.Entity)
	})

	var extent gm.Rect
	var count int

	for _, item := range items {
		bounds, ok := boundsOf(item.Collider, item.Position.Value)
		if !ok {
			continue
		}

		fmt.Fprintf(out, "  bounds of %q: %s\n", names[item.Entity], bounds)

		if count == 0 {
			extent = bounds
		} else {
			extent = extent.Union(bounds)
		}

		count++
	}

	if count > 0 {
		fmt.Fprintf(out, "  collider extent: %s\n", extent)
	}
}
