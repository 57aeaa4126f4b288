package bridge

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/oliverbestmann/bykeblend"
	"github.com/oliverbestmann/bykeblend/registry"
	"github.com/oliverbestmann/bykeblend/scene"
	"golang.org/x/sync/errgroup"
)

// DuplicatePolicy decides which value is kept if an entity
// receives multiple values of the same component type.
type DuplicatePolicy uint8

const (
	// LastWins keeps the value that comes last in slot and key order.
	LastWins DuplicatePolicy = iota

	// FirstWins keeps the value that comes first in slot and key order.
	FirstWins
)

func (p DuplicatePolicy) String() string {
	switch p {
	case LastWins:
		return "last-wins"
	case FirstWins:
		return "first-wins"
	default:
		return "unknown"
	}
}

type Options struct {
	// Number of entities resolved in parallel. Defaults to GOMAXPROCS.
	Workers int

	Duplicates DuplicatePolicy

	// Logger receives a warning for every skipped piece of metadata.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}

	return runtime.GOMAXPROCS(0)
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}

	return slog.Default()
}

// Report summarizes one or more ingestion passes.
type Report struct {
	Scenes     int
	Entities   int
	Blobs      int
	Components int
	Issues     []Issue
}

func (r *Report) add(other Report) {
	r.Scenes += other.Scenes
	r.Entities += other.Entities
	r.Blobs += other.Blobs
	r.Components += other.Components
	r.Issues = append(r.Issues, other.Issues...)
}

// IngestScene runs Ingest on the world of the scene.
func IngestScene(s *scene.Scene, reg *registry.TypeRegistry, opts Options) Report {
	opts.Logger = opts.logger().With(slog.String("scene", s.Name))

	var report Report

	s.Exclusive(func(world *byke.World) {
		report = Ingest(world, reg, opts)
	})

	report.Scenes = 1

	return report
}

// Ingest turns the metadata of every entity in the world into components.
// Metadata that can not be turned into a component is skipped and
// reported, it never stops the other entities from being processed.
//
// The caller must have exclusive access to the world.
func Ingest(world *byke.World, reg *registry.TypeRegistry, opts Options) Report {
	startTime := time.Now()

	logger := opts.logger()

	refs := make([]byke.EntityRef, 0, world.EntityCount())
	for ref := range world.Entities() {
		refs = append(refs, ref)
	}

	// each worker only writes to its own slot
	results := make([]entityResult, len(refs))

	var group errgroup.Group
	group.SetLimit(opts.workers())

	for idx, ref := range refs {
		group.Go(func() error {
			results[idx] = resolveEntity(reg, ref)
			return nil
		})
	}

	_ = group.Wait()

	report := Report{Entities: len(refs)}

	// the world is modified from here on, refs are no longer valid
	for _, result := range results {
		report.Blobs += result.Blobs

		for _, issue := range result.Issues {
			logIssue(logger, issue)
			report.Issues = append(report.Issues, issue)
		}

		for _, resolved := range applyDuplicatePolicy(result.Resolved, opts.Duplicates) {
			err := resolved.Registration.Insert(world, result.Entity, resolved.Value)
			if err != nil {
				issue := Issue{Entity: result.Entity, Slot: resolved.Slot, Key: resolved.Key, Err: err}
				logIssue(logger, issue)
				report.Issues = append(report.Issues, issue)
				continue
			}

			report.Components++
		}
	}

	logger.Debug(
		"Metadata ingested",
		slog.Int("entities", report.Entities),
		slog.Int("components", report.Components),
		slog.Int("issues", len(report.Issues)),
		slog.Duration("duration", time.Since(startTime)),
	)

	return report
}

func logIssue(logger *slog.Logger, issue Issue) {
	attrs := []any{
		slog.Any("entity", issue.Entity),
		slog.String("slot", issue.Slot.String()),
	}

	if issue.Key != "" {
		attrs = append(attrs, slog.String("key", issue.Key))
	}

	attrs = append(attrs, slog.Any("error", issue.Err))

	logger.Warn("Skipping metadata", attrs...)
}

// applyDuplicatePolicy keeps one value per component type.
func applyDuplicatePolicy(values []Resolved, policy DuplicatePolicy) []Resolved {
	indices := make(map[*registry.TypeRegistration]int, len(values))

	result := make([]Resolved, 0, len(values))

	for _, value := range values {
		idx, seen := indices[value.Registration]

		switch {
		case !seen:
			indices[value.Registration] = len(result)
			result = append(result, value)

		case policy == LastWins:
			result[idx] = value
		}
	}

	return result
}
