// Package assets loads asset files asynchronously from a file system.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"sync"
)

var ErrNoLoader = errors.New("no loader for extension")

// LoadContext is passed to a Loader when loading a file.
type LoadContext struct {
	// The path of the file we're currently loading
	Path string

	// The file system the file was opened from. Loaders may use it
	// to read files referenced by the asset.
	FS fs.FS
}

// Loader decodes the content of a file into an asset value.
type Loader interface {
	Load(ctx LoadContext, r io.Reader) (any, error)
	Extensions() []string
}

// Labeled is implemented by assets that contain sub assets addressed
// by a label, e.g. "level.gltf#Scene1".
type Labeled interface {
	LabeledAsset(label string) (any, bool)
}

// Handle identifies an asset, optionally a labeled sub asset within a file.
// The zero Handle does not identify any asset.
type Handle struct {
	path  string
	label string
}

// ParseHandle splits a path of the form "file#label" into a Handle.
func ParseHandle(p string) Handle {
	p, label, _ := strings.Cut(p, "#")
	return Handle{path: path.Clean(p), label: label}
}

func (h Handle) Path() string {
	return h.path
}

func (h Handle) Label() string {
	return h.label
}

func (h Handle) IsZero() bool {
	return h == Handle{}
}

func (h Handle) String() string {
	if h.label == "" {
		return h.path
	}

	return h.path + "#" + h.label
}

func (h Handle) LogValue() slog.Value {
	return slog.StringValue(h.String())
}

type LoadState uint8

const (
	NotLoaded LoadState = iota
	Loading
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case NotLoaded:
		return "NotLoaded"
	case Loading:
		return "Loading"
	case Loaded:
		return "Loaded"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("LoadState(%d)", s)
	}
}

// Server loads assets in the background. Each file is loaded at most once,
// all handles to the same file share the loaded value.
//
// A Server is safe for concurrent use.
type Server struct {
	fs fs.FS

	mu      sync.Mutex
	loaders map[string]Loader
	cache   *assetCache
}

func NewServer(fsys fs.FS, loaders ...Loader) *Server {
	server := &Server{
		fs:      fsys,
		loaders: make(map[string]Loader, 8),
		cache:   &assetCache{},
	}

	for _, l := range loaders {
		server.RegisterLoader(l)
	}

	return server
}

// RegisterLoader registers a loader for all of its extensions. Extensions may
// contain multiple dots, e.g. ".scene.yaml". The longest matching extension wins.
func (s *Server) RegisterLoader(l Loader) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ext := range l.Extensions() {
		ext = strings.ToLower(ext)
		s.loaders[ext] = l
	}
}

func (s *Server) loaderFor(p string) (Loader, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.ToLower(path.Base(p))

	// try the longest extension first
	for idx := strings.IndexByte(name, '.'); idx >= 0; {
		if loader, ok := s.loaders[name[idx:]]; ok {
			return loader, true
		}

		next := strings.IndexByte(name[idx+1:], '.')
		if next < 0 {
			break
		}

		idx += next + 1
	}

	return nil, false
}

// Load starts loading the asset at the given path in the background and returns
// a handle to it. The path may carry a label, e.g. "barbette.glb#Scene0".
func (s *Server) Load(p string) Handle {
	handle := ParseHandle(p)

	s.cache.Get(handle.path, func() (any, error) {
		loader, ok := s.loaderFor(handle.path)
		if !ok {
			return nil, fmt.Errorf("load %q: %w", handle.path, ErrNoLoader)
		}

		fp, err := s.fs.Open(handle.path)
		if err != nil {
			return nil, fmt.Errorf("open asset %q: %w", handle.path, err)
		}

		defer func() { _ = fp.Close() }()

		ctx := LoadContext{
			Path: handle.path,
			FS:   s.fs,
		}

		asset, err := loader.Load(ctx, fp)
		if err != nil {
			return nil, fmt.Errorf("loading asset %q with loader %T: %w", handle.path, loader, err)
		}

		return asset, nil
	})

	return handle
}

// LoadState returns the current state of the asset. An asset with a label that does
// not exist within the loaded file is Failed.
func (s *Server) LoadState(handle Handle) LoadState {
	asset, ok := s.cache.Lookup(handle.path)
	if !ok {
		return NotLoaded
	}

	_, err, done := asset.Poll()
	switch {
	case !done:
		return Loading

	case err != nil:
		return Failed

	default:
		if _, err := s.resolve(handle, asset); err != nil {
			return Failed
		}

		return Loaded
	}
}

// LoadError returns the error of a Failed asset.
func (s *Server) LoadError(handle Handle) error {
	asset, ok := s.cache.Lookup(handle.path)
	if !ok {
		return nil
	}

	_, err, done := asset.Poll()
	if !done {
		return nil
	}

	if err != nil {
		return err
	}

	_, err = s.resolve(handle, asset)
	return err
}

// Get returns the asset value if it is loaded.
func (s *Server) Get(handle Handle) (any, bool) {
	asset, ok := s.cache.Lookup(handle.path)
	if !ok {
		return nil, false
	}

	_, err, done := asset.Poll()
	if !done || err != nil {
		return nil, false
	}

	value, err := s.resolve(handle, asset)
	return value, err == nil
}

// GetAs is a typed version of Server.Get.
func GetAs[T any](s *Server, handle Handle) (T, bool) {
	value, ok := s.Get(handle)
	if !ok {
		var tZero T
		return tZero, false
	}

	typed, ok := value.(T)
	return typed, ok
}

// Await blocks until the asset has finished loading or the context is done.
func (s *Server) Await(ctx context.Context, handle Handle) (any, error) {
	asset, ok := s.cache.Lookup(handle.path)
	if !ok {
		return nil, fmt.Errorf("asset %q was never requested", handle)
	}

	if _, err := asset.TryAwait(ctx); err != nil {
		return nil, err
	}

	return s.resolve(handle, asset)
}

func (s *Server) resolve(handle Handle, asset *asyncAsset) (any, error) {
	value, _, _ := asset.Poll()

	if handle.label == "" {
		return value, nil
	}

	labeled, ok := value.(Labeled)
	if !ok {
		return nil, fmt.Errorf("asset %q of type %T has no labeled sub assets", handle.path, value)
	}

	sub, ok := labeled.LabeledAsset(handle.label)
	if !ok {
		return nil, fmt.Errorf("asset %q has no sub asset %q", handle.path, handle.label)
	}

	return sub, nil
}

func (s *Server) StartCount() int {
	return int(s.cache.Loading())
}

func (s *Server) FinishCount() int {
	return int(s.cache.Finished())
}

func (s *Server) IsLoading() bool {
	return s.StartCount() > s.FinishCount()
}
