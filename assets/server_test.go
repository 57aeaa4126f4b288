package assets

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
)

type textLoader struct{}

func (textLoader) Load(_ LoadContext, r io.Reader) (any, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(string(buf), "panic") {
		panic("loader panicked")
	}

	if strings.HasPrefix(string(buf), "error") {
		return nil, errors.New("bad content")
	}

	return string(buf), nil
}

func (textLoader) Extensions() []string {
	return []string{".txt"}
}

type bundle map[string]string

func (b bundle) LabeledAsset(label string) (any, bool) {
	value, ok := b[label]
	return value, ok
}

type bundleLoader struct{}

func (bundleLoader) Load(_ LoadContext, r io.Reader) (any, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	result := bundle{}
	for _, line := range strings.Split(strings.TrimSpace(string(buf)), "\n") {
		key, value, _ := strings.Cut(line, "=")
		result[key] = value
	}

	return result, nil
}

func (bundleLoader) Extensions() []string {
	return []string{".bundle.txt"}
}

func newTestServer() *Server {
	fsys := fstest.MapFS{
		"hello.txt":     {Data: []byte("hello")},
		"error.txt":     {Data: []byte("error")},
		"panic.txt":     {Data: []byte("panic")},
		"a.bundle.txt":  {Data: []byte("first=1\nsecond=2")},
		"unknown.bin":   {Data: []byte{1, 2, 3}},
		"dir/other.txt": {Data: []byte("other")},
	}

	return NewServer(fsys, textLoader{}, bundleLoader{})
}

func await(t *testing.T, server *Server, handle Handle) (any, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return server.Await(ctx, handle)
}

func TestHandle(t *testing.T) {
	handle := ParseHandle("./dir/../scene.glb#Scene0")
	require.Equal(t, "scene.glb", handle.Path())
	require.Equal(t, "Scene0", handle.Label())
	require.Equal(t, "scene.glb#Scene0", handle.String())

	require.True(t, Handle{}.IsZero())
	require.False(t, handle.IsZero())
}

func TestLoad(t *testing.T) {
	server := newTestServer()

	handle := server.Load("hello.txt")
	require.NotEqual(t, NotLoaded, server.LoadState(handle))

	value, err := await(t, server, handle)
	require.NoError(t, err)
	require.Equal(t, "hello", value)

	require.Equal(t, Loaded, server.LoadState(handle))
	require.NoError(t, server.LoadError(handle))

	text, ok := GetAs[string](server, handle)
	require.True(t, ok)
	require.Equal(t, "hello", text)

	require.False(t, server.IsLoading())
}

func TestLoadIsCached(t *testing.T) {
	server := newTestServer()

	first := server.Load("dir/other.txt")
	second := server.Load("dir/./other.txt")
	require.Equal(t, first, second)

	_, err := await(t, server, first)
	require.NoError(t, err)

	require.Equal(t, 1, server.StartCount())
	require.Equal(t, 1, server.FinishCount())
}

func TestNotRequested(t *testing.T) {
	server := newTestServer()

	handle := ParseHandle("hello.txt")
	require.Equal(t, NotLoaded, server.LoadState(handle))

	_, ok := server.Get(handle)
	require.False(t, ok)
}

func TestLoadFailures(t *testing.T) {
	server := newTestServer()

	for _, path := range []string{"error.txt", "panic.txt", "missing.txt", "unknown.bin"} {
		t.Run(path, func(t *testing.T) {
			handle := server.Load(path)

			_, err := await(t, server, handle)
			require.Error(t, err)

			require.Equal(t, Failed, server.LoadState(handle))
			require.Error(t, server.LoadError(handle))

			_, ok := server.Get(handle)
			require.False(t, ok)
		})
	}

	handle := server.Load("unknown.bin")
	_, err := await(t, server, handle)
	require.ErrorIs(t, err, ErrNoLoader)
}

func TestLabels(t *testing.T) {
	server := newTestServer()

	second := server.Load("a.bundle.txt#second")
	missing := server.Load("a.bundle.txt#third")

	value, err := await(t, server, second)
	require.NoError(t, err)
	require.Equal(t, "2", value)
	require.Equal(t, Loaded, server.LoadState(second))

	_, err = await(t, server, missing)
	require.Error(t, err)
	require.Equal(t, Failed, server.LoadState(missing))

	// a label on an asset without sub assets
	plain := server.Load("hello.txt#label")
	_, err = await(t, server, plain)
	require.Error(t, err)
}

func TestAwaitCanceled(t *testing.T) {
	server := newTestServer()

	_, err := server.Await(context.Background(), ParseHandle("hello.txt"))
	require.Error(t, err, "asset was never requested")

	blocked := &asyncAsset{done: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = blocked.TryAwait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadStateString(t *testing.T) {
	require.Equal(t, "Loaded", Loaded.String())
	require.Equal(t, "LoadState(9)", LoadState(9).String())
}
