package assets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type asyncAsset struct {
	value atomic.Pointer[any]
	error atomic.Pointer[error]
	done  <-chan struct{}
}

func loadAsync(load func() (any, error)) *asyncAsset {
	doneCh := make(chan struct{})
	asset := &asyncAsset{done: doneCh}

	// spawn the go routine to load the actual asset
	go func() {
		defer close(doneCh)

		defer func() {
			// we got a panic, propagate to the error
			if p := recover(); p != nil {
				err := fmt.Errorf("loading asset panicked: %v", p)
				asset.error.Store(&err)
			}
		}()

		// load the value
		value, err := load()

		if err != nil {
			asset.error.Store(&err)
			return
		}

		asset.value.Store(&value)
	}()

	return asset
}

func (a *asyncAsset) Poll() (any, error, bool) {
	if value := a.value.Load(); value != nil {
		return *value, nil, true
	}

	if err := a.error.Load(); err != nil {
		return nil, *err, true
	}

	return nil, nil, false
}

func (a *asyncAsset) TryAwait(ctx context.Context) (any, error) {
	select {
	case <-a.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	value, err, _ := a.Poll()
	return value, err
}

type assetCache struct {
	mu       sync.Mutex
	values   map[string]*asyncAsset
	loading  atomic.Int32
	finished atomic.Int32
}

func (a *assetCache) Loading() int32 {
	return a.loading.Load()
}

func (a *assetCache) Finished() int32 {
	return a.finished.Load()
}

func (a *assetCache) Lookup(p string) (*asyncAsset, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	asset, ok := a.values[p]
	return asset, ok
}

func (a *assetCache) Get(p string, load func() (any, error)) *asyncAsset {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.values == nil {
		a.values = make(map[string]*asyncAsset, 64)
	}

	// check cache first
	if cached, ok := a.values[p]; ok {
		return cached
	}

	a.loading.Add(1)

	slog.Debug("Start loading asset", slog.String("path", p))

	startTime := time.Now()

	// actually load the asset
	asyncAsset := loadAsync(func() (value any, err error) {
		defer a.finished.Add(1)
		defer func() {
			if err != nil {
				slog.Warn("Failed to load asset",
					slog.String("path", p),
					slog.Duration("duration", time.Since(startTime)),
					slog.String("error", err.Error()))
			} else {
				slog.Debug("Finish loading asset",
					slog.String("path", p),
					slog.String("type", fmt.Sprintf("%T", value)),
					slog.Duration("duration", time.Since(startTime)))
			}
		}()

		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("loading asset panicked: %v", p)
			}
		}()

		return load()
	})

	// and put the promise into the cache
	a.values[p] = asyncAsset

	return asyncAsset
}
