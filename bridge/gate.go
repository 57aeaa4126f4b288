package bridge

import (
	"github.com/oliverbestmann/bykeblend/assets"
)

// LoadStates reports the load state of assets. It is implemented by *assets.Server.
type LoadStates interface {
	LoadState(handle assets.Handle) assets.LoadState
}

// SceneHandles holds the scenes that are ingested by the Plugin.
// The handles do not change after the plugin was added.
type SceneHandles struct {
	Handles []assets.Handle
}

// LoadGate opens once all tracked scenes are loaded. After it opened,
// it stays open forever.
type LoadGate struct {
	done bool
}

// Poll returns true if all handles are loaded, or if the gate opened before.
// A handle that failed to load keeps the gate closed.
func (g *LoadGate) Poll(handles []assets.Handle, states LoadStates) bool {
	if g.done {
		return true
	}

	for _, handle := range handles {
		if states.LoadState(handle) != assets.Loaded {
			return false
		}
	}

	g.done = true

	return true
}

func (g *LoadGate) Done() bool {
	return g.done
}
