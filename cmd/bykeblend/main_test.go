package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	var out bytes.Buffer

	err := run(&out, []string{"-assets", "assets", "-frame-time", "1ms", "-log-level", "error", "barbette.scene.yaml"})
	require.NoError(t, err)

	output := out.String()
	require.Contains(t, output, "main.Barbette")
	require.Contains(t, output, "main.Cannonball")
	require.Contains(t, output, "main.Collider")
	require.Contains(t, output, "1 scenes, 5 entities, 7 components, 1 issues")
	require.Contains(t, output, `"Beacon"`)
	require.Contains(t, output, "overlaps")
	require.Contains(t, output, `bounds of "Enemy": Rect(min=vec(x=-1, y=-1), max=vec(x=1, y=1))`)
	require.Contains(t, output, "collider extent: Rect(min=vec(x=-1, y=-1), max=vec(x=1.7, y=1))")
}

func TestRunWithConfigFile(t *testing.T) {
	var out bytes.Buffer

	err := run(&out, []string{"-config", "bykeblend.hcl", "-frame-time", "1ms", "-log-level", "error"})
	require.NoError(t, err)
	require.Contains(t, out.String(), "main.Enemy")
}

func TestRunErrors(t *testing.T) {
	t.Run("help", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(&out, []string{"-h"}))
		require.Contains(t, out.String(), "Usage:")
	})

	t.Run("no scenes", func(t *testing.T) {
		var exitErr *ExitError
		err := run(&bytes.Buffer{}, []string{"-assets", "assets"})
		require.True(t, errors.As(err, &exitErr))
		require.Equal(t, 2, exitErr.Code)
	})

	t.Run("invalid profile", func(t *testing.T) {
		var exitErr *ExitError
		err := run(&bytes.Buffer{}, []string{"-profile", "gpu", "barbette.scene.yaml"})
		require.True(t, errors.As(err, &exitErr))
	})

	t.Run("missing scene", func(t *testing.T) {
		err := run(&bytes.Buffer{}, []string{"-assets", "assets", "-frame-time", "1ms", "missing.scene.yaml"})
		require.ErrorContains(t, err, "missing.scene.yaml")
	})
}
