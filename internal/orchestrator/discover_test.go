package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemtt-go/hemtt/internal/workspace"
)

func TestDiscoverAddonsFindsImmediateChildrenOfEachLocation(t *testing.T) {
	ws := workspace.New()
	ws.AddLayer(workspace.NewMemLayer("root"))

	require.NoError(t, ws.CreateFile(ws.Path("/addons/main/config.cpp"), []byte("class CfgPatches {};")))
	require.NoError(t, ws.CreateFile(ws.Path("/addons/extra/config.cpp"), []byte("class CfgPatches {};")))
	require.NoError(t, ws.CreateFile(ws.Path("/optionals/compat_ace/config.cpp"), []byte("class CfgPatches {};")))
	// a nested file under an addon must not be mistaken for a sibling addon.
	require.NoError(t, ws.CreateFile(ws.Path("/addons/main/functions/fnc_hello.sqf"), []byte("0;")))

	addons, err := DiscoverAddons(ws)
	require.NoError(t, err)
	require.Len(t, addons, 3)

	var names []string
	for _, a := range addons {
		names = append(names, a.Location.String()+"/"+a.Name)
	}
	assert.Equal(t, []string{"addons/extra", "addons/main", "optionals/compat_ace"}, names)
}

func TestDiscoverAddonsRejectsInvalidNames(t *testing.T) {
	ws := workspace.New()
	ws.AddLayer(workspace.NewMemLayer("root"))
	require.NoError(t, ws.CreateFile(ws.Path("/addons/bad name/config.cpp"), []byte("class CfgPatches {};")))

	_, err := DiscoverAddons(ws)
	assert.Error(t, err)
}

func TestDiscoverAddonsSkipsMissingLocations(t *testing.T) {
	ws := workspace.New()
	ws.AddLayer(workspace.NewMemLayer("root"))

	addons, err := DiscoverAddons(ws)
	require.NoError(t, err)
	assert.Empty(t, addons)
}
