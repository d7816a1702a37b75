package pbopack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemtt-go/hemtt/internal/orchestrator"
	"github.com/hemtt-go/hemtt/internal/orchestrator/modules/rapify"
	"github.com/hemtt-go/hemtt/internal/orchestrator/modules/script"
	"github.com/hemtt-go/hemtt/internal/pbo"
	"github.com/hemtt-go/hemtt/internal/project"
	"github.com/hemtt-go/hemtt/internal/sqf/commands"
	"github.com/hemtt-go/hemtt/internal/workspace"
)

func TestModulePacksConfigScriptsAndLooseFiles(t *testing.T) {
	ws := workspace.New()
	ws.AddLayer(workspace.NewMemLayer("root"))

	require.NoError(t, ws.CreateFile(ws.Path("/addons/main/config.cpp"), []byte(`class CfgPatches { class main { units[] = {}; weapons[] = {}; }; };`)))
	require.NoError(t, ws.CreateFile(ws.Path("/addons/main/functions/fnc_hello.sqf"), []byte(`params ["_x"]; _x + 1;`)))
	require.NoError(t, ws.CreateFile(ws.Path("/addons/main/data/readme.txt"), []byte("hello")))

	proj := &project.Config{Prefix: "z"}

	rapifyMod, err := rapify.New(proj)
	require.NoError(t, err)
	scriptMod, err := script.New(commands.Default(), proj)
	require.NoError(t, err)

	addon := &orchestrator.Addon{Name: "main", Location: orchestrator.Addons, Build: orchestrator.NewBuildData()}
	ctx := &orchestrator.Context{
		Ctx:       context.Background(),
		Workspace: ws,
		Addons:    []*orchestrator.Addon{addon},
		OutFolder: ws.Path("/out"),
		Threads:   1,
	}

	_, err = rapifyMod.Build(ctx)
	require.NoError(t, err)
	_, err = scriptMod.Build(ctx)
	require.NoError(t, err)

	m := New(rapifyMod, scriptMod, proj.Prefix)
	_, err = m.Build(ctx)
	require.NoError(t, err)

	out, ok := m.Written(addon)
	require.True(t, ok)
	assert.Equal(t, "/out/z_main.pbo", out.String())

	data, err := ws.ReadToString(out)
	require.NoError(t, err)

	container, err := pbo.Open([]byte(data))
	require.NoError(t, err)

	var names []string
	for _, h := range container.Files() {
		names = append(names, h.Filename)
	}
	assert.Contains(t, names, "config.bin")
	assert.Contains(t, names, "functions\\fnc_hello.sqf")
	assert.Contains(t, names, "data\\readme.txt")
	assert.NotContains(t, names, "config.cpp")
}
