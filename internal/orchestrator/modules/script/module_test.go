package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemtt-go/hemtt/internal/orchestrator"
	"github.com/hemtt-go/hemtt/internal/project"
	"github.com/hemtt-go/hemtt/internal/sqf"
	"github.com/hemtt-go/hemtt/internal/sqf/commands"
	"github.com/hemtt-go/hemtt/internal/workspace"
)

func newTestWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws := workspace.New()
	ws.AddLayer(workspace.NewMemLayer("source"))
	return ws
}

func TestModuleBuildCompilesScriptsAndRecordsDefinedFunctions(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, ws.CreateFile(ws.Path("/addons/main/functions/fnc_hello.sqf"), []byte(`params ["_x"]; _x + 1;`)))

	proj := &project.Config{Prefix: "z"}
	m, err := New(commands.Default(), proj)
	require.NoError(t, err)

	addon := &orchestrator.Addon{Name: "main", Location: orchestrator.Addons, Build: orchestrator.NewBuildData()}
	ctx := &orchestrator.Context{
		Ctx:       context.Background(),
		Workspace: ws,
		Addons:    []*orchestrator.Addon{addon},
		Threads:   1,
	}

	report, err := m.Build(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Diagnostics)

	assert.True(t, addon.Build.FunctionDefined("fnc_hello"))

	compiled, ok := m.Compiled("/addons/main/functions/fnc_hello.sqf")
	require.True(t, ok)
	assert.NotEmpty(t, compiled.Constants)

	bin, err := sqf.Serialize(compiled)
	require.NoError(t, err)
	assert.NotEmpty(t, bin)
}

func TestModuleBuildSkipsNonSQFFiles(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, ws.CreateFile(ws.Path("/addons/main/config.cpp"), []byte("class CfgPatches {};")))

	proj := &project.Config{Prefix: "z"}
	m, err := New(commands.Default(), proj)
	require.NoError(t, err)

	addon := &orchestrator.Addon{Name: "main", Location: orchestrator.Addons, Build: orchestrator.NewBuildData()}
	ctx := &orchestrator.Context{
		Ctx:       context.Background(),
		Workspace: ws,
		Addons:    []*orchestrator.Addon{addon},
		Threads:   1,
	}

	_, err = m.Build(ctx)
	require.NoError(t, err)
	assert.Empty(t, addon.Build.FunctionsDefined())
}
