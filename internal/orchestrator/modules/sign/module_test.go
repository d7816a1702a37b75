package sign

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemtt-go/hemtt/internal/orchestrator"
	"github.com/hemtt-go/hemtt/internal/orchestrator/modules/pbopack"
	"github.com/hemtt-go/hemtt/internal/orchestrator/modules/rapify"
	"github.com/hemtt-go/hemtt/internal/orchestrator/modules/script"
	"github.com/hemtt-go/hemtt/internal/project"
	"github.com/hemtt-go/hemtt/internal/signing"
	"github.com/hemtt-go/hemtt/internal/sqf/commands"
	"github.com/hemtt-go/hemtt/internal/workspace"
)

func buildPackedAddon(t *testing.T) (*orchestrator.Context, *pbopack.Module, *orchestrator.Addon) {
	t.Helper()
	ws := workspace.New()
	ws.AddLayer(workspace.NewMemLayer("root"))
	require.NoError(t, ws.CreateFile(ws.Path("/addons/main/config.cpp"), []byte(`class CfgPatches { class main { units[] = {}; weapons[] = {}; }; };`)))

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

	packMod := pbopack.New(rapifyMod, scriptMod, proj.Prefix)
	_, err = packMod.Build(ctx)
	require.NoError(t, err)

	return ctx, packMod, addon
}

func TestModuleSignsPackedPBO(t *testing.T) {
	ctx, packMod, addon := buildPackedAddon(t)

	key, err := signing.GenerateKey(1024, "test_authority")
	require.NoError(t, err)

	m := New(packMod, key, "test_authority", signing.V3)
	_, err = m.Build(ctx)
	require.NoError(t, err)

	pboPath, ok := packMod.Written(addon)
	require.True(t, ok)

	sigPath := pboPath.Parent().Join(signing.FileName(pboPath.Base(), "test_authority"))
	assert.True(t, ctx.Workspace.Exists(sigPath))
}

func TestModuleWithNoKeyIsANoop(t *testing.T) {
	ctx, packMod, addon := buildPackedAddon(t)

	m := New(packMod, nil, "", 0)
	_, err := m.Build(ctx)
	require.NoError(t, err)

	pboPath, ok := packMod.Written(addon)
	require.True(t, ok)

	sigPath := pboPath.Parent().Join(signing.FileName(pboPath.Base(), "test_authority"))
	assert.False(t, ctx.Workspace.Exists(sigPath))
}
