package preprocessor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hemtt-go/hemtt/internal/workspace"
)

func newTestWorkspace(t *testing.T, files map[string]string) *workspace.Workspace {
	t.Helper()
	ws := workspace.New()
	layer := workspace.NewMemLayer("mem")
	ws.AddLayer(layer)
	for name, content := range files {
		p := ws.Path(name)
		require.NoError(t, ws.CreateFile(p, []byte(content)))
	}
	return ws
}

func TestSelfReferencingMacroEmitsLiterally(t *testing.T) {
	ws := newTestWorkspace(t, map[string]string{
		"/main.cpp": "#define X X\nX\n",
	})
	out, err := Process(ws, ws.Path("/main.cpp"))
	require.NoError(t, err)
	require.Equal(t, "X\n", out.Text)
}

func TestObjectMacroExpansion(t *testing.T) {
	ws := newTestWorkspace(t, map[string]string{
		"/main.cpp": "#define VALUE 42\nnumber = VALUE;\n",
	})
	out, err := Process(ws, ws.Path("/main.cpp"))
	require.NoError(t, err)
	require.Equal(t, "number = 42;\n", out.Text)
}

func TestFunctionMacroWithArgs(t *testing.T) {
	ws := newTestWorkspace(t, map[string]string{
		"/main.cpp": "#define ADD(a,b) a + b\nresult = ADD(1,2);\n",
	})
	out, err := Process(ws, ws.Path("/main.cpp"))
	require.NoError(t, err)
	require.Equal(t, "result = 1 + 2;\n", out.Text)
}

func TestStringizing(t *testing.T) {
	ws := newTestWorkspace(t, map[string]string{
		"/main.cpp": "#define QUOTE(x) #x\nname = QUOTE(hello);\n",
	})
	out, err := Process(ws, ws.Path("/main.cpp"))
	require.NoError(t, err)
	require.Equal(t, "name = \"hello\";\n", out.Text)
}

func TestTokenPaste(t *testing.T) {
	ws := newTestWorkspace(t, map[string]string{
		"/main.cpp": "#define CAT(a,b) a##b\nx = CAT(foo,bar);\n",
	})
	out, err := Process(ws, ws.Path("/main.cpp"))
	require.NoError(t, err)
	require.Equal(t, "x = foobar;\n", out.Text)
}

func TestIfdefElseEndif(t *testing.T) {
	ws := newTestWorkspace(t, map[string]string{
		"/main.cpp": "#define FOO\n#ifdef FOO\nyes\n#else\nno\n#endif\n",
	})
	out, err := Process(ws, ws.Path("/main.cpp"))
	require.NoError(t, err)
	require.Equal(t, "yes\n", out.Text)
}

func TestIfndefTakesElseBranchWhenDefined(t *testing.T) {
	ws := newTestWorkspace(t, map[string]string{
		"/main.cpp": "#define FOO\n#ifndef FOO\nyes\n#else\nno\n#endif\n",
	})
	out, err := Process(ws, ws.Path("/main.cpp"))
	require.NoError(t, err)
	require.Equal(t, "no\n", out.Text)
}

func TestInclude(t *testing.T) {
	ws := newTestWorkspace(t, map[string]string{
		"/main.cpp": "#include \"other.hpp\"\n",
		"/other.hpp": "included = 1;\n",
	})
	out, err := Process(ws, ws.Path("/main.cpp"))
	require.NoError(t, err)
	require.Equal(t, "included = 1;\n", out.Text)
}

func TestPragmaOncePreventsReinclusion(t *testing.T) {
	ws := newTestWorkspace(t, map[string]string{
		"/main.cpp": "#include \"shared.hpp\"\n#include \"shared.hpp\"\n",
		"/shared.hpp": "#pragma once\nvalue = 1;\n",
	})
	out, err := Process(ws, ws.Path("/main.cpp"))
	require.NoError(t, err)
	require.Equal(t, "value = 1;\n", out.Text)
}

func TestStringLiteralSuppressesExpansion(t *testing.T) {
	ws := newTestWorkspace(t, map[string]string{
		"/main.cpp": "#define X 1\ntext = \"X\";\n",
	})
	out, err := Process(ws, ws.Path("/main.cpp"))
	require.NoError(t, err)
	require.Equal(t, "text = \"X\";\n", out.Text)
}

func TestMappingResolvesMacroExpansionToCallSite(t *testing.T) {
	ws := newTestWorkspace(t, map[string]string{
		"/main.cpp": "#define VALUE 42\nn = VALUE;\n",
	})
	out, err := Process(ws, ws.Path("/main.cpp"))
	require.NoError(t, err)

	idx := len("n = ")
	m, ok := out.Mapping(idx)
	require.True(t, ok)
	require.True(t, m.WasMacro)
	require.Equal(t, 2, m.Original.Start.Line)
}
