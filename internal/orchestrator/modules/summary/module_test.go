package summary

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemtt-go/hemtt/internal/orchestrator"
	"github.com/hemtt-go/hemtt/internal/workspace"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	info := Info{
		Size:  300,
		PBOs:  []entry{{Name: "main.pbo", Size: 200}},
		Files: []entry{{Name: "README.md", Size: 100}},
	}

	decoded, err := decode(encode(info))
	require.NoError(t, err)
	assert.Equal(t, info, decoded)
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	data := encode(Info{Size: 1})
	data[0] = 99 // corrupt the version field's low byte

	_, err := decode(data)
	assert.Error(t, err)
}

func TestDecodeRejectsTruncatedData(t *testing.T) {
	data := encode(Info{Size: 1, PBOs: []entry{{Name: "a.pbo", Size: 5}}})
	_, err := decode(data[:len(data)-2])
	assert.Error(t, err)
}

func TestHumanSizeFormatting(t *testing.T) {
	assert.Equal(t, "512 B", humanSize(512))
	assert.Equal(t, "1.0 KiB", humanSize(1024))
	assert.Equal(t, "1.5 KiB", humanSize(1536))
}

func TestPostBuildReportsDeltaAgainstPreviousBuild(t *testing.T) {
	ws := workspace.New()
	ws.AddLayer(workspace.NewMemLayer("out"))
	out := ws.Path("/out")

	m := New()
	var lines []string
	m.Printf = func(format string, args ...any) {
		lines = append(lines, format)
	}
	ctx := &orchestrator.Context{Ctx: context.Background(), Workspace: ws, OutFolder: out}

	require.NoError(t, ws.CreateFile(out.Join("main.pbo"), make([]byte, 100)))
	_, err := m.PostBuild(ctx)
	require.NoError(t, err)
	assert.True(t, containsSubstring(lines, "Total"))

	require.NoError(t, ws.CreateFile(out.Join("main.pbo"), make([]byte, 250)))
	lines = nil
	_, err = m.PostBuild(ctx)
	require.NoError(t, err)
	assert.True(t, containsSubstring(lines, "from last build"))
}

func containsSubstring(lines []string, substr string) bool {
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}
