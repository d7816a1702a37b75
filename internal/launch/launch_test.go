package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemtt-go/hemtt/internal/project"
)

func testProject() *project.Config {
	return &project.Config{
		HEMTT: project.HEMTT{
			Launch: map[string]project.LaunchOptions{
				"default": {
					DLCs:       []string{"contact"},
					Mods:       []string{"ace"},
					Parameters: []string{"-skipIntro", "-noSplash"},
					PresetFile: "main.html",
				},
				"custom-exe": {Executable: "arma3"},
			},
		},
	}
}

func TestBuildResolvesNamedConfiguration(t *testing.T) {
	req, err := Build(testProject(), "default", "/out/dev")
	require.NoError(t, err)

	assert.Equal(t, defaultExecutable, req.Executable)
	assert.Equal(t, []string{"contact"}, req.DLCs)
	assert.Equal(t, []string{"-skipIntro", "-noSplash"}, req.Parameters)
	assert.Equal(t, "main.html", req.PresetFile)
	assert.Contains(t, req.ModFolders, "/out/dev")
	assert.Contains(t, req.ModFolders, "ace")
}

func TestBuildUsesExplicitExecutable(t *testing.T) {
	req, err := Build(testProject(), "custom-exe", "/out/dev")
	require.NoError(t, err)
	assert.Equal(t, "arma3", req.Executable)
}

func TestBuildRejectsUnknownConfiguration(t *testing.T) {
	_, err := Build(testProject(), "nope", "/out/dev")
	assert.Error(t, err)
}
