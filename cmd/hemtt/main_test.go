package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemtt-go/hemtt/internal/herrors"
)

func TestExitCodeForMapsKnownErrorTypes(t *testing.T) {
	assert.Equal(t, exitConfigError, exitCodeFor(herrors.NewConfigError("prefix", "", errors.New("bad"))))
	assert.Equal(t, exitIOError, exitCodeFor(herrors.NewWorkspaceError("read", "/addons/main", errors.New("gone"))))
	assert.Equal(t, exitBuildFailure, exitCodeFor(herrors.NewBuildError("build", errors.New("failed"))))
	assert.Equal(t, exitBuildFailure, exitCodeFor(errors.New("unclassified")))
}

func TestScaffoldCreatesProjectSkeleton(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, scaffold(root))

	assert.DirExists(t, filepath.Join(root, ".hemtt"))
	assert.DirExists(t, filepath.Join(root, "addons", "main"))

	data, err := os.ReadFile(filepath.Join(root, ".hemtt", "project.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "prefix = \"myp\"")
}
