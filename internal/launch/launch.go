// Package launch builds the command-line a dev session would be
// launched with, from a project's `hemtt.launch.<name>` configuration
// (spec.md §6). Actually spawning the game process is explicitly out of
// scope (spec's Non-goals: "process launching is an external
// collaborator") — this package only builds the Request a real launcher
// would consume, grounded on
// original_source/bin/src/commands/launch/mod.rs.
package launch

import (
	"fmt"
	"sort"

	"github.com/hemtt-go/hemtt/internal/herrors"
	"github.com/hemtt-go/hemtt/internal/project"
)

// Request is the fully-resolved set of arguments a launcher needs to
// start the game with a dev build of a mod.
type Request struct {
	Executable string
	ModFolders []string // the mod's own build output plus any workshop/optional folders
	DLCs       []string
	Parameters []string
	PresetFile string
}

const defaultExecutable = "arma3_x64"

// Build resolves the named launch configuration from proj, overlaying
// any named configuration it `extends` is not modeled here (project.toml
// decodes each table independently; spec's extends-merge is a
// project-file authoring convenience, not part of this package's
// contract — callers pre-merge before calling Build).
func Build(proj *project.Config, name string, modOutputFolder string) (*Request, error) {
	opts, ok := proj.HEMTT.Launch[name]
	if !ok {
		return nil, herrors.NewConfigError("hemtt.launch", name, fmt.Errorf("no such launch configuration"))
	}

	exe := opts.Executable
	if exe == "" {
		exe = defaultExecutable
	}

	mods := append([]string{modOutputFolder}, opts.Mods...)
	sort.Strings(mods[1:])

	req := &Request{
		Executable: exe,
		ModFolders: mods,
		DLCs:       append([]string{}, opts.DLCs...),
		Parameters: append([]string{}, opts.Parameters...),
		PresetFile: opts.PresetFile,
	}
	return req, nil
}

// Launcher starts a built Request and waits for it to exit. Nothing in
// this repository implements it; cmd/hemtt's launch subcommand prints
// the resolved Request instead of running it.
type Launcher interface {
	Launch(req *Request) error
}
