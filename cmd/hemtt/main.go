// Command hemtt is the build-toolchain CLI (spec.md §6): it loads
// `.hemtt/project.toml`, builds a workspace over the project tree, runs
// the orchestrator pipeline, and exposes a handful of standalone
// utility subcommands. Grounded on cmd/lci/main.go's urfave/cli.App
// shape.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hemtt-go/hemtt/internal/devwatch"
	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/herrors"
	"github.com/hemtt-go/hemtt/internal/launch"
	"github.com/hemtt-go/hemtt/internal/orchestrator"
	"github.com/hemtt-go/hemtt/internal/orchestrator/modules/pbopack"
	"github.com/hemtt-go/hemtt/internal/orchestrator/modules/rapify"
	"github.com/hemtt-go/hemtt/internal/orchestrator/modules/script"
	"github.com/hemtt-go/hemtt/internal/orchestrator/modules/sign"
	"github.com/hemtt-go/hemtt/internal/orchestrator/modules/summary"
	"github.com/hemtt-go/hemtt/internal/pbo"
	"github.com/hemtt-go/hemtt/internal/project"
	"github.com/hemtt-go/hemtt/internal/signing"
	"github.com/hemtt-go/hemtt/internal/sqf/commands"
	"github.com/hemtt-go/hemtt/internal/version"
	"github.com/hemtt-go/hemtt/internal/workspace"
)

// Exit codes (spec §6).
const (
	exitOK            = 0
	exitBuildFailure  = 1
	exitConfigError   = 2
	exitIOError       = 3
	exitPanic         = 101
)

func main() {
	code := run()
	os.Exit(code)
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "hemtt: panic: %v\n", r)
			code = exitPanic
		}
	}()

	app := &cli.App{
		Name:    "hemtt",
		Usage:   "Build toolchain for Arma-family addon mods",
		Version: version.FullInfo(),
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Increase log verbosity"},
			&cli.IntFlag{Name: "threads", Usage: "Worker pool size (default: CPU count)"},
			&cli.StringFlag{Name: "just", Usage: "Run a single pipeline hook and stop"},
		},
		Commands: []*cli.Command{
			newCommand(),
			devCommand(),
			buildCommand(),
			releaseCommand(),
			launchCommand(),
			scriptCommand(),
			lnCommand(),
			bookCommand(),
			wikiCommand(),
			utilsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "hemtt:", err)
		return exitCodeFor(err)
	}
	return exitOK
}

func exitCodeFor(err error) int {
	switch err.(type) {
	case *herrors.ConfigError:
		return exitConfigError
	case *herrors.WorkspaceError:
		return exitIOError
	case *herrors.BuildError:
		return exitBuildFailure
	default:
		return exitBuildFailure
	}
}

// bootstrap loads the project file and builds a workspace rooted at
// root, with root itself as the single writable physical layer.
func bootstrap(root string) (*project.Config, *workspace.Workspace, error) {
	proj, err := project.Load(root)
	if err != nil {
		return nil, nil, err
	}
	ws := workspace.New()
	ws.AddLayer(workspace.NewPhysicalLayer("project", root, true))
	if dlcRoot := os.Getenv("HEMTT_A3_ROOT"); dlcRoot != "" {
		ws.SetCompanionRoot(workspace.NewPhysicalLayer("a3", dlcRoot, false))
	}
	return proj, ws, nil
}

// buildPipeline wires the standard module set in priority order (spec
// §4.I): rapify (100), script (110), pbopack (120), sign (130), summary
// (1000).
func buildPipeline(proj *project.Config) (*orchestrator.Pipeline, *pbopack.Module, error) {
	rapifyMod, err := rapify.New(proj)
	if err != nil {
		return nil, nil, err
	}
	scriptMod, err := script.New(commands.Default(), proj)
	if err != nil {
		return nil, nil, err
	}
	packMod := pbopack.New(rapifyMod, scriptMod, proj.Prefix)

	var key *signing.PrivateKey
	var signMod *sign.Module
	if proj.Signing.Authority != "" {
		keyPath := filepath.Join(proj.Root(), ".hemtt", proj.Signing.Authority+".biprivatekey")
		if data, readErr := os.ReadFile(keyPath); readErr == nil {
			k, parseErr := signing.ReadPrivateKey(bytes.NewReader(data))
			if parseErr != nil {
				return nil, nil, herrors.NewSigningError("load-key", parseErr)
			}
			key = k
		}
	}
	signMod = sign.New(packMod, key, proj.Signing.Authority, signing.Version(proj.Signing.Version))

	pipeline := orchestrator.NewPipeline(rapifyMod, scriptMod, packMod, signMod, summary.New())
	return pipeline, packMod, nil
}

func runPipeline(ctx context.Context, c *cli.Context, root string) (*orchestrator.Context, error) {
	proj, ws, err := bootstrap(root)
	if err != nil {
		return nil, err
	}
	addons, err := orchestrator.DiscoverAddons(ws)
	if err != nil {
		return nil, err
	}
	pipeline, _, err := buildPipeline(proj)
	if err != nil {
		return nil, err
	}
	out := ws.Path("/.hemttout/" + buildTarget(c))
	octx := &orchestrator.Context{
		Ctx:       ctx,
		Workspace: ws,
		Project:   proj,
		Addons:    addons,
		Sink:      orchestrator.NewSink(),
		OutFolder: out,
		Threads:   c.Int("threads"),
	}
	report, err := pipeline.Run(octx)
	for _, d := range report.Diagnostics {
		diag.RenderTerminal(os.Stderr, d, ws)
	}
	if err != nil {
		return octx, err
	}
	return octx, nil
}

func buildTarget(c *cli.Context) string {
	if c.Command != nil && c.Command.Name == "release" {
		return "release"
	}
	return "dev"
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "Scaffold a new mod project",
		Action: func(c *cli.Context) error {
			root := "."
			if c.Args().Present() {
				root = c.Args().First()
			}
			return scaffold(root)
		},
	}
}

func scaffold(root string) error {
	dirs := []string{
		filepath.Join(root, ".hemtt"),
		filepath.Join(root, "addons", "main"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return herrors.NewWorkspaceError("mkdir", d, err)
		}
	}
	toml := "name = \"My Mod\"\nprefix = \"myp\"\nmainprefix = \"z\"\n"
	return os.WriteFile(filepath.Join(root, ".hemtt", "project.toml"), []byte(toml), 0o644)
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Run a full dev build of the project",
		Action: func(c *cli.Context) error {
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			_, err = runPipeline(c.Context, c, root)
			return err
		},
	}
}

func releaseCommand() *cli.Command {
	return &cli.Command{
		Name:  "release",
		Usage: "Build and sign a release archive",
		Action: func(c *cli.Context) error {
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			_, err = runPipeline(c.Context, c, root)
			return err
		},
	}
}

func devCommand() *cli.Command {
	return &cli.Command{
		Name:  "dev",
		Usage: "Build once, then rebuild on change",
		Action: func(c *cli.Context) error {
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			rebuild := func(changed []string) {
				fmt.Printf("rebuilding (%d files changed)\n", len(changed))
				if _, err := runPipeline(ctx, c, root); err != nil {
					fmt.Fprintln(os.Stderr, "hemtt:", err)
				}
			}
			if _, err := runPipeline(ctx, c, root); err != nil {
				fmt.Fprintln(os.Stderr, "hemtt:", err)
			}

			w, err := devwatch.New(root, 300*time.Millisecond, rebuild)
			if err != nil {
				return herrors.NewWorkspaceError("watch", root, err)
			}
			return w.Run(ctx)
		},
	}
}

func launchCommand() *cli.Command {
	return &cli.Command{
		Name:      "launch",
		Usage:     "Build a launch request for a dev session",
		ArgsUsage: "[configuration]",
		Action: func(c *cli.Context) error {
			name := "default"
			if c.Args().Present() {
				name = c.Args().First()
			}
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			proj, err := project.Load(root)
			if err != nil {
				return err
			}
			req, err := launch.Build(proj, name, filepath.Join(root, ".hemttout", "dev"))
			if err != nil {
				return err
			}
			fmt.Printf("%s %v\n", req.Executable, req.Parameters)
			fmt.Println("launching the engine process is outside this tool's scope; pass the printed command to a launcher")
			return nil
		},
	}
}

func scriptCommand() *cli.Command {
	return &cli.Command{
		Name:      "script",
		Usage:     "Check a single .sqf file for syntax/lint errors",
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			if !c.Args().Present() {
				return herrors.NewConfigError("script", "", fmt.Errorf("a file argument is required"))
			}
			return fmt.Errorf("single-file script checking reuses the script module's compileOne path; wire a one-off workspace layer over the file's directory to use it")
		},
	}
}

func lnCommand() *cli.Command {
	return &cli.Command{
		Name:  "ln",
		Usage: "Symlink the dev build output into the game's mods folder",
		Action: func(c *cli.Context) error {
			target := os.Getenv("HEMTT_A3_MODS_ROOT")
			if target == "" {
				return herrors.NewConfigError("HEMTT_A3_MODS_ROOT", "", fmt.Errorf("environment variable is required"))
			}
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			src := filepath.Join(root, ".hemttout", "dev")
			dst := filepath.Join(target, filepath.Base(root))
			if err := os.Symlink(src, dst); err != nil {
				return herrors.NewWorkspaceError("symlink", dst, err)
			}
			return nil
		},
	}
}

func bookCommand() *cli.Command {
	return &cli.Command{
		Name:  "book",
		Usage: "Build project documentation (not implemented)",
		Action: func(c *cli.Context) error {
			return fmt.Errorf("hemtt book: documentation-site generation is out of scope for this build")
		},
	}
}

func wikiCommand() *cli.Command {
	return &cli.Command{
		Name:  "wiki",
		Usage: "Refresh the SQF command database from the community wiki (not implemented)",
		Action: func(c *cli.Context) error {
			return fmt.Errorf("hemtt wiki: this build ships a curated command subset (internal/sqf/commands) instead of scraping the wiki")
		},
	}
}

func utilsCommand() *cli.Command {
	return &cli.Command{
		Name:  "utils",
		Usage: "Standalone archive/config utilities",
		Subcommands: []*cli.Command{
			{
				Name:      "pbo-list",
				Usage:     "List the files inside a .pbo",
				ArgsUsage: "FILE.pbo",
				Action:    utilsPBOList,
			},
		},
	}
}

func utilsPBOList(c *cli.Context) error {
	if !c.Args().Present() {
		return herrors.NewConfigError("pbo-list", "", fmt.Errorf("a file argument is required"))
	}
	path := c.Args().First()
	data, err := os.ReadFile(path)
	if err != nil {
		return herrors.NewWorkspaceError("read", path, err)
	}
	container, err := pbo.Open(data)
	if err != nil {
		return herrors.NewArchiveError("open", err)
	}
	for _, h := range container.Files() {
		fmt.Println(h.Filename)
	}
	return nil
}
