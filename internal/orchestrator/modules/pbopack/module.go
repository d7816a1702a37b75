// Package pbopack is the build-orchestrator module that packs each
// addon's rapified config, compiled scripts, and remaining files into a
// .pbo archive (spec.md §4.F), grounded on
// original_source/hemtt/src/addon/mod.rs's `build` step and
// original_source/bin/src/modules/pbo.rs for where packing sits in the
// pipeline.
package pbopack

import (
	"bytes"
	"io/fs"
	"strings"
	"sync"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/herrors"
	"github.com/hemtt-go/hemtt/internal/orchestrator"
	"github.com/hemtt-go/hemtt/internal/orchestrator/modules/rapify"
	"github.com/hemtt-go/hemtt/internal/orchestrator/modules/script"
	"github.com/hemtt-go/hemtt/internal/pbo"
	"github.com/hemtt-go/hemtt/internal/sqf"
	"github.com/hemtt-go/hemtt/internal/workspace"
)

// skipExt is file extensions never copied into a .pbo verbatim: they've
// already been rapified or compiled by an earlier module.
var skipExt = map[string]bool{
	".cpp": true, ".hpp": true, ".sqf": true,
}

// Module packs every addon's source tree into a .pbo in the project's
// output folder, substituting the rapify and script modules' compiled
// output for config.cpp and *.sqf respectively.
type Module struct {
	orchestrator.Base

	rapify *rapify.Module
	script *script.Module
	prefix string

	mu      sync.Mutex
	written map[*orchestrator.Addon]workspace.Path
}

// New builds the packing module. rapifyMod and scriptMod must have
// already run their Build hook (the pipeline's priority ordering
// guarantees this: rapify=100, script=110, pbopack=120).
func New(rapifyMod *rapify.Module, scriptMod *script.Module, prefix string) *Module {
	return &Module{
		rapify:  rapifyMod,
		script:  scriptMod,
		prefix:  prefix,
		written: make(map[*orchestrator.Addon]workspace.Path),
	}
}

func (m *Module) Name() string  { return "pbopack" }
func (m *Module) Priority() int { return 120 }

// Build packs each addon, writing its .pbo into ctx.OutFolder via
// temp-file-then-rename (the workspace's writable-layer contract).
func (m *Module) Build(ctx *orchestrator.Context) (orchestrator.Report, error) {
	var mu sync.Mutex
	var diags []diag.Diagnostic

	err := orchestrator.RunAddonWork(ctx, func(addon *orchestrator.Addon) error {
		w := pbo.NewWriter()
		w.AddExtension("prefix", addon.PBOName(m.prefix))

		if binary, ok := m.rapify.Binary(addon); ok {
			w.AddFile("config.bin", binary)
		}

		root := ctx.Workspace.Path(addon.Source())
		if err := ctx.Workspace.WalkDir(root, func(p workspace.Path, entry fs.DirEntry) error {
			if entry.IsDir() {
				return nil
			}
			rel := strings.TrimPrefix(p.String(), root.String()+"/")
			ext := strings.ToLower(p.Ext())
			switch {
			case ext == ".sqf":
				if compiled, ok := m.script.Compiled(p.String()); ok {
					bin, serErr := sqf.Serialize(compiled)
					if serErr != nil {
						return herrors.NewArchiveError("serialize-script", serErr)
					}
					w.AddFile(rel, bin)
				}
			case skipExt[ext]:
				// already represented via config.bin, or otherwise excluded.
			default:
				data, rerr := ctx.Workspace.ReadToString(p)
				if rerr != nil {
					return herrors.NewArchiveError("read-file", rerr)
				}
				w.AddFile(rel, []byte(data))
			}
			return nil
		}); err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := w.Write(&buf); err != nil {
			return herrors.NewArchiveError("write", err)
		}

		out := ctx.OutFolder.Join(addon.PBOName(m.prefix))
		if err := ctx.Workspace.CreateFile(out, buf.Bytes()); err != nil {
			return err
		}

		mu.Lock()
		m.written[addon] = out
		mu.Unlock()
		return nil
	})
	if err != nil {
		return orchestrator.Report{Diagnostics: diags}, err
	}
	return orchestrator.Report{Diagnostics: diags}, nil
}

// Written returns the output path the Build hook wrote addon's .pbo to.
func (m *Module) Written(addon *orchestrator.Addon) (workspace.Path, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.written[addon]
	return p, ok
}
