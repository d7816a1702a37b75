// Package sign is the build-orchestrator module that signs each
// addon's packed .pbo under the project's signing key (spec.md §4.G),
// grounded on original_source/bin/src/commands/build/mod.rs's
// sign-after-pack step.
package sign

import (
	"bytes"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/herrors"
	"github.com/hemtt-go/hemtt/internal/orchestrator"
	"github.com/hemtt-go/hemtt/internal/orchestrator/modules/pbopack"
	"github.com/hemtt-go/hemtt/internal/pbo"
	"github.com/hemtt-go/hemtt/internal/signing"
)

// Module signs every packed .pbo with the project's private key,
// writing a sibling `.{authority}.bisign` file (spec §6 "signing:
// {authority, version, private_key_hash}").
type Module struct {
	orchestrator.Base

	pack      *pbopack.Module
	key       *signing.PrivateKey
	authority string
	version   signing.Version
}

// New builds the sign module. A nil key means the project declared no
// signing section; Build then becomes a no-op (spec §4.G "signing is
// optional; unsigned builds are valid for local development").
func New(pack *pbopack.Module, key *signing.PrivateKey, authority string, version signing.Version) *Module {
	return &Module{pack: pack, key: key, authority: authority, version: version}
}

func (m *Module) Name() string  { return "sign" }
func (m *Module) Priority() int { return 130 }

func (m *Module) PreRelease(ctx *orchestrator.Context) (orchestrator.Report, error) {
	return m.Build(ctx)
}

// Build signs each addon's packed .pbo, reading it back from the
// workspace's writable layer (the pbopack module already wrote it).
func (m *Module) Build(ctx *orchestrator.Context) (orchestrator.Report, error) {
	if m.key == nil {
		return orchestrator.Report{}, nil
	}
	var diags []diag.Diagnostic
	err := orchestrator.RunAddonWork(ctx, func(addon *orchestrator.Addon) error {
		pboPath, ok := m.pack.Written(addon)
		if !ok {
			return nil
		}
		data, err := ctx.Workspace.ReadToString(pboPath)
		if err != nil {
			return herrors.NewWorkspaceError("read", pboPath.String(), err)
		}
		container, err := pbo.Open([]byte(data))
		if err != nil {
			return herrors.NewArchiveError("reopen-for-sign", err)
		}
		sig, err := m.key.Sign(container, m.version)
		if err != nil {
			return herrors.NewSigningError("sign-failed", err)
		}

		var buf bytes.Buffer
		if err := sig.Write(&buf); err != nil {
			return herrors.NewSigningError("write-signature", err)
		}

		sigName := signing.FileName(pboPath.Base(), m.authority)
		sigPath := pboPath.Parent().Join(sigName)
		return ctx.Workspace.CreateFile(sigPath, buf.Bytes())
	})
	if err != nil {
		return orchestrator.Report{Diagnostics: diags}, err
	}
	return orchestrator.Report{Diagnostics: diags}, nil
}
