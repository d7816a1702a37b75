package lints

import (
	"fmt"
	"strings"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/lint"
	"github.com/hemtt-go/hemtt/internal/rapify"
)

// MagazinewellMissingMagazine is spec §4.D's "Magazinewell missing
// magazine": every string in a cfgMagazineWells array beginning with
// the project prefix must be defined in cfgMagazines. Whole-tree, fires
// once at the root like CfgPatchesScope.
type MagazinewellMissingMagazine struct{}

func (MagazinewellMissingMagazine) Ident() string { return "C16" }

func (MagazinewellMissingMagazine) DefaultConfig() lint.Config {
	return lint.Config{Enabled: true, Severity: diag.SeverityError}
}

func (MagazinewellMissingMagazine) MinimumSeverity() diag.Severity { return diag.SeverityWarning }

func (MagazinewellMissingMagazine) Run(rc *lint.RunContext, c *rapify.Class) []diag.Diagnostic {
	scope, ok := rc.Scope.(*Scope)
	if !ok || c != scope.Root {
		return nil
	}
	if scope.Prefix == "" {
		return nil
	}

	defined := make(map[string]bool)
	if mags := FindClass(scope.Root, "CfgMagazines"); mags != nil {
		for _, p := range mags.Body {
			if cp, ok := p.(rapify.ClassProperty); ok && cp.Class != nil {
				defined[strings.ToLower(cp.Class.Name)] = true
			}
		}
	}

	wells := FindClass(scope.Root, "CfgMagazineWells")
	if wells == nil {
		return nil
	}
	var out []diag.Diagnostic
	for _, p := range wells.Body {
		well, ok := p.(rapify.ClassProperty)
		if !ok || well.Class == nil {
			continue
		}
		for _, slotProp := range well.Class.Body {
			slot, ok := slotProp.(rapify.ClassProperty)
			if !ok || slot.Class == nil {
				continue
			}
			for _, entryProp := range slot.Class.Body {
				ep, ok := entryProp.(rapify.EntryProperty)
				if !ok {
					continue
				}
				for _, name := range StringItems(ep.Value) {
					if !strings.HasPrefix(strings.ToLower(name), strings.ToLower(scope.Prefix)) {
						continue
					}
					if !defined[strings.ToLower(name)] {
						out = append(out, diag.Diagnostic{
							Code:    "L-C16",
							Message: fmt.Sprintf("magazine %q referenced in cfgMagazineWells is not defined in cfgMagazines", name),
							Labels:  []diag.Label{{File: ep.Pos.File, Span: ep.Pos, Style: diag.Primary}},
						})
					}
				}
			}
		}
	}
	return out
}
