package lints

import (
	"fmt"
	"strings"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/lint"
	"github.com/hemtt-go/hemtt/internal/rapify"
)

// publicScopeSections lists the top-level classes whose scope=2
// entries must be registered under some cfgPatches addon's units[] or
// weapons[] array, keyed to which cfgPatches array they belong in.
var publicScopeSections = map[string]string{
	"CfgVehicles": "units",
	"CfgWeapons":  "weapons",
}

// CfgPatchesScope is spec §4.D's "CfgPatches scope": every public
// (scope=2) class whose name begins with the project prefix must
// appear in some cfgPatches units[]/weapons[] array. The converse is not
// checked: a name listed in units[]/weapons[] is not required to match
// a defined class. This lint needs the whole tree at once, so it is written to fire
// only when the dispatched node is the parsed file's root class.
type CfgPatchesScope struct{}

func (CfgPatchesScope) Ident() string { return "C15" }

func (CfgPatchesScope) DefaultConfig() lint.Config {
	return lint.Config{Enabled: true, Severity: diag.SeverityError}
}

func (CfgPatchesScope) MinimumSeverity() diag.Severity { return diag.SeverityWarning }

func (CfgPatchesScope) Run(rc *lint.RunContext, c *rapify.Class) []diag.Diagnostic {
	scope, ok := rc.Scope.(*Scope)
	if !ok || c != scope.Root {
		return nil
	}
	if scope.Prefix == "" {
		return nil
	}

	registered := make(map[string]map[string]bool) // section -> lower(name) -> true
	patches := FindClass(scope.Root, "CfgPatches")
	if patches != nil {
		for _, p := range patches.Body {
			cp, ok := p.(rapify.ClassProperty)
			if !ok || cp.Class == nil {
				continue
			}
			for section := range publicScopeSections {
				arrayName := publicScopeSections[section]
				if ep, found := EntryValue(cp.Class, arrayName); found {
					if registered[section] == nil {
						registered[section] = make(map[string]bool)
					}
					for _, name := range StringItems(ep.Value) {
						registered[section][strings.ToLower(name)] = true
					}
				}
			}
		}
	}

	var out []diag.Diagnostic
	for section := range publicScopeSections {
		top := FindClass(scope.Root, section)
		if top == nil {
			continue
		}
		for _, p := range top.Body {
			cp, ok := p.(rapify.ClassProperty)
			if !ok || cp.Class == nil {
				continue
			}
			cls := cp.Class
			if !strings.HasPrefix(strings.ToLower(cls.Name), strings.ToLower(scope.Prefix)) {
				continue
			}
			if !isPublicScope(cls) {
				continue
			}
			if registered[section] == nil || !registered[section][strings.ToLower(cls.Name)] {
				out = append(out, diag.Diagnostic{
					Code:    "L-C15",
					Message: fmt.Sprintf("public class %q is not registered in cfgPatches %s[]", cls.Name, publicScopeSections[section]),
					Labels:  []diag.Label{{File: cls.Pos.File, Span: cls.Pos, Style: diag.Primary}},
				})
			}
		}
	}
	return out
}

func isPublicScope(c *rapify.Class) bool {
	ep, ok := EntryValue(c, "scope")
	if !ok {
		return false
	}
	n, ok := ep.Value.(rapify.NumberValue)
	if !ok {
		return false
	}
	return n.Int == 2
}
