package lints

import (
	"fmt"
	"path"
	"strings"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/lint"
	"github.com/hemtt-go/hemtt/internal/rapify"
)

// fileTypeProperties maps the entry name prefixes spec §4.D names
// ("model", "picture", "sound*", "editorPreview") to the extensions
// that entry is allowed to carry.
var fileTypeProperties = map[string][]string{
	"model":         {"p3d"},
	"picture":       {"paa", "pac", "jpg", "jpeg"},
	"editorpreview": {"paa", "pac", "jpg", "jpeg"},
	"sound":         {"wss", "ogg", "wav"},
}

// FileType is spec §4.D's "File type" lint: property names like model,
// picture, sound*, editorPreview must carry an extension from a fixed
// allow-list; the `allow_no_extension` option silences the case where
// the extension is absent entirely (e.g. a macro-substituted path).
type FileType struct{}

func (FileType) Ident() string { return "C11" }

func (FileType) DefaultConfig() lint.Config {
	return lint.Config{Enabled: true, Severity: diag.SeverityWarning, Options: map[string]any{"allow_no_extension": false}}
}

func (FileType) MinimumSeverity() diag.Severity { return diag.SeverityNote }

func (FileType) Run(rc *lint.RunContext, ep rapify.EntryProperty) []diag.Diagnostic {
	str, ok := ep.Value.(rapify.StringValue)
	if !ok || str.Text == "" {
		return nil
	}
	allowed, matched := matchFileTypeProperty(ep.Name)
	if !matched {
		return nil
	}

	allowNoExt := false
	if rc != nil {
		if cfg, found := rc.Overrides["C11"]; found {
			if v, ok := cfg.Options["allow_no_extension"].(bool); ok {
				allowNoExt = v
			}
		}
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(str.Text)), ".")
	if ext == "" {
		if allowNoExt {
			return nil
		}
		return []diag.Diagnostic{{
			Code:    "L-C11",
			Message: fmt.Sprintf("%q has no file extension, expected one of %v", ep.Name, allowed),
			Labels:  []diag.Label{{File: str.Pos.File, Span: str.Pos, Style: diag.Primary}},
		}}
	}
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return []diag.Diagnostic{{
		Code:    "L-C11",
		Message: fmt.Sprintf("%q references %q, expected extension in %v", ep.Name, str.Text, allowed),
		Labels:  []diag.Label{{File: str.Pos.File, Span: str.Pos, Style: diag.Primary}},
	}}
}

func matchFileTypeProperty(name string) ([]string, bool) {
	lower := strings.ToLower(name)
	if allowed, ok := fileTypeProperties[lower]; ok {
		return allowed, true
	}
	if strings.HasPrefix(lower, "sound") {
		return fileTypeProperties["sound"], true
	}
	return nil, false
}
