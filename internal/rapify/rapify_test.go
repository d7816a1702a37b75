package rapify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
class CfgPatches {
	class main {
		units[] = {};
		weapons[] = {};
		requiredVersion = 2.10;
	};
};
class CfgVehicles {
	class Man;
	class MyMan: Man {
		displayName = "Example";
		scope = 2;
		hiddenSelections[] = {"camo1", "camo2"};
	};
};
`

func TestParseBuildsClassTree(t *testing.T) {
	class, diags := Parse(sampleConfig, "config.cpp")
	require.Empty(t, diags)
	require.NotNil(t, class)

	var patches, vehicles *Class
	for _, prop := range class.Body {
		cp, ok := prop.(ClassProperty)
		if !ok {
			continue
		}
		switch cp.Class.Name {
		case "CfgPatches":
			patches = cp.Class
		case "CfgVehicles":
			vehicles = cp.Class
		}
	}
	require.NotNil(t, patches)
	require.NotNil(t, vehicles)

	var man *ClassProperty
	for _, prop := range vehicles.Body {
		if cp, ok := prop.(ClassProperty); ok && cp.Class.Name == "MyMan" {
			man = &cp
		}
	}
	require.NotNil(t, man)
	assert.Equal(t, "Man", man.Class.Parent)
}

func TestSimplifyAndRapifyRoundTrip(t *testing.T) {
	class, diags := Parse(sampleConfig, "config.cpp")
	require.Empty(t, diags)

	simplified := Simplify(class)
	require.NotEmpty(t, simplified.Entries)

	var buf bytes.Buffer
	require.NoError(t, WriteConfig(&buf, &RConfig{Root: simplified}))
	assert.NotEmpty(t, buf.Bytes())
	assert.Equal(t, "\x00raP", string(buf.Bytes()[:4]))

	decoded, err := ReadConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.NotNil(t, decoded.Root)
	assert.Len(t, decoded.Root.Entries, len(simplified.Entries))
}

func TestParseRecoversFromMissingSemicolon(t *testing.T) {
	src := `class CfgPatches { class main { units[] = {} weapons[] = {}; }; };`
	class, diags := Parse(src, "config.cpp")
	require.NotNil(t, class)

	var sawMissing bool
	for _, d := range diags {
		if d.Code == "MissingSemicolon" {
			sawMissing = true
		}
	}
	assert.True(t, sawMissing, "expected a MissingSemicolon diagnostic, got %v", diags)
}
