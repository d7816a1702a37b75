package orchestrator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddonNameAcceptsStandardCharacters(t *testing.T) {
	assert.NoError(t, ValidateAddonName("my_addon"))
}

func TestValidateAddonNameAcceptsAllowedButUnusualCharacters(t *testing.T) {
	assert.NoError(t, ValidateAddonName("My-Addon"))
}

func TestValidateAddonNameRejectsOtherCharacters(t *testing.T) {
	assert.Error(t, ValidateAddonName("my addon!"))
}

func TestAddonPBOName(t *testing.T) {
	a := &Addon{Name: "main"}
	assert.Equal(t, "main.pbo", a.PBOName(""))
	assert.Equal(t, "z_main.pbo", a.PBOName("z"))
}

func TestAddonSource(t *testing.T) {
	a := &Addon{Name: "main", Location: Optionals}
	assert.Equal(t, "optionals/main", a.Source())
}

func TestBuildDataFunctionsDefinedIsSortedAndDeduplicated(t *testing.T) {
	b := NewBuildData()
	b.AddFunctionDefined("fnc_b")
	b.AddFunctionDefined("fnc_a")
	b.AddFunctionDefined("fnc_b")

	assert.Equal(t, []string{"fnc_a", "fnc_b"}, b.FunctionsDefined())
	assert.True(t, b.FunctionDefined("fnc_a"))
	assert.False(t, b.FunctionDefined("fnc_c"))
}

func TestBuildDataFunctionsDefinedSetIsASnapshot(t *testing.T) {
	b := NewBuildData()
	b.AddFunctionDefined("fnc_a")

	set := b.FunctionsDefinedSet()
	b.AddFunctionDefined("fnc_b")

	assert.True(t, set["fnc_a"])
	assert.False(t, set["fnc_b"], "the snapshot must not observe writes made after it was taken")
}

func TestBuildDataRequiredVersionTracksHighest(t *testing.T) {
	b := NewBuildData()
	b.SetRequiredVersion("1.8")
	b.SetRequiredVersion("2.10")
	b.SetRequiredVersion("2.2")

	assert.Equal(t, "2.10", b.RequiredVersion())
}

func TestBuildDataFieldsAreIndependentlyLockable(t *testing.T) {
	b := NewBuildData()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			b.AddLocalization("stringtable.xml")
		}(i)
		go func(i int) {
			defer wg.Done()
			b.AddFunctionUsed("fnc_used")
		}(i)
	}
	wg.Wait()

	assert.Len(t, b.Localizations(), 50)
	assert.Equal(t, []string{"fnc_used"}, b.FunctionsUsed())
}

func TestBuildDataMagazinewellsAreDeepCopied(t *testing.T) {
	b := NewBuildData()
	b.AddMagazinewell("Well_1", []string{"30Rnd_mag"})

	snapshot := b.Magazinewells()
	snapshot["Well_1"] = append(snapshot["Well_1"], "mutated")

	assert.Equal(t, []string{"30Rnd_mag"}, b.Magazinewells()["Well_1"])
}
