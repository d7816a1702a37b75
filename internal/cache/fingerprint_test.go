package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintsChangedOnFirstSight(t *testing.T) {
	c := New()
	assert.True(t, c.Changed("/addons/main/config.cpp", []byte("class CfgPatches {};")))
}

func TestFingerprintsUnchangedAfterRecord(t *testing.T) {
	c := New()
	data := []byte("class CfgPatches {};")
	c.Record("/addons/main/config.cpp", data, time.Now())
	assert.False(t, c.Changed("/addons/main/config.cpp", data))
}

func TestFingerprintsChangedAfterEdit(t *testing.T) {
	c := New()
	c.Record("/addons/main/config.cpp", []byte("class CfgPatches {};"), time.Now())
	assert.True(t, c.Changed("/addons/main/config.cpp", []byte("class CfgPatches { units[] = {}; };")))
}

func TestFingerprintsForgetReturnsToFirstSight(t *testing.T) {
	c := New()
	data := []byte("class CfgPatches {};")
	c.Record("/addons/main/config.cpp", data, time.Now())
	c.Forget("/addons/main/config.cpp")
	assert.True(t, c.Changed("/addons/main/config.cpp", data))
}

func TestFingerprintsStatsCountsHitsAndMisses(t *testing.T) {
	c := New()
	data := []byte("class CfgPatches {};")
	c.Changed("/a.cpp", data)  // miss
	c.Record("/a.cpp", data, time.Now())
	c.Changed("/a.cpp", data)  // hit
	c.Changed("/a.cpp", data)  // hit

	stats := c.Stats()
	assert.EqualValues(t, 1, stats.Misses)
	assert.EqualValues(t, 2, stats.Hits)
}

func TestFingerprintsClearResetsStatsAndEntries(t *testing.T) {
	c := New()
	data := []byte("class CfgPatches {};")
	c.Record("/a.cpp", data, time.Now())
	c.Changed("/a.cpp", data)
	c.Clear()

	stats := c.Stats()
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.Misses)
	assert.True(t, c.Changed("/a.cpp", data))
}
