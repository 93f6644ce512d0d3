package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ssw-corelog/level"
)

// TestConfigureFilterCorrectness implements spec.md §8 invariant 3.
func TestConfigureFilterCorrectness(t *testing.T) {
	r := New()
	abx := NewLogger("a.b.x", level.Lowest)
	ac := NewLogger("a.c", level.Lowest)
	ab := NewLogger("a.b", level.Lowest)
	z := NewLogger("z", level.Lowest)
	for _, l := range []*Logger{abx, ac, ab, z} {
		r.Register(l)
	}

	r.Configure([]Rule{
		{Prefix: "", Level: level.Lowest},
		{Prefix: "a", Level: level.Output},
		{Prefix: "a.b", Level: level.Warning},
	})

	assert.False(t, abx.IsEnabledFor(level.Info), "a.b.x at info should be filtered out")
	assert.False(t, ac.IsEnabledFor(level.Debug), "a.c at debug should be filtered out")
	assert.True(t, ab.IsEnabledFor(level.Warning), "a.b at warning should produce output")
	assert.True(t, z.IsEnabledFor(level.Debug), "z at debug should produce output (matches only empty prefix)")
}

func TestDuplicateNamesAllowed(t *testing.T) {
	r := New()
	a1 := NewLogger("dup", level.Info)
	a2 := NewLogger("dup", level.Info)
	r.Register(a1)
	r.Register(a2)

	r.Configure([]Rule{{Prefix: "dup", Level: level.Error}})

	assert.Equal(t, level.Error, a1.Level())
	assert.Equal(t, level.Error, a2.Level())
}

func TestUnregister(t *testing.T) {
	r := New()
	l := NewLogger("x", level.Info)
	r.Register(l)
	r.Unregister(l)
	assert.Empty(t, r.Snapshot())
}

func TestLevelForNameCacheInvalidation(t *testing.T) {
	r := New()
	l := NewLogger("svc", level.Info)
	r.Register(l)
	r.Configure([]Rule{{Prefix: "svc", Level: level.Debug}})

	got, ok := r.LevelForName("svc")
	assert.True(t, ok)
	assert.Equal(t, level.Debug, got)

	r.Configure([]Rule{{Prefix: "svc", Level: level.Error}})
	got, ok = r.LevelForName("svc")
	assert.True(t, ok)
	assert.Equal(t, level.Error, got)
}

func TestLevelForNameUnknown(t *testing.T) {
	r := New()
	_, ok := r.LevelForName("nope")
	assert.False(t, ok, "expected false for unregistered name")
}
