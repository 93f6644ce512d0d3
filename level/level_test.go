package level

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromNameCanonical(t *testing.T) {
	cases := map[string]Level{
		"panic":    Panic,
		"alert":    Alert,
		"critical": Critical,
		"error":    Error,
		"warning":  Warning,
		"notice":   Notice,
		"output":   Output,
		"info":     Info,
		"debug":    Debug,
		"fine":     Fine,
		"trace":    Trace,
		"lowest":   Lowest,
	}
	for name, want := range cases {
		got, err := FromName(name)
		require.NoError(t, err, "FromName(%q)", name)
		assert.Equal(t, want, got, "FromName(%q)", name)
	}
}

func TestFromNameAliases(t *testing.T) {
	cases := map[string]Level{
		"emergency": Panic,
		"crit":      Critical,
		"err":       Error,
		"warn":      Warning,
		"out":       Output,
	}
	for alias, want := range cases {
		got, err := FromName(alias)
		require.NoError(t, err, "FromName(%q)", alias)
		assert.Equal(t, want, got, "FromName(%q)", alias)
	}
}

func TestFromNameUnknown(t *testing.T) {
	_, err := FromName("bogus")
	assert.Error(t, err)
}

func TestOrdering(t *testing.T) {
	assert.Less(t, Panic, Alert)
	assert.Less(t, Alert, Critical)
	assert.Greater(t, Lowest, Trace)
}

func TestLetterTable(t *testing.T) {
	want := "PACEWNOIDFTL"
	for i := Panic; i <= Lowest; i++ {
		assert.Equalf(t, want[i], i.Letter(), "Letter(%v)", i)
	}
}
