package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	r, err := Options{}.Resolve()
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, r.PollTimeout)
	assert.Equal(t, 500*time.Microsecond, r.RetryDelay)
	assert.Equal(t, 3, r.RetriesMax)
	assert.Equal(t, "-", r.SinkPath)
}

func TestLoadOptionsYAML(t *testing.T) {
	yamlDoc := `
program: myapp
sink_path: /tmp/x.log
retries_max: 5
`
	o, err := LoadOptions(strings.NewReader(yamlDoc))
	require.NoError(t, err)

	assert.Equal(t, "myapp", o.Program)
	assert.Equal(t, "/tmp/x.log", o.SinkPath)
	assert.Equal(t, 5, o.RetriesMax)
}

func TestResolveBadDuration(t *testing.T) {
	_, err := Options{PollTimeout: "not-a-duration"}.Resolve()
	assert.Error(t, err, "expected error for malformed poll_timeout")
}
