// Package config defines the Options surface callers use to Init the
// subsystem (spec.md §4.5). This is not a CLI (out of scope per
// spec.md §1); it is the plain, YAML-tagged struct the teacher's
// internal/config.Config uses for every component, stripped of flag
// parsing and hot-reload.
package config

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v2"
)

// Options configures Init. Duration fields are strings in the YAML
// representation (parsed with time.ParseDuration by Resolve),
// mirroring the teacher's string-duration convention in
// internal/config.Config (durations there are also parsed from strings,
// not decoded as native yaml.v2 durations).
type Options struct {
	Program    string `yaml:"program"`
	SinkPath   string `yaml:"sink_path"`

	PollTimeout string `yaml:"poll_timeout"`
	RetriesMax  int    `yaml:"retries_max"`
	RetryDelay  string `yaml:"retry_delay"`

	DataChannelCapacity int `yaml:"data_channel_capacity"`

	OpsAddr string `yaml:"ops_addr"` // empty disables the ops HTTP surface

	TracingBackend  string `yaml:"tracing_backend"`  // "otlp" or "jaeger"; empty selects otlp
	TracingEndpoint string `yaml:"tracing_endpoint"` // empty disables tracing
}

// Resolved is Options with its duration strings parsed and defaults
// applied.
type Resolved struct {
	Program             string
	SinkPath            string
	PollTimeout         time.Duration
	RetriesMax          int
	RetryDelay          time.Duration
	DataChannelCapacity int
	OpsAddr             string
	TracingBackend      string
	TracingEndpoint     string
}

// Default returns the spec-mandated defaults: 500ms poll timeout,
// RetriesMax=3, RetryDelay=500µs (spec.md §4.3, §4.4.2).
func Default() Options {
	return Options{
		Program:             "",
		SinkPath:            "-",
		PollTimeout:         "500ms",
		RetriesMax:          3,
		RetryDelay:          "500us",
		DataChannelCapacity: 1024,
	}
}

// Resolve parses duration strings and fills in any zero-valued field
// from Default().
func (o Options) Resolve() (Resolved, error) {
	d := Default()
	if o.Program != "" {
		d.Program = o.Program
	}
	if o.SinkPath != "" {
		d.SinkPath = o.SinkPath
	}
	if o.PollTimeout != "" {
		d.PollTimeout = o.PollTimeout
	}
	if o.RetriesMax != 0 {
		d.RetriesMax = o.RetriesMax
	}
	if o.RetryDelay != "" {
		d.RetryDelay = o.RetryDelay
	}
	if o.DataChannelCapacity != 0 {
		d.DataChannelCapacity = o.DataChannelCapacity
	}
	d.OpsAddr = o.OpsAddr
	d.TracingBackend = o.TracingBackend
	d.TracingEndpoint = o.TracingEndpoint

	poll, err := time.ParseDuration(d.PollTimeout)
	if err != nil {
		return Resolved{}, fmt.Errorf("config: poll_timeout: %w", err)
	}
	retryDelay, err := time.ParseDuration(d.RetryDelay)
	if err != nil {
		return Resolved{}, fmt.Errorf("config: retry_delay: %w", err)
	}

	return Resolved{
		Program:             d.Program,
		SinkPath:            d.SinkPath,
		PollTimeout:         poll,
		RetriesMax:          d.RetriesMax,
		RetryDelay:          retryDelay,
		DataChannelCapacity: d.DataChannelCapacity,
		OpsAddr:             d.OpsAddr,
		TracingBackend:      d.TracingBackend,
		TracingEndpoint:     d.TracingEndpoint,
	}, nil
}

// LoadOptions decodes YAML-encoded Options from r. Defaulting and
// duration parsing happen in Resolve, not here.
func LoadOptions(r io.Reader) (Options, error) {
	var o Options
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&o); err != nil {
		return Options{}, fmt.Errorf("config: decode: %w", err)
	}
	return o, nil
}
