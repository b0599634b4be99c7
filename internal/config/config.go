// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package config

// This file implements the scheduler's process-wide options, combining
// flag/envflag process options with a TOML seed file for the
// longer-lived, structured settings (queues, queue_dependencies) that
// don't belong on a command line.

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
)

// Dependency is one (queue, [dependencies]) pair from the queue_dependencies
// option.
type Dependency struct {
	Queue     string   `toml:"queue"`
	DependsOn []string `toml:"depends_on"`
}

// SeedQueue is one (queue, [configs]) pair from the queues seed option. The
// configs are left as raw TOML tables; cmd/scheduler turns each one into
// an inline-shaped queue.Config.
type SeedQueue struct {
	Queue   string                   `toml:"queue"`
	Configs []map[string]interface{} `toml:"configs"`
}

// Config is the scheduler's process-wide set of options.
type Config struct {
	PurgeOnError      bool         `toml:"purge_on_error"`
	SuspendDependants bool         `toml:"suspend_dependants"`
	QueuesStatic      bool         `toml:"queues_static"`
	StopWhenDone      bool         `toml:"stop_when_done"`
	Queues            []SeedQueue  `toml:"queues"`
	QueueDependencies []Dependency `toml:"queue_dependencies"`

	// MetricsAddress is the ambient prometheus metrics server bind address.
	MetricsAddress string `toml:"metrics_address"`

	// WireAddress is the HTTP bind address for the C6 command surface.
	WireAddress string `toml:"wire_address"`
}

// Defaults returns a Config populated with the scheduler's defaults.
func Defaults() *Config {
	return &Config{
		PurgeOnError:      true,
		SuspendDependants: true,
		QueuesStatic:      false,
		StopWhenDone:      false,
		MetricsAddress:    ":9090",
		WireAddress:       ":8080",
	}
}

// Load reads a TOML seed file at path, overlaying it onto the defaults.
// An empty path is not an error; it simply returns the defaults, so a
// process can run with no seed file at all.
func Load(path string) (cfg *Config, err kv.Error) {
	cfg = Defaults()

	if len(path) == 0 {
		return cfg, nil
	}

	if _, errGo := os.Stat(path); errGo != nil {
		return nil, kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime()).With("path", path)
	}

	if _, errGo := toml.DecodeFile(path, cfg); errGo != nil {
		return nil, kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime()).With("path", path)
	}

	if cfg.QueuesStatic && !cfg.StopWhenDone {
		return nil, kv.NewError("queues_static requires stop_when_done").With("stack", stack.Trace().TrimRuntime()).With("path", path)
	}

	return cfg, nil
}

// Validate checks the one structural requirement seed-init imposes: a
// static queue set must also stop when drained.
func (c *Config) Validate() (err kv.Error) {
	if c.QueuesStatic && !c.StopWhenDone {
		return kv.NewError("queues_static requires stop_when_done").With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}
