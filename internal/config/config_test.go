// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.PurgeOnError || !cfg.SuspendDependants || cfg.QueuesStatic || cfg.StopWhenDone {
		t.Fatalf("cfg = %+v, want Defaults()", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected an error for a missing seed file")
	}
}

func TestLoadOverlaysSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.toml")
	body := `
purge_on_error = false
stop_when_done = true

[[queue_dependencies]]
queue = "b"
depends_on = ["a"]

[[queues]]
queue = "a"
configs = [{ kind = "internal", cmd = "true" }]
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PurgeOnError {
		t.Fatalf("PurgeOnError = true, want false (overlaid)")
	}
	if !cfg.SuspendDependants {
		t.Fatalf("SuspendDependants = false, want the default true to survive the overlay")
	}
	if len(cfg.QueueDependencies) != 1 || cfg.QueueDependencies[0].Queue != "b" {
		t.Fatalf("QueueDependencies = %+v", cfg.QueueDependencies)
	}
	if len(cfg.Queues) != 1 || cfg.Queues[0].Queue != "a" {
		t.Fatalf("Queues = %+v", cfg.Queues)
	}
}

func TestLoadRejectsStaticWithoutStopWhenDone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.toml")
	body := "queues_static = true\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected queues_static without stop_when_done to be rejected")
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cfg.QueuesStatic = true
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to reject queues_static without stop_when_done")
	}

	cfg.StopWhenDone = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
