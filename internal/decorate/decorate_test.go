// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package decorate

import (
	"testing"

	"github.com/leaf-ai/batch-scheduler/internal/queue"
)

func TestDecorateOrdering(t *testing.T) {
	cfg := queue.Config{
		Kind:   "internal",
		Inline: map[string]interface{}{"cmd": "noop"},
		Options: map[string]interface{}{
			initAfterKey:       []Hook{{Name: "user_init"}},
			terminateBeforeKey: []Hook{{Name: "user_terminate"}},
		},
	}

	out := Decorate("A", cfg)

	initHooks := out.Options[initAfterKey].([]Hook)
	if initHooks[0].Name != "init_after" {
		t.Fatalf("expected the coordinator's init-after hook to run first, got %+v", initHooks)
	}

	termHooks := out.Options[terminateBeforeKey].([]Hook)
	if termHooks[len(termHooks)-1].Name != "terminate_before" {
		t.Fatalf("expected the coordinator's terminate-before hook to run last, got %+v", termHooks)
	}
}

func TestCorrelationKeyStable(t *testing.T) {
	cfg := queue.Config{Kind: "internal", Inline: map[string]interface{}{"cmd": "noop"}}

	k1, err := CorrelationKey("A", cfg)
	if err != nil {
		t.Fatal(err)
	}
	k2, err := CorrelationKey("A", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if k1 != k2 {
		t.Fatalf("expected a stable correlation key, got %d and %d", k1, k2)
	}

	k3, err := CorrelationKey("B", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if k3 == k1 {
		t.Fatal("expected different queue names to produce different correlation keys")
	}
}
