// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/leaf-ai/batch-scheduler/internal/logger"
	"github.com/leaf-ai/batch-scheduler/internal/queue"
)

func TestProcessRuntimeLifecycle(t *testing.T) {
	p := NewProcessRuntime(logger.New("process_test"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := queue.Config{Kind: "internal", Inline: map[string]interface{}{"cmd": "sleep", "args": []string{"5"}}}

	id, err := p.Add(ctx, "A", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(id) == 0 {
		t.Fatal("expected a non-empty runtime id")
	}

	if alive, err := p.Subscriptions(ctx, id); err != nil || !alive {
		t.Fatalf("expected job to be alive right after start, alive=%v err=%v", alive, err)
	}

	if err := p.Remove(ctx, id); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Subscriptions(ctx, id); !IsServiceNotFound(err) {
		t.Fatalf("expected service_not_found after remove, got %v", err)
	}
}

func TestProcessRuntimeMissingCmd(t *testing.T) {
	p := NewProcessRuntime(logger.New("process_test"))
	ctx := context.Background()

	if _, err := p.Add(ctx, "A", queue.Config{}); err == nil {
		t.Fatal("expected an error for a config with no cmd")
	}
}
