// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package adapter

// This file defines the Runtime Adapter contract (C3): the opaque
// capability the coordinator uses to add, remove, suspend, resume,
// restart and probe a job. It is deliberately narrow, with one sentinel
// error for the "no longer exists" case.

import (
	"context"

	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/batch-scheduler/internal/queue"
)

// ErrServiceNotFound is the one adapter error the coordinator treats
// specially: the runtime no longer has a record of the job id the
// coordinator asked about.
var ErrServiceNotFound = kv.NewError("service_not_found")

// IsServiceNotFound reports whether err's message is exactly that of
// ErrServiceNotFound. An error that wraps it with added context does not
// match.
func IsServiceNotFound(err kv.Error) bool {
	if err == nil {
		return false
	}
	return err.Error() == ErrServiceNotFound.Error()
}

// Runtime is the coordinator's view of the external service runtime.
// Every method is synchronous from the coordinator's perspective; the
// coordinator calls them from its single owner loop with an unbounded
// per-call deadline by design.
type Runtime interface {
	// Add starts one job from cfg and returns its runtime id.
	Add(ctx context.Context, queueName string, cfg queue.Config) (id string, err kv.Error)

	// Remove requests the job with id to stop.
	Remove(ctx context.Context, id string) (err kv.Error)

	// Suspend pauses the job with id.
	Suspend(ctx context.Context, id string) (err kv.Error)

	// Resume unpauses the job with id.
	Resume(ctx context.Context, id string) (err kv.Error)

	// Restart restarts the job with id in place.
	Restart(ctx context.Context, id string) (err kv.Error)

	// Subscriptions probes whether the job with id is still alive; it is
	// used only to detect a terminating job's disappearance.
	Subscriptions(ctx context.Context, id string) (alive bool, err kv.Error)
}
