// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package coordinator

import (
	"context"
	"sync"

	"github.com/jjeffery/kv" // MIT License
	"github.com/rs/xid"

	"github.com/leaf-ai/batch-scheduler/internal/adapter"
	"github.com/leaf-ai/batch-scheduler/internal/queue"
)

// fakeJob is one in-memory job tracked by fakeRuntime.
type fakeJob struct {
	queue     string
	cfg       queue.Config
	suspended bool
	removed   bool
}

// fakeRuntime is an in-process adapter.Runtime double: Add always
// succeeds unless the target queue name is listed in failAdd, Subscriptions
// reports a job alive until it has been Remove'd.
type fakeRuntime struct {
	mu      sync.Mutex
	jobs    map[string]*fakeJob
	failAdd map[string]bool

	addCalls     []string
	suspendCalls []string
	resumeCalls  []string
	restartCalls []string
	removeCalls  []string
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		jobs:    make(map[string]*fakeJob),
		failAdd: make(map[string]bool),
	}
}

func (r *fakeRuntime) Add(_ context.Context, queueName string, cfg queue.Config) (string, kv.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addCalls = append(r.addCalls, queueName)
	if r.failAdd[queueName] {
		return "", kv.NewError("fake add failure").With("queue", queueName)
	}
	id := xid.New().String()
	r.jobs[id] = &fakeJob{queue: queueName, cfg: cfg}
	return id, nil
}

func (r *fakeRuntime) Remove(_ context.Context, id string) kv.Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeCalls = append(r.removeCalls, id)
	j, ok := r.jobs[id]
	if !ok {
		return adapter.ErrServiceNotFound
	}
	j.removed = true
	return nil
}

func (r *fakeRuntime) Suspend(_ context.Context, id string) kv.Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suspendCalls = append(r.suspendCalls, id)
	j, ok := r.jobs[id]
	if !ok || j.removed {
		return adapter.ErrServiceNotFound
	}
	j.suspended = true
	return nil
}

func (r *fakeRuntime) Resume(_ context.Context, id string) kv.Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resumeCalls = append(r.resumeCalls, id)
	j, ok := r.jobs[id]
	if !ok || j.removed {
		return adapter.ErrServiceNotFound
	}
	j.suspended = false
	return nil
}

func (r *fakeRuntime) Restart(_ context.Context, id string) kv.Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restartCalls = append(r.restartCalls, id)
	j, ok := r.jobs[id]
	if !ok || j.removed {
		return adapter.ErrServiceNotFound
	}
	return nil
}

func (r *fakeRuntime) Subscriptions(_ context.Context, id string) (bool, kv.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.removed {
		return false, nil
	}
	return true, nil
}
