// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

// Package coordinator implements the Coordinator (C5): the single-owner
// state machine that serializes every command and lifecycle event
// against the Dependency Graph (C1) and Queue Table (C2), driving the
// Runtime Adapter (C3) and deciding purge vs. advance.
//
// The coordinator is realized as a dedicated goroutine servicing one
// input channel: every command and lifecycle event feeds the same
// channel, so nothing outside this package ever touches queue state
// concurrently with it.
package coordinator

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lthibault/jitterbug"

	"github.com/leaf-ai/batch-scheduler/internal/adapter"
	"github.com/leaf-ai/batch-scheduler/internal/graph"
	"github.com/leaf-ai/batch-scheduler/internal/logger"
	"github.com/leaf-ai/batch-scheduler/internal/metrics"
	"github.com/leaf-ai/batch-scheduler/internal/queue"
)

// terminateTickJitter is the standard deviation of the normal jitter
// applied to the 500ms terminate re-check tick, so many queues
// terminating at once don't all probe the runtime adapter in the same
// instant.
const terminateTickJitter = 25 * time.Millisecond

// terminateDelta is the Δ added to a terminate-before's reported budget.
const terminateDelta = 100 * time.Millisecond

const terminateStep = 500 * time.Millisecond

// Options are the coordinator's immutable per-process config flags.
type Options struct {
	PurgeOnError      bool
	SuspendDependants bool
	StopWhenDone      bool
}

// message is the unit of work the coordinator's loop executes; every
// command and lifecycle event implements it.
type message interface {
	apply(c *Coordinator)
}

type timerHandle struct {
	stopC chan struct{}
}

// Coordinator is the C5 state machine. Construct with New and stop with
// Stop; all other interaction goes through the exported command methods
// and the lifecycle event methods.
type Coordinator struct {
	log     *logger.Logger
	runtime adapter.Runtime
	graph   *graph.Graph
	queues  *queue.Table
	opts    Options
	metrics *metrics.Metrics

	msgC  chan message
	doneC chan struct{}

	shutdownC    chan struct{}
	shutdownOnce sync.Once

	nextTimer uint64
	timers    map[uint64]*timerHandle
}

// New constructs a Coordinator over an already-validated Graph and starts
// its single-owner loop goroutine.
func New(g *graph.Graph, runtime adapter.Runtime, opts Options, log *logger.Logger, m *metrics.Metrics) *Coordinator {
	c := &Coordinator{
		log:       log,
		runtime:   runtime,
		graph:     g,
		queues:    queue.NewTable(),
		opts:      opts,
		metrics:   m,
		msgC:      make(chan message, 64),
		doneC:     make(chan struct{}),
		shutdownC: make(chan struct{}),
		timers:    make(map[uint64]*timerHandle),
	}
	go c.loop()
	return c
}

func (c *Coordinator) loop() {
	defer close(c.doneC)
	for msg := range c.msgC {
		msg.apply(c)
	}
}

// Stop closes the coordinator's input channel and waits for the loop to
// drain and exit. It does not attempt to terminate in-flight runtime
// jobs; callers that need a bounded graceful shutdown should use the
// stop_when_done signal (ShutdownC) together with their own deadline, the
// way cmd/scheduler's main does.
func (c *Coordinator) Stop() {
	close(c.msgC)
	<-c.doneC
	for _, h := range c.timers {
		close(h.stopC)
	}
}

// ShutdownC returns a channel that is closed once, the first time
// stop_when_done's condition (queue_count == 0 after a terminated event)
// is satisfied.
func (c *Coordinator) ShutdownC() <-chan struct{} {
	return c.shutdownC
}

func (c *Coordinator) signalShutdown() {
	if !c.opts.StopWhenDone {
		return
	}
	c.shutdownOnce.Do(func() { close(c.shutdownC) })
}

// requestID returns a fresh id for tagging a log line; services_add's
// start-failure warning is its only caller.
func requestID() string {
	return uuid.NewString()
}

func (c *Coordinator) scheduleTimer(queueName string, remaining time.Duration) uint64 {
	c.nextTimer++
	id := c.nextTimer
	h := &timerHandle{stopC: make(chan struct{})}
	c.timers[id] = h

	delay := terminateStep
	if remaining < delay {
		delay = remaining
	}

	ticker := jitterbug.New(delay, &jitterbug.Norm{Stdev: terminateTickJitter})
	go func() {
		defer ticker.Stop()
		select {
		case <-ticker.C:
			select {
			case c.msgC <- &terminateTickMsg{queue: queueName, timerID: id, remaining: remaining - delay}:
			case <-h.stopC:
			}
		case <-h.stopC:
		}
	}()

	return id
}

// cancelTimer asynchronously cancels e's pending terminate timer, if any.
// Cancellation is fire-and-forget: a tick may still be in flight on
// c.msgC when this returns, which is why every timer-tick handler
// re-validates terminate/queue-presence/timer-id before acting.
func (c *Coordinator) cancelTimer(e *queue.Entry) {
	if e.TerminateTimerID == 0 {
		return
	}
	if h, ok := c.timers[e.TerminateTimerID]; ok {
		close(h.stopC)
		delete(c.timers, e.TerminateTimerID)
	}
	e.TerminateTimerID = 0
}

func (c *Coordinator) hasWork(name string) bool {
	return c.queues.Has(name)
}

func (c *Coordinator) isSuspendedByDeps(name string) bool {
	return c.graph.IsSuspendedByDeps(name, c.hasWork)
}
