// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package coordinator

// This file implements the coordinator's three lifecycle events:
// init-after, terminate-before, and the timer-driven terminate/terminated
// pair. Unlike the commands in commands.go these carry no response
// channel; they arrive asynchronously from the runtime adapter (C3) via
// the decorated hooks (C4) and are folded into the same single-owner
// channel so they interleave deterministically with commands for the
// same queue.

import (
	"context"
	"time"
)

// --- init-after ----------------------------------------------------------

type initAfterMsg struct {
	queue       string
	timeoutInit time.Duration
}

func (m *initAfterMsg) apply(c *Coordinator) {
	e := c.queues.Get(m.queue)
	if e == nil {
		return
	}
	c.cancelTimer(e)
	e.TimeoutInit = m.timeoutInit
	e.HasTimeoutInit = true
	e.Terminate = false
	c.queues.Put(m.queue, e)
}

// InitAfter records that queue's current job finished initialization
// after timeoutInit, cancelling any pending terminate timer left over
// from a prior run under the same queue name.
func (c *Coordinator) InitAfter(queueName string, timeoutInit time.Duration) {
	c.send(&initAfterMsg{queue: queueName, timeoutInit: timeoutInit})
}

// --- terminate-before ----------------------------------------------------

type terminateBeforeMsg struct {
	queue            string
	reason           interface{}
	timeoutTerminate time.Duration
}

func (m *terminateBeforeMsg) apply(c *Coordinator) {
	e := c.queues.Get(m.queue)
	if e == nil {
		return
	}

	if !isCleanReason(m.reason) && c.opts.PurgeOnError {
		e.TerminatePurge = true
	}

	if e.Terminate {
		// Already terminating; a repeated terminate-before (from an inner
		// user hook) only has a chance to raise the sticky purge flag.
		c.queues.Put(m.queue, e)
		return
	}

	e.Terminate = true

	budget := m.timeoutTerminate + e.TimeoutInit + terminateDelta
	if budget <= terminateStep {
		c.queues.Put(m.queue, e)
		c.handleTerminated(m.queue)
		return
	}

	e.TerminateTimerID = c.scheduleTimer(m.queue, budget)
	c.queues.Put(m.queue, e)
}

// TerminateBefore records that queue's current job is about to terminate
// for reason, with a runtime-reported termination budget of
// timeoutTerminate.
func (c *Coordinator) TerminateBefore(queueName string, reason interface{}, timeoutTerminate time.Duration) {
	c.send(&terminateBeforeMsg{queue: queueName, reason: reason, timeoutTerminate: timeoutTerminate})
}

// --- timer-driven terminate recheck ---------------------------------------

type terminateTickMsg struct {
	queue     string
	timerID   uint64
	remaining time.Duration
}

func (m *terminateTickMsg) apply(c *Coordinator) {
	e := c.queues.Get(m.queue)
	// All three checks must hold or this is a silent drop: the queue
	// must still exist, still be in the terminating window, and this
	// tick must be the one the entry is currently waiting on.
	if e == nil || !e.Terminate || e.TerminateTimerID != m.timerID {
		return
	}

	alive, err := c.runtime.Subscriptions(context.Background(), e.ServiceID)
	if err != nil || !alive {
		c.handleTerminated(m.queue)
		return
	}

	if m.remaining <= terminateStep {
		c.handleTerminated(m.queue)
		return
	}

	e.TerminateTimerID = c.scheduleTimer(m.queue, m.remaining)
	c.queues.Put(m.queue, e)
}

// handleTerminated decides the final disposition of a job that has
// fully disappeared: purge, erase, dependency-suspend, or advance to the
// next pending configuration.
func (c *Coordinator) handleTerminated(name string) {
	e := c.queues.Get(name)
	if e == nil || !e.Terminate {
		return
	}

	switch {
	case e.TerminatePurge:
		c.metrics.ObservePurge(name)
		c.eraseQueue(name)
	case e.Count() == 0:
		c.eraseQueue(name)
	case c.isSuspendedByDeps(name):
		e.ServiceID = ""
		e.Suspended = true
		e.Terminate = false
		e.TerminateTimerID = 0
		c.queues.Put(name, e)
	default:
		e.Terminate = false
		e.TerminateTimerID = 0
		c.advance(name, e)
	}

	c.checkStopWhenDone()
}

// checkStopWhenDone runs after processing a terminated event: if
// stop_when_done is set and the queue table has fully drained, the
// coordinator signals a clean shutdown.
func (c *Coordinator) checkStopWhenDone() {
	if c.queues.Count() != 0 {
		return
	}
	c.signalShutdown()
}
