// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package coordinator

import (
	"context"

	"github.com/leaf-ai/batch-scheduler/internal/decorate"
	"github.com/leaf-ai/batch-scheduler/internal/queue"
)

// advance dequeues e's next pending configuration for name and starts
// it. If nothing is pending it erases the queue instead.
func (c *Coordinator) advance(name string, e *queue.Entry) {
	cfg, ok := e.PopFront()
	if !ok {
		c.eraseQueue(name)
		return
	}

	decorated := decorate.Decorate(name, cfg)
	id, err := c.runtime.Add(context.Background(), name, decorated)
	if err != nil {
		c.log.Warn("advance failed to start next job; erasing queue", "queue", name, "error", err.Error())
		c.eraseQueue(name)
		return
	}

	e.ServiceID = id
	e.Suspended = false
	e.Terminate = false
	e.TerminateTimerID = 0
	c.queues.Put(name, e)
	c.metrics.ObserveStart(name)
	c.metrics.ObserveDepth(name, e.Count())
}

// eraseQueue removes name from the queue table and cascades a
// dependants-resume scan. A dependant that is dependency-suspended with
// a still-running job is resumed in place; one that is
// dependency-suspended with no running job is advanced from its pending
// FIFO.
func (c *Coordinator) eraseQueue(name string) {
	if e := c.queues.Get(name); e != nil {
		c.cancelTimer(e)
	}
	c.queues.Erase(name)
	c.metrics.ObserveErase(name)

	for _, d := range c.graph.Dependants(name) {
		e := c.queues.Get(d)
		if e == nil || !e.Suspended {
			continue
		}
		if c.isSuspendedByDeps(d) {
			continue
		}

		if e.HasService() {
			if err := c.runtime.Resume(context.Background(), e.ServiceID); err != nil {
				c.log.Warn("resume dependant failed", "queue", d, "error", err.Error())
			}
			e.Suspended = false
			c.queues.Put(d, e)
			c.metrics.ObserveSuspend(d, true)
			continue
		}

		c.advance(d, e)
	}
}

// suspendDependants pauses any currently-running dependant of name before
// name itself starts, when the suspend_dependants option is enabled.
func (c *Coordinator) suspendDependants(name string) {
	if !c.opts.SuspendDependants {
		return
	}
	for _, d := range c.graph.Dependants(name) {
		e := c.queues.Get(d)
		if e == nil || e.Suspended || !e.HasService() {
			continue
		}
		if err := c.runtime.Suspend(context.Background(), e.ServiceID); err != nil {
			c.log.Warn("suspend dependant failed", "queue", d, "error", err.Error())
		}
		e.Suspended = true
		c.queues.Put(d, e)
		c.metrics.ObserveSuspend(d, false)
	}
}
