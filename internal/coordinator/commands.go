// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package coordinator

// This file implements the seven synchronous commands a caller can issue
// against a live queue: each is a small message type carrying its own
// response channel, one handler per command kind.

import (
	"context"

	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/batch-scheduler/internal/adapter"
	"github.com/leaf-ai/batch-scheduler/internal/decorate"
	"github.com/leaf-ai/batch-scheduler/internal/queue"
)

func (c *Coordinator) send(m message) {
	c.msgC <- m
}

// --- queue_list -------------------------------------------------------

type queueListResult struct {
	configs []queue.Config
	err     kv.Error
}

type queueListMsg struct {
	name  string
	respC chan queueListResult
}

func (m *queueListMsg) apply(c *Coordinator) {
	e := c.queues.Get(m.name)
	if e == nil {
		m.respC <- queueListResult{err: ErrNotFound}
		return
	}
	m.respC <- queueListResult{configs: append([]queue.Config{}, e.Data...)}
}

// QueueList returns the queue's pending list, or ErrNotFound. It never
// mutates coordinator state.
func (c *Coordinator) QueueList(name string) ([]queue.Config, kv.Error) {
	respC := make(chan queueListResult, 1)
	c.send(&queueListMsg{name: name, respC: respC})
	res := <-respC
	return res.configs, res.err
}

// --- queue_clear -------------------------------------------------------

type simpleResult struct {
	err kv.Error
}

type queueClearMsg struct {
	name  string
	respC chan simpleResult
}

func (m *queueClearMsg) apply(c *Coordinator) {
	e := c.queues.Get(m.name)
	if e == nil {
		m.respC <- simpleResult{err: ErrNotFound}
		return
	}
	if e.HasService() {
		e.Data = nil
		c.queues.Put(m.name, e)
		m.respC <- simpleResult{}
		return
	}
	c.eraseQueue(m.name)
	m.respC <- simpleResult{}
}

// QueueClear drops a queue's pending entries if a job is running, or
// erases the queue entirely (and resumes dependants) otherwise.
func (c *Coordinator) QueueClear(name string) kv.Error {
	respC := make(chan simpleResult, 1)
	c.send(&queueClearMsg{name: name, respC: respC})
	return (<-respC).err
}

// --- queue_suspend / queue_resume --------------------------------------

type queuePauseMsg struct {
	name   string
	resume bool
	respC  chan simpleResult
}

func (m *queuePauseMsg) apply(c *Coordinator) {
	e := c.queues.Get(m.name)
	if e == nil {
		m.respC <- simpleResult{err: ErrNotFound}
		return
	}
	if !e.HasService() {
		m.respC <- simpleResult{err: ErrNotRunning}
		return
	}

	var err kv.Error
	if m.resume {
		err = c.runtime.Resume(context.Background(), e.ServiceID)
	} else {
		err = c.runtime.Suspend(context.Background(), e.ServiceID)
	}
	if adapter.IsServiceNotFound(err) {
		err = ErrNotRunning
	}
	// The dependency-suspension flag is reserved for dependency
	// suspension; a manual suspend/resume never touches it.
	m.respC <- simpleResult{err: err}
}

// QueueSuspend asks the runtime adapter to suspend the queue's running
// job, if any. It never changes the Suspended (dependency) flag.
func (c *Coordinator) QueueSuspend(name string) kv.Error {
	respC := make(chan simpleResult, 1)
	c.send(&queuePauseMsg{name: name, respC: respC})
	return (<-respC).err
}

// QueueResume is symmetric to QueueSuspend.
func (c *Coordinator) QueueResume(name string) kv.Error {
	respC := make(chan simpleResult, 1)
	c.send(&queuePauseMsg{name: name, resume: true, respC: respC})
	return (<-respC).err
}

// --- services_add -------------------------------------------------------

type servicesAddResult struct {
	pending int
	err     kv.Error
}

type servicesAddMsg struct {
	name  string
	cfgs  []queue.Config
	respC chan servicesAddResult
}

func (m *servicesAddMsg) apply(c *Coordinator) {
	if e := c.queues.Get(m.name); e != nil {
		for _, cfg := range m.cfgs {
			e.PushBack(cfg)
		}
		c.queues.Put(m.name, e)
		c.metrics.ObserveDepth(m.name, e.Count())
		m.respC <- servicesAddResult{pending: e.Count()}
		return
	}

	if c.isSuspendedByDeps(m.name) {
		e := &queue.Entry{Suspended: true}
		for _, cfg := range m.cfgs {
			e.PushBack(cfg)
		}
		c.queues.Put(m.name, e)
		c.metrics.ObserveDepth(m.name, e.Count())
		m.respC <- servicesAddResult{pending: e.Count()}
		return
	}

	c.suspendDependants(m.name)

	e := &queue.Entry{}
	for _, cfg := range m.cfgs {
		e.PushBack(cfg)
	}
	first, _ := e.PopFront()

	decorated := decorate.Decorate(m.name, first)
	id, err := c.runtime.Add(context.Background(), m.name, decorated)
	if err != nil {
		c.log.Warn("services_add failed to start first job", "request", requestID(), "queue", m.name, "error", err.Error())
		m.respC <- servicesAddResult{err: ErrPurged}
		return
	}

	e.ServiceID = id
	c.queues.Put(m.name, e)
	c.metrics.ObserveStart(m.name)
	c.metrics.ObserveDepth(m.name, e.Count())
	m.respC <- servicesAddResult{pending: e.Count()}
}

// ServicesAdd enqueues cfgs for name. It creates the queue if absent,
// starting the first configuration immediately unless
// dependency-suspended. On start failure for a new queue, it returns
// ErrPurged and does not create the queue.
func (c *Coordinator) ServicesAdd(name string, cfgs []queue.Config) (pending int, err kv.Error) {
	respC := make(chan servicesAddResult, 1)
	c.send(&servicesAddMsg{name: name, cfgs: cfgs, respC: respC})
	res := <-respC
	return res.pending, res.err
}

// --- services_remove -----------------------------------------------------

type servicesRemoveMsg struct {
	name  string
	respC chan simpleResult
}

func (m *servicesRemoveMsg) apply(c *Coordinator) {
	e := c.queues.Get(m.name)
	if e == nil {
		m.respC <- simpleResult{err: ErrNotFound}
		return
	}
	if e.HasService() {
		if err := c.runtime.Remove(context.Background(), e.ServiceID); err != nil && !adapter.IsServiceNotFound(err) {
			c.log.Warn("services_remove failed to stop running job", "queue", m.name, "error", err.Error())
		}
	}
	c.eraseQueue(m.name)
	m.respC <- simpleResult{}
}

// ServicesRemove stops the queue's running job (if any) and erases the
// queue, cascading a dependants-resume.
func (c *Coordinator) ServicesRemove(name string) kv.Error {
	respC := make(chan simpleResult, 1)
	c.send(&servicesRemoveMsg{name: name, respC: respC})
	return (<-respC).err
}

// --- queue_count -------------------------------------------------------

type queueCountMsg struct {
	respC chan int
}

func (m *queueCountMsg) apply(c *Coordinator) {
	m.respC <- c.queues.Count()
}

// QueueCount returns the number of live queue entries, used by a caller
// driving a bounded graceful shutdown to decide whether queues have
// drained.
func (c *Coordinator) QueueCount() int {
	respC := make(chan int, 1)
	c.send(&queueCountMsg{respC: respC})
	return <-respC
}

// --- services_restart -----------------------------------------------------

type servicesRestartMsg struct {
	name  string
	respC chan simpleResult
}

func (m *servicesRestartMsg) apply(c *Coordinator) {
	e := c.queues.Get(m.name)
	if e == nil {
		m.respC <- simpleResult{err: ErrNotFound}
		return
	}
	if !e.HasService() {
		m.respC <- simpleResult{err: ErrNotRunning}
		return
	}
	err := c.runtime.Restart(context.Background(), e.ServiceID)
	if adapter.IsServiceNotFound(err) {
		err = ErrNotRunning
	}
	m.respC <- simpleResult{err: err}
}

// ServicesRestart restarts the queue's running job by id, mapping a
// service_not_found adapter error to ErrNotRunning.
func (c *Coordinator) ServicesRestart(name string) kv.Error {
	respC := make(chan simpleResult, 1)
	c.send(&servicesRestartMsg{name: name, respC: respC})
	return (<-respC).err
}
