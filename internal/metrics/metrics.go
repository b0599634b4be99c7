// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

// Package metrics wires the Coordinator's observable state into
// prometheus as a host-labeled block of CounterVec/GaugeVec metrics, one
// set of labels per queue name.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics owns the registered vectors for one Coordinator. A nil
// *Metrics is not valid; use New, or NewUnregistered in tests that would
// otherwise collide on prometheus' default registry.
type Metrics struct {
	host string

	queueDepth   *prometheus.GaugeVec
	jobsRunning  *prometheus.GaugeVec
	jobsStarted  *prometheus.CounterVec
	queuesErased *prometheus.CounterVec
	purges       *prometheus.CounterVec
	suspensions  *prometheus.CounterVec
}

func newVectors() *Metrics {
	return &Metrics{
		queueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scheduler_queue_depth",
				Help: "Number of pending configurations held by a queue.",
			},
			[]string{"host", "queue"},
		),
		jobsRunning: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scheduler_jobs_running",
				Help: "1 while a queue has a runtime job associated with it, else 0.",
			},
			[]string{"host", "queue"},
		),
		jobsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_jobs_started",
				Help: "Number of jobs started by the coordinator for a queue.",
			},
			[]string{"host", "queue"},
		),
		queuesErased: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_queues_erased",
				Help: "Number of times a queue was erased from the queue table.",
			},
			[]string{"host", "queue"},
		),
		purges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_purges",
				Help: "Number of queues erased via the purge_on_error sticky flag.",
			},
			[]string{"host", "queue"},
		),
		suspensions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_dependant_suspensions",
				Help: "Number of times a dependant queue's running job was suspended or resumed.",
			},
			[]string{"host", "queue", "action"},
		),
	}
}

// New builds a Metrics and registers its vectors against the default
// prometheus registry.
func New(host string) *Metrics {
	m := newVectors()
	m.host = host
	prometheus.MustRegister(
		m.queueDepth,
		m.jobsRunning,
		m.jobsStarted,
		m.queuesErased,
		m.purges,
		m.suspensions,
	)
	return m
}

// NewUnregistered builds a Metrics whose vectors are never registered
// against the default registry, for use in tests that construct more
// than one Coordinator in a process.
func NewUnregistered(host string) *Metrics {
	m := newVectors()
	m.host = host
	return m
}

// ObserveStart records that queue has just had a job started for it.
func (m *Metrics) ObserveStart(queue string) {
	m.jobsStarted.With(prometheus.Labels{"host": m.host, "queue": queue}).Inc()
	m.jobsRunning.With(prometheus.Labels{"host": m.host, "queue": queue}).Set(1)
}

// ObserveErase records that queue has been erased from the queue table.
func (m *Metrics) ObserveErase(queue string) {
	m.queuesErased.With(prometheus.Labels{"host": m.host, "queue": queue}).Inc()
	m.jobsRunning.With(prometheus.Labels{"host": m.host, "queue": queue}).Set(0)
	m.queueDepth.With(prometheus.Labels{"host": m.host, "queue": queue}).Set(0)
}

// ObservePurge records that queue's erasure was caused by the sticky
// purge-on-error flag rather than draining normally.
func (m *Metrics) ObservePurge(queue string) {
	m.purges.With(prometheus.Labels{"host": m.host, "queue": queue}).Inc()
}

// ObserveDepth records the current pending-configuration count for queue.
func (m *Metrics) ObserveDepth(queue string, depth int) {
	m.queueDepth.With(prometheus.Labels{"host": m.host, "queue": queue}).Set(float64(depth))
}

// ObserveSuspend records a dependant queue's job being suspended or
// resumed by the coordinator's dependency cascade.
func (m *Metrics) ObserveSuspend(queue string, resumed bool) {
	action := "suspend"
	if resumed {
		action = "resume"
	}
	m.suspensions.With(prometheus.Labels{"host": m.host, "queue": queue, "action": action}).Inc()
}
