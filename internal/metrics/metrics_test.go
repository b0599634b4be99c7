// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gaugeValue(t *testing.T, g *prometheus.GaugeVec, labels prometheus.Labels) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.With(labels).Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c *prometheus.CounterVec, labels prometheus.Labels) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.With(labels).Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestObserveStartAndErase(t *testing.T) {
	m := NewUnregistered("host-a")

	m.ObserveStart("q1")
	if got := counterValue(t, m.jobsStarted, prometheus.Labels{"host": "host-a", "queue": "q1"}); got != 1 {
		t.Fatalf("jobsStarted = %v, want 1", got)
	}
	if got := gaugeValue(t, m.jobsRunning, prometheus.Labels{"host": "host-a", "queue": "q1"}); got != 1 {
		t.Fatalf("jobsRunning = %v, want 1", got)
	}

	m.ObserveErase("q1")
	if got := gaugeValue(t, m.jobsRunning, prometheus.Labels{"host": "host-a", "queue": "q1"}); got != 0 {
		t.Fatalf("jobsRunning after erase = %v, want 0", got)
	}
	if got := counterValue(t, m.queuesErased, prometheus.Labels{"host": "host-a", "queue": "q1"}); got != 1 {
		t.Fatalf("queuesErased = %v, want 1", got)
	}
}

func TestObserveDepthAndPurge(t *testing.T) {
	m := NewUnregistered("host-b")

	m.ObserveDepth("q2", 3)
	if got := gaugeValue(t, m.queueDepth, prometheus.Labels{"host": "host-b", "queue": "q2"}); got != 3 {
		t.Fatalf("queueDepth = %v, want 3", got)
	}

	m.ObservePurge("q2")
	if got := counterValue(t, m.purges, prometheus.Labels{"host": "host-b", "queue": "q2"}); got != 1 {
		t.Fatalf("purges = %v, want 1", got)
	}
}

func TestObserveSuspend(t *testing.T) {
	m := NewUnregistered("host-c")

	m.ObserveSuspend("q3", false)
	m.ObserveSuspend("q3", true)

	if got := counterValue(t, m.suspensions, prometheus.Labels{"host": "host-c", "queue": "q3", "action": "suspend"}); got != 1 {
		t.Fatalf("suspend count = %v, want 1", got)
	}
	if got := counterValue(t, m.suspensions, prometheus.Labels{"host": "host-c", "queue": "q3", "action": "resume"}); got != 1 {
		t.Fatalf("resume count = %v, want 1", got)
	}
}
