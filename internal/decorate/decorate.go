// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package decorate

// This file implements Config Decoration (C4): before a job configuration
// is handed to the runtime adapter, the coordinator injects two lifecycle
// hooks into its options slot. Ordering matters: init-after
// hooks are prepended, terminate-before hooks are appended, so the
// coordinator's own view of a job's start/terminate always brackets any
// inner, user-supplied hook.

import (
	"github.com/karlmutch/hashstructure"

	"github.com/leaf-ai/batch-scheduler/internal/queue"
)

const (
	initAfterKey       = "init_after"
	terminateBeforeKey = "terminate_before"
)

// Hook is one entry of the options slot's hook lists.
type Hook struct {
	Name string      // identifies the hook to the runtime adapter
	Data interface{} // opaque payload the adapter passes back verbatim when it fires
}

// CorrelationKey derives a stable id for a decorated configuration from
// its queue name and payload: the same queue name and payload always
// hash to the same key. The coordinator does not call it; nothing in
// this module matches lifecycle events against it.
func CorrelationKey(queueName string, cfg queue.Config) (key uint64, err error) {
	return hashstructure.Hash(struct {
		Queue  string
		Kind   string
		Inline map[string]interface{}
		KV     []queue.KeyValue
	}{
		Queue:  queueName,
		Kind:   cfg.Kind,
		Inline: cfg.Inline,
		KV:     cfg.KV,
	}, nil)
}

// Decorate injects the init-after and terminate-before hooks into cfg's
// options slot for queueName and returns the decorated copy. cfg is not
// mutated in place.
func Decorate(queueName string, cfg queue.Config) queue.Config {
	out := cfg.Clone()
	if out.Options == nil {
		out.Options = map[string]interface{}{}
	}

	initHooks, _ := out.Options[initAfterKey].([]Hook)
	out.Options[initAfterKey] = prepend(initHooks, Hook{Name: "init_after", Data: queueName})

	termHooks, _ := out.Options[terminateBeforeKey].([]Hook)
	out.Options[terminateBeforeKey] = append(append([]Hook{}, termHooks...), Hook{Name: "terminate_before", Data: queueName})

	return out
}

func prepend(hooks []Hook, h Hook) []Hook {
	out := make([]Hook, 0, len(hooks)+1)
	out = append(out, h)
	return append(out, hooks...)
}
