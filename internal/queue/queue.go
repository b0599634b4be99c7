// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package queue

// This file implements the Queue Table (C2): the per-queue-name FIFO of
// pending job configurations plus the per-queue execution state fields.
// All mutation is expected to go through the coordinator; this package
// only guarantees the invariants of the data structure itself
// (count == len(data), deep-copy on enqueue).

import (
	"sort"
	"time"

	"github.com/mitchellh/copystructure"
)

// Config is the opaque, adapter-understood job configuration. Kind
// distinguishes the two submission shapes the wire surface accepts;
// Options is the slot internal/decorate mutates to inject lifecycle
// hooks.
type Config struct {
	Kind    string // "internal" | "external"
	Inline  map[string]interface{}
	KV      []KeyValue
	Options map[string]interface{}
}

// KeyValue is one entry of the alternate key-value job configuration
// shape allowed alongside the inline struct shape.
type KeyValue struct {
	Key   string
	Value interface{}
}

// Clone deep-copies a Config so a caller's slice cannot alias (and later
// mutate) an entry once it is resident in a queue's FIFO.
func (c Config) Clone() Config {
	out := c
	out.Inline = deepCopyMap(c.Inline)
	out.Options = deepCopyMap(c.Options)
	if c.KV != nil {
		out.KV = append([]KeyValue{}, c.KV...)
	}
	return out
}

func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	copied, err := copystructure.Copy(m)
	if err != nil {
		// copystructure only fails on unsupported dynamic types; a config
		// built from TOML/JSON decoding never produces one, so fall back
		// to the original map rather than lose the enqueue.
		return m
	}
	return copied.(map[string]interface{})
}

// Entry is one live queue name's pending FIFO plus its execution state.
type Entry struct {
	Data             []Config
	ServiceID        string // empty means "absent"
	Suspended        bool
	TimeoutInit      time.Duration
	HasTimeoutInit   bool
	Terminate        bool
	TerminateTimerID uint64 // 0 means "absent"; owned by the coordinator's timer registry
	TerminatePurge   bool
}

// Count returns the number of pending (not-yet-started) configurations.
// It is always len(Data) by construction; there is deliberately no
// independent counter to desynchronize from the FIFO.
func (e *Entry) Count() int {
	return len(e.Data)
}

// HasService reports whether a job is currently believed to be running
// for this queue.
func (e *Entry) HasService() bool {
	return len(e.ServiceID) != 0
}

// PushBack appends a config to the pending FIFO, deep-copying it first.
func (e *Entry) PushBack(cfg Config) {
	e.Data = append(e.Data, cfg.Clone())
}

// PopFront removes and returns the front of the pending FIFO.
func (e *Entry) PopFront() (cfg Config, ok bool) {
	if len(e.Data) == 0 {
		return Config{}, false
	}
	cfg = e.Data[0]
	e.Data = e.Data[1:]
	return cfg, true
}

// Table is the keyed map of live queue names to their Entry. Construct
// it with NewTable; Put on a zero Table panics, as its map is nil.
type Table struct {
	entries map[string]*Entry
}

// NewTable returns an empty queue table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*Entry)}
}

// Get returns the entry for name, or nil if name has no live queue.
func (t *Table) Get(name string) *Entry {
	return t.entries[name]
}

// Put installs (or replaces) the entry for name.
func (t *Table) Put(name string, e *Entry) {
	t.entries[name] = e
}

// Has reports whether name has a live queue entry, the predicate the
// Dependency Graph's is_suspended_by_deps query needs.
func (t *Table) Has(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// Erase removes name from the table. It is a no-op if name is already
// absent.
func (t *Table) Erase(name string) {
	delete(t.entries, name)
}

// Count returns the number of live queue entries.
func (t *Table) Count() int {
	return len(t.entries)
}

// Names returns the live queue names in sorted order, for deterministic
// iteration.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for n := range t.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
