// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package queue

import (
	"testing"

	"github.com/go-test/deep"
)

func TestEntryCountMatchesData(t *testing.T) {
	e := &Entry{}
	e.PushBack(Config{Inline: map[string]interface{}{"a": 1}})
	e.PushBack(Config{Inline: map[string]interface{}{"b": 2}})

	if e.Count() != len(e.Data) {
		t.Fatalf("count %d != len(data) %d", e.Count(), len(e.Data))
	}

	if _, ok := e.PopFront(); !ok {
		t.Fatal("expected a front entry")
	}
	if e.Count() != 1 {
		t.Fatalf("expected count 1 after pop, got %d", e.Count())
	}
}

func TestPushBackDeepCopies(t *testing.T) {
	src := map[string]interface{}{"key": "value"}
	e := &Entry{}
	e.PushBack(Config{Inline: src})

	src["key"] = "mutated"

	if e.Data[0].Inline["key"] != "value" {
		t.Fatalf("expected queued config to be insulated from caller mutation, got %v", e.Data[0].Inline["key"])
	}
}

func TestCloneProducesAnEquivalentButUnaliasedConfig(t *testing.T) {
	src := Config{
		Kind:   "internal",
		Inline: map[string]interface{}{"cmd": "true"},
		KV:     []KeyValue{{Key: "retries", Value: int64(3)}},
	}

	cloned := src.Clone()
	if diff := deep.Equal(src, cloned); diff != nil {
		t.Fatalf("Clone produced a non-equivalent copy: %v", diff)
	}

	cloned.Inline["cmd"] = "false"
	cloned.KV[0].Value = int64(5)
	if src.Inline["cmd"] != "true" {
		t.Fatalf("clone's Inline mutation leaked back into source, got %v", src.Inline["cmd"])
	}
	if src.KV[0].Value != int64(3) {
		t.Fatalf("clone's KV mutation leaked back into source, got %v", src.KV[0].Value)
	}
}

func TestTableEraseDecreasesCount(t *testing.T) {
	tbl := NewTable()
	tbl.Put("A", &Entry{})
	tbl.Put("B", &Entry{})

	before := tbl.Count()
	tbl.Erase("A")

	if tbl.Count() != before-1 {
		t.Fatalf("expected erase to strictly decrease queue_count: before=%d after=%d", before, tbl.Count())
	}
	if tbl.Has("A") {
		t.Fatal("expected A to be absent after erase")
	}
}
