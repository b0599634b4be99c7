// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package graph

import "testing"

func TestNewAcyclic(t *testing.T) {
	g, err := New([]Pair{
		{Name: "B", Dependencies: []string{"A"}},
		{Name: "C", Dependencies: []string{"B"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if deps := g.Dependencies("B"); len(deps) != 1 || deps[0] != "A" {
		t.Fatalf("unexpected dependencies for B: %v", deps)
	}
	if dependants := g.Dependants("A"); len(dependants) != 1 || dependants[0] != "B" {
		t.Fatalf("unexpected dependants of A: %v", dependants)
	}
}

func TestNewRejectsSelfLoop(t *testing.T) {
	if _, err := New([]Pair{{Name: "A", Dependencies: []string{"A"}}}); err == nil {
		t.Fatal("expected a self-loop to be rejected")
	}
}

func TestNewRejectsTransitiveCycle(t *testing.T) {
	_, err := New([]Pair{
		{Name: "A", Dependencies: []string{"B"}},
		{Name: "B", Dependencies: []string{"C"}},
		{Name: "C", Dependencies: []string{"A"}},
	})
	if err == nil {
		t.Fatal("expected a transitive cycle to be rejected")
	}
}

func TestNewRejectsEmptyOrWildcardNames(t *testing.T) {
	cases := []Pair{
		{Name: ""},
		{Name: "ok", Dependencies: []string{"*"}},
		{Name: "ok", Dependencies: []string{"a?b"}},
	}
	for _, c := range cases {
		if _, err := New([]Pair{c}); err == nil {
			t.Fatalf("expected pair %+v to be rejected", c)
		}
	}
}

func TestIsSuspendedByDeps(t *testing.T) {
	g, err := New([]Pair{{Name: "B", Dependencies: []string{"A"}}})
	if err != nil {
		t.Fatal(err)
	}

	hasWork := map[string]bool{"A": true}
	if !g.IsSuspendedByDeps("B", func(n string) bool { return hasWork[n] }) {
		t.Fatal("expected B to be suspended while A has work")
	}

	delete(hasWork, "A")
	if g.IsSuspendedByDeps("B", func(n string) bool { return hasWork[n] }) {
		t.Fatal("expected B to no longer be suspended once A has no work")
	}
}
