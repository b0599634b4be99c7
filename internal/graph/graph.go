// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package graph

// This file implements the Dependency Graph (C1): a static precedence
// relation between queue names, built once at startup and queried on
// every attempt to start or resume a queue. Construction validates every
// name up front and rejects the whole graph on the first cycle found.

import (
	"sort"
	"strings"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
)

// Pair is one (name, [dependency_name...]) declaration as accepted by New.
type Pair struct {
	Name         string
	Dependencies []string
}

// Graph is the acyclic precedence relation over queue names: Graph.forward[q]
// lists the queues q depends on, Graph.reverse[d] lists the queues that
// depend on d.
type Graph struct {
	forward map[string][]string
	reverse map[string][]string
}

func validateName(name string) (err kv.Error) {
	if len(name) == 0 {
		return kv.NewError("queue name must not be empty").With("stack", stack.Trace().TrimRuntime())
	}
	if strings.ContainsAny(name, "*?") {
		return kv.NewError("queue name must not be a wildcard pattern").With("stack", stack.Trace().TrimRuntime()).With("name", name)
	}
	return nil
}

// New builds a Graph from a list of (name, dependencies) pairs, validates
// every name, and rejects the input outright if its transitive closure
// contains a cycle.
func New(pairs []Pair) (g *Graph, err kv.Error) {
	g = &Graph{
		forward: make(map[string][]string, len(pairs)),
		reverse: make(map[string][]string, len(pairs)),
	}

	for _, p := range pairs {
		if err = validateName(p.Name); err != nil {
			return nil, err
		}
		for _, d := range p.Dependencies {
			if err = validateName(d); err != nil {
				return nil, err
			}
		}
		g.forward[p.Name] = append(g.forward[p.Name], p.Dependencies...)
		for _, d := range p.Dependencies {
			g.reverse[d] = append(g.reverse[d], p.Name)
		}
	}

	if cyc := g.findCycle(); len(cyc) != 0 {
		return nil, kv.NewError("dependency graph contains a cycle").With("stack", stack.Trace().TrimRuntime()).With("cycle", strings.Join(cyc, "->"))
	}

	return g, nil
}

// findCycle runs a DFS from every declared name through the forward index
// and returns the first back-edge path found, or nil if the graph is
// acyclic.
func (g *Graph) findCycle() (cycle []string) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(g.forward))
	path := make([]string, 0, len(g.forward))

	var visit func(name string) []string
	visit = func(name string) []string {
		switch state[name] {
		case done:
			return nil
		case visiting:
			// Found the back-edge; return the cycle slice from its start.
			for i, n := range path {
				if n == name {
					return append(append([]string{}, path[i:]...), name)
				}
			}
			return append(append([]string{}, path...), name)
		}

		state[name] = visiting
		path = append(path, name)
		for _, dep := range g.forward[name] {
			if c := visit(dep); len(c) != 0 {
				return c
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	names := make([]string, 0, len(g.forward))
	for name := range g.forward {
		names = append(names, name)
	}
	// Deterministic traversal order keeps cycle-rejection messages stable
	// across runs even though map iteration order is not.
	sort.Strings(names)

	for _, name := range names {
		if state[name] == unvisited {
			if c := visit(name); len(c) != 0 {
				return c
			}
		}
	}
	return nil
}

// Dependencies returns the queues that q depends on, or nil if q has no
// declared dependencies.
func (g *Graph) Dependencies(q string) []string {
	return g.forward[q]
}

// Dependants returns the queues that declare q as a dependency (§4.1
// dependants_of).
func (g *Graph) Dependants(q string) []string {
	return g.reverse[q]
}

// IsSuspendedByDeps reports whether q should be dependency-suspended given
// the current set of queues that have work, i.e. true iff any d in
// Dependencies(q) is present in hasWork (§4.1 is_suspended_by_deps).
func (g *Graph) IsSuspendedByDeps(q string, hasWork func(name string) bool) bool {
	for _, d := range g.forward[q] {
		if hasWork(d) {
			return true
		}
	}
	return false
}
