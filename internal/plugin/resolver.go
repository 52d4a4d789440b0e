// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package plugin

import (
	"sort"

	"github.com/samber/oops"
)

// Resolve orders a descriptor set (already filtered to enabled plugins)
// so that every plugin's dependencies appear before it. Among the
// plugins whose dependencies are already satisfied, the next to load is
// always the one with the lowest priority, then lowest id: a plugin's
// own high priority never drags its dependencies ahead of unrelated
// lower-priority plugins. Resolution is all-or-nothing: a missing or
// circular dependency fails before any plugin loads and no partial
// order is returned.
func Resolve(descriptors map[string]Descriptor) ([]string, error) {
	// Validate references first so failure is reported deterministically
	// rather than discovered mid-traversal.
	for _, id := range sortedIDs(descriptors) {
		for _, dep := range descriptors[id].Dependencies {
			if _, ok := descriptors[dep]; !ok {
				return nil, oops.Code("MISSING_DEPENDENCY").
					With("plugin", id).
					With("dependency", dep).
					Errorf("plugin %q depends on %q, which is not in the descriptor set", id, dep)
			}
		}
	}

	pending := make(map[string]int, len(descriptors))
	dependents := make(map[string][]string, len(descriptors))
	for id, d := range descriptors {
		deps := make(map[string]struct{}, len(d.Dependencies))
		for _, dep := range d.Dependencies {
			// Duplicate dependency entries count once.
			deps[dep] = struct{}{}
		}
		pending[id] = len(deps)
		for dep := range deps {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []string
	for id, n := range pending {
		if n == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]string, 0, len(descriptors))
	for len(ready) > 0 {
		sortByPriority(ready, descriptors)
		next := ready[0]
		ready = ready[1:]

		order = append(order, next)
		for _, dependent := range dependents[next] {
			pending[dependent]--
			if pending[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) < len(descriptors) {
		node := cycleNode(descriptors, order)
		return nil, oops.Code("CIRCULAR_DEPENDENCY").
			With("plugin", node).
			Errorf("circular dependency involving plugin %q", node)
	}
	return order, nil
}

// cycleNode names one plugin on a dependency cycle: starting from any
// unordered node, following unordered dependencies must revisit a node.
func cycleNode(descriptors map[string]Descriptor, order []string) string {
	ordered := make(map[string]struct{}, len(order))
	for _, id := range order {
		ordered[id] = struct{}{}
	}

	var start string
	for _, id := range sortedIDs(descriptors) {
		if _, ok := ordered[id]; !ok {
			start = id
			break
		}
	}

	seen := make(map[string]struct{})
	id := start
	for {
		if _, ok := seen[id]; ok {
			return id
		}
		seen[id] = struct{}{}
		for _, dep := range descriptors[id].Dependencies {
			if _, done := ordered[dep]; !done {
				id = dep
				break
			}
		}
	}
}

// sortByPriority orders ids by ascending priority, then id. This fixes
// the selection order that makes tie-breaking deterministic.
func sortByPriority(ids []string, descriptors map[string]Descriptor) {
	sort.SliceStable(ids, func(i, j int) bool {
		pi, pj := descriptors[ids[i]].Priority, descriptors[ids[j]].Priority
		if pi != pj {
			return pi < pj
		}
		return ids[i] < ids[j]
	})
}

func sortedIDs(descriptors map[string]Descriptor) []string {
	ids := make([]string, 0, len(descriptors))
	for id := range descriptors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
