package scheduler

import (
	"fmt"
	"sort"

	"github.com/gammazero/toposort"
)

// DependencyGraph maps every task in a batch to the set of earlier
// tasks it must wait on. Built once per scheduling run; read-only
// afterward. A task only ever depends on tasks with a strictly smaller
// ID, so a graph built from a flat batch is acyclic by construction.
type DependencyGraph struct {
	tasks []*Task
	deps  map[TaskID]map[TaskID]struct{}
}

// BuildGraph assigns IDs 0..N-1 in batch order and records, for each
// task, every earlier task it conflicts with. The pairwise scan is
// quadratic; batch sizes are expected to be small to moderate.
// Nil entries in the batch are rejected.
func BuildGraph(tasks []*Task) (*DependencyGraph, error) {
	for i, t := range tasks {
		if t == nil {
			return nil, fmt.Errorf("task at position %d is nil", i)
		}
	}

	deps := make(map[TaskID]map[TaskID]struct{}, len(tasks))
	for i, task := range tasks {
		set := make(map[TaskID]struct{})
		for j, earlier := range tasks[:i] {
			if task.ConflictsWith(earlier) {
				set[TaskID(j)] = struct{}{}
			}
		}
		deps[TaskID(i)] = set
	}

	return &DependencyGraph{
		tasks: append([]*Task(nil), tasks...),
		deps:  deps,
	}, nil
}

// Len returns the number of tasks in the graph.
func (g *DependencyGraph) Len() int {
	return len(g.tasks)
}

// Task returns the task with the given ID.
func (g *DependencyGraph) Task(id TaskID) (*Task, bool) {
	if id < 0 || int(id) >= len(g.tasks) {
		return nil, false
	}
	return g.tasks[id], true
}

// Dependencies returns a sorted copy of the IDs the given task must
// wait on. The result is empty (not nil) for tasks with no conflicts.
func (g *DependencyGraph) Dependencies(id TaskID) []TaskID {
	set, ok := g.deps[id]
	if !ok {
		return nil
	}
	out := make([]TaskID, 0, len(set))
	for dep := range set {
		out = append(out, dep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Order returns a flat topological order of all task IDs, computed
// with gammazero/toposort. It is an alternative to ExecutionLevels for
// callers that want a serial schedule, and an independent acyclicity
// check on the dependency map.
func (g *DependencyGraph) Order() ([]TaskID, error) {
	var edges []toposort.Edge
	for id := range g.tasks {
		set := g.deps[TaskID(id)]
		if len(set) == 0 {
			// No dependencies - edge from nil keeps the task in the sort
			edges = append(edges, toposort.Edge{nil, TaskID(id)})
			continue
		}
		for dep := range set {
			edges = append(edges, toposort.Edge{dep, TaskID(id)})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("dependency map contains cycle: %w", err)
	}

	order := make([]TaskID, 0, len(g.tasks))
	for _, v := range sorted {
		if v != nil {
			order = append(order, v.(TaskID))
		}
	}
	if len(order) != len(g.tasks) {
		return nil, fmt.Errorf("topological sort lost tasks: got %d of %d", len(order), len(g.tasks))
	}
	return order, nil
}
