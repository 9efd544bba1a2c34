package scheduler

import (
	"fmt"
	"sort"
)

// CycleError reports that leveling could not make progress: tasks
// remain but none has all of its dependencies satisfied. Graphs built
// by BuildGraph cannot cycle, so this signals a corrupted or
// hand-injected dependency map, not a normal scheduling outcome.
type CycleError struct {
	Stuck []TaskID // tasks that could not be placed, ascending
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %d task(s) stuck: %v", len(e.Stuck), e.Stuck)
}

// ExecutionLevels groups tasks into ordered batches. Tasks within one
// level are pairwise non-conflicting and safe to run concurrently;
// every dependency of a task lies in a strictly earlier level. Each
// task lands in the earliest level whose predecessors satisfy its
// dependencies (greedy placement), so the result is deterministic for
// a given batch.
//
// Level contents are emitted in ascending ID order purely for
// reproducible output; callers may execute a level in any order.
func (g *DependencyGraph) ExecutionLevels() ([][]TaskID, error) {
	remaining := make(map[TaskID]struct{}, len(g.tasks))
	completed := make(map[TaskID]struct{}, len(g.tasks))
	for i := range g.tasks {
		remaining[TaskID(i)] = struct{}{}
	}

	var levels [][]TaskID
	for len(remaining) > 0 {
		var level []TaskID

		// Scan in ID order so level contents come out stable.
		for i := range g.tasks {
			id := TaskID(i)
			if _, ok := remaining[id]; !ok {
				continue
			}
			ready := true
			for dep := range g.deps[id] {
				if _, ok := completed[dep]; !ok {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, id)
			}
		}

		if len(level) == 0 {
			stuck := make([]TaskID, 0, len(remaining))
			for id := range remaining {
				stuck = append(stuck, id)
			}
			sort.Slice(stuck, func(i, j int) bool { return stuck[i] < stuck[j] })
			return nil, &CycleError{Stuck: stuck}
		}

		for _, id := range level {
			delete(remaining, id)
			completed[id] = struct{}{}
		}
		levels = append(levels, level)
	}

	return levels, nil
}
