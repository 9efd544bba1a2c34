package scheduler

import (
	"errors"
	"strings"
	"testing"
)

func TestExecutionLevels(t *testing.T) {
	tests := []struct {
		name  string
		tasks []*Task
		want  [][]TaskID
	}{
		{
			name: "independent writers then reader",
			tasks: []*Task{
				NewTask("A", nil, []string{"x"}, nil),
				NewTask("B", nil, []string{"y"}, nil),
				NewTask("C", []string{"x"}, []string{"z"}, nil),
			},
			want: [][]TaskID{{0, 1}, {2}},
		},
		{
			name: "write-write pair serializes",
			tasks: []*Task{
				NewTask("A", nil, []string{"acct1"}, nil),
				NewTask("B", nil, []string{"acct1"}, nil),
			},
			want: [][]TaskID{{0}, {1}},
		},
		{
			name: "fully disjoint batch is one level",
			tasks: []*Task{
				NewTask("A", []string{"a"}, []string{"b"}, nil),
				NewTask("B", []string{"c"}, []string{"d"}, nil),
				NewTask("C", []string{"e"}, []string{"f"}, nil),
			},
			want: [][]TaskID{{0, 1, 2}},
		},
		{
			name: "deep chain gives one task per level",
			tasks: []*Task{
				NewTask("A", nil, []string{"x"}, nil),
				NewTask("B", []string{"x"}, []string{"y"}, nil),
				NewTask("C", []string{"y"}, []string{"z"}, nil),
			},
			want: [][]TaskID{{0}, {1}, {2}},
		},
		{
			name: "late task joins earliest possible level",
			tasks: []*Task{
				NewTask("A", nil, []string{"x"}, nil),
				NewTask("B", []string{"x"}, nil, nil),
				NewTask("C", nil, []string{"unrelated"}, nil),
			},
			// C has no conflicts, so greedy placement puts it in
			// level 0 next to A despite its later position.
			want: [][]TaskID{{0, 2}, {1}},
		},
		{
			name:  "empty batch",
			tasks: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph, err := BuildGraph(tt.tasks)
			if err != nil {
				t.Fatalf("BuildGraph() error = %v", err)
			}

			levels, err := graph.ExecutionLevels()
			if err != nil {
				t.Fatalf("ExecutionLevels() error = %v", err)
			}

			if len(levels) != len(tt.want) {
				t.Fatalf("got %d levels %v, want %d levels %v", len(levels), levels, len(tt.want), tt.want)
			}
			for i := range tt.want {
				if len(levels[i]) != len(tt.want[i]) {
					t.Fatalf("level %d = %v, want %v", i, levels[i], tt.want[i])
				}
				for j := range tt.want[i] {
					if levels[i][j] != tt.want[i][j] {
						t.Errorf("level %d = %v, want %v", i, levels[i], tt.want[i])
						break
					}
				}
			}
		})
	}
}

// TestLevelingSoundnessAndCompleteness checks the structural
// invariants on a batch with mixed conflict shapes: every task appears
// in exactly one level, and every dependency lands strictly earlier.
func TestLevelingSoundnessAndCompleteness(t *testing.T) {
	tasks := []*Task{
		NewTask("t0", nil, []string{"a"}, nil),
		NewTask("t1", []string{"a"}, []string{"b"}, nil),
		NewTask("t2", nil, []string{"c"}, nil),
		NewTask("t3", []string{"b", "c"}, []string{"d"}, nil),
		NewTask("t4", nil, []string{"e"}, nil),
		NewTask("t5", []string{"d"}, []string{"a"}, nil),
	}

	graph, err := BuildGraph(tasks)
	if err != nil {
		t.Fatalf("BuildGraph() error = %v", err)
	}
	levels, err := graph.ExecutionLevels()
	if err != nil {
		t.Fatalf("ExecutionLevels() error = %v", err)
	}

	levelOf := make(map[TaskID]int)
	for n, level := range levels {
		for _, id := range level {
			if prev, seen := levelOf[id]; seen {
				t.Fatalf("task %d appears in levels %d and %d", id, prev, n)
			}
			levelOf[id] = n
		}
	}

	if len(levelOf) != len(tasks) {
		t.Fatalf("levels cover %d tasks, want %d", len(levelOf), len(tasks))
	}

	for i := range tasks {
		id := TaskID(i)
		for _, dep := range graph.Dependencies(id) {
			if levelOf[dep] >= levelOf[id] {
				t.Errorf("task %d in level %d, but its dependency %d is in level %d", id, levelOf[id], dep, levelOf[dep])
			}
		}
	}

	// Tasks within a level must be pairwise non-conflicting; that is
	// what licenses running them concurrently.
	for n, level := range levels {
		for i := 0; i < len(level); i++ {
			for j := i + 1; j < len(level); j++ {
				a, _ := graph.Task(level[i])
				b, _ := graph.Task(level[j])
				if a.ConflictsWith(b) {
					t.Errorf("level %d holds conflicting tasks %s and %s", n, a.Name, b.Name)
				}
			}
		}
	}
}

// TestExecutionLevelsCycle injects a malformed dependency map directly
// (BuildGraph cannot produce one) and expects a typed error, not a
// panic or an endless loop.
func TestExecutionLevelsCycle(t *testing.T) {
	graph := &DependencyGraph{
		tasks: []*Task{
			NewTask("A", nil, nil, nil),
			NewTask("B", nil, nil, nil),
			NewTask("C", nil, nil, nil),
		},
		deps: map[TaskID]map[TaskID]struct{}{
			0: {},
			1: {2: {}}, // B waits on C, C waits on B
			2: {1: {}},
		},
	}

	levels, err := graph.ExecutionLevels()
	if err == nil {
		t.Fatalf("expected cycle error, got levels %v", levels)
	}

	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("error %v is not a *CycleError", err)
	}
	if len(cycleErr.Stuck) != 2 || cycleErr.Stuck[0] != 1 || cycleErr.Stuck[1] != 2 {
		t.Errorf("Stuck = %v, want [1 2]", cycleErr.Stuck)
	}

	// Order must refuse the same graph rather than invent a schedule.
	if _, err := graph.Order(); err == nil {
		t.Error("Order() accepted a cyclic dependency map")
	}
}

func TestDescribe(t *testing.T) {
	graph, err := BuildGraph([]*Task{
		NewTask("credit", nil, []string{"acct1"}, nil),
		NewTask("audit", []string{"acct1"}, nil, nil),
	})
	if err != nil {
		t.Fatalf("BuildGraph() error = %v", err)
	}

	report, err := graph.Describe()
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}

	for _, want := range []string{
		"credit: no dependencies",
		"audit: depends on credit",
		"level 0: credit",
		"level 1: audit",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}
