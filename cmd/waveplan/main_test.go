package main

import (
	"context"
	"testing"

	"github.com/akarag/waveplan/internal/runner"
	"github.com/akarag/waveplan/internal/scheduler"
)

// TestDemoBatchSchedulesAsExpected runs the built-in demo batch end to
// end: the two account writers share level 0, the statement follows
// its account, and the audit comes last.
func TestDemoBatchSchedulesAsExpected(t *testing.T) {
	b, err := loadBatch("", nil)
	if err != nil {
		t.Fatalf("loadBatch() error = %v", err)
	}

	graph, err := scheduler.BuildGraph(b.Tasks)
	if err != nil {
		t.Fatalf("BuildGraph() error = %v", err)
	}

	levels, err := graph.ExecutionLevels()
	if err != nil {
		t.Fatalf("ExecutionLevels() error = %v", err)
	}

	want := [][]scheduler.TaskID{{0, 1}, {2}, {3}}
	if len(levels) != len(want) {
		t.Fatalf("got %d levels %v, want %v", len(levels), levels, want)
	}
	for i := range want {
		if len(levels[i]) != len(want[i]) {
			t.Fatalf("level %d = %v, want %v", i, levels[i], want[i])
		}
	}

	r := runner.New(runner.Config{Concurrency: 2}, graph)
	results, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, res := range results {
		if res.Err != nil {
			t.Errorf("demo task %q failed: %v", res.Name, res.Err)
		}
	}
}
