package scheduler

import "context"

// TaskID identifies a task within one scheduling run.
// IDs are dense, zero-based, and equal to the task's position in the
// batch handed to BuildGraph. They are assigned by the builder and are
// only meaningful for the graph that assigned them.
type TaskID int

// Runnable is the unit of work a task carries. The scheduler never
// invokes it; it only decides when invoking it is safe.
type Runnable interface {
	Run(ctx context.Context) (string, error)
}

// RunnableFunc adapts a plain function to the Runnable interface.
type RunnableFunc func(ctx context.Context) (string, error)

func (f RunnableFunc) Run(ctx context.Context) (string, error) { return f(ctx) }

// Task is a unit of work with declared resource footprints.
// Reads and Writes are opaque tokens compared by exact match; Name is
// for diagnostics only.
type Task struct {
	Name   string
	Reads  []string
	Writes []string
	Work   Runnable
}

// NewTask creates a task. The task has no identity until it is handed
// to BuildGraph, which assigns IDs by position.
func NewTask(name string, reads, writes []string, work Runnable) *Task {
	return &Task{
		Name:   name,
		Reads:  reads,
		Writes: writes,
		Work:   work,
	}
}

// ConflictsWith reports whether two tasks cannot be reordered relative
// to each other: one reads what the other writes, or both write the
// same resource. Read-read overlap never conflicts. The predicate is
// symmetric: both read-vs-write directions are checked in one call.
func (t *Task) ConflictsWith(other *Task) bool {
	for _, r := range t.Reads {
		if contains(other.Writes, r) {
			return true
		}
	}
	for _, w := range t.Writes {
		if contains(other.Reads, w) || contains(other.Writes, w) {
			return true
		}
	}
	return false
}

func contains(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}
